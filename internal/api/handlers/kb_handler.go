package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	middleware "github.com/studyowl/studyowl/internal/api/middlewares"
	"github.com/studyowl/studyowl/internal/chat"
	"github.com/studyowl/studyowl/internal/config"
	"github.com/studyowl/studyowl/internal/core"
	"github.com/studyowl/studyowl/internal/core/ingest"
)

const maxUploadBytes = 64 << 20 // whole multipart form

// KnowledgeBaseHandler lets educators feed course material into the index
// and tune the chat settings applied to new student sessions.
type KnowledgeBaseHandler struct {
	pipeline     *ingest.Pipeline
	objectclient core.ObjectClient
	sessions     *chat.SessionStore
	cfg          *config.Config
}

func NewKnowledgeBaseHandler(pipeline *ingest.Pipeline, objectclient core.ObjectClient, sessions *chat.SessionStore, cfg *config.Config) *KnowledgeBaseHandler {
	return &KnowledgeBaseHandler{pipeline: pipeline, objectclient: objectclient, sessions: sessions, cfg: cfg}
}

type fileOutcome struct {
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
	Error  string `json:"error,omitempty"`
}

type uploadResponse struct {
	Files  []fileOutcome `json:"files"`
	Failed int           `json:"failed"`
}

// Upload ingests every file in the multipart form under the "files" field.
// One bad file never blocks its siblings; the response reports each outcome.
func (h *KnowledgeBaseHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		http.Error(w, "no files uploaded", http.StatusBadRequest)
		return
	}

	files := make([]ingest.File, 0, len(headers))
	contentTypes := make([]string, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			http.Error(w, fmt.Sprintf("read %s: %v", header.Filename, err), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			http.Error(w, fmt.Sprintf("read %s: %v", header.Filename, err), http.StatusBadRequest)
			return
		}
		files = append(files, ingest.File{Name: filepath.Base(header.Filename), Data: data})
		ct := header.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}
		contentTypes = append(contentTypes, ct)
	}

	h.applyChatOptions(r)

	report := h.pipeline.IngestFiles(r.Context(), files)

	// Archive originals so the index can be rebuilt later. Failures here
	// don't fail the upload.
	if h.objectclient != nil {
		go h.archive(userID, files, contentTypes)
	}

	resp := uploadResponse{Failed: report.Failed()}
	for _, res := range report.Files {
		out := fileOutcome{Name: res.Name, Chunks: res.Chunks}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		resp.Files = append(resp.Files, out)
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Failed == len(resp.Files) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	json.NewEncoder(w).Encode(resp)
}

// applyChatOptions lets the educator tune new sessions from the same form:
// top_k, temperature, max_tokens, system_prompt. Absent or out-of-range
// fields keep the server defaults.
func (h *KnowledgeBaseHandler) applyChatOptions(r *http.Request) {
	defaults := chat.Options{
		TopK:         h.cfg.TopK,
		Temperature:  float32(h.cfg.Temperature),
		MaxTokens:    h.cfg.MaxTokens,
		SystemPrompt: h.cfg.SystemPrompt,
	}
	if opts, changed := chatOptionsFromForm(r, defaults); changed {
		h.sessions.SetOptions(opts)
	}
}

// chatOptionsFromForm parses the optional tuning fields. Temperature must be
// within [0, 1]; values outside are ignored like any other invalid field.
func chatOptionsFromForm(r *http.Request, defaults chat.Options) (chat.Options, bool) {
	opts := defaults
	changed := false
	if v := r.FormValue("top_k"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.TopK = n
			changed = true
		}
	}
	if v := r.FormValue("temperature"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil && f >= 0 && f <= 1 {
			opts.Temperature = float32(f)
			changed = true
		}
	}
	if v := r.FormValue("max_tokens"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.MaxTokens = n
			changed = true
		}
	}
	if v := r.FormValue("system_prompt"); v != "" {
		opts.SystemPrompt = v
		changed = true
	}
	return opts, changed
}

func (h *KnowledgeBaseHandler) archive(userID string, files []ingest.File, contentTypes []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for i, f := range files {
		key := fmt.Sprintf("%s/%s/%s", userID, uuid.NewString(), f.Name)
		if _, err := h.objectclient.UploadFile(ctx, h.cfg.BucketName, key, f.Data, contentTypes[i]); err != nil {
			log.Printf("kb: archive %s failed: %v", f.Name, err)
		}
	}
}
