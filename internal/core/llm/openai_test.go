package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/api/googleapi"

	"github.com/studyowl/studyowl/internal/core"
)

func TestRetryDelayGrowsAndCaps(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 200 * time.Millisecond},
		{1, 400 * time.Millisecond},
		{2, 800 * time.Millisecond},
		{10, 5 * time.Second},
	}
	for _, tc := range cases {
		if got := retryDelay(tc.attempt); got != tc.want {
			t.Errorf("retryDelay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestRetryableClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &openai.Error{StatusCode: 429}, true},
		{"server error", &openai.Error{StatusCode: 503}, true},
		{"bad request", &openai.Error{StatusCode: 400}, false},
		{"gemini rate limited", &googleapi.Error{Code: 429}, true},
		{"gemini server error", &googleapi.Error{Code: 500}, true},
		{"gemini not found", &googleapi.Error{Code: 404}, false},
		{"network", fmt.Errorf("connection reset"), true},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := retryable(tc.err); got != tc.want {
				t.Errorf("retryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func embedServer(t *testing.T, calls *atomic.Int32, failFirst int32, failStatus int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= failFirst {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(failStatus)
			fmt.Fprint(w, `{"error":{"message":"try later","type":"server_error"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","model":"text-embedding-ada-002",`+
			`"data":[{"object":"embedding","index":0,"embedding":[0.1,0.2]}],`+
			`"usage":{"prompt_tokens":1,"total_tokens":1}}`)
	}))
}

func TestEmbedTextsRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := embedServer(t, &calls, 2, http.StatusTooManyRequests)
	defer srv.Close()

	emb, err := NewOpenAIEmbedder("test-key", "", 2,
		option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("new embedder: %v", err)
	}

	vecs, err := emb.EmbedTexts(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatalf("embed after transient failures: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("backend saw %d calls, want 3 (two failures then success)", got)
	}
	if len(vecs) != 1 || len(vecs[0]) != 2 {
		t.Fatalf("unexpected vectors: %v", vecs)
	}
}

func TestEmbedTextsExhaustionReturnsServiceError(t *testing.T) {
	var calls atomic.Int32
	srv := embedServer(t, &calls, 1<<30, http.StatusInternalServerError)
	defer srv.Close()

	emb, err := NewOpenAIEmbedder("test-key", "", 2,
		option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("new embedder: %v", err)
	}

	_, err = emb.EmbedTexts(context.Background(), []string{"hello"})
	var ese *core.EmbeddingServiceError
	if !errors.As(err, &ese) {
		t.Fatalf("error = %v, want *core.EmbeddingServiceError", err)
	}
	if got := calls.Load(); got != embedMaxRetries+1 {
		t.Fatalf("backend saw %d calls, want %d", got, embedMaxRetries+1)
	}
}

func TestEmbedTextsNonRetryableFailsFast(t *testing.T) {
	var calls atomic.Int32
	srv := embedServer(t, &calls, 1<<30, http.StatusBadRequest)
	defer srv.Close()

	emb, err := NewOpenAIEmbedder("test-key", "", 2,
		option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("new embedder: %v", err)
	}

	_, err = emb.EmbedTexts(context.Background(), []string{"hello"})
	var ese *core.EmbeddingServiceError
	if !errors.As(err, &ese) {
		t.Fatalf("error = %v, want *core.EmbeddingServiceError", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("backend saw %d calls, want 1", got)
	}
}
