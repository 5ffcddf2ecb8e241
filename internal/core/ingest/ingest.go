package ingest

import (
	"context"
	"log"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/studyowl/studyowl/internal/core"
	"github.com/studyowl/studyowl/internal/core/extract"
	"github.com/studyowl/studyowl/internal/core/splitter"
)

// File is one uploaded document: its original name (the extension drives
// format detection) and raw bytes.
type File struct {
	Name string
	Data []byte
}

// FileResult records the outcome for a single file. Err is nil on success;
// Chunks is how many chunks landed in the index.
type FileResult struct {
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
	Err    error  `json:"-"`
}

// Report summarizes one batch. A failed file never hides its siblings.
type Report struct {
	Files []FileResult `json:"files"`
}

// Failed returns how many files in the batch ended in error.
func (r Report) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Pipeline runs extract → split → embed → index for uploaded documents.
type Pipeline struct {
	embedder core.EmbeddingProvider
	index    core.VectorIndex
	split    *splitter.Splitter
	workers  int
}

// NewPipeline wires the ingestion stages. workers bounds how many files are
// processed concurrently; values below 1 mean serial processing.
func NewPipeline(emb core.EmbeddingProvider, idx core.VectorIndex, split *splitter.Splitter, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{embedder: emb, index: idx, split: split, workers: workers}
}

// IngestFiles processes every file in the batch and reports per-file
// outcomes. Files run concurrently but each one fails or succeeds on its
// own; the returned report keeps the input order.
func (p *Pipeline) IngestFiles(ctx context.Context, files []File) Report {
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			chunks, err := p.ingestOne(gctx, f)
			results[i] = FileResult{Name: f.Name, Chunks: chunks, Err: err}
			if err != nil {
				log.Printf("ingest: %s failed: %v", f.Name, err)
			} else {
				log.Printf("ingest: %s indexed in %d chunks", f.Name, chunks)
			}
			return nil
		})
	}
	_ = g.Wait()

	return Report{Files: results}
}

// ingestOne runs the full pipeline for a single file and returns the number
// of chunks that landed in the index.
func (p *Pipeline) ingestOne(ctx context.Context, f File) (int, error) {
	text, err := extract.Text(f.Name, f.Data)
	if err != nil {
		return 0, err
	}

	chunks := p.split.Split(text)
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := p.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return 0, err
	}

	records := make([]core.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = core.Record{
			ID:      uuid.NewString(),
			Content: chunk,
			Metadata: map[string]string{
				"filename": f.Name,
				"position": strconv.Itoa(i),
			},
			Embedding: vectors[i],
		}
	}

	return p.index.Upsert(ctx, records)
}
