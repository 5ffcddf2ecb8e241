package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/studyowl/studyowl/internal/core"
	"github.com/studyowl/studyowl/internal/core/splitter"
)

type mockEmbedder struct {
	embedFn func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return m.embedFn(ctx, texts)
}

type captureIndex struct {
	mu      sync.Mutex
	records []core.Record
}

func (c *captureIndex) Upsert(_ context.Context, records []core.Record) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, records...)
	return len(records), nil
}

func (c *captureIndex) Query(context.Context, []float32, int) ([]core.Match, error) {
	return nil, nil
}

func unitEmbedder() *mockEmbedder {
	return &mockEmbedder{embedFn: func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0, 0}
		}
		return out, nil
	}}
}

func TestIngestFilesIsolatesFailures(t *testing.T) {
	idx := &captureIndex{}
	p := NewPipeline(unitEmbedder(), idx, splitter.New(1000, 50), 2)

	files := []File{
		{Name: "notes.txt", Data: []byte("photosynthesis converts light to energy")},
		{Name: "slides.pptx", Data: []byte("binary junk")},
		{Name: "summary.md", Data: []byte("cells contain mitochondria")},
	}
	report := p.IngestFiles(context.Background(), files)

	if len(report.Files) != 3 {
		t.Fatalf("report covers %d files, want 3", len(report.Files))
	}
	if report.Failed() != 1 {
		t.Fatalf("failed count = %d, want 1", report.Failed())
	}

	var ufe *core.UnsupportedFormatError
	if !errors.As(report.Files[1].Err, &ufe) {
		t.Fatalf("slides.pptx error = %v, want *core.UnsupportedFormatError", report.Files[1].Err)
	}
	for _, i := range []int{0, 2} {
		if report.Files[i].Err != nil {
			t.Fatalf("%s failed unexpectedly: %v", report.Files[i].Name, report.Files[i].Err)
		}
		if report.Files[i].Chunks != 1 {
			t.Fatalf("%s indexed %d chunks, want 1", report.Files[i].Name, report.Files[i].Chunks)
		}
	}
	if len(idx.records) != 2 {
		t.Fatalf("index holds %d records, want 2", len(idx.records))
	}
}

func TestIngestChunkMetadata(t *testing.T) {
	idx := &captureIndex{}
	p := NewPipeline(unitEmbedder(), idx, splitter.New(40, 10), 1)

	text := strings.Repeat("the krebs cycle produces atp in cells. ", 6)
	report := p.IngestFiles(context.Background(), []File{{Name: "bio.txt", Data: []byte(text)}})

	res := report.Files[0]
	if res.Err != nil {
		t.Fatalf("ingest failed: %v", res.Err)
	}
	if res.Chunks < 2 {
		t.Fatalf("expected a multi-chunk split, got %d", res.Chunks)
	}
	if len(idx.records) != res.Chunks {
		t.Fatalf("index holds %d records, report says %d", len(idx.records), res.Chunks)
	}

	seen := make(map[string]bool)
	for _, rec := range idx.records {
		if rec.ID == "" {
			t.Fatal("record missing id")
		}
		if rec.Metadata["filename"] != "bio.txt" {
			t.Fatalf("filename metadata = %q", rec.Metadata["filename"])
		}
		seen[rec.Metadata["position"]] = true
	}
	for i := 0; i < res.Chunks; i++ {
		if !seen[strconv.Itoa(i)] {
			t.Fatalf("missing position %d in metadata", i)
		}
	}
}

func TestIngestEmptyFileYieldsNoChunks(t *testing.T) {
	idx := &captureIndex{}
	p := NewPipeline(unitEmbedder(), idx, splitter.New(1000, 50), 1)

	report := p.IngestFiles(context.Background(), []File{{Name: "empty.txt", Data: nil}})
	res := report.Files[0]
	if res.Err != nil {
		t.Fatalf("empty file should succeed, got %v", res.Err)
	}
	if res.Chunks != 0 || len(idx.records) != 0 {
		t.Fatalf("empty file produced %d chunks", res.Chunks)
	}
}

func TestIngestEmbedFailureDoesNotIndex(t *testing.T) {
	idx := &captureIndex{}
	emb := &mockEmbedder{embedFn: func(context.Context, []string) ([][]float32, error) {
		return nil, &core.EmbeddingServiceError{Err: fmt.Errorf("quota exceeded")}
	}}
	p := NewPipeline(emb, idx, splitter.New(1000, 50), 1)

	report := p.IngestFiles(context.Background(), []File{{Name: "a.txt", Data: []byte("some text")}})
	var ese *core.EmbeddingServiceError
	if !errors.As(report.Files[0].Err, &ese) {
		t.Fatalf("error = %v, want *core.EmbeddingServiceError", report.Files[0].Err)
	}
	if len(idx.records) != 0 {
		t.Fatal("records were indexed despite embed failure")
	}
}
