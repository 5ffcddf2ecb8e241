package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/studyowl/studyowl/internal/core"
)

// MemoryIndex is a brute-force cosine-similarity index. It backs tests and
// local runs without Postgres; the contract matches PostgresIndex.
type MemoryIndex struct {
	mu      sync.RWMutex
	dim     int
	records []core.Record
	ids     map[string]struct{}
}

func NewMemoryIndex(dim int) *MemoryIndex {
	return &MemoryIndex{dim: dim, ids: make(map[string]struct{})}
}

func (x *MemoryIndex) Upsert(ctx context.Context, records []core.Record) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for i, rec := range records {
		if x.dim > 0 && len(rec.Embedding) != x.dim {
			return i, &core.VectorStoreError{
				Op:       "upsert",
				Inserted: i,
				Err:      fmt.Errorf("record %s: vector dimension %d, index requires %d", rec.ID, len(rec.Embedding), x.dim),
			}
		}
		if _, dup := x.ids[rec.ID]; dup {
			return i, &core.VectorStoreError{
				Op:       "upsert",
				Inserted: i,
				Err:      fmt.Errorf("duplicate id %s", rec.ID),
			}
		}
		x.ids[rec.ID] = struct{}{}
		x.records = append(x.records, rec)
	}
	return len(records), nil
}

func (x *MemoryIndex) Query(ctx context.Context, vector []float32, topK int) ([]core.Match, error) {
	if topK < 1 {
		topK = 1
	}
	x.mu.RLock()
	defer x.mu.RUnlock()

	matches := make([]core.Match, 0, len(x.records))
	for _, rec := range x.records {
		matches = append(matches, core.Match{Record: rec, Score: cosine(vector, rec.Embedding)})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

// Len reports how many records the index holds.
func (x *MemoryIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.records)
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ core.VectorIndex = (*MemoryIndex)(nil)
