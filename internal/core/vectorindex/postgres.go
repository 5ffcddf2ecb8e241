package vectorindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/studyowl/studyowl/internal/core"
)

// PostgresIndex stores embedding records in a pgvector-backed table and
// answers cosine nearest-neighbor queries. Writes are plain inserts so an
// existing id is never silently overwritten.
type PostgresIndex struct {
	db  *sql.DB
	dim int
}

// NewPostgresIndex prepares the index over an existing connection pool,
// idempotently creating the vector extension and the embeddings table.
func NewPostgresIndex(ctx context.Context, db *sql.DB, dim int) (*PostgresIndex, error) {
	idx := &PostgresIndex{db: db, dim: dim}
	if err := idx.ensureSchema(ctx); err != nil {
		return nil, &core.VectorStoreError{Op: "init", Err: err}
	}
	return idx, nil
}

func (x *PostgresIndex) ensureSchema(ctx context.Context) error {
	if _, err := x.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create extension: %w", err)
	}
	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS embeddings (
			id UUID PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d)
		)`, x.dim)
	if _, err := x.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create embeddings table: %w", err)
	}
	return nil
}

// Upsert inserts records in order and returns how many landed before any
// failure, so a mid-batch error tells the caller which prefix succeeded.
func (x *PostgresIndex) Upsert(ctx context.Context, records []core.Record) (int, error) {
	const q = `
		INSERT INTO embeddings (id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4)
	`
	for i, rec := range records {
		if x.dim > 0 && len(rec.Embedding) != x.dim {
			return i, &core.VectorStoreError{
				Op:       "upsert",
				Inserted: i,
				Err:      fmt.Errorf("record %s: vector dimension %d, index requires %d", rec.ID, len(rec.Embedding), x.dim),
			}
		}
		meta, err := json.Marshal(rec.Metadata)
		if err != nil {
			return i, &core.VectorStoreError{Op: "upsert", Inserted: i, Err: err}
		}
		vec := pgvector.NewVector(rec.Embedding)
		if _, err := x.db.ExecContext(ctx, q, rec.ID, rec.Content, meta, vec); err != nil {
			return i, &core.VectorStoreError{Op: "upsert", Inserted: i, Err: err}
		}
	}
	return len(records), nil
}

// Query returns up to topK records ranked by descending cosine similarity.
// An empty index produces an empty result.
func (x *PostgresIndex) Query(ctx context.Context, vector []float32, topK int) ([]core.Match, error) {
	if topK < 1 {
		topK = 1
	}
	const q = `
		SELECT id, content, metadata, embedding, 1 - (embedding <=> $1) AS score
		FROM embeddings
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	vec := pgvector.NewVector(vector)
	rows, err := x.db.QueryContext(ctx, q, vec, topK)
	if err != nil {
		return nil, &core.VectorStoreError{Op: "query", Err: err}
	}
	defer rows.Close()

	var out []core.Match
	for rows.Next() {
		var (
			rec  core.Record
			meta []byte
			emb  pgvector.Vector
			m    core.Match
		)
		if err := rows.Scan(&rec.ID, &rec.Content, &meta, &emb, &m.Score); err != nil {
			return nil, &core.VectorStoreError{Op: "query", Err: err}
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
				return nil, &core.VectorStoreError{Op: "query", Err: err}
			}
		}
		rec.Embedding = emb.Slice()
		m.Record = rec
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.VectorStoreError{Op: "query", Err: err}
	}
	return out, nil
}

var _ core.VectorIndex = (*PostgresIndex)(nil)
