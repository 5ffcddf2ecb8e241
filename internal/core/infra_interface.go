package core

import (
	"context"

	"github.com/studyowl/studyowl/internal/models"
)

// Record is one embedded chunk as stored in the vector index. Metadata always
// carries at least the source filename and the chunk's ordinal position.
type Record struct {
	ID        string
	Content   string
	Metadata  map[string]string
	Embedding []float32
}

// Match is a retrieved record with its similarity score (higher is closer).
type Match struct {
	Record
	Score float64
}

// VectorIndex persists embedding records and answers nearest-neighbor
// queries. Writes are append-only: an existing id is never overwritten.
type VectorIndex interface {
	// Upsert inserts records in order and returns how many landed. On error
	// the count tells the caller which prefix of the batch succeeded.
	Upsert(ctx context.Context, records []Record) (int, error)

	// Query returns up to topK records ranked by descending similarity to
	// the query vector. An empty index yields an empty result, not an error.
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
}

// DbClient abstracts the relational side (users, chat audit log) so higher
// layers never depend on a specific database.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	InsertChatLog(ctx context.Context, entry *models.ChatLog) error
	ListChatLogs(ctx context.Context, limit int) ([]models.ChatLog, error)

	Close() error
}

// AuditSink receives one (role, question, answer) record after each
// successful conversational turn. Callers do not depend on it succeeding.
type AuditSink interface {
	LogExchange(ctx context.Context, role, question, answer string) error
}

// ObjectClient archives raw uploads in object storage. Best-effort: ingestion
// never blocks on it.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
}
