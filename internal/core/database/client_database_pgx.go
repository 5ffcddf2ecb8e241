package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/studyowl/studyowl/internal/config"
	"github.com/studyowl/studyowl/internal/core"
	"github.com/studyowl/studyowl/internal/models"
)

var (
	_ core.DbClient  = (*DatabaseClient)(nil)
	_ core.AuditSink = (*DatabaseClient)(nil)
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	dsn := cfg.DatabaseURL
	if cfg.SslCertPath != "" {
		u, err := url.Parse(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		q := u.Query()
		q.Set("sslmode", "verify-ca")
		q.Set("sslrootcert", cfg.SslCertPath)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: sqlDB}, nil
}

// DB exposes the underlying pool so the vector index can share it.
func (c *DatabaseClient) DB() *sql.DB {
	return c.db
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Implementing the db interface for user

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.Username, user.PasswordHash, user.Role, user.CreatedAt)
	return err
}

func (c *DatabaseClient) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const q = `
		SELECT id, username, password_hash, role, created_at
		FROM users WHERE username = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, username).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Implementing the db interface for chat logs

func (c *DatabaseClient) InsertChatLog(ctx context.Context, entry *models.ChatLog) error {
	if entry == nil {
		return errors.New("nil chat log")
	}
	const q = `
		INSERT INTO chat_logs (user_role, user_message, bot_response, timestamp)
		VALUES ($1, $2, $3, COALESCE($4, now()))
		RETURNING id
	`
	var ts interface{}
	if !entry.Timestamp.IsZero() {
		ts = entry.Timestamp
	}
	return c.db.QueryRowContext(ctx, q,
		entry.UserRole, entry.UserMessage, entry.BotResponse, ts,
	).Scan(&entry.ID)
}

func (c *DatabaseClient) ListChatLogs(ctx context.Context, limit int) ([]models.ChatLog, error) {
	if limit < 1 {
		limit = 50
	}
	const q = `
		SELECT id, user_role, user_message, bot_response, timestamp
		FROM chat_logs
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := c.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChatLog
	for rows.Next() {
		var l models.ChatLog
		if err := rows.Scan(&l.ID, &l.UserRole, &l.UserMessage, &l.BotResponse, &l.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// LogExchange records one question/answer pair in the audit trail.
func (c *DatabaseClient) LogExchange(ctx context.Context, role, question, answer string) error {
	return c.InsertChatLog(ctx, &models.ChatLog{
		UserRole:    role,
		UserMessage: question,
		BotResponse: answer,
	})
}
