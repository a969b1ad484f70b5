// Package store provides conversation persistence adapters.
// Adapter implementing ports.ConversationStore.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/agrostack/kisanqa-go/internal/domain/entities"
)

// SQLiteStore logs query/answer exchanges to a local SQLite database.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the conversation database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = filepath.Join("data", "conversations.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

// initSchema creates the necessary tables.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		offline_answer TEXT NOT NULL,
		online_answer TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_created_at ON conversations(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save records one conversation. A zero ID gets a fresh UUID; a zero
// CreatedAt gets the current time.
func (s *SQLiteStore) Save(ctx context.Context, conv entities.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, query, offline_answer, online_answer, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, conv.ID, conv.Query, conv.OfflineAnswer, nullable(conv.OnlineAnswer), conv.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting conversation: %w", err)
	}
	return nil
}

// Recent returns the most recent conversations, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]entities.Conversation, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, offline_answer, COALESCE(online_answer, ''), created_at
		FROM conversations
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var out []entities.Conversation
	for rows.Next() {
		var c entities.Conversation
		if err := rows.Scan(&c.ID, &c.Query, &c.OfflineAnswer, &c.OnlineAnswer, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
