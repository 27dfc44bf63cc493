// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// =============================================================================
// TYPES AND ERRORS
// =============================================================================

// Conversation modes. Each chat-loop variant tags its conversations so
// resuming picks up the right loop.
const (
	ModeChat  = "chat"
	ModeTool  = "tool"
	ModeAgent = "agent"
)

// ErrConversationNotFound indicates the conversation id does not exist
// for the given user.
var ErrConversationNotFound = errors.New("conversation not found")

// Conversation is a durable chat thread owned by one user.
type Conversation struct {
	ID        string
	UserID    string
	Mode      string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one turn in a conversation.
//
// Content is the decoded payload: a plain string for ordinary text, or
// the decoded JSON value for structured payloads (tool calls, tool
// results). Text that fails to decode as JSON is returned unchanged.
type Message struct {
	ID             string
	ConversationID string
	Role           string
	Content        any
	CreatedAt      time.Time
}

// Text renders the message content as a string, re-encoding structured
// payloads as compact JSON.
func (m *Message) Text() string {
	if s, ok := m.Content.(string); ok {
		return s
	}
	data, err := json.Marshal(m.Content)
	if err != nil {
		return fmt.Sprintf("%v", m.Content)
	}
	return string(data)
}

// Store is the SQLite-backed conversation repository.
type Store struct {
	db *sql.DB
}

// =============================================================================
// OPEN / SCHEMA
// =============================================================================

// Open creates or opens the database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL keeps reads cheap while a message insert is in flight.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS conversations (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		mode       TEXT NOT NULL,
		title      TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, updated_at);

	CREATE TABLE IF NOT EXISTS messages (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id),
		role            TEXT NOT NULL,
		content         TEXT NOT NULL,
		created_at      INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// Get fetches a conversation by id, scoped to its owning user.
func (s *Store) Get(ctx context.Context, userID, convID string) (*Conversation, error) {
	query := `
		SELECT id, user_id, mode, title, created_at, updated_at
		FROM conversations WHERE id = ? AND user_id = ?`

	row := s.db.QueryRowContext(ctx, query, convID, userID)

	var c Conversation
	var createdAt, updatedAt int64
	err := row.Scan(&c.ID, &c.UserID, &c.Mode, &c.Title, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, convID)
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}

	c.CreatedAt = time.Unix(0, createdAt)
	c.UpdatedAt = time.Unix(0, updatedAt)
	return &c, nil
}

// Create starts a fresh conversation for the user with the default
// title for its mode.
func (s *Store) Create(ctx context.Context, userID, mode string) (*Conversation, error) {
	now := time.Now()
	c := Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Mode:      mode,
		Title:     fmt.Sprintf("New %s conversation", mode),
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO conversations (id, user_id, mode, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.Mode, c.Title, now.UnixNano(), now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return &c, nil
}

// GetOrCreate resumes the conversation when convID resolves for this
// user, and otherwise creates a new one. An id that does not resolve
// is not an error; the user just gets a fresh conversation.
func (s *Store) GetOrCreate(ctx context.Context, userID, convID, mode string) (*Conversation, error) {
	if convID != "" {
		c, err := s.Get(ctx, userID, convID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrConversationNotFound) {
			return nil, err
		}
	}
	return s.Create(ctx, userID, mode)
}

// SetTitle updates the conversation title, scoped to the owning user.
func (s *Store) SetTitle(ctx context.Context, userID, convID, title string) error {
	query := `UPDATE conversations SET title = ?, updated_at = ? WHERE id = ? AND user_id = ?`
	result, err := s.db.ExecContext(ctx, query, title, time.Now().UnixNano(), convID, userID)
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, convID)
	}
	return nil
}

// ListByUser returns the user's conversations, most recently updated
// first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Conversation, error) {
	query := `
		SELECT id, user_id, mode, title, created_at, updated_at
		FROM conversations WHERE user_id = ? ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		var createdAt, updatedAt int64
		if err := rows.Scan(&c.ID, &c.UserID, &c.Mode, &c.Title, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}
		c.CreatedAt = time.Unix(0, createdAt)
		c.UpdatedAt = time.Unix(0, updatedAt)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return out, nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// AddMessage appends a message to a conversation. String content is
// stored as-is; anything else is JSON-encoded. The conversation's
// updated_at is bumped in the same call.
func (s *Store) AddMessage(ctx context.Context, convID, role string, content any) (*Message, error) {
	raw, err := encodeContent(content)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	m := Message{
		ID:             uuid.NewString(),
		ConversationID: convID,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}

	query := `
		INSERT INTO messages (id, conversation_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, m.ID, convID, role, raw, now.UnixNano()); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	bump := `UPDATE conversations SET updated_at = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, bump, now.UnixNano(), convID); err != nil {
		return nil, fmt.Errorf("touch conversation: %w", err)
	}
	return &m, nil
}

// Messages returns a conversation's messages in ascending creation
// order, the canonical replay order for inference.
func (s *Store) Messages(ctx context.Context, convID string) ([]Message, error) {
	query := `
		SELECT id, conversation_id, role, content, created_at
		FROM messages WHERE conversation_id = ?
		ORDER BY created_at ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, convID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var raw string
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &raw, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		m.Content = decodeContent(raw)
		m.CreatedAt = time.Unix(0, createdAt)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

// encodeContent serializes message content for storage.
func encodeContent(content any) (string, error) {
	if s, ok := content.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("encode message content: %w", err)
	}
	return string(data), nil
}

// decodeContent restores structured payloads. Text that is not valid
// JSON is returned unchanged.
func decodeContent(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
