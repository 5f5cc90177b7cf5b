// Package conversations stores per-user chat history in Postgres.
package conversations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the conversation does not exist or belongs to
// another user.
var ErrNotFound = errors.New("conversations: not found")

const defaultTitle = "New Conversation"

// autoTitleLimit caps the length of titles derived from the first message.
const autoTitleLimit = 50

// Conversation is a chat thread owned by a single user.
type Conversation struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"-"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	MessageCount int       `json:"messageCount"`
	Messages     []Message `json:"messages,omitempty"`
}

// Message is a single turn in a conversation.
type Message struct {
	ID                 int64           `json:"id"`
	Role               string          `json:"role"`
	Content            string          `json:"content"`
	ContentType        string          `json:"contentType"`
	DoctorSearchResult json.RawMessage `json:"doctorSearchResult,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository persists conversations and their messages.
type Repository struct {
	pool querier
}

// NewRepository creates a repository backed by pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("conversations: pgx pool required")
	}
	return &Repository{pool: pool}
}

func newRepositoryWithQuerier(q querier) *Repository {
	if q == nil {
		panic("conversations: querier required")
	}
	return &Repository{pool: q}
}

// Create starts a new conversation for the user.
func (r *Repository) Create(ctx context.Context, userID int64, title string) (*Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle
	}
	conv := &Conversation{UserID: userID, Title: title, Messages: []Message{}}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO conversations (user_id, title)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, userID, title).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("conversations: create: %w", err)
	}
	return conv, nil
}

// List returns the user's conversations, most recently updated first.
// Messages are not loaded, only counted.
func (r *Repository) List(ctx context.Context, userID int64) ([]Conversation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.title, c.created_at, c.updated_at, COUNT(m.id)
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		WHERE c.user_id = $1
		GROUP BY c.id
		ORDER BY c.updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("conversations: list: %w", err)
	}
	defer rows.Close()

	list := make([]Conversation, 0)
	for rows.Next() {
		conv := Conversation{UserID: userID}
		if err := rows.Scan(&conv.ID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt, &conv.MessageCount); err != nil {
			return nil, fmt.Errorf("conversations: scan list row: %w", err)
		}
		list = append(list, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversations: list rows: %w", err)
	}
	return list, nil
}

// Get returns a single conversation with its messages in chronological
// order. Returns ErrNotFound when the id does not belong to the user.
func (r *Repository) Get(ctx context.Context, userID, conversationID int64) (*Conversation, error) {
	conv := &Conversation{ID: conversationID, UserID: userID}
	err := r.pool.QueryRow(ctx, `
		SELECT title, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND user_id = $2
	`, conversationID, userID).Scan(&conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("conversations: get: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, role, content, content_type, doctor_search_result, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("conversations: get messages: %w", err)
	}
	defer rows.Close()

	conv.Messages = make([]Message, 0)
	for rows.Next() {
		var msg Message
		var result *string
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &msg.ContentType, &result, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("conversations: scan message row: %w", err)
		}
		if result != nil {
			msg.DoctorSearchResult = json.RawMessage(*result)
		}
		conv.Messages = append(conv.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversations: message rows: %w", err)
	}
	conv.MessageCount = len(conv.Messages)
	return conv, nil
}

// AddMessage appends a turn to the conversation and bumps its updated_at.
// The first user message also replaces the default title.
func (r *Repository) AddMessage(ctx context.Context, userID, conversationID int64, msg Message) (*Message, error) {
	var title string
	err := r.pool.QueryRow(ctx, `
		SELECT title FROM conversations
		WHERE id = $1 AND user_id = $2
	`, conversationID, userID).Scan(&title)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("conversations: check ownership: %w", err)
	}

	if msg.ContentType == "" {
		msg.ContentType = "TEXT"
	}
	var result *string
	if len(msg.DoctorSearchResult) > 0 {
		s := string(msg.DoctorSearchResult)
		result = &s
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, role, content, content_type, doctor_search_result)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, conversationID, msg.Role, msg.Content, msg.ContentType, result).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("conversations: insert message: %w", err)
	}

	newTitle := title
	if title == defaultTitle && msg.Role == "user" {
		newTitle = autoTitle(msg.Content)
	}
	if _, err := r.pool.Exec(ctx, `
		UPDATE conversations SET title = $1, updated_at = now()
		WHERE id = $2
	`, newTitle, conversationID); err != nil {
		return nil, fmt.Errorf("conversations: touch conversation: %w", err)
	}
	return &msg, nil
}

// UpdateTitle renames a conversation.
func (r *Repository) UpdateTitle(ctx context.Context, userID, conversationID int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE conversations SET title = $1, updated_at = now()
		WHERE id = $2 AND user_id = $3
	`, title, conversationID, userID)
	if err != nil {
		return fmt.Errorf("conversations: update title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a conversation and its messages.
func (r *Repository) Delete(ctx context.Context, userID, conversationID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM conversations
		WHERE id = $1 AND user_id = $2
	`, conversationID, userID)
	if err != nil {
		return fmt.Errorf("conversations: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func autoTitle(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return defaultTitle
	}
	runes := []rune(content)
	if len(runes) <= autoTitleLimit {
		return content
	}
	return string(runes[:autoTitleLimit]) + "..."
}
