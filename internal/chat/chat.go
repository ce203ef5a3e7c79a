// Package chat keeps a shared message log. The full history is stored;
// reads return at most MessageLimit of the newest messages.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	MessageLimit = 20
	MaxTextRunes = 500
	MaxUserRunes = 64
)

// ErrInvalidMessage is returned for a message without a user or text.
var ErrInvalidMessage = errors.New("message requires a user and text")

// Message is one chat line.
type Message struct {
	ID        uuid.UUID `json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Prepare validates a message and truncates text to MaxTextRunes.
func Prepare(user, text string) (string, string, error) {
	user = strings.TrimSpace(user)
	if user == "" || strings.TrimSpace(text) == "" {
		return "", "", ErrInvalidMessage
	}
	return truncateRunes(user, MaxUserRunes), truncateRunes(text, MaxTextRunes), nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// Store persists messages in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a chat store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Recent returns up to limit of the newest messages, oldest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 || limit > MessageLimit {
		limit = MessageLimit
	}
	rows, err := s.pool.Query(ctx, "chat_recent", limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()

	out := make([]Message, 0, limit)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.User, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	reverse(out)
	return out, nil
}

// Save stores a message.
func (s *Store) Save(ctx context.Context, user, text string) (Message, error) {
	user, text, err := Prepare(user, text)
	if err != nil {
		return Message{}, err
	}
	m := Message{ID: uuid.New(), User: user, Text: text}

	if err := s.pool.QueryRow(ctx, "chat_insert", m.ID, m.User, m.Text).Scan(&m.CreatedAt); err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

func reverse(ms []Message) {
	for i, j := 0, len(ms)-1; i < j; i, j = i+1, j-1 {
		ms[i], ms[j] = ms[j], ms[i]
	}
}
