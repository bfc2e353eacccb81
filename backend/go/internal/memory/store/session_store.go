package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"MedMemory/backend/go/internal/models"
	"MedMemory/backend/go/internal/statement"

	"github.com/go-redis/redis/v8"
)

// maxRejectedNotes bounds the per-subject list of rejected statements.
const maxRejectedNotes = 50

// RejectedNote keeps a rejected statement in session context. It never reaches
// the fact store.
type RejectedNote struct {
	StatementID string             `json:"statement_id"`
	SubjectID   string             `json:"subject_id"`
	RawText     string             `json:"raw_text"`
	Reason      string             `json:"reason"`
	Confidence  float64            `json:"confidence"`
	Window      *models.TimeWindow `json:"window,omitempty"`
	NotedAt     time.Time          `json:"noted_at"`
}

// SessionStore holds ephemeral per-subject state: tracked time windows and
// recently rejected statements.
type SessionStore interface {
	statement.WindowStore
	NoteRejected(ctx context.Context, note RejectedNote) error
	Rejected(ctx context.Context, subjectID string) ([]RejectedNote, error)
}

// RedisSessionStore is a SessionStore whose entries expire after ttl.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore creates a RedisSessionStore.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func windowKey(key statement.WindowKey) string {
	return "memory:window:" + key.String()
}

func rejectedKey(subjectID string) string {
	return "memory:rejected:" + subjectID
}

// LoadWindow returns the tracked window or nil when the key is absent or expired.
func (s *RedisSessionStore) LoadWindow(ctx context.Context, key statement.WindowKey) (*models.TimeWindow, error) {
	raw, err := s.client.Get(ctx, windowKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get window: %w", err)
	}
	var w models.TimeWindow
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode window: %w", err)
	}
	return &w, nil
}

// SaveWindow stores w and refreshes its expiry.
func (s *RedisSessionStore) SaveWindow(ctx context.Context, key statement.WindowKey, w models.TimeWindow) error {
	raw, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode window: %w", err)
	}
	if err := s.client.Set(ctx, windowKey(key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set window: %w", err)
	}
	return nil
}

// NoteRejected pushes note onto the subject's list, keeping the newest entries.
func (s *RedisSessionStore) NoteRejected(ctx context.Context, note RejectedNote) error {
	raw, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("encode rejected note: %w", err)
	}
	key := rejectedKey(note.SubjectID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, raw)
		pipe.LTrim(ctx, key, 0, maxRejectedNotes-1)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis note rejected: %w", err)
	}
	return nil
}

// Rejected returns the subject's rejected statements, newest first.
func (s *RedisSessionStore) Rejected(ctx context.Context, subjectID string) ([]RejectedNote, error) {
	items, err := s.client.LRange(ctx, rejectedKey(subjectID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list rejected: %w", err)
	}
	notes := make([]RejectedNote, 0, len(items))
	for _, item := range items {
		var n RejectedNote
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			return nil, fmt.Errorf("decode rejected note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, nil
}
