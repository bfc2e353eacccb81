package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"MedMemory/backend/go/internal/models"
	"MedMemory/backend/go/internal/statement"
)

// MemoryFactStore is an in-process FactStore used by tests and the CLI.
type MemoryFactStore struct {
	mu       sync.RWMutex
	versions []FactVersion
}

func NewMemoryFactStore() *MemoryFactStore {
	return &MemoryFactStore{}
}

func (s *MemoryFactStore) Current(_ context.Context, subjectID string, kind models.FactKind, key string) ([]FactVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []FactVersion
	for _, v := range s.versions {
		if v.SubjectID != subjectID || v.Kind != kind || !v.Current() {
			continue
		}
		if key != "" && v.Key != key {
			continue
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ValidStart.Equal(out[j].ValidStart) {
			return out[i].ValidStart.After(out[j].ValidStart)
		}
		return out[i].Version > out[j].Version
	})
	return out, nil
}

func (s *MemoryFactStore) Save(_ context.Context, v *FactVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	superseded := false
	for i := range s.versions {
		cur := &s.versions[i]
		if cur.LineageID == v.LineageID && cur.Version == v.Version {
			return fmt.Errorf("version %s v%d already exists", v.LineageID, v.Version)
		}
		if cur.LineageID == v.LineageID && cur.Current() {
			at := v.RecordedAt
			cur.SupersededAt = &at
			superseded = true
		}
	}
	if v.Version > 1 && !superseded {
		return fmt.Errorf("lineage %s has no current version: %w", v.LineageID, ErrNotFound)
	}
	v.ID = uint(len(s.versions) + 1)
	s.versions = append(s.versions, *v)
	return nil
}

func (s *MemoryFactStore) History(_ context.Context, lineageID string) ([]FactVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []FactVersion
	for _, v := range s.versions {
		if v.LineageID == lineageID {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// MemorySessionStore is an in-process SessionStore without expiry.
type MemorySessionStore struct {
	*statement.MemoryWindowStore
	mu       sync.RWMutex
	rejected map[string][]RejectedNote
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		MemoryWindowStore: statement.NewMemoryWindowStore(),
		rejected:          make(map[string][]RejectedNote),
	}
}

func (s *MemorySessionStore) NoteRejected(_ context.Context, note RejectedNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	notes := append([]RejectedNote{note}, s.rejected[note.SubjectID]...)
	if len(notes) > maxRejectedNotes {
		notes = notes[:maxRejectedNotes]
	}
	s.rejected[note.SubjectID] = notes
	return nil
}

func (s *MemorySessionStore) Rejected(_ context.Context, subjectID string) ([]RejectedNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RejectedNote(nil), s.rejected[subjectID]...), nil
}

// MemoryAuditStore is an in-process AuditStore.
type MemoryAuditStore struct {
	mu      sync.RWMutex
	records []*models.DecisionRecord
}

func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{}
}

func (s *MemoryAuditStore) Record(_ context.Context, rec *models.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records = append(s.records, &cp)
	return nil
}

func (s *MemoryAuditStore) ListBySubject(_ context.Context, subjectID string, limit int) ([]*models.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.DecisionRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].SubjectID != subjectID {
			continue
		}
		cp := *s.records[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
