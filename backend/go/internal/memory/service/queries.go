package service

import (
	"context"

	"MedMemory/backend/go/internal/episode"
	"MedMemory/backend/go/internal/memory/store"
	"MedMemory/backend/go/internal/models"
	"MedMemory/backend/go/internal/statement"
)

// Assess validates text against the service clock.
func (s *MemoryService) Assess(text string) models.Assessment {
	return statement.NewValidator(s.now).Assess(text)
}

// ParseTime resolves a relative time phrase, or returns nil.
func (s *MemoryService) ParseTime(text string) *models.TimeParse {
	return statement.Parser{Now: s.now}.Parse(text)
}

// UpdateWindow merges next into prev. gapDays <= 0 uses the configured gap.
func (s *MemoryService) UpdateWindow(prev, next models.TimeWindow, gapDays int) (models.WindowAction, models.TimeWindow) {
	if gapDays <= 0 {
		gapDays = s.opts.WindowGapDays
	}
	return statement.UpdateTimeWindow(prev, next, gapDays)
}

func (s *MemoryService) DecideMedication(current, next *models.MedicationFact) models.Action {
	return episode.Decide(s.opts.Medication, current, next)
}

func (s *MemoryService) DecideSymptom(current, next *models.SymptomFact) models.Action {
	return episode.Decide(s.opts.Symptom, current, next)
}

func (s *MemoryService) MedicationConfidence(current, next *models.MedicationFact, opts episode.ScoreOptions) (models.Action, float64) {
	return episode.Score(s.opts.Medication, current, next, opts)
}

func (s *MemoryService) SymptomConfidence(current, next *models.SymptomFact, opts episode.ScoreOptions) (models.Action, float64) {
	return episode.Score(s.opts.Symptom, current, next, opts)
}

// CurrentMedications returns the subject's current medication facts. An empty
// key returns every code.
func (s *MemoryService) CurrentMedications(ctx context.Context, subjectID, key string) ([]*models.MedicationFact, error) {
	return currentFacts[*models.MedicationFact](ctx, s, subjectID, models.KindMedication, key)
}

// CurrentSymptoms returns the subject's current symptom facts.
func (s *MemoryService) CurrentSymptoms(ctx context.Context, subjectID, key string) ([]*models.SymptomFact, error) {
	return currentFacts[*models.SymptomFact](ctx, s, subjectID, models.KindSymptom, key)
}

func currentFacts[T any](ctx context.Context, s *MemoryService, subjectID string, kind models.FactKind, key string) ([]T, error) {
	if key != "" {
		key = store.FactKey(kind, key)
	}
	versions, err := s.facts.Current(ctx, subjectID, kind, key)
	if err != nil {
		return nil, err
	}
	return store.DecodeFacts[T](versions)
}

// History returns every version of a lineage, oldest first.
func (s *MemoryService) History(ctx context.Context, lineageID string) ([]store.FactVersion, error) {
	return s.facts.History(ctx, lineageID)
}

// Decisions returns the newest audit records of a subject.
func (s *MemoryService) Decisions(ctx context.Context, subjectID string, limit int) ([]*models.DecisionRecord, error) {
	if s.audit == nil {
		return nil, ErrUnavailable
	}
	return s.audit.ListBySubject(ctx, subjectID, limit)
}

// Rejected returns the statements rejected in the subject's session.
func (s *MemoryService) Rejected(ctx context.Context, subjectID string) ([]store.RejectedNote, error) {
	return s.sessions.Rejected(ctx, subjectID)
}

// Graph returns the subject's projected fact graph.
func (s *MemoryService) Graph(ctx context.Context, subjectID string) ([]store.GraphEdge, error) {
	if s.graph == nil {
		return nil, ErrUnavailable
	}
	return s.graph.SubjectGraph(ctx, subjectID)
}
