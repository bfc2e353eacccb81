package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MedMemory/backend/go/internal/config"
	"MedMemory/backend/go/internal/episode"
	"MedMemory/backend/go/internal/memory/store"
	"MedMemory/backend/go/internal/models"
	"MedMemory/backend/go/internal/statement"
	"MedMemory/backend/go/pkg/circuitbreaker"
	"MedMemory/backend/go/pkg/logger"
	"MedMemory/backend/go/pkg/lru"

	"github.com/google/uuid"
)

var (
	// ErrInvalidStatement wraps StatementRecord validation failures.
	ErrInvalidStatement = errors.New("invalid statement")
	// ErrUnavailable is returned when an optional backend is not configured.
	ErrUnavailable = errors.New("backend not configured")
)

const (
	recentCapacity = 4096
	recentTTL      = 15 * time.Minute
)

// DecisionPublisher fans decision records out to downstream consumers.
type DecisionPublisher interface {
	Publish(ctx context.Context, rec *models.DecisionRecord) error
}

// IngestResult describes what happened to one statement.
type IngestResult struct {
	StatementID  string              `json:"statement_id"`
	Accepted     bool                `json:"accepted"`
	Assessment   models.Assessment   `json:"assessment"`
	Action       models.Action       `json:"action,omitempty"`
	RuleAction   models.Action       `json:"rule_action,omitempty"`
	Confidence   float64             `json:"confidence"`
	WindowAction models.WindowAction `json:"window_action,omitempty"`
	Window       *models.TimeWindow  `json:"window,omitempty"`
	Version      *store.FactVersion  `json:"version,omitempty"`
}

// MemoryService turns statements into versioned medication and symptom facts.
// Writes are serialized per (subject, kind, key).
type MemoryService struct {
	facts     store.FactStore
	sessions  store.SessionStore
	graph     store.GraphStore
	audit     store.AuditStore
	publisher DecisionPublisher
	breakers  map[string]circuitbreaker.CircuitBreaker
	tracker   *statement.Tracker
	opts      Options
	locks     *keyedMutex
	recent    *lru.Cache[string, *IngestResult]
	logger    *logger.Logger
	now       func() time.Time
}

// NewMemoryService creates a new MemoryService. The graph, audit and publisher
// sinks are optional and attached with the With* methods.
func NewMemoryService(facts store.FactStore, sessions store.SessionStore, opts Options, log *logger.Logger) *MemoryService {
	s := &MemoryService{
		facts:    facts,
		sessions: sessions,
		opts:     opts,
		locks:    newKeyedMutex(),
		breakers: make(map[string]circuitbreaker.CircuitBreaker),
		logger:   log,
		now:      time.Now,
	}
	clock := func() time.Time { return s.now() }
	s.recent = lru.MustNew[string, *IngestResult](lru.Config{Capacity: recentCapacity, TTL: recentTTL, Now: clock})
	s.opts.Medication = s.opts.Medication.WithClock(clock)
	s.opts.Symptom = s.opts.Symptom.WithClock(clock)
	s.tracker = statement.NewTracker(sessions, opts.WindowGapDays).WithClock(clock)
	return s
}

func (s *MemoryService) WithGraph(g store.GraphStore) *MemoryService {
	s.graph = g
	return s
}

func (s *MemoryService) WithAudit(a store.AuditStore) *MemoryService {
	s.audit = a
	return s
}

func (s *MemoryService) WithPublisher(p DecisionPublisher) *MemoryService {
	s.publisher = p
	return s
}

// WithBreaker guards the named sink ("graph", "audit" or "publish") with cb.
// An open breaker skips the sink until it recovers.
func (s *MemoryService) WithBreaker(sink string, cb circuitbreaker.CircuitBreaker) *MemoryService {
	if cb != nil {
		s.breakers[sink] = cb
	}
	return s
}

// WithClock replaces the clock used for transaction times and relative phrases.
func (s *MemoryService) WithClock(clock func() time.Time) *MemoryService {
	s.now = clock
	return s
}

// Ingest validates rec, resolves its time window and applies the decided
// action to the fact store. Rejected statements are kept in session context
// only and never reach the fact store.
func (s *MemoryService) Ingest(ctx context.Context, rec models.StatementRecord) (*IngestResult, error) {
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatement, err)
	}
	now := s.now()
	// Kafka redelivers and HTTP clients retry with the same statement ID.
	if rec.StatementID != "" {
		if prev, ok := s.recent.Get(rec.StatementID); ok {
			return prev, nil
		}
	} else {
		rec.StatementID = uuid.New().String()
	}
	if rec.StatedAt.IsZero() {
		rec.StatedAt = now
	}
	key := store.FactKey(rec.Kind, rec.ConceptOrCode)
	log := s.logger.WithTrace(rec.StatementID).WithSubject(rec.SubjectID)

	statedAt := rec.StatedAt
	assessment := statement.NewValidator(func() time.Time { return statedAt }).Assess(rec.RawText)
	result := &IngestResult{StatementID: rec.StatementID, Assessment: assessment}

	if !assessment.IsValid {
		s.reject(ctx, log, rec, key, assessment)
		s.recent.Put(rec.StatementID, result)
		return result, nil
	}

	unlock := s.locks.Lock(fmt.Sprintf("%s|%s|%s", rec.SubjectID, rec.Kind, key))
	defer unlock()
	if prev, ok := s.recent.Get(rec.StatementID); ok {
		return prev, nil
	}

	window, windowAction, explicit, err := s.resolveWindow(ctx, rec, key, assessment)
	if err != nil {
		return nil, err
	}
	result.Window = &window
	result.WindowAction = windowAction
	// A phrase-derived window the session tracker sees as a separate episode
	// overrides the decision engine. Stated bounds are left to the engine.
	forceAppend := !explicit && windowAction == models.WindowAppend

	var out *outcome
	switch rec.Kind {
	case models.KindMedication:
		next := medicationFromStatement(rec, window, now)
		approx := window.Approximate
		out, err = ingestFact(ctx, s, s.opts.Medication, key, next, episode.ScoreOptions{ApproximateTime: &approx}, forceAppend, &rec)
	case models.KindSymptom:
		next := symptomFromStatement(rec, window, now)
		out, err = ingestFact(ctx, s, s.opts.Symptom, key, next, episode.ScoreOptions{}, forceAppend, &rec)
	}
	if err != nil {
		log.WithError(models.NewErrorInfo(err, "ingest")).Error("failed to ingest statement")
		return nil, err
	}

	result.Accepted = true
	result.Action = out.action
	result.RuleAction = out.ruleAction
	result.Confidence = out.confidence
	result.Version = out.version
	s.recent.Put(rec.StatementID, result)

	reason := assessment.Reason
	if forceAppend && out.ruleAction != models.ActionAppend {
		reason = "time window describes a separate episode"
	}
	s.emit(ctx, log, &models.DecisionRecord{
		ID:           uuid.New().String(),
		StatementID:  rec.StatementID,
		SubjectID:    rec.SubjectID,
		Kind:         rec.Kind,
		Key:          key,
		Outcome:      models.OutcomeApplied,
		Action:       out.action,
		RuleAction:   out.ruleAction,
		Confidence:   out.confidence,
		LineageID:    out.version.LineageID,
		Version:      out.version.Version,
		WindowAction: windowAction,
		Reason:       reason,
		RawText:      rec.RawText,
		DecidedAt:    now,
	}, out.version)

	log.WithPayload(map[string]interface{}{
		"kind":       rec.Kind,
		"key":        key,
		"action":     out.action,
		"confidence": out.confidence,
		"lineage_id": out.version.LineageID,
		"version":    out.version.Version,
	}).Info("statement ingested")
	return result, nil
}

// resolveWindow picks the statement's valid-time window. Explicit bounds are
// used as stated and only recorded in the session tracker. A parsed phrase is
// folded into the tracked window. Without either, the tracked window is
// reused, else the stated day.
func (s *MemoryService) resolveWindow(ctx context.Context, rec models.StatementRecord, key string, a models.Assessment) (models.TimeWindow, models.WindowAction, bool, error) {
	wk := windowKey(rec, key)

	if rec.ValidStart != nil {
		stated := models.TimeWindow{Start: *rec.ValidStart, End: rec.ValidEnd, Precision: models.PrecisionExactDate}
		obs, err := s.tracker.Observe(ctx, wk, stated)
		if err != nil {
			return models.TimeWindow{}, "", true, err
		}
		if obs.Previous == nil {
			return stated, "", true, nil
		}
		return stated, obs.Action, true, nil
	}

	w := a.Window()
	if w == nil {
		tracked, err := s.tracker.Current(ctx, wk)
		if err != nil {
			return models.TimeWindow{}, "", false, fmt.Errorf("load tracked window: %w", err)
		}
		if tracked != nil {
			return *tracked, models.WindowKeep, false, nil
		}
		d := rec.StatedAt
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		return models.TimeWindow{Start: start, Precision: models.PrecisionDayRange}, "", false, nil
	}

	obs, err := s.tracker.Observe(ctx, wk, *w)
	if err != nil {
		return models.TimeWindow{}, "", false, err
	}
	if obs.Previous == nil {
		return obs.Window, "", false, nil
	}
	return obs.Window, obs.Action, false, nil
}

// windowKey scopes session windows to one episode context. For medications
// that is the regimen, so a dose change never inherits the old regimen's window.
func windowKey(rec models.StatementRecord, key string) statement.WindowKey {
	concept := string(rec.Kind) + "/" + key
	if rec.Kind == models.KindMedication {
		concept += "/" + models.Normalize(rec.Dose) + "/" + models.Normalize(rec.Frequency) + "/" + models.Normalize(rec.Route)
	}
	return statement.NewWindowKey(rec.SubjectID, concept)
}

type outcome struct {
	action     models.Action
	ruleAction models.Action
	confidence float64
	version    *store.FactVersion
}

// ingestFact scores next against the current facts for its key, applies the
// chosen action and appends the resulting version. Gated mode takes the
// best-scoring candidate; rule mode upserts against the most recent one.
func ingestFact[T episode.Fact](ctx context.Context, s *MemoryService, p episode.Policy[T], key string, next T, opts episode.ScoreOptions, forceAppend bool, rec *models.StatementRecord) (*outcome, error) {
	meta := next.Temporal()
	versions, err := s.facts.Current(ctx, meta.SubjectID, p.Kind, key)
	if err != nil {
		return nil, fmt.Errorf("load current facts: %w", err)
	}
	existing, err := store.DecodeFacts[T](versions)
	if err != nil {
		return nil, err
	}

	candidates := episode.Candidates(p, existing, next, s.opts.Lookback)
	d := episode.DecideWithConfidence(p, candidates, next, opts)
	out := &outcome{action: d.Action, ruleAction: models.ActionAppend, confidence: d.Confidence}
	if len(candidates) > 0 {
		out.ruleAction = episode.Decide(p, d.Candidate, next)
	}

	now := s.now()
	var result T
	switch {
	case forceAppend:
		out.action = models.ActionAppend
		result = next
	case s.opts.Mode == config.ModeRule:
		_, out.action, result = episode.Upsert(p, candidates, next, 0)
		out.ruleAction = out.action
	default:
		result = episode.Apply(p, d.Action, d.Candidate, next, now)
	}
	if out.action == models.ActionAppend {
		meta.LineageID = uuid.New().String()
		meta.Version = 1
		meta.LastUpdated = now
	}

	r := result.Temporal()
	v, err := store.NewFactVersion(p.Kind, key, out.action, r, result, rec)
	if err != nil {
		return nil, err
	}
	if err := s.facts.Save(ctx, v); err != nil {
		return nil, fmt.Errorf("save fact version: %w", err)
	}
	out.version = v
	return out, nil
}

func medicationFromStatement(rec models.StatementRecord, w models.TimeWindow, now time.Time) *models.MedicationFact {
	f := models.NewMedicationFact(store.FactKey(models.KindMedication, rec.ConceptOrCode), rec.Dose, rec.Frequency, rec.Route, w.Start, w.End, rec.Provenance)
	f.SubjectID = rec.SubjectID
	f.LastUpdated = now
	return f
}

func symptomFromStatement(rec models.StatementRecord, w models.TimeWindow, now time.Time) *models.SymptomFact {
	f := models.NewSymptomFact(rec.ConceptOrCode, w.Start, w.End, rec.Provenance)
	f.SubjectID = rec.SubjectID
	f.BodySite = rec.BodySite
	f.Characteristics = rec.Characteristics
	f.Severity = models.ParseSeverity(string(rec.Severity))
	f.Progression = models.ParseProgression(string(rec.Progression))
	f.ApproximateTime = w.Approximate
	f.LastUpdated = now
	return f
}

// reject keeps a rejected statement in session context and audits it.
func (s *MemoryService) reject(ctx context.Context, log *logger.Logger, rec models.StatementRecord, key string, a models.Assessment) {
	note := store.RejectedNote{
		StatementID: rec.StatementID,
		SubjectID:   rec.SubjectID,
		RawText:     rec.RawText,
		Reason:      a.Reason,
		Confidence:  a.Confidence,
		Window:      a.Window(),
		NotedAt:     s.now(),
	}
	if err := s.sessions.NoteRejected(ctx, note); err != nil {
		log.WithError(models.NewErrorInfo(err, "session")).Error("failed to note rejected statement")
	}
	s.emit(ctx, log, &models.DecisionRecord{
		ID:          uuid.New().String(),
		StatementID: rec.StatementID,
		SubjectID:   rec.SubjectID,
		Kind:        rec.Kind,
		Key:         key,
		Outcome:     models.OutcomeRejected,
		Confidence:  a.Confidence,
		Reason:      a.Reason,
		RawText:     rec.RawText,
		DecidedAt:   note.NotedAt,
	}, nil)
	log.WithPayload(map[string]interface{}{"reason": a.Reason}).Warn("statement rejected")
}

// emit sends rec to the optional sinks. Sink failures are logged only.
func (s *MemoryService) emit(ctx context.Context, log *logger.Logger, rec *models.DecisionRecord, v *store.FactVersion) {
	if s.graph != nil && v != nil {
		if err := s.guard("graph", func() error { return s.graph.Project(ctx, v) }); err != nil {
			log.WithError(models.NewErrorInfo(err, "graph")).Error("failed to project fact")
		}
	}
	if s.audit != nil {
		if err := s.guard("audit", func() error { return s.audit.Record(ctx, rec) }); err != nil {
			log.WithError(models.NewErrorInfo(err, "audit")).Error("failed to record decision")
		}
	}
	if s.publisher != nil {
		if err := s.guard("publish", func() error { return s.publisher.Publish(ctx, rec) }); err != nil {
			log.WithError(models.NewErrorInfo(err, "publish")).Error("failed to publish decision")
		}
	}
}

func (s *MemoryService) guard(sink string, fn func() error) error {
	if cb, ok := s.breakers[sink]; ok {
		return cb.Execute(fn)
	}
	return fn()
}
