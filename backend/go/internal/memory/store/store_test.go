package store

import (
	"context"
	"testing"
	"time"

	"MedMemory/backend/go/internal/config"
	"MedMemory/backend/go/internal/database/sqldb"
	"MedMemory/backend/go/internal/models"
	"MedMemory/backend/go/internal/statement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newGormStore(t *testing.T) *GormFactStore {
	t.Helper()
	db, err := sqldb.Open(&config.SQLConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	s, err := NewGormFactStore(db)
	require.NoError(t, err)
	return s
}

func medVersion(t *testing.T, lineage string, version int, start time.Time, recorded time.Time) *FactVersion {
	t.Helper()
	fact := models.NewMedicationFact("metformin", "500mg", "bid", "oral", start, nil, "clinician")
	fact.LineageID = lineage
	fact.SubjectID = "p1"
	fact.Version = version
	fact.LastUpdated = recorded
	v, err := NewFactVersion(models.KindMedication, FactKey(models.KindMedication, fact.Code), models.ActionAppend, fact.Temporal(), fact, nil)
	require.NoError(t, err)
	return v
}

func factStores(t *testing.T) map[string]FactStore {
	return map[string]FactStore{
		"gorm":   newGormStore(t),
		"memory": NewMemoryFactStore(),
	}
}

func TestFactStore_SaveSupersedesPreviousVersion(t *testing.T) {
	ctx := context.Background()
	for name, s := range factStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, medVersion(t, "L1", 1, t0.AddDate(0, 0, -30), t0.AddDate(0, 0, -30))))
			require.NoError(t, s.Save(ctx, medVersion(t, "L1", 2, t0.AddDate(0, 0, -30), t0)))

			current, err := s.Current(ctx, "p1", models.KindMedication, "metformin")
			require.NoError(t, err)
			require.Len(t, current, 1)
			assert.Equal(t, 2, current[0].Version)

			history, err := s.History(ctx, "L1")
			require.NoError(t, err)
			require.Len(t, history, 2)
			assert.Equal(t, 1, history[0].Version)
			require.NotNil(t, history[0].SupersededAt)
			assert.WithinDuration(t, t0, *history[0].SupersededAt, time.Second)
			assert.True(t, history[1].Current())

			fact, err := DecodeFact[*models.MedicationFact](history[1])
			require.NoError(t, err)
			assert.Equal(t, "metformin", fact.Code)
			assert.Equal(t, "L1", fact.LineageID)
		})
	}
}

func TestFactStore_SaveRejectsOrphanVersion(t *testing.T) {
	ctx := context.Background()
	for name, s := range factStores(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Save(ctx, medVersion(t, "L9", 3, t0, t0))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestFactStore_CurrentFiltersByKey(t *testing.T) {
	ctx := context.Background()
	for name, s := range factStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, medVersion(t, "L1", 1, t0.AddDate(0, 0, -60), t0)))
			require.NoError(t, s.Save(ctx, medVersion(t, "L2", 1, t0.AddDate(0, 0, -5), t0)))

			other := medVersion(t, "L3", 1, t0, t0)
			other.Key = "aspirin"
			require.NoError(t, s.Save(ctx, other))

			all, err := s.Current(ctx, "p1", models.KindMedication, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			met, err := s.Current(ctx, "p1", models.KindMedication, "metformin")
			require.NoError(t, err)
			require.Len(t, met, 2)
			assert.Equal(t, "L2", met[0].LineageID, "newest start first")

			none, err := s.Current(ctx, "p2", models.KindMedication, "")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestFactStore_HistoryUnknownLineage(t *testing.T) {
	for name, s := range factStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.History(context.Background(), "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestFactKey(t *testing.T) {
	assert.Equal(t, "headache", FactKey(models.KindSymptom, " Head ache "))
	assert.Equal(t, "头痛", FactKey(models.KindSymptom, "头 痛"))
	assert.Equal(t, "RxNorm:860975", FactKey(models.KindMedication, " RxNorm:860975 "))
}

func TestNewFactVersion_CarriesStatement(t *testing.T) {
	fact := models.NewSymptomFact("headache", t0, nil, "patient")
	fact.SubjectID = "p1"
	fact.LineageID = "S1"
	stmt := &models.StatementRecord{StatementID: "st-1", SubjectID: "p1", Kind: models.KindSymptom, ConceptOrCode: "headache"}

	v, err := NewFactVersion(models.KindSymptom, "headache", models.ActionAppend, fact.Temporal(), fact, stmt)
	require.NoError(t, err)
	assert.Equal(t, "st-1", v.StatementID)
	assert.Equal(t, "S1", v.LineageID)
	assert.Equal(t, models.StatusActive, v.Status)

	decoded, err := DecodeFact[*models.SymptomFact](*v)
	require.NoError(t, err)
	assert.Equal(t, "headache", decoded.Concept)
}

func TestProjectionQuery(t *testing.T) {
	end := t0
	v := &FactVersion{LineageID: "S1", Version: 2, SubjectID: "p1", Kind: models.KindSymptom, Key: "headache", Status: models.StatusResolved, ValidStart: t0.AddDate(0, 0, -3), ValidEnd: &end}

	query, params := projectionQuery(v)
	assert.Contains(t, query, "MERGE (f:Symptom {lineage_id: $lineage_id})")
	assert.Contains(t, query, "[:EXPERIENCED]")
	assert.Equal(t, "p1", params["subject_id"])
	assert.Equal(t, int64(2), params["version"])
	assert.Equal(t, "resolved", params["status"])
	assert.Equal(t, end, params["valid_end"])

	v.Kind = models.KindMedication
	v.ValidEnd = nil
	query, params = projectionQuery(v)
	assert.Contains(t, query, "MERGE (f:Medication {lineage_id: $lineage_id})")
	assert.Contains(t, query, "[:TAKES]")
	assert.Nil(t, params["valid_end"])
}

func TestSessionKeys(t *testing.T) {
	assert.Equal(t, "memory:window:p1:headache", windowKey(statementKey("p1", "Headache")))
	assert.Equal(t, "memory:rejected:p1", rejectedKey("p1"))
}

func TestMemorySessionStore_RejectedNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore()
	for i := 0; i < maxRejectedNotes+5; i++ {
		require.NoError(t, s.NoteRejected(ctx, RejectedNote{SubjectID: "p1", StatementID: string(rune('a' + i%26)), NotedAt: t0.Add(time.Duration(i) * time.Minute)}))
	}
	notes, err := s.Rejected(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, notes, maxRejectedNotes)
	assert.True(t, notes[0].NotedAt.After(notes[1].NotedAt))

	empty, err := s.Rejected(ctx, "p2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryAuditStore_ListBySubject(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryAuditStore()
	for i, subj := range []string{"p1", "p2", "p1", "p1"} {
		require.NoError(t, s.Record(ctx, &models.DecisionRecord{ID: string(rune('a' + i)), SubjectID: subj}))
	}
	recs, err := s.ListBySubject(ctx, "p1", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "d", recs[0].ID)
	assert.Equal(t, "c", recs[1].ID)
}

func statementKey(subjectID, concept string) statement.WindowKey {
	return statement.NewWindowKey(subjectID, concept)
}
