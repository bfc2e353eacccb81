package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"MedMemory/backend/go/internal/models"

	"gorm.io/datatypes"
)

// ErrNotFound is returned when a lineage has no recorded versions.
var ErrNotFound = errors.New("not found")

// FactStore persists the full version history of medication and symptom facts.
// Every UPDATE or MERGE appends a new row and tombstones the lineage's previous
// current row, so nothing is ever overwritten.
type FactStore interface {
	// Current returns the current (non-superseded) version of every lineage for
	// the subject and kind. An empty key returns all keys.
	Current(ctx context.Context, subjectID string, kind models.FactKind, key string) ([]FactVersion, error)
	// Save appends v. The lineage's previous current row, if any, is superseded
	// at v.RecordedAt in the same transaction.
	Save(ctx context.Context, v *FactVersion) error
	// History returns every version of a lineage ordered by version.
	History(ctx context.Context, lineageID string) ([]FactVersion, error)
}

// FactVersion is one row of the fact_versions table.
type FactVersion struct {
	ID           uint              `gorm:"primaryKey" json:"-"`
	LineageID    string            `gorm:"size:64;not null;uniqueIndex:idx_lineage_version" json:"lineage_id"`
	Version      int               `gorm:"not null;uniqueIndex:idx_lineage_version" json:"version"`
	SubjectID    string            `gorm:"size:64;not null;index:idx_subject_kind_key" json:"subject_id"`
	Kind         models.FactKind   `gorm:"size:16;not null;index:idx_subject_kind_key" json:"kind"`
	Key          string            `gorm:"column:fact_key;size:255;not null;index:idx_subject_kind_key" json:"key"`
	Action       models.Action     `gorm:"size:8" json:"action"`
	Status       models.FactStatus `gorm:"size:16" json:"status"`
	ValidStart   time.Time         `json:"valid_start"`
	ValidEnd     *time.Time        `json:"valid_end,omitempty"`
	Provenance   string            `gorm:"size:64" json:"provenance,omitempty"`
	RecordedAt   time.Time         `gorm:"not null" json:"recorded_at"`
	SupersededAt *time.Time        `gorm:"index" json:"superseded_at,omitempty"`
	StatementID  string            `gorm:"size:64" json:"statement_id,omitempty"`
	Fact         datatypes.JSON    `json:"fact"`
	Statement    datatypes.JSON    `json:"statement,omitempty"`
}

// TableName pins the table name regardless of gorm's naming strategy.
func (FactVersion) TableName() string {
	return "fact_versions"
}

// Current reports whether the version has not been superseded.
func (v FactVersion) Current() bool {
	return v.SupersededAt == nil
}

// FactKey is the lookup key of a fact: the exact code for medications and the
// normalized concept for symptoms.
func FactKey(kind models.FactKind, conceptOrCode string) string {
	if kind == models.KindSymptom {
		return models.Normalize(conceptOrCode)
	}
	return strings.TrimSpace(conceptOrCode)
}

// NewFactVersion snapshots fact into a new row. meta must be fact's shared
// bitemporal fields.
func NewFactVersion(kind models.FactKind, key string, action models.Action, meta *models.Bitemporal, fact interface{}, stmt *models.StatementRecord) (*FactVersion, error) {
	factJSON, err := json.Marshal(fact)
	if err != nil {
		return nil, fmt.Errorf("marshal fact: %w", err)
	}
	v := &FactVersion{
		LineageID:  meta.LineageID,
		Version:    meta.Version,
		SubjectID:  meta.SubjectID,
		Kind:       kind,
		Key:        key,
		Action:     action,
		Status:     meta.Status,
		ValidStart: meta.ValidStart,
		ValidEnd:   meta.ValidEnd,
		Provenance: meta.Provenance,
		RecordedAt: meta.LastUpdated,
		Fact:       datatypes.JSON(factJSON),
	}
	if stmt != nil {
		stmtJSON, err := json.Marshal(stmt)
		if err != nil {
			return nil, fmt.Errorf("marshal statement: %w", err)
		}
		v.StatementID = stmt.StatementID
		v.Statement = datatypes.JSON(stmtJSON)
	}
	return v, nil
}

// DecodeFact decodes the fact snapshot of v. T is a pointer fact type such as
// *models.MedicationFact.
func DecodeFact[T any](v FactVersion) (T, error) {
	var fact T
	if err := json.Unmarshal(v.Fact, &fact); err != nil {
		return fact, fmt.Errorf("decode fact %s v%d: %w", v.LineageID, v.Version, err)
	}
	return fact, nil
}

// DecodeFacts decodes a slice of versions.
func DecodeFacts[T any](versions []FactVersion) ([]T, error) {
	out := make([]T, 0, len(versions))
	for _, v := range versions {
		f, err := DecodeFact[T](v)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
