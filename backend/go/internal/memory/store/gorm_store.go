package store

import (
	"context"
	"fmt"

	"MedMemory/backend/go/internal/models"

	"gorm.io/gorm"
)

// GormFactStore is a FactStore backed by MySQL or SQLite through gorm.
type GormFactStore struct {
	db *gorm.DB
}

// NewGormFactStore creates the store and migrates the fact_versions table.
func NewGormFactStore(db *gorm.DB) (*GormFactStore, error) {
	if err := db.AutoMigrate(&FactVersion{}); err != nil {
		return nil, fmt.Errorf("migrate fact_versions: %w", err)
	}
	return &GormFactStore{db: db}, nil
}

// Current returns the current rows for the subject and kind.
func (s *GormFactStore) Current(ctx context.Context, subjectID string, kind models.FactKind, key string) ([]FactVersion, error) {
	q := s.db.WithContext(ctx).
		Where("subject_id = ? AND kind = ? AND superseded_at IS NULL", subjectID, kind)
	if key != "" {
		q = q.Where("fact_key = ?", key)
	}
	var versions []FactVersion
	if err := q.Order("valid_start DESC, version DESC").Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("query current facts: %w", err)
	}
	return versions, nil
}

// Save appends v and supersedes the lineage's previous current row.
func (s *GormFactStore) Save(ctx context.Context, v *FactVersion) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&FactVersion{}).
			Where("lineage_id = ? AND superseded_at IS NULL", v.LineageID).
			Update("superseded_at", v.RecordedAt)
		if res.Error != nil {
			return fmt.Errorf("supersede lineage %s: %w", v.LineageID, res.Error)
		}
		if v.Version > 1 && res.RowsAffected == 0 {
			return fmt.Errorf("lineage %s has no current version: %w", v.LineageID, ErrNotFound)
		}
		if err := tx.Create(v).Error; err != nil {
			return fmt.Errorf("insert version %s v%d: %w", v.LineageID, v.Version, err)
		}
		return nil
	})
}

// History returns every version of the lineage.
func (s *GormFactStore) History(ctx context.Context, lineageID string) ([]FactVersion, error) {
	var versions []FactVersion
	err := s.db.WithContext(ctx).
		Where("lineage_id = ?", lineageID).
		Order("version ASC").
		Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	if len(versions) == 0 {
		return nil, ErrNotFound
	}
	return versions, nil
}
