package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatementRecordValidate(t *testing.T) {
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 10)
	early := start.AddDate(0, 0, -1)
	base := func() StatementRecord {
		return StatementRecord{SubjectID: "p1", Kind: KindMedication, ConceptOrCode: "metformin"}
	}

	tests := []struct {
		name    string
		mutate  func(r *StatementRecord)
		wantErr bool
	}{
		{"minimal", func(r *StatementRecord) {}, false},
		{"closed range", func(r *StatementRecord) { r.ValidStart, r.ValidEnd = &start, &end }, false},
		{"same day range", func(r *StatementRecord) { r.ValidStart, r.ValidEnd = &start, &start }, false},
		{"open start", func(r *StatementRecord) { r.ValidStart = &start }, false},
		{"missing subject", func(r *StatementRecord) { r.SubjectID = "" }, true},
		{"unknown kind", func(r *StatementRecord) { r.Kind = "allergy" }, true},
		{"missing concept", func(r *StatementRecord) { r.ConceptOrCode = "" }, true},
		{"end without start", func(r *StatementRecord) { r.ValidEnd = &end }, true},
		{"end before start", func(r *StatementRecord) { r.ValidStart, r.ValidEnd = &start, &early }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
