package episode

import (
	"time"

	"MedMemory/backend/go/internal/models"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func daysAgo(n int) time.Time {
	return testNow.Add(-days(n))
}

func ptr[T any](v T) *T { return &v }

func med(code, dose string, start time.Time, end *time.Time) *models.MedicationFact {
	m := models.NewMedicationFact(code, dose, "qd", "oral", start, end, "chat")
	m.LastUpdated = start
	return m
}

func symptom(concept string, start time.Time, end *time.Time) *models.SymptomFact {
	s := models.NewSymptomFact(concept, start, end, "chat")
	s.LastUpdated = start
	return s
}

func medPolicy() Policy[*models.MedicationFact] {
	return MedicationPolicy().WithClock(fixedClock)
}

func symptomPolicy() Policy[*models.SymptomFact] {
	return SymptomPolicy().WithClock(fixedClock)
}
