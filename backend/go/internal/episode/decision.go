package episode

import "MedMemory/backend/go/internal/models"

// Decision 是一次带置信度的决策。Candidate 是被选中的既有记录，没有时为零值。
type Decision[T Fact] struct {
	Action     models.Action
	Confidence float64
	Candidate  T
}

// Decide 执行规则判定：上下文不同 → APPEND，重叠或相邻 → UPDATE，
// 结束后短暂中断 → MERGE，其余 → APPEND。
func Decide[T Fact](p Policy[T], current, next T) models.Action {
	if !p.SameContext(current, next) {
		return models.ActionAppend
	}
	return p.Classify(current, next).Candidate()
}

// DecideMedication 使用默认用药策略判定。
func DecideMedication(current, next *models.MedicationFact) models.Action {
	return Decide(MedicationPolicy(), current, next)
}

// DecideSymptom 使用默认症状策略判定。
func DecideSymptom(current, next *models.SymptomFact) models.Action {
	return Decide(SymptomPolicy(), current, next)
}
