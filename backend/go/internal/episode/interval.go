package episode

import (
	"math"
	"time"

	"MedMemory/backend/go/internal/models"
)

const day = 24 * time.Hour

func days(n int) time.Duration {
	return time.Duration(n) * day
}

// OverlapOrAdjacent 判断两个区间是否重叠或相距不超过 gapDays 天。
// 仍在持续的区间以 now 作为有效结束时间。
func OverlapOrAdjacent(a, b models.Span, gapDays int, now time.Time) bool {
	gap := days(gapDays)
	if a.Start.After(b.EffectiveEnd(now).Add(gap)) {
		return false
	}
	if b.Start.After(a.EffectiveEnd(now).Add(gap)) {
		return false
	}
	return true
}

// IsSplit 判断 b 是否是 a 结束后不久（0 < 间隔 <= gapDays）重新开始的同一疗程。
func IsSplit(a, b models.Span, gapDays int) bool {
	if a.End == nil {
		return false
	}
	gap := b.Start.Sub(*a.End)
	return gap > 0 && gap <= days(gapDays)
}

// Relation 是两条记录在时间上的关系。
type Relation struct {
	Overlap bool
	Split   bool
	// GapDays 是 b 的开始距 a 的结束（持续中则为开始）的整天数，用于距离衰减。
	GapDays int
}

// Candidate 返回由时间关系推出的候选动作。
func (r Relation) Candidate() models.Action {
	switch {
	case r.Overlap:
		return models.ActionUpdate
	case r.Split:
		return models.ActionMerge
	}
	return models.ActionAppend
}

// Classify 计算 a 与 b 的时间关系。
func Classify(a, b models.Span, overlapGap, splitGap int, now time.Time) Relation {
	ref := a.Start
	if a.End != nil {
		ref = *a.End
	}
	gap := math.Abs(b.Start.Sub(ref).Hours() / 24)
	return Relation{
		Overlap: OverlapOrAdjacent(a, b, overlapGap, now),
		Split:   IsSplit(a, b, splitGap),
		GapDays: int(math.Floor(gap)),
	}
}
