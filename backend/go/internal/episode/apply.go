package episode

import (
	"sort"
	"time"

	"MedMemory/backend/go/internal/models"
)

// DefaultLookback 是挑选当前记录时回看的时间范围。
const DefaultLookback = 12 * 30 * day

// ApplyMedicationUpdate 用 next 就地修正 current。
func ApplyMedicationUpdate(current, next *models.MedicationFact, now time.Time) {
	current.Dose = firstNonEmpty(next.Dose, current.Dose)
	current.Frequency = firstNonEmpty(next.Frequency, current.Frequency)
	current.Route = firstNonEmpty(next.Route, current.Route)
	applyTemporal(&current.Bitemporal, &next.Bitemporal, models.StatusCompleted, now)
}

// ApplySymptomUpdate 用 next 就地修正 current。只有两侧都是模糊时间时结果才保持模糊。
func ApplySymptomUpdate(current, next *models.SymptomFact, now time.Time) {
	current.BodySite = firstNonEmpty(next.BodySite, current.BodySite)
	current.Characteristics = firstNonEmpty(next.Characteristics, current.Characteristics)
	if next.Severity != models.SeverityUnset {
		current.Severity = next.Severity
	}
	if next.Progression != models.ProgressionUnset {
		current.Progression = next.Progression
	}
	current.ApproximateTime = current.ApproximateTime && next.ApproximateTime
	applyTemporal(&current.Bitemporal, &next.Bitemporal, models.StatusResolved, now)
}

func applyTemporal(current, next *models.Bitemporal, closed models.FactStatus, now time.Time) {
	if next.ValidStart.Before(current.ValidStart) {
		current.ValidStart = next.ValidStart
	}
	if next.ValidEnd != nil {
		end := *next.ValidEnd
		if end.Before(current.ValidStart) {
			end = current.ValidStart
		}
		current.ValidEnd = &end
		current.Status = closed
	}
	current.Provenance = firstNonEmpty(next.Provenance, current.Provenance)
	current.Touch(now)
}

// MergeMedication 把 current 与其后被拆开的 next 合并为一条记录，保留 current 的谱系。
func MergeMedication(current, next *models.MedicationFact, now time.Time) *models.MedicationFact {
	merged := current.Clone()
	merged.Dose = firstNonEmpty(next.Dose, current.Dose)
	merged.Frequency = firstNonEmpty(next.Frequency, current.Frequency)
	merged.Route = firstNonEmpty(next.Route, current.Route)
	mergeTemporal(&merged.Bitemporal, &current.Bitemporal, &next.Bitemporal, models.StatusCompleted, now)
	return merged
}

// MergeSymptom 把 current 与其后被拆开的 next 合并为一条记录，保留 current 的谱系。
func MergeSymptom(current, next *models.SymptomFact, now time.Time) *models.SymptomFact {
	merged := current.Clone()
	merged.BodySite = firstNonEmpty(next.BodySite, current.BodySite)
	merged.Characteristics = firstNonEmpty(next.Characteristics, current.Characteristics)
	if next.Severity != models.SeverityUnset {
		merged.Severity = next.Severity
	}
	if next.Progression != models.ProgressionUnset {
		merged.Progression = next.Progression
	}
	merged.ApproximateTime = current.ApproximateTime && next.ApproximateTime
	mergeTemporal(&merged.Bitemporal, &current.Bitemporal, &next.Bitemporal, models.StatusResolved, now)
	return merged
}

func mergeTemporal(merged, current, next *models.Bitemporal, closed models.FactStatus, now time.Time) {
	later := next
	if current.ValidStart.After(next.ValidStart) {
		later = current
	}
	merged.ValidStart = current.ValidStart
	if next.ValidStart.Before(merged.ValidStart) {
		merged.ValidStart = next.ValidStart
	}
	merged.ValidEnd = nil
	merged.Status = models.StatusActive
	if later.ValidEnd != nil {
		end := *later.ValidEnd
		merged.ValidEnd = &end
		merged.Status = closed
	}
	merged.Provenance = firstNonEmpty(next.Provenance, current.Provenance)
	if merged.SubjectID == "" {
		merged.SubjectID = next.SubjectID
	}
	merged.Touch(now)
}

// SelectCurrent 从 existing 中挑出与 next 同一药品或症状的当前记录。
// 只考虑开始时间在 now-lookback 之后的记录（lookback <= 0 表示不限）。
// 排序依次为：开始时间最晚、版本最高、更新时间最晚、谱系 ID 最小。
func SelectCurrent[T Fact](p Policy[T], existing []T, next T, lookback time.Duration) (T, bool) {
	candidates := Candidates(p, existing, next, lookback)
	if len(candidates) == 0 {
		var zero T
		return zero, false
	}
	return candidates[0], true
}

// Candidates 返回 existing 中与 next 同一药品或症状、且在回看范围内的记录，按 SelectCurrent 的顺序排列。
func Candidates[T Fact](p Policy[T], existing []T, next T, lookback time.Duration) []T {
	var cutoff time.Time
	if lookback > 0 {
		cutoff = p.now().Add(-lookback)
	}
	var out []T
	for _, e := range existing {
		if !p.SameIdentity(e, next) {
			continue
		}
		if lookback > 0 && e.Temporal().ValidStart.Before(cutoff) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return precedes(out[i].Temporal(), out[j].Temporal())
	})
	return out
}

func precedes(a, b *models.Bitemporal) bool {
	if !a.ValidStart.Equal(b.ValidStart) {
		return a.ValidStart.After(b.ValidStart)
	}
	if a.Version != b.Version {
		return a.Version > b.Version
	}
	if !a.LastUpdated.Equal(b.LastUpdated) {
		return a.LastUpdated.After(b.LastUpdated)
	}
	return a.LineageID < b.LineageID
}

// Apply 把 action 作用到 current 上，返回应当写入的记录。
// UPDATE 就地修正 current，MERGE 返回新的合并记录，APPEND 原样返回 next。
func Apply[T Fact](p Policy[T], action models.Action, current, next T, now time.Time) T {
	switch action {
	case models.ActionUpdate:
		p.Update(current, next, now)
		return current
	case models.ActionMerge:
		return p.Merge(current, next, now)
	}
	return next
}

// Upsert 在一个谱系列表上执行一次完整的规则决策：挑选当前记录、判定、应用。
// 返回更新后的列表、动作以及受影响的记录。
func Upsert[T Fact](p Policy[T], entries []T, next T, lookback time.Duration) ([]T, models.Action, T) {
	current, ok := SelectCurrent(p, entries, next, lookback)
	if !ok {
		return append(entries, next), models.ActionAppend, next
	}
	action := Decide(p, current, next)
	got := Apply(p, action, current, next, p.now())
	switch action {
	case models.ActionUpdate:
		return entries, action, got
	case models.ActionMerge:
		out := make([]T, 0, len(entries))
		for _, e := range entries {
			if e.Temporal() != current.Temporal() {
				out = append(out, e)
			}
		}
		return append(out, got), action, got
	}
	return append(entries, got), action, got
}
