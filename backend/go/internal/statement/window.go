package statement

import (
	"time"

	"MedMemory/backend/go/internal/episode"
	"MedMemory/backend/go/internal/models"
)

// DefaultWindowGapDays 是两个时间窗口仍被视为同一次发作的最大间隔。
const DefaultWindowGapDays = 7

// UpdateTimeWindow 用新解析出的窗口更新已跟踪的窗口。
//
//   - 两个窗口既不重叠也不在 gapDays 之内：append，prev 原样返回，调用方应按新发作处理。
//   - 新窗口更精确：refine，开始时间取较晚者，精度与模糊标记取新窗口。
//   - 新窗口更模糊但开始更早：widen，只把开始时间前移，精度保持不变。
//   - 精度相同：merge，开始取较早者，只有两者都模糊时结果才模糊。
//   - 其余：keep。
//
// 除 append 外，返回窗口的精度永远不低于 prev。
func UpdateTimeWindow(prev, next models.TimeWindow, gapDays int) (models.WindowAction, models.TimeWindow) {
	return updateTimeWindowAt(prev, next, gapDays, startOfDay(time.Now()))
}

func updateTimeWindowAt(prev, next models.TimeWindow, gapDays int, today time.Time) (models.WindowAction, models.TimeWindow) {
	if !episode.OverlapOrAdjacent(prev.Span(), next.Span(), gapDays, today) {
		return models.WindowAppend, cloneWindow(prev)
	}

	switch {
	case next.Precision > prev.Precision:
		refined := models.TimeWindow{
			Start:       laterOf(prev.Start, next.Start),
			End:         endOr(next.End, prev.End),
			Precision:   next.Precision,
			Approximate: next.Approximate,
		}
		return models.WindowRefine, refined

	case next.Precision < prev.Precision && next.Start.Before(prev.Start):
		widened := cloneWindow(prev)
		widened.Start = next.Start
		return models.WindowWiden, widened

	case next.Precision == prev.Precision:
		merged := models.TimeWindow{
			Start:       earlierOf(prev.Start, next.Start),
			End:         endOr(prev.End, next.End),
			Precision:   prev.Precision,
			Approximate: prev.Approximate && next.Approximate,
		}
		return models.WindowMerge, merged
	}
	return models.WindowKeep, cloneWindow(prev)
}

func cloneWindow(w models.TimeWindow) models.TimeWindow {
	if w.End != nil {
		end := *w.End
		w.End = &end
	}
	return w
}

func endOr(first, fallback *time.Time) *time.Time {
	if first != nil {
		e := *first
		return &e
	}
	if fallback != nil {
		e := *fallback
		return &e
	}
	return nil
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

func earlierOf(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}
