package models

import "time"

// Span 是一个事实的有效时间区间。End 为 nil 表示仍在持续。
type Span struct {
	Start time.Time
	End   *time.Time
}

// Closed 报告区间是否已经结束。
func (s Span) Closed() bool {
	return s.End != nil
}

// EffectiveEnd 返回区间的有效结束时间，持续中的区间以 now 代替。
func (s Span) EffectiveEnd(now time.Time) time.Time {
	if s.End != nil {
		return *s.End
	}
	return now
}

// clampEnd 保证 end 不早于 start。
func clampEnd(start time.Time, end *time.Time) *time.Time {
	if end == nil {
		return nil
	}
	e := *end
	if e.Before(start) {
		e = start
	}
	return &e
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
