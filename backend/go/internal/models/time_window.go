package models

import (
	"fmt"
	"time"
)

// Precision 表示时间窗口的精确程度，数值越大越精确。
type Precision int

const (
	PrecisionVagueNearterm Precision = iota // “近期”“lately”，约 30 天
	PrecisionVagueRecent                    // “最近”“recently”，约 14 天
	PrecisionMonthRange
	PrecisionWeekRange
	PrecisionDayRange
	PrecisionExactDate
)

var precisionNames = map[Precision]string{
	PrecisionVagueNearterm: "vague_nearterm",
	PrecisionVagueRecent:   "vague_recent",
	PrecisionMonthRange:    "month_range",
	PrecisionWeekRange:     "week_range",
	PrecisionDayRange:      "day_range",
	PrecisionExactDate:     "exact_date",
}

func (p Precision) String() string {
	if name, ok := precisionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("precision(%d)", int(p))
}

// MarshalText 以名称形式序列化精度。
func (p Precision) MarshalText() ([]byte, error) {
	if _, ok := precisionNames[p]; !ok {
		return nil, fmt.Errorf("无效的时间精度: %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText 从名称解析精度。
func (p *Precision) UnmarshalText(text []byte) error {
	parsed, err := ParsePrecision(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePrecision 将名称解析为 Precision。
func ParsePrecision(name string) (Precision, error) {
	for p, n := range precisionNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("未知的时间精度: %q", name)
}

// TimeWindow 是从时间短语中解析出的时间范围。End 为 nil 表示延续到今天。
type TimeWindow struct {
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end,omitempty"`
	Precision   Precision  `json:"precision"`
	Approximate bool       `json:"approximate"`
}

// Span 将窗口转换为有效时间区间。
func (w TimeWindow) Span() Span {
	return Span{Start: w.Start, End: w.End}
}

// TimeParse 是一次时间短语解析的结果。
type TimeParse struct {
	TimeWindow
	Confidence float64 `json:"confidence"`
	Phrase     string  `json:"phrase"`
}

// WindowAction 是时间窗口合并后的处理标签。
type WindowAction string

const (
	WindowAppend WindowAction = "append" // 新窗口描述的是另一次发作
	WindowRefine WindowAction = "refine"
	WindowWiden  WindowAction = "widen"
	WindowMerge  WindowAction = "merge"
	WindowKeep   WindowAction = "keep"
)
