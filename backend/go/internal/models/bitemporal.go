package models

import "time"

// Bitemporal 是用药记录与症状记录共享的双时态与版本字段。
//
// ValidStart/ValidEnd 是有效时间（事实在现实中成立的区间），LastUpdated 是事务时间。
// 同一谱系（LineageID）内 Version 单调不减。
type Bitemporal struct {
	LineageID   string     `json:"lineage_id,omitempty"`
	SubjectID   string     `json:"subject_id,omitempty"`
	ValidStart  time.Time  `json:"valid_start"`
	ValidEnd    *time.Time `json:"valid_end,omitempty"`
	Status      FactStatus `json:"status"`
	Version     int        `json:"version"`
	LastUpdated time.Time  `json:"last_updated"`
	Provenance  string     `json:"provenance,omitempty"` // 来源，例如 "doctor"、"chat"、"ehr"
}

// Temporal 返回共享字段本身，供泛型决策代码访问。
func (b *Bitemporal) Temporal() *Bitemporal {
	return b
}

// Span 返回有效时间区间。
func (b *Bitemporal) Span() Span {
	return Span{Start: b.ValidStart, End: b.ValidEnd}
}

// Touch 递增版本并刷新事务时间，保证 LastUpdated 严格递增。
func (b *Bitemporal) Touch(now time.Time) {
	b.Version++
	if !now.After(b.LastUpdated) {
		now = b.LastUpdated.Add(time.Microsecond)
	}
	b.LastUpdated = now
}

func (b *Bitemporal) ensureDefaults(now time.Time, closed FactStatus) {
	if b.Version < 1 {
		b.Version = 1
	}
	if b.LastUpdated.IsZero() {
		b.LastUpdated = now
	}
	b.ValidEnd = clampEnd(b.ValidStart, b.ValidEnd)
	if b.Status == "" {
		b.Status = StatusActive
		if b.ValidEnd != nil {
			b.Status = closed
		}
	}
}

func newBitemporal(start time.Time, end *time.Time, provenance string, closed FactStatus) Bitemporal {
	b := Bitemporal{
		ValidStart:  start,
		ValidEnd:    clampEnd(start, end),
		Status:      StatusActive,
		Version:     1,
		LastUpdated: time.Now(),
		Provenance:  provenance,
	}
	if b.ValidEnd != nil {
		b.Status = closed
	}
	return b
}
