package models

import "time"

// SymptomFact 是一次症状发作。
//
// Concept 标识症状（名称或编码），BodySite 与 Characteristics 为可选的上下文；
// ApproximateTime 记录发作时间在录入时是否只是模糊描述。
type SymptomFact struct {
	Bitemporal
	Concept         string      `json:"concept"`
	BodySite        string      `json:"body_site,omitempty"`
	Characteristics string      `json:"characteristics,omitempty"`
	Severity        Severity    `json:"severity,omitempty"`
	Progression     Progression `json:"progression,omitempty"`
	ApproximateTime bool        `json:"approximate_time"`
}

// NewSymptomFact 创建版本号为 1 的症状记录。提供结束时间时状态为 resolved。
func NewSymptomFact(concept string, start time.Time, end *time.Time, provenance string) *SymptomFact {
	return &SymptomFact{
		Bitemporal: newBitemporal(start, end, provenance, StatusResolved),
		Concept:    concept,
	}
}

// Clone 返回一份深拷贝。
func (s *SymptomFact) Clone() *SymptomFact {
	c := *s
	c.ValidEnd = copyTime(s.ValidEnd)
	return &c
}

// EnsureDefaults 为外部解码得到的记录补齐缺省字段。
func (s *SymptomFact) EnsureDefaults(now time.Time) {
	s.ensureDefaults(now, StatusResolved)
}
