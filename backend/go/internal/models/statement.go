package models

import (
	"errors"
	"time"
)

// StatementRecord 是上游实体抽取产生的规范化陈述。
type StatementRecord struct {
	StatementID     string      `json:"statement_id"`
	SubjectID       string      `json:"subject_id"`
	Kind            FactKind    `json:"kind"`
	ConceptOrCode   string      `json:"concept_or_code"`
	Dose            string      `json:"dose,omitempty"`
	Frequency       string      `json:"frequency,omitempty"`
	Route           string      `json:"route,omitempty"`
	BodySite        string      `json:"body_site,omitempty"`
	Characteristics string      `json:"characteristics,omitempty"`
	Severity        Severity    `json:"severity,omitempty"`
	Progression     Progression `json:"progression,omitempty"`
	ValidStart      *time.Time  `json:"valid_start,omitempty"` // 上游已抽取出的明确起止时间
	ValidEnd        *time.Time  `json:"valid_end,omitempty"`
	Provenance      string      `json:"provenance"`
	RawText         string      `json:"raw_text"`
	StatedAt        time.Time   `json:"stated_at"`
}

// Validate 检查陈述是否包含处理所需的最少字段。
func (r *StatementRecord) Validate() error {
	if r.SubjectID == "" {
		return errors.New("subject_id 不能为空")
	}
	if _, err := ParseFactKind(string(r.Kind)); err != nil {
		return err
	}
	if r.ConceptOrCode == "" {
		return errors.New("concept_or_code 不能为空")
	}
	if r.ValidEnd != nil {
		if r.ValidStart == nil {
			return errors.New("提供 valid_end 时必须同时提供 valid_start")
		}
		if r.ValidEnd.Before(*r.ValidStart) {
			return errors.New("valid_end 不能早于 valid_start")
		}
	}
	return nil
}

// TimeRange 是一个起止日期对。
type TimeRange struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// Assessment 是陈述校验的结果。被拒绝的陈述不允许创建或更新持久化事实。
type Assessment struct {
	IsValid         bool       `json:"is_valid"`
	Reason          string     `json:"reason"`
	Confidence      float64    `json:"confidence"`
	TimeRange       *TimeRange `json:"time_range,omitempty"`
	ApproximateTime bool       `json:"approximate_time"`
	Precision       *Precision `json:"precision,omitempty"`
	Phrase          string     `json:"phrase,omitempty"`
}

// Window 返回校验时顺带解析出的时间窗口，没有时返回 nil。
func (a Assessment) Window() *TimeWindow {
	if a.TimeRange == nil || a.Precision == nil {
		return nil
	}
	return &TimeWindow{
		Start:       a.TimeRange.Start,
		End:         copyTime(a.TimeRange.End),
		Precision:   *a.Precision,
		Approximate: a.ApproximateTime,
	}
}
