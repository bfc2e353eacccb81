package models

import "fmt"

// FactStatus 定义了一个事实记录（用药疗程或症状发作）的生命周期状态。
type FactStatus string

const (
	StatusActive    FactStatus = "active"    // 仍在持续
	StatusCompleted FactStatus = "completed" // 用药疗程已结束
	StatusResolved  FactStatus = "resolved"  // 症状已缓解
)

// FactKind 区分两类事实谱系。
type FactKind string

const (
	KindMedication FactKind = "medication"
	KindSymptom    FactKind = "symptom"
)

// ParseFactKind 解析事实类型，未知取值返回错误。
func ParseFactKind(s string) (FactKind, error) {
	switch FactKind(s) {
	case KindMedication, KindSymptom:
		return FactKind(s), nil
	}
	return "", fmt.Errorf("未知的事实类型: %q", s)
}

// Severity 是症状的严重程度，空字符串表示未知。
type Severity string

const (
	SeverityUnset    Severity = ""
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// ParseSeverity 接受英文或中文的严重程度描述，无法识别时返回 SeverityUnset。
func ParseSeverity(s string) Severity {
	switch Normalize(s) {
	case "mild", "轻度", "轻微":
		return SeverityMild
	case "moderate", "中度":
		return SeverityModerate
	case "severe", "重度", "严重":
		return SeveritySevere
	}
	return SeverityUnset
}

// Rank 返回严重程度的序号（mild=1 … severe=3），未知为 0。
func (s Severity) Rank() int {
	switch ParseSeverity(string(s)) {
	case SeverityMild:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	}
	return 0
}

// Progression 描述症状的发展趋势，空字符串表示未知。
type Progression string

const (
	ProgressionUnset     Progression = ""
	ProgressionWorsening Progression = "worsening"
	ProgressionImproving Progression = "improving"
	ProgressionStable    Progression = "stable"
)

// ParseProgression 接受英文或中文的趋势描述。
func ParseProgression(s string) Progression {
	switch Normalize(s) {
	case "worsening", "加重":
		return ProgressionWorsening
	case "improving", "好转":
		return ProgressionImproving
	case "stable", "稳定":
		return ProgressionStable
	}
	return ProgressionUnset
}
