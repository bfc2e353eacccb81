package models

import (
	"fmt"
	"time"
)

// Action 是对新事实的处理决定。
type Action string

const (
	ActionAppend Action = "APPEND" // 新的发作或疗程
	ActionUpdate Action = "UPDATE" // 修正仍在生效的记录
	ActionMerge  Action = "MERGE"  // 与最近结束、被报告间隔拆开的记录合并
)

// ParseAction 解析大小写不敏感的动作名称。
func ParseAction(s string) (Action, error) {
	switch Normalize(s) {
	case "append":
		return ActionAppend, nil
	case "update":
		return ActionUpdate, nil
	case "merge":
		return ActionMerge, nil
	}
	return "", fmt.Errorf("未知的动作: %q", s)
}

// 审计记录的结果类型。
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
)

// DecisionRecord 是一次陈述处理的审计记录，会写入审计库并发布到消息队列。
type DecisionRecord struct {
	ID           string       `json:"id" bson:"_id"`
	StatementID  string       `json:"statement_id" bson:"statement_id"`
	SubjectID    string       `json:"subject_id" bson:"subject_id"`
	Kind         FactKind     `json:"kind" bson:"kind"`
	Key          string       `json:"key" bson:"key"`
	Outcome      string       `json:"outcome" bson:"outcome"`
	Action       Action       `json:"action,omitempty" bson:"action,omitempty"`
	RuleAction   Action       `json:"rule_action,omitempty" bson:"rule_action,omitempty"`
	Confidence   float64      `json:"confidence" bson:"confidence"`
	LineageID    string       `json:"lineage_id,omitempty" bson:"lineage_id,omitempty"`
	Version      int          `json:"version,omitempty" bson:"version,omitempty"`
	WindowAction WindowAction `json:"window_action,omitempty" bson:"window_action,omitempty"`
	Reason       string       `json:"reason,omitempty" bson:"reason,omitempty"`
	RawText      string       `json:"raw_text" bson:"raw_text"`
	DecidedAt    time.Time    `json:"decided_at" bson:"decided_at"`
}
