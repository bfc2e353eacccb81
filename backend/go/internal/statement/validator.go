package statement

import (
	"fmt"
	"strings"
	"time"

	"MedMemory/backend/go/internal/models"
)

// 校验结果的置信度。
const (
	ConfidenceDisclaimer    = 0.95
	ConfidenceContradiction = 0.8
	ConfidenceValid         = 0.6
)

// DisclaimerMarkers 是用户明确否认自己陈述的说法。
var DisclaimerMarkers = []string{
	"乱说", "编的", "骗你的", "假的", "不是真的", "瞎说", "开玩笑", "胡说", "扯淡",
	"made that up", "made it up", "made it all up", "was lying", "just lying",
	"i lied", "just kidding", "not true",
}

// contradiction 是一组同时出现即视为自相矛盾的标记。all 中每一组至少要命中一个。
type contradiction struct {
	label string
	all   [][]string
}

var contradictions = []contradiction{
	{
		// 只匹配说话人自述的性别，"男医生"、"男朋友" 不算。
		label: "男+怀孕",
		all: [][]string{
			{"我是男", "我是个男", "我是一个男", "本人是男", "本人男", "作为男", "身为男", "性别男", "性别:男", "性别：男"},
			{"怀孕"},
		},
	},
	{label: "昨天得了很多年", all: [][]string{{"昨天得了很多年"}}},
	{
		label: "male+pregnant",
		all: [][]string{
			{"i am a man", "i'm a man", "i am male", "i'm male", "as a man", "as a male"},
			{"pregnan"},
		},
	},
}

func (c contradiction) matches(text string) bool {
	for _, group := range c.all {
		hit := false
		for _, marker := range group {
			if strings.Contains(text, marker) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// Validator 判断一条陈述能否写入长期记忆，并顺带解析其中的时间短语。
type Validator struct {
	Parser Parser
}

// NewValidator 创建使用指定时钟的校验器，clock 为 nil 时使用 time.Now。
func NewValidator(clock func() time.Time) Validator {
	return Validator{Parser: Parser{Now: clock}}
}

// AssessStatement 使用当前时间校验 text。
func AssessStatement(text string) models.Assessment {
	return Validator{}.Assess(text)
}

// Assess 校验 text。否认标记 → 拒绝（0.95），自相矛盾 → 拒绝（0.8），否则有效（0.6）。
// 拒绝结果同样携带解析出的时间窗口，调用方可以把它留在会话上下文中。
func (v Validator) Assess(text string) models.Assessment {
	t := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	parsed := v.Parser.Parse(text)

	for _, marker := range DisclaimerMarkers {
		if strings.Contains(t, marker) {
			return withTime(models.Assessment{
				IsValid:    false,
				Reason:     fmt.Sprintf("disclaimer marker: %s", marker),
				Confidence: ConfidenceDisclaimer,
			}, parsed)
		}
	}
	for _, c := range contradictions {
		if c.matches(t) {
			return withTime(models.Assessment{
				IsValid:    false,
				Reason:     fmt.Sprintf("contradictory claim: %s", c.label),
				Confidence: ConfidenceContradiction,
			}, parsed)
		}
	}
	reason := "no red flags"
	if parsed != nil {
		reason = "time phrase parsed"
	}
	return withTime(models.Assessment{
		IsValid:    true,
		Reason:     reason,
		Confidence: ConfidenceValid,
	}, parsed)
}

func withTime(a models.Assessment, parsed *models.TimeParse) models.Assessment {
	if parsed == nil {
		return a
	}
	precision := parsed.Precision
	a.TimeRange = &models.TimeRange{Start: parsed.Start, End: parsed.End}
	a.ApproximateTime = parsed.Approximate
	a.Precision = &precision
	a.Phrase = parsed.Phrase
	return a
}
