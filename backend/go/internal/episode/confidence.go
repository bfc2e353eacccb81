package episode

import (
	"MedMemory/backend/go/internal/models"
)

// ScoreOptions 是调用方可选的显式覆盖，nil 表示由记录本身推断。
type ScoreOptions struct {
	ApproximateTime *bool `json:"approximate_time,omitempty"`
	HighRisk        *bool `json:"high_risk,omitempty"`
}

// Score 计算 next 相对 current 的候选动作与置信度。
// 候选动作未达到阈值时回退为 APPEND，置信度封顶为 FallbackCap。
func Score[T Fact](p Policy[T], current, next T, opts ScoreOptions) (models.Action, float64) {
	s := p.Scoring
	if !s.Gate(current, next) {
		return models.ActionAppend, s.Base
	}

	now := p.now()
	rel := p.Classify(current, next)
	cur, nxt := current.Temporal(), next.Temporal()

	conf := s.Base + s.Evidence(current, next, rel)
	avg := (ProvenanceWeight(cur.Provenance) + ProvenanceWeight(nxt.Provenance)) / 2
	conf += (avg - 0.6) * s.ProvenanceScale
	if !cur.LastUpdated.IsZero() && now.Sub(cur.LastUpdated) <= s.RecencyWindow {
		conf += s.RecencyBonus
	}

	approx := false
	if opts.ApproximateTime != nil {
		approx = *opts.ApproximateTime
	} else if s.Approximate != nil {
		approx = s.Approximate(current, next)
	}
	if approx {
		conf -= s.ApproximatePenalty
	}
	conf = clamp(conf)

	candidate := rel.Candidate()
	if !p.SameContext(current, next) {
		candidate = models.ActionAppend
	}

	risk := false
	if opts.HighRisk != nil {
		risk = *opts.HighRisk
	} else {
		risk = IsHighRisk(s.RiskName(current, next), s.WatchList)
	}
	th := s.Normal
	if risk {
		th = s.Risk
		if approx {
			conf = clamp(conf - s.RiskApproximatePenalty)
		}
	}

	switch candidate {
	case models.ActionUpdate:
		if conf >= th.Update {
			return models.ActionUpdate, conf
		}
	case models.ActionMerge:
		if conf >= th.Merge {
			return models.ActionMerge, conf
		}
	}
	return models.ActionAppend, min(conf, s.FallbackCap)
}

// ComputeMedicationConfidence 使用默认用药策略评分。
func ComputeMedicationConfidence(current, next *models.MedicationFact, opts ScoreOptions) (models.Action, float64) {
	return Score(MedicationPolicy(), current, next, opts)
}

// ComputeSymptomConfidence 使用默认症状策略评分。
func ComputeSymptomConfidence(current, next *models.SymptomFact, opts ScoreOptions) (models.Action, float64) {
	return Score(SymptomPolicy(), current, next, opts)
}

// NoCandidateConfidence 是没有任何既有记录时 APPEND 的置信度。
const NoCandidateConfidence = 0.8

// DecideWithConfidence 对 existing 中所有同一药品或症状的记录评分，返回置信度最高的决策。
// 置信度相同时按 SelectCurrent 的顺序取第一个。需要回看限制时先用 Candidates 过滤 existing。
func DecideWithConfidence[T Fact](p Policy[T], existing []T, next T, opts ScoreOptions) Decision[T] {
	candidates := Candidates(p, existing, next, 0)
	if len(candidates) == 0 {
		return Decision[T]{Action: models.ActionAppend, Confidence: NoCandidateConfidence}
	}
	var best Decision[T]
	for i, c := range candidates {
		action, conf := Score(p, c, next, opts)
		if i == 0 || conf > best.Confidence {
			best = Decision[T]{Action: action, Confidence: conf, Candidate: c}
		}
	}
	return best
}

func clamp(v float64) float64 {
	return max(0, min(1, v))
}
