package episode

import (
	"math"
	"time"

	"MedMemory/backend/go/internal/models"
)

// Fact 是可以参与决策的记录类型，需要暴露共享的双时态字段。
type Fact interface {
	Temporal() *models.Bitemporal
}

// Thresholds 是候选动作被接受所需的最低置信度。
type Thresholds struct {
	Update float64 `yaml:"update" json:"update"`
	Merge  float64 `yaml:"merge" json:"merge"`
}

// Scoring 描述置信度评分中随事实类型变化的部分。
type Scoring[T Fact] struct {
	Base float64
	// Gate 不成立时直接返回 (APPEND, Base)。
	Gate     func(current, next T) bool
	Evidence func(current, next T, rel Relation) float64

	ProvenanceScale    float64
	RecencyBonus       float64
	RecencyWindow      time.Duration
	ApproximatePenalty float64
	// Approximate 在调用方未显式指定时判定时间是否模糊，可为 nil。
	Approximate func(current, next T) bool

	RiskName  func(current, next T) string
	WatchList []string
	// RiskApproximatePenalty 在高风险且时间模糊时额外扣除。
	RiskApproximatePenalty float64

	Normal      Thresholds
	Risk        Thresholds
	FallbackCap float64
}

// Policy 把一类事实的比较能力与常量打包，决策代码只依赖它。
type Policy[T Fact] struct {
	Kind models.FactKind
	// SameIdentity 判断两条记录是否是同一药品或同一症状，用于挑选当前记录。
	SameIdentity func(a, b T) bool
	// SameContext 判断两条记录是否属于同一方案或同一症状上下文。
	SameContext func(a, b T) bool
	// Update 就地修正 current，Merge 返回合并后的新记录。
	Update func(current, next T, now time.Time)
	Merge  func(current, next T, now time.Time) T

	OverlapGapDays int
	SplitGapDays   int
	Scoring        Scoring[T]
	Clock          func() time.Time
}

func (p Policy[T]) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return time.Now()
}

// Classify 按本策略的间隔常量计算两条记录的时间关系。
func (p Policy[T]) Classify(current, next T) Relation {
	return Classify(current.Temporal().Span(), next.Temporal().Span(), p.OverlapGapDays, p.SplitGapDays, p.now())
}

// WithGaps 返回替换了重叠与拆分间隔的策略副本。
func (p Policy[T]) WithGaps(overlapGapDays, splitGapDays int) Policy[T] {
	p.OverlapGapDays = overlapGapDays
	p.SplitGapDays = splitGapDays
	return p
}

// WithClock 返回使用指定时钟的策略副本。
func (p Policy[T]) WithClock(clock func() time.Time) Policy[T] {
	p.Clock = clock
	return p
}

// WithThresholds 返回替换了普通与高风险阈值的策略副本。
func (p Policy[T]) WithThresholds(normal, risk Thresholds) Policy[T] {
	p.Scoring.Normal = normal
	p.Scoring.Risk = risk
	return p
}

// MedicationPolicy 返回用药记录的默认策略：重叠间隔 0 天，拆分间隔 7 天。
func MedicationPolicy() Policy[*models.MedicationFact] {
	return Policy[*models.MedicationFact]{
		Kind:           models.KindMedication,
		SameIdentity:   sameCode,
		SameContext:    SameRegimen,
		Update:         ApplyMedicationUpdate,
		Merge:          MergeMedication,
		OverlapGapDays: 0,
		SplitGapDays:   7,
		Scoring: Scoring[*models.MedicationFact]{
			Base:     0.2,
			Gate:     sameCode,
			Evidence: medicationEvidence,

			ProvenanceScale:    0.3,
			RecencyBonus:       0.05,
			RecencyWindow:      days(90),
			ApproximatePenalty: 0.07,

			RiskName: func(current, next *models.MedicationFact) string {
				return firstNonEmpty(next.Code, current.Code)
			},
			WatchList:              HighRiskMedications,
			RiskApproximatePenalty: 0.03,

			Normal:      Thresholds{Update: 0.75, Merge: 0.70},
			Risk:        Thresholds{Update: 0.80, Merge: 0.75},
			FallbackCap: 0.6,
		},
	}
}

// SymptomPolicy 返回症状记录的默认策略：重叠与拆分间隔均为 14 天。
func SymptomPolicy() Policy[*models.SymptomFact] {
	return Policy[*models.SymptomFact]{
		Kind:           models.KindSymptom,
		SameIdentity:   sameConcept,
		SameContext:    SameSymptomContext,
		Update:         ApplySymptomUpdate,
		Merge:          MergeSymptom,
		OverlapGapDays: 14,
		SplitGapDays:   14,
		Scoring: Scoring[*models.SymptomFact]{
			Base:     0.35,
			Gate:     SameSymptomContext,
			Evidence: symptomEvidence,

			ProvenanceScale:    0.25,
			RecencyBonus:       0.05,
			RecencyWindow:      days(90),
			ApproximatePenalty: 0.05,
			Approximate: func(current, next *models.SymptomFact) bool {
				return current.ApproximateTime || next.ApproximateTime
			},

			RiskName: func(current, next *models.SymptomFact) string {
				return firstNonEmpty(next.Concept, current.Concept)
			},
			WatchList:              HighRiskSymptoms,
			RiskApproximatePenalty: 0.03,

			Normal:      Thresholds{Update: 0.72, Merge: 0.68},
			Risk:        Thresholds{Update: 0.78, Merge: 0.74},
			FallbackCap: 0.55,
		},
	}
}

// medicationEvidence: 方案一致 ±0.4，再加时间亲和度。
func medicationEvidence(current, next *models.MedicationFact, rel Relation) float64 {
	score := -0.4
	if SameRegimen(current, next) {
		score = 0.4
	}
	switch {
	case rel.Overlap:
		score += 0.3
	case rel.Split:
		score += 0.2
	default:
		score += 0.2 * math.Exp(-float64(rel.GapDays)/30)
	}
	return score
}

func symptomEvidence(current, next *models.SymptomFact, rel Relation) float64 {
	score := 0.10
	if rel.Overlap {
		score = 0.25
	}
	if rel.Split {
		score += 0.10
	}
	return score + severityTrend(current.Severity, next.Severity)
}

// severityTrend: 相同 +0.03，相邻一级 +0.02，跨级 -0.02，任一侧未知为 0。
func severityTrend(a, b models.Severity) float64 {
	ra, rb := a.Rank(), b.Rank()
	if ra == 0 || rb == 0 {
		return 0
	}
	switch d := ra - rb; {
	case d == 0:
		return 0.03
	case d == 1 || d == -1:
		return 0.02
	default:
		return -0.02
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
