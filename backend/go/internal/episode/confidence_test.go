package episode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MedMemory/backend/go/internal/models"
)

func TestMedicationConfidence(t *testing.T) {
	p := medPolicy()

	t.Run("different code", func(t *testing.T) {
		action, conf := Score(p, med("123", "5 mg", daysAgo(10), nil), med("999", "5 mg", daysAgo(5), nil), ScoreOptions{})
		assert.Equal(t, models.ActionAppend, action)
		assert.LessOrEqual(t, conf, 0.5)
		assert.InDelta(t, 0.2, conf, 1e-9)
	})

	t.Run("well supported update", func(t *testing.T) {
		current := med("123", "5 mg", daysAgo(30), nil)
		current.Provenance = "doctor"
		next := med("123", "5 mg", daysAgo(3), nil)
		next.Provenance = "ehr"
		action, conf := Score(p, current, next, ScoreOptions{})
		assert.Equal(t, models.ActionUpdate, action)
		assert.InDelta(t, 1.0, conf, 1e-9)
	})

	t.Run("split restart merges", func(t *testing.T) {
		end := daysAgo(40)
		current := med("123", "5 mg", daysAgo(60), &end)
		next := med("123", "5 mg", daysAgo(38), nil)
		action, conf := Score(p, current, next, ScoreOptions{})
		assert.Equal(t, models.ActionMerge, action)
		assert.InDelta(t, 0.85, conf, 1e-9)
	})

	t.Run("regimen change stays append", func(t *testing.T) {
		current := med("123", "5 mg", daysAgo(30), nil)
		next := med("123", "10 mg", daysAgo(3), nil)
		action, conf := Score(p, current, next, ScoreOptions{})
		assert.Equal(t, models.ActionAppend, action)
		assert.InDelta(t, 0.15, conf, 1e-9)
	})

	t.Run("distance decay", func(t *testing.T) {
		end := daysAgo(200)
		current := med("123", "5 mg", daysAgo(300), &end)
		current.LastUpdated = daysAgo(200)
		next := med("123", "5 mg", daysAgo(5), nil)
		action, conf := Score(p, current, next, ScoreOptions{})
		assert.Equal(t, models.ActionAppend, action)
		assert.InDelta(t, 0.6, conf, 1e-9, "append fallback is capped")
	})
}

func TestSymptomConfidenceGating(t *testing.T) {
	p := symptomPolicy()
	current := symptom("头痛", daysAgo(10), nil)
	current.Severity = models.SeverityMild
	current.Provenance = "doctor"
	next := symptom("头痛", daysAgo(2), nil)
	next.Severity = models.SeverityMild
	next.Provenance = "doctor"

	action, conf := Score(p, current, next, ScoreOptions{})
	assert.Equal(t, models.ActionUpdate, action)
	assert.InDelta(t, 0.7675, conf, 1e-9)

	action, conf = Score(p, current, next, ScoreOptions{HighRisk: ptr(true)})
	assert.Equal(t, models.ActionAppend, action)
	assert.InDelta(t, 0.55, conf, 1e-9)

	action, conf = Score(p, current, next, ScoreOptions{ApproximateTime: ptr(true)})
	assert.Equal(t, models.ActionAppend, action)
	assert.InDelta(t, 0.55, conf, 1e-9)

	next.ApproximateTime = true
	_, withFlag := Score(p, current, next, ScoreOptions{})
	_, overridden := Score(p, current, next, ScoreOptions{ApproximateTime: ptr(false)})
	assert.Less(t, withFlag, overridden, "approximate flag on either fact applies unless overridden")
}

func TestSymptomConfidenceContextMismatch(t *testing.T) {
	current := symptom("头痛", daysAgo(10), nil)
	current.BodySite = "前额"
	next := symptom("头痛", daysAgo(2), nil)
	next.BodySite = "后脑"

	action, conf := ComputeSymptomConfidence(current, next, ScoreOptions{})
	assert.Equal(t, models.ActionAppend, action)
	assert.InDelta(t, 0.35, conf, 1e-9)
}

func TestSeverityTrend(t *testing.T) {
	assert.InDelta(t, 0.03, severityTrend(models.SeverityMild, models.SeverityMild), 1e-9)
	assert.InDelta(t, 0.02, severityTrend(models.SeverityMild, models.SeverityModerate), 1e-9)
	assert.InDelta(t, -0.02, severityTrend(models.SeveritySevere, models.SeverityMild), 1e-9)
	assert.Zero(t, severityTrend(models.SeverityUnset, models.SeverityMild))
	assert.InDelta(t, 0.03, severityTrend("重度", models.SeveritySevere), 1e-9)
}

// 高风险只会让结果更保守：风险模式下接受的 UPDATE/MERGE 在普通模式下同样被接受。
func TestHighRiskIsMoreConservative(t *testing.T) {
	p := medPolicy()
	sp := symptomPolicy()
	provenances := []string{"", "chat", "self-report", "doctor", "ehr", "unknown"}
	starts := []int{1, 5, 20, 38, 45, 120}
	approx := []bool{false, true}

	end := daysAgo(40)
	var medRiskAppends, medNormalAppends int
	for _, prov := range provenances {
		for _, s := range starts {
			for _, a := range approx {
				current := med("123", "5 mg", daysAgo(60), &end)
				current.Provenance = prov
				next := med("123", "5 mg", daysAgo(s), nil)

				na, nc := Score(p, current, next, ScoreOptions{ApproximateTime: ptr(a), HighRisk: ptr(false)})
				ra, rc := Score(p, current, next, ScoreOptions{ApproximateTime: ptr(a), HighRisk: ptr(true)})
				if ra != models.ActionAppend {
					assert.Equal(t, na, ra)
					assert.GreaterOrEqual(t, rc, p.Scoring.Risk.Update-0.05)
					assert.GreaterOrEqual(t, nc, rc)
				}
				if na == models.ActionAppend {
					medNormalAppends++
				}
				if ra == models.ActionAppend {
					medRiskAppends++
				}

				sc := symptom("胸闷", daysAgo(60), &end)
				sc.Provenance = prov
				sn := symptom("胸闷", daysAgo(s), nil)
				sna, _ := Score(sp, sc, sn, ScoreOptions{ApproximateTime: ptr(a), HighRisk: ptr(false)})
				sra, _ := Score(sp, sc, sn, ScoreOptions{ApproximateTime: ptr(a), HighRisk: ptr(true)})
				if sra != models.ActionAppend {
					assert.Equal(t, sna, sra)
				}
			}
		}
	}
	assert.GreaterOrEqual(t, medRiskAppends, medNormalAppends)
}

func TestWatchListTriggersRiskThresholds(t *testing.T) {
	assert.True(t, IsHighRisk("Warfarin Sodium", HighRiskMedications))
	assert.True(t, IsHighRisk("华法林钠片", HighRiskMedications))
	assert.False(t, IsHighRisk("aspirin", HighRiskMedications))
	assert.True(t, IsHighRisk("Chest Pain", HighRiskSymptoms))
	assert.True(t, IsHighRisk("剧烈胸痛", HighRiskSymptoms))
	assert.False(t, IsHighRisk("", HighRiskSymptoms))

	p := symptomPolicy()
	current := symptom("胸痛", daysAgo(10), nil)
	current.Severity = models.SeverityMild
	current.Provenance = "doctor"
	next := symptom("胸痛", daysAgo(2), nil)
	next.Severity = models.SeverityMild
	next.Provenance = "doctor"
	action, _ := Score(p, current, next, ScoreOptions{})
	assert.Equal(t, models.ActionAppend, action, "watch-listed symptom uses the stricter thresholds")
}

func TestProvenanceWeight(t *testing.T) {
	tests := map[string]float64{
		"":            0.6,
		"EHR":         1.0,
		"doctor":      0.95,
		"Clinic":      0.9,
		"pharmacy":    0.85,
		"self_report": 0.65,
		"chat":        0.6,
		"医生":          0.95,
		"forum":       0.7,
	}
	for source, want := range tests {
		assert.InDelta(t, want, ProvenanceWeight(source), 1e-9, source)
	}
}

func TestDecideWithConfidence(t *testing.T) {
	p := medPolicy()
	next := med("123", "5 mg", daysAgo(3), nil)

	d := DecideWithConfidence(p, nil, next, ScoreOptions{})
	assert.Equal(t, models.ActionAppend, d.Action)
	assert.InDelta(t, 0.8, d.Confidence, 1e-9)
	assert.Nil(t, d.Candidate)

	other := med("999", "5 mg", daysAgo(10), nil)
	changed := med("123", "10 mg", daysAgo(20), nil)
	changed.LineageID = "changed"
	same := med("123", "5 mg", daysAgo(30), nil)
	same.LineageID = "same"

	d = DecideWithConfidence(p, []*models.MedicationFact{other, changed, same}, next, ScoreOptions{})
	assert.Equal(t, models.ActionUpdate, d.Action)
	require.NotNil(t, d.Candidate)
	assert.Equal(t, "same", d.Candidate.LineageID)
}
