package episode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MedMemory/backend/go/internal/models"
)

func TestDecideMedicationScenarios(t *testing.T) {
	p := medPolicy()
	d := daysAgo(60)

	t.Run("overlapping same regimen updates", func(t *testing.T) {
		current := med("123", "5 mg", d, nil)
		next := med("123", "5 mg", d.Add(days(9)), nil)
		assert.Equal(t, models.ActionUpdate, Decide(p, current, next))
	})

	t.Run("restart shortly after completion merges", func(t *testing.T) {
		d1 := d.Add(days(20))
		current := med("123", "5 mg", d, &d1)
		next := med("123", "5 mg", d1.Add(days(2)), nil)
		require.Equal(t, models.ActionMerge, Decide(p, current, next))

		merged := MergeMedication(current, next, testNow)
		assert.Equal(t, d, merged.ValidStart)
		assert.Nil(t, merged.ValidEnd)
		assert.Equal(t, models.StatusActive, merged.Status)
		assert.Equal(t, current.Version+1, merged.Version)
	})

	t.Run("different code appends", func(t *testing.T) {
		current := med("123", "5 mg", d, nil)
		next := med("999", "5 mg", d.Add(days(1)), nil)
		assert.Equal(t, models.ActionAppend, Decide(p, current, next))
	})

	t.Run("dose change appends", func(t *testing.T) {
		current := med("123", "5 mg", d, nil)
		next := med("123", "10 mg", d.Add(days(1)), nil)
		assert.Equal(t, models.ActionAppend, Decide(p, current, next))
	})

	t.Run("long gap appends", func(t *testing.T) {
		d1 := d.Add(days(5))
		current := med("123", "5 mg", d, &d1)
		next := med("123", "5 mg", d1.Add(days(8)), nil)
		assert.Equal(t, models.ActionAppend, Decide(p, current, next))
	})
}

func TestDecideSymptomUsesWiderGaps(t *testing.T) {
	p := symptomPolicy()
	end := daysAgo(30)
	current := symptom("咳嗽", daysAgo(40), &end)

	assert.Equal(t, models.ActionUpdate, Decide(p, current, symptom("咳嗽", daysAgo(20), nil)))
	assert.Equal(t, models.ActionAppend, Decide(p, current, symptom("咳嗽", daysAgo(15), nil)),
		"with equal overlap and split gaps anything past the overlap gap is a new episode")

	narrow := p.WithGaps(7, 14)
	assert.Equal(t, models.ActionMerge, Decide(narrow, current, symptom("咳嗽", daysAgo(20), nil)))

	other := symptom("咳嗽", daysAgo(20), nil)
	other.BodySite = "胸部"
	current.BodySite = "咽喉"
	assert.Equal(t, models.ActionAppend, Decide(p, current, other))
}

func TestApplyMedicationUpdateBumpsVersion(t *testing.T) {
	current := med("123", "5 mg", daysAgo(30), nil)
	current.LastUpdated = testNow
	end := daysAgo(2)
	next := med("123", "", daysAgo(40), &end)
	next.Provenance = "doctor"

	ApplyMedicationUpdate(current, next, testNow)

	assert.Equal(t, 2, current.Version)
	assert.True(t, current.LastUpdated.After(testNow), "last_updated strictly increases even without clock advance")
	assert.Equal(t, daysAgo(40), current.ValidStart, "start widens to the earlier start")
	require.NotNil(t, current.ValidEnd)
	assert.Equal(t, end, *current.ValidEnd)
	assert.Equal(t, models.StatusCompleted, current.Status)
	assert.Equal(t, "5 mg", current.Dose, "empty fields do not overwrite")
	assert.Equal(t, "doctor", current.Provenance)
}

func TestApplySymptomUpdatePatchesContext(t *testing.T) {
	current := symptom("头痛", daysAgo(10), nil)
	current.ApproximateTime = true
	current.Severity = models.SeverityMild
	next := symptom("头痛", daysAgo(5), nil)
	next.Severity = models.SeverityModerate
	next.BodySite = "前额"

	ApplySymptomUpdate(current, next, testNow)

	assert.Equal(t, models.SeverityModerate, current.Severity)
	assert.Equal(t, "前额", current.BodySite)
	assert.False(t, current.ApproximateTime)
	assert.Equal(t, daysAgo(10), current.ValidStart)
	assert.Equal(t, models.StatusActive, current.Status)
	assert.Equal(t, 2, current.Version)
}

func TestMergeSymptomCollapses(t *testing.T) {
	end := daysAgo(20)
	current := symptom("头痛", daysAgo(40), &end)
	current.LineageID = "lineage-1"
	current.Version = 3
	nextEnd := daysAgo(1)
	next := symptom("头痛", daysAgo(10), &nextEnd)
	next.Provenance = "doctor"

	merged := MergeSymptom(current, next, testNow)

	assert.Equal(t, "lineage-1", merged.LineageID)
	assert.Equal(t, 4, merged.Version)
	assert.Equal(t, daysAgo(40), merged.ValidStart)
	require.NotNil(t, merged.ValidEnd)
	assert.Equal(t, nextEnd, *merged.ValidEnd)
	assert.Equal(t, models.StatusResolved, merged.Status)
	assert.Equal(t, "doctor", merged.Provenance)
	assert.Equal(t, 3, current.Version, "merge does not mutate the existing fact")
}

func TestSelectCurrentTieBreak(t *testing.T) {
	p := medPolicy()
	start := daysAgo(30)

	a := med("123", "5 mg", start, nil)
	a.LineageID, a.Version = "b", 2
	b := med("123", "5 mg", start, nil)
	b.LineageID, b.Version = "a", 2
	c := med("123", "5 mg", start, nil)
	c.LineageID, c.Version = "c", 1
	old := med("123", "5 mg", daysAgo(500), nil)
	other := med("999", "5 mg", daysAgo(1), nil)

	next := med("123", "5 mg", daysAgo(1), nil)

	got, ok := SelectCurrent(p, []*models.MedicationFact{c, a, other, old, b}, next, DefaultLookback)
	require.True(t, ok)
	assert.Equal(t, "a", got.LineageID, "equal start and version fall back to lineage order")

	a.LastUpdated = start.Add(time.Hour)
	got, _ = SelectCurrent(p, []*models.MedicationFact{c, a, b}, next, DefaultLookback)
	assert.Equal(t, "b", got.LineageID, "later last_updated wins before lineage order")

	_, ok = SelectCurrent(p, []*models.MedicationFact{old, other}, next, DefaultLookback)
	assert.False(t, ok, "facts outside the lookback are ignored")

	got, ok = SelectCurrent(p, []*models.MedicationFact{old}, next, 0)
	require.True(t, ok)
	assert.Same(t, old, got)
}

func TestUpsert(t *testing.T) {
	p := medPolicy()

	entries, action, _ := Upsert(p, nil, med("123", "5 mg", daysAgo(60), nil), DefaultLookback)
	require.Equal(t, models.ActionAppend, action)
	require.Len(t, entries, 1)

	entries, action, got := Upsert(p, entries, med("123", "5 mg", daysAgo(50), nil), DefaultLookback)
	assert.Equal(t, models.ActionUpdate, action)
	assert.Len(t, entries, 1)
	assert.Equal(t, 2, got.Version)

	end := daysAgo(40)
	entries, action, _ = Upsert(p, entries, med("123", "5 mg", daysAgo(60), &end), DefaultLookback)
	require.Equal(t, models.ActionUpdate, action)
	assert.Equal(t, models.StatusCompleted, entries[0].Status)

	entries, action, got = Upsert(p, entries, med("123", "5 mg", daysAgo(36), nil), DefaultLookback)
	assert.Equal(t, models.ActionMerge, action)
	require.Len(t, entries, 1, "merge replaces the existing fact")
	assert.Same(t, got, entries[0])
	assert.Equal(t, 4, got.Version)
	assert.Nil(t, got.ValidEnd)

	entries, action, _ = Upsert(p, entries, med("123", "10 mg", daysAgo(1), nil), DefaultLookback)
	assert.Equal(t, models.ActionAppend, action)
	assert.Len(t, entries, 2)
}

func TestApply(t *testing.T) {
	p := medPolicy()

	current := med("123", "5 mg", daysAgo(30), nil)
	next := med("123", "5 mg", daysAgo(40), nil)
	got := Apply(p, models.ActionUpdate, current, next, testNow)
	assert.Same(t, current, got)
	assert.Equal(t, daysAgo(40), got.ValidStart)
	assert.Equal(t, 2, got.Version)

	end := daysAgo(20)
	closed := med("123", "5 mg", daysAgo(40), &end)
	restart := med("123", "5 mg", daysAgo(18), nil)
	merged := Apply(p, models.ActionMerge, closed, restart, testNow)
	assert.NotSame(t, closed, merged)
	assert.Equal(t, daysAgo(40), merged.ValidStart)
	assert.Nil(t, merged.ValidEnd)
	assert.Equal(t, models.StatusActive, merged.Status)

	fresh := med("123", "10 mg", daysAgo(1), nil)
	assert.Same(t, fresh, Apply(p, models.ActionAppend, closed, fresh, testNow))
}

func TestCandidatesOrderAndLookback(t *testing.T) {
	p := medPolicy()
	older := med("123", "5 mg", daysAgo(90), nil)
	newer := med("123", "10 mg", daysAgo(10), nil)
	stale := med("123", "5 mg", daysAgo(500), nil)
	other := med("999", "5 mg", daysAgo(5), nil)

	got := Candidates(p, []*models.MedicationFact{older, stale, other, newer}, med("123", "5 mg", testNow, nil), DefaultLookback)
	require.Len(t, got, 2)
	assert.Same(t, newer, got[0])
	assert.Same(t, older, got[1])
}
