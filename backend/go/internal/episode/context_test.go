package episode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameRegimen(t *testing.T) {
	a := med("123", "5 mg", daysAgo(10), nil)
	b := med("123", "5MG", daysAgo(3), nil)
	b.Frequency, b.Route = " QD", "Oral"
	c := med("123", "10 mg", daysAgo(3), nil)
	d := med("999", "5 mg", daysAgo(3), nil)

	assert.True(t, SameRegimen(a, a), "reflexive")
	assert.True(t, SameRegimen(a, b))
	assert.Equal(t, SameRegimen(a, b), SameRegimen(b, a), "symmetric")
	assert.False(t, SameRegimen(a, c))
	assert.Equal(t, SameRegimen(a, c), SameRegimen(c, a))
	assert.False(t, SameRegimen(a, d))
}

func TestSameSymptomContext(t *testing.T) {
	base := symptom("Headache", daysAgo(5), nil)

	tests := []struct {
		name            string
		concept         string
		site, character string
		baseSite        string
		want            bool
	}{
		{name: "normalized concept", concept: "head ache", want: true},
		{name: "different concept", concept: "nausea", want: false},
		{name: "one side unset", concept: "headache", site: "left temple", want: true},
		{name: "both set equal", concept: "headache", site: "Left Temple", baseSite: "left temple", want: true},
		{name: "both set different", concept: "headache", site: "forehead", baseSite: "left temple", want: false},
		{name: "characteristics on one side", concept: "headache", character: "throbbing", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := base.Clone()
			a.BodySite = tt.baseSite
			b := symptom(tt.concept, daysAgo(1), nil)
			b.BodySite = tt.site
			b.Characteristics = tt.character
			assert.Equal(t, tt.want, SameSymptomContext(a, b))
			assert.Equal(t, tt.want, SameSymptomContext(b, a), "symmetric")
			assert.True(t, SameSymptomContext(b, b), "reflexive")
		})
	}

	a := base.Clone()
	a.Characteristics = "dull"
	b := base.Clone()
	b.Characteristics = "throbbing"
	assert.False(t, SameSymptomContext(a, b), "populated characteristics must match")
}
