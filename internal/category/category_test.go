package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want Category
		ok   bool
	}{
		{"VAPT", VAPT, true},
		{"  vapt  ", VAPT, true},
		{"RSM VAPT Visual EDM", VAPT, true},
		{"TA", TransitionalAdvisory, true},
		{"tas", TransitionalAdvisory, true},
		{"Transitional Advisory", TransitionalAdvisory, true},
		{"transitional plan", TransitionalAdvisory, true},
		{"ESG", ESG, true},
		{"ESG Cement", ESG, true},
		{"esg-insurance", ESG, true},
		{"General ESG", "", false},
		{"Tax", "", false},
		{"", "", false},
		{"   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := Normalize(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_RuleOrderWins(t *testing.T) {
	// Matches the ESG prefix rule and the transitional keyword rule.
	got, ok := Normalize("ESG transitional roadmap")
	assert.True(t, ok)
	assert.Equal(t, TransitionalAdvisory, got)

	// Matches all three rule sets.
	got, ok = Normalize("esg transitional vapt")
	assert.True(t, ok)
	assert.Equal(t, VAPT, got)
}

func TestClassify(t *testing.T) {
	label, ok := Classify("Cyber Audit", UnknownExclude)
	assert.False(t, ok)
	assert.Empty(t, label)

	label, ok = Classify(" Cyber Audit ", UnknownPassThrough)
	assert.True(t, ok)
	assert.Equal(t, "Cyber Audit", label)

	label, ok = Classify("Cyber Audit", UnknownOther)
	assert.True(t, ok)
	assert.Equal(t, Other, label)

	label, ok = Classify("esg", UnknownExclude)
	assert.True(t, ok)
	assert.Equal(t, "ESG", label)

	for _, policy := range []UnknownPolicy{UnknownExclude, UnknownPassThrough, UnknownOther} {
		_, ok := Classify("  ", policy)
		assert.False(t, ok)
	}
}

func TestProjectFilter(t *testing.T) {
	assert.Equal(t, ProjectESG, ParseProjectFilter("esg"))
	assert.Equal(t, ProjectTA, ParseProjectFilter("TA"))
	assert.Equal(t, ProjectTA, ParseProjectFilter("Transitional Advisory"))
	assert.Equal(t, ProjectVAPT, ParseProjectFilter("VAPT"))
	assert.Equal(t, ProjectAll, ParseProjectFilter(""))
	assert.Equal(t, ProjectAll, ParseProjectFilter("something"))

	assert.True(t, ProjectAll.Matches(""))
	assert.True(t, ProjectESG.Matches("ESG General"))
	assert.False(t, ProjectESG.Matches("VAPT"))
	assert.True(t, ProjectTA.Matches("transitional"))
	assert.False(t, ProjectVAPT.Matches(""))
}

func TestSortLabels(t *testing.T) {
	labels := []string{"Zeta", "ESG", "Audit", "VAPT", "Transitional Advisory"}
	SortLabels(labels, PreferredOrder)
	assert.Equal(t, []string{"VAPT", "Transitional Advisory", "ESG", "Audit", "Zeta"}, labels)
}
