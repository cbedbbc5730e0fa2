package category

import (
	"sort"
	"strings"
)

// Category is one of the canonical solution categories.
type Category string

const (
	VAPT                 Category = "VAPT"
	TransitionalAdvisory Category = "Transitional Advisory"
	ESG                  Category = "ESG"

	// Other is the bucket label used by call sites that group unknown values together.
	Other = "Other"
)

// PreferredOrder pins the canonical categories ahead of everything else in grouped output.
var PreferredOrder = []string{string(VAPT), string(TransitionalAdvisory), string(ESG)}

type rule struct {
	category Category
	exact    []string
	contains []string
	prefix   []string
}

func (r rule) matches(s string) bool {
	for _, e := range r.exact {
		if s == e {
			return true
		}
	}
	for _, c := range r.contains {
		if strings.Contains(s, c) {
			return true
		}
	}
	for _, p := range r.prefix {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Rules are evaluated top to bottom and the first match wins, so
// "ESG transitional plan" is Transitional Advisory, not ESG.
var rules = []rule{
	{category: VAPT, exact: []string{"vapt"}, contains: []string{"vapt"}},
	{category: TransitionalAdvisory, exact: []string{"ta", "tas"}, contains: []string{"transitional advisory", "transitional"}},
	{category: ESG, exact: []string{"esg"}, prefix: []string{"esg"}},
}

// Normalize classifies free solution text. It reports false when no rule matches.
func Normalize(raw string) (Category, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	for _, r := range rules {
		if r.matches(s) {
			return r.category, true
		}
	}
	return "", false
}

// UnknownPolicy says what a call site does with text that matches no category.
type UnknownPolicy int

const (
	// UnknownExclude drops the value.
	UnknownExclude UnknownPolicy = iota
	// UnknownPassThrough keeps the trimmed raw text as its own label.
	UnknownPassThrough
	// UnknownOther buckets the value under Other.
	UnknownOther
)

// Classify returns the grouping label for raw under policy. Empty text is
// never grouped. It reports false when the value is excluded.
func Classify(raw string, policy UnknownPolicy) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if c, ok := Normalize(trimmed); ok {
		return string(c), true
	}
	switch policy {
	case UnknownPassThrough:
		return trimmed, true
	case UnknownOther:
		return Other, true
	default:
		return "", false
	}
}

// Classifier adapts Classify to a fixed policy.
func Classifier(policy UnknownPolicy) func(string) (string, bool) {
	return func(raw string) (string, bool) {
		return Classify(raw, policy)
	}
}

// ProjectFilter is the project selector of the dashboard filters.
type ProjectFilter string

const (
	ProjectAll  ProjectFilter = "all"
	ProjectESG  ProjectFilter = "ESG"
	ProjectTA   ProjectFilter = "TA"
	ProjectVAPT ProjectFilter = "VAPT"
)

// ParseProjectFilter accepts the short codes case-insensitively and the full
// category names. Anything else selects all projects.
func ParseProjectFilter(s string) ProjectFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "esg":
		return ProjectESG
	case "ta", "transitional advisory":
		return ProjectTA
	case "vapt":
		return ProjectVAPT
	default:
		return ProjectAll
	}
}

// Category returns the category a filter selects, or false for ProjectAll.
func (p ProjectFilter) Category() (Category, bool) {
	switch p {
	case ProjectESG:
		return ESG, true
	case ProjectTA:
		return TransitionalAdvisory, true
	case ProjectVAPT:
		return VAPT, true
	default:
		return "", false
	}
}

// Matches reports whether solution text passes the filter.
func (p ProjectFilter) Matches(solution string) bool {
	want, ok := p.Category()
	if !ok {
		return true
	}
	got, ok := Normalize(solution)
	return ok && got == want
}

// SortLabels orders labels with the preferred ones first, in their pinned
// order, then the rest alphabetically.
func SortLabels(labels []string, preferred []string) {
	rank := make(map[string]int, len(preferred))
	for i, p := range preferred {
		rank[p] = i
	}
	sort.SliceStable(labels, func(i, j int) bool {
		ri, iok := rank[labels[i]]
		rj, jok := rank[labels[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		default:
			return labels[i] < labels[j]
		}
	})
}
