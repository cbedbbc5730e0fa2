package metrics

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"campaign-dashboard/internal/category"
	"campaign-dashboard/internal/models"
	"campaign-dashboard/internal/transformer"
)

// Predicate selects records. A record missing the field a predicate looks at
// simply does not match.
type Predicate func(models.CampaignRecord) bool

// Extractor pulls the raw cell a numeric aggregate works on.
type Extractor func(models.CampaignRecord) interface{}

// Classifier returns the group label of a record, or false to leave it out.
type Classifier func(models.CampaignRecord) (string, bool)

// Ordering is the order policy of grouped output.
type Ordering int

const (
	// OrderPreferred puts the pinned labels first, the rest alphabetically.
	OrderPreferred Ordering = iota
	// OrderCountDesc sorts by value descending, ties alphabetically.
	OrderCountDesc
	// OrderAlpha sorts by label.
	OrderAlpha
)

// Sample is the running sum and count of valid numeric cells. Samples from
// different sources add up, so a pooled mean divides once at the end.
type Sample struct {
	Sum   float64 `json:"sum"`
	Count int     `json:"count"`
}

func (s Sample) Add(o Sample) Sample {
	return Sample{Sum: s.Sum + o.Sum, Count: s.Count + o.Count}
}

// Mean is 0 for an empty sample.
func (s Sample) Mean() float64 {
	return safeDivide(s.Sum, float64(s.Count))
}

type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

func (c *Calculator) CountBy(records []models.CampaignRecord, pred Predicate) int {
	n := 0
	for _, r := range records {
		if pred(r) {
			n++
		}
	}
	return n
}

// Collect coerces every extracted cell and keeps the valid ones.
func (c *Calculator) Collect(records []models.CampaignRecord, extract Extractor) Sample {
	var s Sample
	for _, r := range records {
		if v, ok := transformer.CoerceNumber(extract(r)); ok {
			s.Sum += v
			s.Count++
		}
	}
	return s
}

func (c *Calculator) Sum(records []models.CampaignRecord, extract Extractor) float64 {
	return c.Collect(records, extract).Sum
}

// Average is unrounded; use Round1 for display values.
func (c *Calculator) Average(records []models.CampaignRecord, extract Extractor) float64 {
	return c.Collect(records, extract).Mean()
}

// GroupBy tallies records per label and orders the result.
func (c *Calculator) GroupBy(records []models.CampaignRecord, classify Classifier, order Ordering, preferred []string) []models.LabelValue {
	counts := make(map[string]int)
	for _, r := range records {
		if label, ok := classify(r); ok {
			counts[label]++
		}
	}
	return Ordered(counts, order, preferred)
}

// Ordered turns label counts into a list under the given ordering.
func Ordered(counts map[string]int, order Ordering, preferred []string) []models.LabelValue {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}

	switch order {
	case OrderCountDesc:
		sort.Slice(labels, func(i, j int) bool {
			if counts[labels[i]] != counts[labels[j]] {
				return counts[labels[i]] > counts[labels[j]]
			}
			return labels[i] < labels[j]
		})
	case OrderAlpha:
		sort.Strings(labels)
	default:
		category.SortLabels(labels, preferred)
	}

	out := make([]models.LabelValue, 0, len(labels))
	for _, label := range labels {
		out = append(out, models.LabelValue{Name: label, Value: float64(counts[label])})
	}
	return out
}

// GroupByMonth counts records per calendar month. The result always has
// twelve entries, January first, with empty months at zero.
func (c *Calculator) GroupByMonth(records []models.CampaignRecord, month func(models.CampaignRecord) (time.Month, bool)) []models.LabelValue {
	var counts [12]int
	for _, r := range records {
		if m, ok := month(r); ok && m >= time.January && m <= time.December {
			counts[m-1]++
		}
	}

	out := make([]models.LabelValue, 12)
	for i := range out {
		out[i] = models.LabelValue{Name: time.Month(i + 1).String(), Value: float64(counts[i])}
	}
	return out
}

// Predicates and extractors over logical fields.

// NonEmpty matches records whose field holds non-blank text.
func NonEmpty(f models.Field) Predicate {
	return func(r models.CampaignRecord) bool {
		return r.Text(f) != ""
	}
}

// TextIs matches a field equal to value after trimming, ignoring case.
func TextIs(f models.Field, value string) Predicate {
	value = strings.TrimSpace(value)
	return func(r models.CampaignRecord) bool {
		return strings.EqualFold(r.Text(f), value)
	}
}

func And(preds ...Predicate) Predicate {
	return func(r models.CampaignRecord) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Cell extracts the raw cell behind a field.
func Cell(f models.Field) Extractor {
	return func(r models.CampaignRecord) interface{} {
		return r.Cell(f)
	}
}

// Round1 rounds half away from zero to one decimal place.
func Round1(f float64) float64 {
	v, _ := decimal.NewFromFloat(f).Round(1).Float64()
	return v
}

// FormatPercent renders f with one decimal and a percent sign ("26.7%").
func FormatPercent(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(1) + "%"
}

var printer = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators ("1,234").
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

func safeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
