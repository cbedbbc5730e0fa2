package dashboard

import (
	"strconv"
	"strings"
	"time"

	"campaign-dashboard/internal/category"
	"campaign-dashboard/internal/daterange"
	"campaign-dashboard/internal/metrics"
	"campaign-dashboard/internal/models"
	"campaign-dashboard/internal/sources"
	"campaign-dashboard/internal/transformer"
)

// Every function here is a pure function of already fetched records, the
// selection and the current time.

var calc = metrics.NewCalculator()

// CampaignFilter matches campaign rows by project and by their Date column.
func CampaignFilter(sel Selection, now time.Time) metrics.Predicate {
	r := sel.Range(now)
	return func(rec models.CampaignRecord) bool {
		if !sel.Project.Matches(rec.Solution()) {
			return false
		}
		return daterange.RecordInRange(rec.Date, r, now)
	}
}

// PipelineFilter matches pipeline rows by project and, month-granular, by
// their Month column.
func PipelineFilter(sel Selection, now time.Time) metrics.Predicate {
	r := sel.Range(now)
	return func(rec models.CampaignRecord) bool {
		if !sel.Project.Matches(rec.Solution()) {
			return false
		}
		if r == nil {
			return true
		}
		m, y, ok := daterange.ParseMonth(rec.Month, now)
		return ok && daterange.MonthInRange(m, y, r)
	}
}

func filter(records []models.CampaignRecord, pred metrics.Predicate) []models.CampaignRecord {
	out := make([]models.CampaignRecord, 0, len(records))
	for _, r := range records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

func inMonthOf(now time.Time) metrics.Predicate {
	return func(rec models.CampaignRecord) bool {
		m, y, ok := daterange.ParseMonth(rec.Month, now)
		return ok && m == now.Month() && y == now.Year()
	}
}

// PipelineCards fills the prospect, hot lead and active pipeline cards from
// the pipeline tab.
func PipelineCards(records []models.CampaignRecord, sel Selection, now time.Time) StatsCards {
	rows := filter(records, PipelineFilter(sel, now))
	hasName := metrics.NonEmpty(models.FieldFirstName)

	cards := emptyStats()
	cards.TotalProspects = metrics.FormatCount(calc.CountBy(rows, hasName))
	cards.HotLeads = strconv.Itoa(calc.CountBy(rows, metrics.TextIs(models.FieldStatus, "hot")))
	cards.ActivePipeline = strconv.Itoa(calc.CountBy(rows, metrics.And(hasName, inMonthOf(now))))
	return cards
}

// PooledOpenRate is the sum-then-divide open rate across the open-rate tabs.
func PooledOpenRate(srcs []models.SourceRecords, sel Selection, now time.Time) string {
	s := sources.PooledSample(sources.Filter(srcs, CampaignFilter(sel, now)), metrics.Cell(models.FieldOpenRate))
	if s.Count == 0 {
		return "0%"
	}
	return metrics.FormatPercent(s.Mean())
}

// CampaignStats summarizes campaign rows: prospects is the total send count,
// hot leads the rows with leads, active pipeline the rows with sends.
func CampaignStats(records []models.CampaignRecord) StatsCards {
	totalSend := 0
	for _, r := range records {
		totalSend += r.Send
	}

	cards := emptyStats()
	cards.TotalProspects = metrics.FormatCount(totalSend)
	cards.HotLeads = strconv.Itoa(calc.CountBy(records, func(r models.CampaignRecord) bool { return r.Leads > 0 }))
	cards.ActivePipeline = strconv.Itoa(calc.CountBy(records, func(r models.CampaignRecord) bool { return r.Send > 0 }))

	if s := calc.Collect(records, metrics.Cell(models.FieldOpenRate)); s.Count > 0 {
		cards.AvgOpenRate = metrics.FormatPercent(s.Mean())
	}
	return cards
}

// OpenRateList lists named campaigns that have a valid open rate.
func OpenRateList(srcs []models.SourceRecords, sel Selection, now time.Time) []OpenRateCampaign {
	pred := CampaignFilter(sel, now)
	out := []OpenRateCampaign{}
	for _, src := range srcs {
		for _, rec := range src.Records {
			if rec.CampaignName == "" || !pred(rec) {
				continue
			}
			open, ok := transformer.CoerceNumber(rec.Cell(models.FieldOpenRate))
			if !ok {
				continue
			}
			click, _ := transformer.CoerceNumber(rec.Cell(models.FieldClickRate))
			out = append(out, OpenRateCampaign{
				Name:      rec.CampaignName,
				OpenRate:  open,
				ClickRate: click,
				Date:      rec.Date,
				Source:    src.Name,
			})
		}
	}
	return out
}

// Performance is the rounded average open rate of each source, labelled by
// labels[source name]. A failed source reports 0.
func Performance(srcs []models.SourceRecords, labels map[string]string, sel Selection, now time.Time) []models.LabelValue {
	pred := CampaignFilter(sel, now)
	out := make([]models.LabelValue, 0, len(srcs))
	for _, src := range srcs {
		label := labels[src.Name]
		if label == "" {
			label = src.Name
		}
		avg := calc.Average(filter(src.Records, pred), metrics.Cell(models.FieldOpenRate))
		out = append(out, models.LabelValue{Name: label, Value: metrics.Round1(avg)})
	}
	return out
}

func Active(records []models.CampaignRecord, sel Selection, now time.Time) ActiveCampaigns {
	rows := filter(records, CampaignFilter(sel, now))
	return ActiveCampaigns{
		Active:    calc.CountBy(rows, metrics.TextIs(models.FieldStatus, "active")),
		Completed: calc.CountBy(rows, metrics.TextIs(models.FieldStatus, "completed")),
	}
}

func solutionOf(policy category.UnknownPolicy) metrics.Classifier {
	return func(rec models.CampaignRecord) (string, bool) {
		return category.Classify(rec.SolutionArea, policy)
	}
}

// Solutions counts campaign rows per solution. Unknown solutions keep their
// own text; the canonical ones come first.
func Solutions(records []models.CampaignRecord, sel Selection, now time.Time) []models.LabelValue {
	rows := filter(records, CampaignFilter(sel, now))
	return calc.GroupBy(rows, solutionOf(category.UnknownPassThrough), metrics.OrderPreferred, category.PreferredOrder)
}

func Insights(records []models.CampaignRecord, sel Selection, now time.Time) PipelineInsights {
	rows := filter(records, PipelineFilter(sel, now))
	byStatus := func(rec models.CampaignRecord) (string, bool) {
		s := strings.TrimSpace(rec.Status)
		return s, s != ""
	}
	byMonth := func(rec models.CampaignRecord) (time.Month, bool) {
		m, _, ok := daterange.ParseMonth(rec.Month, now)
		return m, ok
	}

	return PipelineInsights{
		ByMonth:    calc.GroupByMonth(rows, byMonth),
		BySolution: calc.GroupBy(rows, solutionOf(category.UnknownPassThrough), metrics.OrderCountDesc, nil),
		ByStatus:   calc.GroupBy(rows, byStatus, metrics.OrderCountDesc, nil),
	}
}

func Status(records []models.CampaignRecord, sel Selection, now time.Time) PipelineStatus {
	rows := filter(records, PipelineFilter(sel, now))
	return PipelineStatus{
		TotalLeads:       calc.CountBy(rows, metrics.NonEmpty(models.FieldFirstName)),
		MeetingScheduled: calc.CountBy(rows, metrics.TextIs(models.FieldStatus, "meeting scheduled")),
		Hot:              calc.CountBy(rows, metrics.TextIs(models.FieldStatus, "hot")),
		MeetingDone:      calc.CountBy(rows, metrics.TextIs(models.FieldStatus, "meeting done")),
	}
}

func Tools(records []models.CampaignRecord, sel Selection, now time.Time) []models.LabelValue {
	rows := filter(records, CampaignFilter(sel, now))
	byTool := func(rec models.CampaignRecord) (string, bool) {
		return rec.EmailTool, rec.EmailTool != ""
	}
	return calc.GroupBy(rows, byTool, metrics.OrderCountDesc, nil)
}

// Projects counts campaign rows per canonical project; anything else is Other.
func Projects(records []models.CampaignRecord, sel Selection, now time.Time) []models.LabelValue {
	rows := filter(records, CampaignFilter(sel, now))
	byProject := func(rec models.CampaignRecord) (string, bool) {
		return category.Classify(rec.Solution(), category.UnknownOther)
	}
	return calc.GroupBy(rows, byProject, metrics.OrderPreferred, category.PreferredOrder)
}

// HeaderRows keys every data row by its header. Missing cells are "";
// columns with a blank header are dropped.
func HeaderRows(grid models.Grid) []map[string]interface{} {
	headers := grid.Headers()
	rows := grid.DataRows()
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]interface{}, len(headers))
		for i, h := range headers {
			if strings.TrimSpace(h) == "" {
				continue
			}
			cell := models.CellAt(row, i)
			if cell == nil {
				cell = ""
			}
			obj[h] = cell
		}
		out = append(out, obj)
	}
	return out
}
