package transformer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"campaign-dashboard/internal/daterange"
	"campaign-dashboard/internal/models"
)

type Transformer struct {
	aliases Aliases
}

func New() *Transformer {
	return NewWithAliases(DefaultAliases())
}

// NewWithAliases builds a transformer with custom column rules, e.g. from the YAML config.
func NewWithAliases(aliases Aliases) *Transformer {
	if len(aliases) == 0 {
		aliases = DefaultAliases()
	}
	return &Transformer{aliases: aliases}
}

func (t *Transformer) Aliases() Aliases {
	return t.aliases
}

// NormalizeRow normalizes a single row against headers using the default column rules.
func NormalizeRow(headers []string, row []interface{}) models.CampaignRecord {
	cm := NewColumnMap(headers, DefaultAliases())
	return New().normalizeRow(cm, "", 0, row)
}

// NormalizeGrid turns a fetched grid into records. The header row is resolved
// once; rows that are entirely empty are skipped.
func (t *Transformer) NormalizeGrid(source string, grid models.Grid) models.SourceRecords {
	return t.NormalizeGridWith(source, grid, t.aliases)
}

// NormalizeGridWith is NormalizeGrid with call-site column rules.
func (t *Transformer) NormalizeGridWith(source string, grid models.Grid, aliases Aliases) models.SourceRecords {
	out := models.SourceRecords{Name: source, Headers: grid.Headers()}
	if len(grid) == 0 {
		return out
	}

	cm := NewColumnMap(out.Headers, aliases)
	rows := grid.DataRows()
	out.Records = make([]models.CampaignRecord, 0, len(rows))
	for i, row := range rows {
		if isBlankRow(row) {
			continue
		}
		out.Records = append(out.Records, t.normalizeRow(cm, source, i+1, row))
	}
	return out
}

func (t *Transformer) normalizeRow(cm *ColumnMap, source string, rowIndex int, row []interface{}) models.CampaignRecord {
	quality := models.RecordQuality{
		RecordID:    recordID(source, rowIndex),
		IsValid:     true,
		FieldErrors: make(map[string]models.FieldQuality),
	}

	cells := make(map[models.Field]interface{}, len(models.AllFields))
	for _, f := range models.AllFields {
		if cell := cm.Cell(row, f); cell != nil {
			cells[f] = cell
		}
	}

	record := models.CampaignRecord{
		Source:          source,
		Date:            t.validateDate(cells[models.FieldDate], string(models.FieldDate), &quality),
		CampaignName:    text(cells[models.FieldCampaignName]),
		Project:         text(cells[models.FieldProject]),
		SolutionArea:    text(cells[models.FieldSolutionArea]),
		EmailTool:       text(cells[models.FieldEmailTool]),
		Send:            t.validateCount(cells[models.FieldSend], string(models.FieldSend), &quality),
		OpenRate:        t.validateRate(cells[models.FieldOpenRate], string(models.FieldOpenRate), &quality),
		ClickRate:       t.validateRate(cells[models.FieldClickRate], string(models.FieldClickRate), &quality),
		BounceRate:      t.validateRate(cells[models.FieldBounceRate], string(models.FieldBounceRate), &quality),
		UnsubscribeRate: t.validateRate(cells[models.FieldUnsubscribeRate], string(models.FieldUnsubscribeRate), &quality),
		Leads:           t.validateCount(cells[models.FieldLeads], string(models.FieldLeads), &quality),
		Status:          text(cells[models.FieldStatus]),
		FirstName:       text(cells[models.FieldFirstName]),
		Month:           text(cells[models.FieldMonth]),
		Cells:           cells,
	}

	quality.IsValid = quality.ErrorCount == 0
	record.Quality = quality
	return record
}

func recordID(source string, rowIndex int) string {
	if source == "" {
		return fmt.Sprintf("row_%d", rowIndex)
	}
	return fmt.Sprintf("%s_%d", source, rowIndex)
}

func text(cell interface{}) string {
	return strings.TrimSpace(models.CellString(cell))
}

func isBlankRow(row []interface{}) bool {
	for _, cell := range row {
		if text(cell) != "" {
			return false
		}
	}
	return true
}

func isEmptyOrPlaceholder(cell interface{}) bool {
	s := text(cell)
	return s == "" || isPlaceholder(s)
}

// Field validators. A blank cell is not an issue: most rows in these sheets
// leave some column empty. Only text that is present but unreadable is flagged.
func (t *Transformer) validateDate(cell interface{}, fieldName string, quality *models.RecordQuality) string {
	raw := text(cell)
	if raw == "" {
		return ""
	}
	if _, ok := daterange.ParseDate(raw, time.Now()); !ok {
		addIssue(quality, fieldName, "Unrecognized date format", raw)
	}
	return raw
}

func (t *Transformer) validateCount(cell interface{}, fieldName string, quality *models.RecordQuality) int {
	if isEmptyOrPlaceholder(cell) {
		return 0
	}
	if _, ok := CoerceNumber(cell); !ok {
		addIssue(quality, fieldName, "Not a non-negative number, using 0", cell)
		return 0
	}
	return CoerceInt(cell)
}

func (t *Transformer) validateRate(cell interface{}, fieldName string, quality *models.RecordQuality) string {
	if !isEmptyOrPlaceholder(cell) {
		if _, ok := CoerceNumber(cell); !ok {
			addIssue(quality, fieldName, "Not a percentage", cell)
		}
	}
	return FormatRate(cell)
}

func addIssue(quality *models.RecordQuality, fieldName, description string, original interface{}) {
	quality.FieldErrors[fieldName] = models.FieldQuality{
		IsValid:       false,
		Description:   description,
		OriginalValue: original,
	}
	quality.ErrorCount++
}

// GenerateQualityReport summarizes record quality per source and overall.
func (t *Transformer) GenerateQualityReport(sources []models.SourceRecords) models.DataQualityReport {
	report := models.DataQualityReport{
		Sources:   make([]models.SourceQuality, 0, len(sources)),
		Timestamp: time.Now().Format(time.RFC3339),
	}

	total, valid := 0, 0
	for _, src := range sources {
		sq := models.SourceQuality{
			Source:         src.Name,
			TotalRecords:   len(src.Records),
			MissingColumns: []string{},
		}
		if src.Err == nil {
			cm := NewColumnMap(src.Headers, t.aliases)
			for _, f := range cm.Missing(t.aliases) {
				sq.MissingColumns = append(sq.MissingColumns, string(f))
			}
		}
		for _, record := range src.Records {
			if record.Quality.IsValid {
				sq.ValidRecords++
			} else {
				report.Records = append(report.Records, record.Quality)
			}
		}
		sq.QualityScore = percentage(sq.ValidRecords, sq.TotalRecords)

		total += sq.TotalRecords
		valid += sq.ValidRecords
		report.Sources = append(report.Sources, sq)
	}

	report.Summary = models.QualitySummary{
		TotalRecords:        total,
		ValidRecords:        valid,
		OverallQualityScore: percentage(valid, total),
		CommonIssues:        t.identifyCommonIssues(sources),
	}
	return report
}

func (t *Transformer) identifyCommonIssues(sources []models.SourceRecords) []string {
	issueCount := make(map[string]int)
	for _, src := range sources {
		for _, record := range src.Records {
			for fieldName, fieldError := range record.Quality.FieldErrors {
				if !fieldError.IsValid {
					issueCount[fieldName+": "+fieldError.Description]++
				}
			}
		}
	}

	issues := make([]string, 0, len(issueCount))
	for issue := range issueCount {
		if issueCount[issue] > 1 {
			issues = append(issues, issue)
		}
	}
	sort.Slice(issues, func(i, j int) bool {
		if issueCount[issues[i]] != issueCount[issues[j]] {
			return issueCount[issues[i]] > issueCount[issues[j]]
		}
		return issues[i] < issues[j]
	})
	for i, issue := range issues {
		issues[i] = fmt.Sprintf("%s (occurs %d times)", issue, issueCount[issue])
	}
	return issues
}

func percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
