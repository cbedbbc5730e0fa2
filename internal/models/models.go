package models

import (
	"fmt"
	"strings"
)

// Grid is the rectangular block of cells returned by a range fetch.
// Row 0 holds the headers; rows may be shorter than the header row.
// Cells are string, float64 or nil.
type Grid [][]interface{}

// Headers returns row 0 rendered as strings.
func (g Grid) Headers() []string {
	if len(g) == 0 {
		return nil
	}
	headers := make([]string, len(g[0]))
	for i, cell := range g[0] {
		headers[i] = CellString(cell)
	}
	return headers
}

// DataRows returns every row after the header row.
func (g Grid) DataRows() [][]interface{} {
	if len(g) < 2 {
		return nil
	}
	return g[1:]
}

// CellAt returns row[i], or nil when the row is too short.
func CellAt(row []interface{}, i int) interface{} {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

// CellString renders a raw cell as text. nil renders as "".
func CellString(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Field names a logical column of a campaign or pipeline sheet.
type Field string

const (
	FieldDate            Field = "date"
	FieldCampaignName    Field = "campaignName"
	FieldProject         Field = "project"
	FieldSolutionArea    Field = "solutionArea"
	FieldEmailTool       Field = "emailTool"
	FieldSend            Field = "send"
	FieldOpenRate        Field = "openRate"
	FieldClickRate       Field = "clickRate"
	FieldBounceRate      Field = "bounceRate"
	FieldUnsubscribeRate Field = "unsubscribeRate"
	FieldLeads           Field = "leads"
	FieldStatus          Field = "status"
	FieldFirstName       Field = "firstName"
	FieldMonth           Field = "month"
)

// AllFields lists every logical field in display order.
var AllFields = []Field{
	FieldDate, FieldCampaignName, FieldProject, FieldSolutionArea, FieldEmailTool,
	FieldSend, FieldOpenRate, FieldClickRate, FieldBounceRate, FieldUnsubscribeRate,
	FieldLeads, FieldStatus, FieldFirstName, FieldMonth,
}

// Data Quality Tracking Structures
type FieldQuality struct {
	IsValid       bool        `json:"is_valid"`
	Description   string      `json:"description"`
	OriginalValue interface{} `json:"original_value,omitempty"`
}

type RecordQuality struct {
	RecordID    string                  `json:"record_id"`
	IsValid     bool                    `json:"is_valid"`
	FieldErrors map[string]FieldQuality `json:"field_errors,omitempty"`
	ErrorCount  int                     `json:"error_count"`
}

// CampaignRecord is one spreadsheet row after column resolution and value coercion.
// It is built fresh on every fetch and never mutated afterwards.
type CampaignRecord struct {
	Source          string `json:"source" csv:"source"`
	Date            string `json:"date" csv:"date"`
	CampaignName    string `json:"campaignName" csv:"campaign_name"`
	Project         string `json:"project" csv:"project"`
	SolutionArea    string `json:"solutionArea" csv:"solution_area"`
	EmailTool       string `json:"emailTool" csv:"email_tool"`
	Send            int    `json:"send" csv:"send"`
	OpenRate        string `json:"openRate" csv:"open_rate"`
	ClickRate       string `json:"clickRate" csv:"click_rate"`
	BounceRate      string `json:"bounceRate" csv:"bounce_rate"`
	UnsubscribeRate string `json:"unsubscribeRate" csv:"unsubscribe_rate"`
	Leads           int    `json:"leads" csv:"leads"`
	Status          string `json:"status" csv:"status"`
	FirstName       string `json:"firstName,omitempty" csv:"first_name"`
	Month           string `json:"month,omitempty" csv:"month"`

	// Cells keeps the untouched cell behind every resolved field, so that
	// aggregates can apply their own coercion to the original value.
	Cells map[Field]interface{} `json:"-" csv:"-"`

	Quality RecordQuality `json:"-" csv:"-"`
}

// Cell returns the raw cell behind a logical field, or nil when the
// column was not found or the row was too short.
func (r CampaignRecord) Cell(f Field) interface{} {
	if r.Cells == nil {
		return nil
	}
	return r.Cells[f]
}

// Text returns the trimmed text of a logical field's raw cell.
func (r CampaignRecord) Text(f Field) string {
	return strings.TrimSpace(CellString(r.Cell(f)))
}

// Solution returns the project text, falling back to the solution area.
func (r CampaignRecord) Solution() string {
	if s := strings.TrimSpace(r.Project); s != "" {
		return s
	}
	return strings.TrimSpace(r.SolutionArea)
}

// SourceRecords is the normalized output of one sheet/tab.
type SourceRecords struct {
	Name    string
	Headers []string
	Records []CampaignRecord
	Err     error
}

// LabelValue is one entry of an ordered grouped aggregate.
type LabelValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Data Quality Report Structures
type SourceQuality struct {
	Source         string   `json:"source"`
	TotalRecords   int      `json:"total_records"`
	ValidRecords   int      `json:"valid_records"`
	QualityScore   float64  `json:"quality_score"`
	MissingColumns []string `json:"missing_columns"`
}

type QualitySummary struct {
	TotalRecords        int      `json:"total_records"`
	ValidRecords        int      `json:"valid_records"`
	OverallQualityScore float64  `json:"overall_quality_score"`
	CommonIssues        []string `json:"common_issues"`
}

type DataQualityReport struct {
	Summary   QualitySummary  `json:"summary"`
	Sources   []SourceQuality `json:"sources"`
	Records   []RecordQuality `json:"records,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// APIResponse is the envelope of every dashboard endpoint.
type APIResponse struct {
	Success     bool        `json:"success"`
	Data        interface{} `json:"data"`
	Error       string      `json:"error,omitempty"`
	Warnings    []string    `json:"warnings,omitempty"`
	LastUpdated string      `json:"lastUpdated"`
}
