package dashboard

import (
	"time"

	"campaign-dashboard/internal/category"
	"campaign-dashboard/internal/daterange"
	"campaign-dashboard/internal/models"
)

// Selection is the set of global dashboard filters.
type Selection struct {
	Filter    daterange.Filter
	StartDate string
	EndDate   string
	Project   category.ProjectFilter
}

// Range resolves the date filter at now.
func (s Selection) Range(now time.Time) *daterange.Range {
	return daterange.ResolveAt(now, s.Filter, s.StartDate, s.EndDate)
}

// StatsCards are the headline numbers, rendered for display.
type StatsCards struct {
	TotalProspects string `json:"totalProspects"`
	HotLeads       string `json:"hotLeads"`
	ActivePipeline string `json:"activePipeline"`
	AvgOpenRate    string `json:"avgOpenRate"`
}

func emptyStats() StatsCards {
	return StatsCards{TotalProspects: "0", HotLeads: "0", ActivePipeline: "0", AvgOpenRate: "0%"}
}

type CampaignData struct {
	Sheet   string                  `json:"sheet"`
	Records []models.CampaignRecord `json:"records"`
	Stats   StatsCards              `json:"stats"`
}

type OpenRateCampaign struct {
	Name      string  `json:"name"`
	OpenRate  float64 `json:"openRate"`
	ClickRate float64 `json:"clickRate"`
	Date      string  `json:"date,omitempty"`
	Source    string  `json:"source"`
}

type ActiveCampaigns struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

type PipelineInsights struct {
	ByMonth    []models.LabelValue `json:"byMonth"`
	BySolution []models.LabelValue `json:"bySolution"`
	ByStatus   []models.LabelValue `json:"byStatus"`
}

type PipelineStatus struct {
	TotalLeads       int `json:"totalLeads"`
	MeetingScheduled int `json:"meetingScheduled"`
	Hot              int `json:"hot"`
	MeetingDone      int `json:"meetingDone"`
}

// RawSheet is a tab as header-keyed rows.
type RawSheet struct {
	Sheet   string                   `json:"sheet"`
	Headers []string                 `json:"headers"`
	Rows    []map[string]interface{} `json:"rows"`
}

// Snapshot bundles every aggregate for export.
type Snapshot struct {
	GeneratedAt           time.Time               `json:"generatedAt"`
	Stats                 StatsCards              `json:"stats"`
	CampaignPerformance   []models.LabelValue     `json:"campaignPerformance"`
	ActiveCampaigns       ActiveCampaigns         `json:"activeCampaigns"`
	SolutionsDistribution []models.LabelValue     `json:"solutionsDistribution"`
	ToolDistribution      []models.LabelValue     `json:"toolDistribution"`
	ProjectDistribution   []models.LabelValue     `json:"projectDistribution"`
	Pipeline              PipelineInsights        `json:"pipeline"`
	PipelineStatus        PipelineStatus          `json:"pipelineStatus"`
	OpenRateCampaigns     []OpenRateCampaign      `json:"openRateCampaigns"`
	Records               []models.CampaignRecord `json:"-"`
	Warnings              []string                `json:"warnings,omitempty"`
}
