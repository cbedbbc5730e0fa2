package dashboard

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-dashboard/internal/client"
	"campaign-dashboard/internal/config"
	"campaign-dashboard/internal/models"
	"campaign-dashboard/internal/sources"
	"campaign-dashboard/internal/transformer"
)

type fakeSource struct {
	grids map[string]models.Grid
	errs  map[string]error
}

func (f *fakeSource) FetchGrid(ctx context.Context, sheet, rangeSpec string) (models.Grid, error) {
	if err := f.errs[sheet]; err != nil {
		return nil, err
	}
	grid, ok := f.grids[sheet]
	if !ok {
		return nil, &client.SourceError{Sheet: sheet, Err: client.ErrInvalidRange, Available: []string{"Pipeline", "Sheet1"}}
	}
	return grid, nil
}

func (f *fakeSource) ListSheetNames(ctx context.Context) ([]string, error) {
	return []string{"Pipeline", "Sheet1"}, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() *config.Config {
	return &config.Config{
		Sheets:  config.DefaultSheets(),
		Columns: transformer.DefaultAliases(),
	}
}

func newTestService(src sources.GridSource) *Service {
	cfg := testConfig()
	logger := quietLogger()
	var fetcher *sources.Fetcher
	if src != nil {
		fetcher = sources.NewFetcher(src, transformer.NewWithAliases(cfg.Columns), nil, logger)
	}
	svc := NewService(cfg, fetcher, logger)
	svc.now = func() time.Time { return today }
	return svc
}

func fullSource() *fakeSource {
	sheets := config.DefaultSheets()
	return &fakeSource{grids: map[string]models.Grid{
		"Sheet1": {
			{"Date", "Project Name", "Tool", "Send", "Open", "Leads"},
			{"3/01/2024", "VAPT", "Lemlist", "100", "40%", "1"},
			{"3/02/2024", "ESG", "Apollo", "50", "20%", "0"},
		},
		sheets.Pipeline: pipelineGrid(),
		sheets.OneOnOne: {
			{"Campaign Name", "Send Date", "Unique Opens", "Status", "Solution"},
			{"A", "3/10/2024", "20%", "Active", "VAPT"},
			{"B", "3/11/2024", "30%", "Completed", "ESG"},
		},
		sheets.Drip: {
			{"Name", "Date", "Open Rate %"},
			{"D", "3/14/2024", "30"},
		},
	}}
}

func TestService_NotConfigured(t *testing.T) {
	svc := newTestService(nil)
	assert.False(t, svc.Configured())

	cards, warnings := svc.Stats(context.Background(), Selection{})
	assert.Equal(t, emptyStats(), cards)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "not configured")

	perf, _ := svc.CampaignPerformance(context.Background(), Selection{})
	assert.Equal(t, []models.LabelValue{{Name: "1-1 Campaigns", Value: 0}, {Name: "Drip", Value: 0}}, perf)

	_, _, err := svc.RawData(context.Background(), "Pipeline")
	assert.ErrorIs(t, err, client.ErrNotConfigured)
}

func TestService_Stats(t *testing.T) {
	svc := newTestService(fullSource())
	cards, warnings := svc.Stats(context.Background(), Selection{})
	assert.Empty(t, warnings)
	assert.Equal(t, StatsCards{
		TotalProspects: "4",
		HotLeads:       "3",
		ActivePipeline: "3",
		AvgOpenRate:    "26.7%",
	}, cards)
}

func TestService_OpenRateTabsMatchLooseHeaders(t *testing.T) {
	svc := newTestService(fullSource())

	perf, _ := svc.CampaignPerformance(context.Background(), Selection{})
	assert.Equal(t, []models.LabelValue{{Name: "1-1 Campaigns", Value: 25}, {Name: "Drip", Value: 30}}, perf)

	list, _ := svc.OpenRateCampaigns(context.Background(), Selection{})
	require.Len(t, list, 3)
	assert.Equal(t, "3/10/2024", list[0].Date)

	active, _ := svc.ActiveCampaigns(context.Background(), Selection{})
	assert.Equal(t, ActiveCampaigns{Active: 1, Completed: 1}, active)

	solutions, _ := svc.SolutionsDistribution(context.Background(), Selection{})
	assert.Equal(t, []models.LabelValue{{Name: "VAPT", Value: 1}, {Name: "ESG", Value: 1}}, solutions)
}

func TestService_PartialFailure(t *testing.T) {
	src := fullSource()
	src.errs = map[string]error{
		config.DefaultSheets().Drip: &client.SourceError{Err: client.ErrQuotaExceeded, Status: 429},
	}
	svc := newTestService(src)

	cards, warnings := svc.Stats(context.Background(), Selection{})
	assert.Equal(t, "25.0%", cards.AvgOpenRate)
	assert.Equal(t, "4", cards.TotalProspects)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "RSM Stats - Drip: ")
	assert.Contains(t, warnings[0], "quota exceeded")
}

func TestService_CampaignData(t *testing.T) {
	svc := newTestService(fullSource())

	data, warnings := svc.CampaignData(context.Background(), Selection{}, "", "")
	assert.Empty(t, warnings)
	assert.Equal(t, "Sheet1", data.Sheet)
	require.Len(t, data.Records, 2)
	assert.Equal(t, "150", data.Stats.TotalProspects)
	assert.Equal(t, "30.0%", data.Stats.AvgOpenRate)

	pipeline, _ := svc.CampaignData(context.Background(), Selection{}, "pipeline", "")
	assert.Equal(t, "Pipeline", pipeline.Sheet)
	assert.Len(t, pipeline.Records, 5)
}

func TestService_Distributions(t *testing.T) {
	svc := newTestService(fullSource())

	tools, _ := svc.ToolDistribution(context.Background(), Selection{})
	assert.Equal(t, []models.LabelValue{{Name: "Apollo", Value: 1}, {Name: "Lemlist", Value: 1}}, tools)

	projects, _ := svc.ProjectDistribution(context.Background(), Selection{})
	assert.Equal(t, []models.LabelValue{{Name: "VAPT", Value: 1}, {Name: "ESG", Value: 1}}, projects)

	status, _ := svc.PipelineStatus(context.Background(), Selection{})
	assert.Equal(t, PipelineStatus{TotalLeads: 4, MeetingScheduled: 1, Hot: 3, MeetingDone: 1}, status)

	insights, _ := svc.PipelineInsights(context.Background(), Selection{})
	assert.Len(t, insights.ByMonth, 12)
}

func TestService_RawData(t *testing.T) {
	svc := newTestService(fullSource())

	raw, warnings, err := svc.RawData(context.Background(), "Pipeline")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"First Name", "Status", "Month", "Solution"}, raw.Headers)
	require.Len(t, raw.Rows, 5)
	assert.Equal(t, "Ana", raw.Rows[0]["First Name"])

	_, _, err = svc.RawData(context.Background(), "Pipline")
	require.ErrorIs(t, err, ErrSheetNotFound)
	assert.Contains(t, err.Error(), `Did you mean "Pipeline"?`)
}

func TestService_QualityAndSnapshot(t *testing.T) {
	svc := newTestService(fullSource())

	report, warnings := svc.QualityReport(context.Background())
	assert.Empty(t, warnings)
	assert.Len(t, report.Sources, 4)
	assert.Equal(t, 10, report.Summary.TotalRecords)

	snap := svc.Snapshot(context.Background(), Selection{})
	assert.Equal(t, today, snap.GeneratedAt)
	assert.Equal(t, "26.7%", snap.Stats.AvgOpenRate)
	assert.Equal(t, ActiveCampaigns{Active: 1, Completed: 1}, snap.ActiveCampaigns)
	assert.Len(t, snap.Records, 2)
	assert.Len(t, snap.OpenRateCampaigns, 3)
	assert.Empty(t, snap.Warnings)
}
