package export

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"campaign-dashboard/internal/dashboard"
	"campaign-dashboard/internal/models"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func snapshot() dashboard.Snapshot {
	return dashboard.Snapshot{
		GeneratedAt: time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC),
		Stats: dashboard.StatsCards{
			TotalProspects: "1,234",
			HotLeads:       "3",
			ActivePipeline: "2",
			AvgOpenRate:    "26.7%",
		},
		CampaignPerformance:   []models.LabelValue{{Name: "1-1 Campaigns", Value: 25}, {Name: "Drip", Value: 30}},
		ActiveCampaigns:       dashboard.ActiveCampaigns{Active: 4, Completed: 1},
		SolutionsDistribution: []models.LabelValue{{Name: "VAPT", Value: 2}},
		OpenRateCampaigns: []dashboard.OpenRateCampaign{
			{Name: "Spring", OpenRate: 20, ClickRate: 2, Date: "3/10/2024", Source: "1-1"},
		},
		Records: []models.CampaignRecord{
			{Source: "Sheet1", Date: "3/01/2024", CampaignName: "Spring", Project: "VAPT", Send: 100, OpenRate: "40%"},
		},
		Warnings: []string{"RSM Stats - Drip: quota exceeded"},
	}
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExporter(quietLogger()).WriteWorkbook(&buf, snapshot()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Distributions", "Pipeline", "Open Rates", "Records"}, f.GetSheetList())

	v, err := f.GetCellValue("Summary", "B6")
	require.NoError(t, err)
	assert.Equal(t, "26.7%", v)

	v, err = f.GetCellValue("Summary", "A12")
	require.NoError(t, err)
	assert.Equal(t, "1-1 Campaigns", v)

	rows, err := f.GetRows("Open Rates")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Spring", "20", "2", "3/10/2024", "1-1"}, rows[1])

	rows, err = f.GetRows("Records")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Sheet1", rows[1][0])
}

func TestWriteRecordsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExporter(quietLogger()).WriteRecordsCSV(&buf, snapshot().Records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "source,date,campaign_name,project"))
	assert.True(t, strings.HasPrefix(lines[1], "Sheet1,3/01/2024,Spring,VAPT"))
}

func TestWriteRecordsCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExporter(quietLogger()).WriteRecordsCSV(&buf, nil))
	assert.True(t, strings.HasPrefix(buf.String(), "source,date"))
}
