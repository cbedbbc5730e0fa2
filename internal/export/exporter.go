package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"campaign-dashboard/internal/dashboard"
	"campaign-dashboard/internal/models"
)

const (
	summarySheet      = "Summary"
	distributionSheet = "Distributions"
	pipelineSheet     = "Pipeline"
	openRateSheet     = "Open Rates"
	recordsSheet      = "Records"
)

type Exporter struct {
	logger *logrus.Logger
}

func NewExporter(logger *logrus.Logger) *Exporter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Exporter{logger: logger}
}

// WriteWorkbook writes every aggregate of the snapshot as an XLSX workbook,
// one sheet per group.
func (e *Exporter) WriteWorkbook(w io.Writer, snap dashboard.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}

	writers := []struct {
		name  string
		write func(*excelize.File, dashboard.Snapshot) error
	}{
		{summarySheet, writeSummary},
		{distributionSheet, writeDistributions},
		{pipelineSheet, writePipeline},
		{openRateSheet, writeOpenRates},
		{recordsSheet, writeRecords},
	}
	for _, sw := range writers {
		if sw.name != summarySheet {
			if _, err := f.NewSheet(sw.name); err != nil {
				return fmt.Errorf("failed to create sheet %s: %w", sw.name, err)
			}
		}
		if err := sw.write(f, snap); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", sw.name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"records":  len(snap.Records),
		"warnings": len(snap.Warnings),
	}).Info("Exported dashboard workbook")
	return nil
}

// WriteRecordsCSV writes normalized campaign records as CSV with a header row.
func (e *Exporter) WriteRecordsCSV(w io.Writer, records []models.CampaignRecord) error {
	if records == nil {
		records = []models.CampaignRecord{}
	}
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("failed to write records csv: %w", err)
	}

	e.logger.WithField("records", len(records)).Info("Exported campaign records")
	return nil
}

// setRows writes rows starting at A1 of sheet.
func setRows(f *excelize.File, sheet string, start int, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, start+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func labelRows(title string, values []models.LabelValue) [][]interface{} {
	rows := [][]interface{}{{title, "Count"}}
	for _, v := range values {
		rows = append(rows, []interface{}{v.Name, v.Value})
	}
	return append(rows, []interface{}{})
}

func writeSummary(f *excelize.File, snap dashboard.Snapshot) error {
	rows := [][]interface{}{
		{"Generated", snap.GeneratedAt.Format("2006-01-02 15:04:05")},
		{},
		{"Total Prospects", snap.Stats.TotalProspects},
		{"Hot Leads", snap.Stats.HotLeads},
		{"Active Pipeline", snap.Stats.ActivePipeline},
		{"Avg Open Rate", snap.Stats.AvgOpenRate},
		{},
		{"Active Campaigns", snap.ActiveCampaigns.Active},
		{"Completed Campaigns", snap.ActiveCampaigns.Completed},
		{},
		{"Campaign", "Avg Open Rate"},
	}
	for _, p := range snap.CampaignPerformance {
		rows = append(rows, []interface{}{p.Name, p.Value})
	}
	if len(snap.Warnings) > 0 {
		rows = append(rows, []interface{}{}, []interface{}{"Warnings"})
		for _, w := range snap.Warnings {
			rows = append(rows, []interface{}{w})
		}
	}
	return setRows(f, summarySheet, 1, rows)
}

func writeDistributions(f *excelize.File, snap dashboard.Snapshot) error {
	var rows [][]interface{}
	rows = append(rows, labelRows("Solution", snap.SolutionsDistribution)...)
	rows = append(rows, labelRows("Tool", snap.ToolDistribution)...)
	rows = append(rows, labelRows("Project", snap.ProjectDistribution)...)
	return setRows(f, distributionSheet, 1, rows)
}

func writePipeline(f *excelize.File, snap dashboard.Snapshot) error {
	st := snap.PipelineStatus
	rows := [][]interface{}{
		{"Total Leads", st.TotalLeads},
		{"Meeting Scheduled", st.MeetingScheduled},
		{"Hot", st.Hot},
		{"Meeting Done", st.MeetingDone},
		{},
	}
	rows = append(rows, labelRows("Month", snap.Pipeline.ByMonth)...)
	rows = append(rows, labelRows("Solution", snap.Pipeline.BySolution)...)
	rows = append(rows, labelRows("Status", snap.Pipeline.ByStatus)...)
	return setRows(f, pipelineSheet, 1, rows)
}

func writeOpenRates(f *excelize.File, snap dashboard.Snapshot) error {
	rows := [][]interface{}{{"Campaign", "Open Rate", "Click Rate", "Date", "Source"}}
	for _, c := range snap.OpenRateCampaigns {
		rows = append(rows, []interface{}{c.Name, c.OpenRate, c.ClickRate, c.Date, c.Source})
	}
	return setRows(f, openRateSheet, 1, rows)
}

func writeRecords(f *excelize.File, snap dashboard.Snapshot) error {
	rows := [][]interface{}{{
		"Source", "Date", "Campaign", "Project", "Solution", "Tool",
		"Send", "Open", "Click", "Bounce", "Unsubscribe", "Leads", "Status",
	}}
	for _, r := range snap.Records {
		rows = append(rows, []interface{}{
			r.Source, r.Date, r.CampaignName, r.Project, r.SolutionArea, r.EmailTool,
			r.Send, r.OpenRate, r.ClickRate, r.BounceRate, r.UnsubscribeRate, r.Leads, r.Status,
		})
	}
	return setRows(f, recordsSheet, 1, rows)
}
