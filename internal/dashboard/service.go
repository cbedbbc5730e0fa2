package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"campaign-dashboard/internal/client"
	"campaign-dashboard/internal/config"
	"campaign-dashboard/internal/models"
	"campaign-dashboard/internal/sources"
	"campaign-dashboard/internal/transformer"
)

// Service fetches the configured tabs and computes dashboard metrics. Nothing
// is cached: every call fetches and recomputes.
type Service struct {
	sheets      config.SheetConfig
	aliases     transformer.Aliases
	transformer *transformer.Transformer
	fetcher     *sources.Fetcher
	logger      *logrus.Logger
	now         func() time.Time
}

// NewService builds the service. A nil fetcher means no spreadsheet is
// configured; every metric then comes back empty with a warning.
func NewService(cfg *config.Config, fetcher *sources.Fetcher, logger *logrus.Logger) *Service {
	aliases := cfg.Columns
	if len(aliases) == 0 {
		aliases = transformer.DefaultAliases()
	}
	return &Service{
		sheets:      cfg.Sheets,
		aliases:     aliases,
		transformer: transformer.NewWithAliases(aliases),
		fetcher:     fetcher,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) Configured() bool {
	return s.fetcher != nil
}

func (s *Service) Sheets() config.SheetConfig {
	return s.sheets
}

// openRateAliases widens the open and date columns to contains matching,
// since the open-rate tabs name them loosely ("Unique Opens", "Send Date").
func (s *Service) openRateAliases() transformer.Aliases {
	open := s.aliases[models.FieldOpenRate]
	candidates := append(append([]string{}, open.Candidates...), "Opens", "opens")
	return s.aliases.Merge(transformer.Aliases{
		models.FieldOpenRate: {Candidates: candidates, Contains: true},
		models.FieldDate:     {Contains: true},
	})
}

func (s *Service) pipelineRequest() sources.Request {
	return sources.Request{Sheet: s.sheets.Pipeline, Range: s.sheets.WideRange}
}

func (s *Service) openRateRequests() []sources.Request {
	aliases := s.openRateAliases()
	var reqs []sources.Request
	for _, tab := range s.sheets.OpenRateTabs() {
		reqs = append(reqs, sources.Request{Sheet: tab, Range: s.sheets.WideRange, Aliases: aliases})
	}
	return reqs
}

func (s *Service) campaignRequests(kind, rangeSpec string) []sources.Request {
	if rangeSpec == "" {
		rangeSpec = s.sheets.Range
	}
	if !config.IsCampaignKind(kind) {
		return []sources.Request{{Sheet: s.sheets.Tab(kind), Range: rangeSpec}}
	}
	reqs := make([]sources.Request, 0, len(s.sheets.Campaigns))
	for _, tab := range s.sheets.Campaigns {
		reqs = append(reqs, sources.Request{Sheet: tab, Range: rangeSpec})
	}
	if len(reqs) == 0 {
		reqs = append(reqs, sources.Request{Sheet: s.sheets.FirstCampaign(), Range: rangeSpec})
	}
	return reqs
}

// fetch runs every request concurrently. Failed sources come back empty and
// turn into warnings.
func (s *Service) fetch(ctx context.Context, reqs ...sources.Request) ([]models.SourceRecords, []string) {
	if s.fetcher == nil {
		out := make([]models.SourceRecords, len(reqs))
		for i, req := range reqs {
			out[i] = models.SourceRecords{Name: req.Sheet}
		}
		return out, []string{client.Advisory(client.ErrNotConfigured)}
	}

	srcs := s.fetcher.FetchAll(ctx, reqs)
	warnings := dedupe(sources.Warnings(srcs, client.Advisory))
	if len(warnings) > 0 {
		s.logger.WithFields(logrus.Fields{
			"sources":  len(reqs),
			"warnings": len(warnings),
		}).Debug("Computing from partial sources")
	}
	return srcs, warnings
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, w := range in {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

// Stats returns the headline cards: prospects, hot leads and active pipeline
// from the pipeline tab, open rate pooled across the open-rate tabs.
func (s *Service) Stats(ctx context.Context, sel Selection) (StatsCards, []string) {
	now := s.now()
	srcs, warnings := s.fetch(ctx, append([]sources.Request{s.pipelineRequest()}, s.openRateRequests()...)...)

	cards := PipelineCards(srcs[0].Records, sel, now)
	cards.AvgOpenRate = PooledOpenRate(srcs[1:], sel, now)
	return cards, warnings
}

// CampaignData returns the normalized rows of a sheet kind (all campaign
// tabs by default) with their summary stats.
func (s *Service) CampaignData(ctx context.Context, sel Selection, kind, rangeSpec string) (CampaignData, []string) {
	now := s.now()
	reqs := s.campaignRequests(kind, rangeSpec)
	srcs, warnings := s.fetch(ctx, reqs...)

	records := filter(sources.Concat(srcs), CampaignFilter(sel, now))
	return CampaignData{
		Sheet:   reqs[0].Sheet,
		Records: records,
		Stats:   CampaignStats(records),
	}, warnings
}

func (s *Service) OpenRateCampaigns(ctx context.Context, sel Selection) ([]OpenRateCampaign, []string) {
	srcs, warnings := s.fetch(ctx, s.openRateRequests()...)
	return OpenRateList(srcs, sel, s.now()), warnings
}

func (s *Service) performanceLabels() map[string]string {
	return map[string]string{
		s.sheets.OneOnOne: "1-1 Campaigns",
		s.sheets.Drip:     "Drip",
	}
}

func (s *Service) CampaignPerformance(ctx context.Context, sel Selection) ([]models.LabelValue, []string) {
	srcs, warnings := s.fetch(ctx, s.openRateRequests()...)
	return Performance(srcs, s.performanceLabels(), sel, s.now()), warnings
}

func (s *Service) ActiveCampaigns(ctx context.Context, sel Selection) (ActiveCampaigns, []string) {
	srcs, warnings := s.fetch(ctx, sources.Request{Sheet: s.sheets.OneOnOne, Range: s.sheets.WideRange})
	return Active(sources.Concat(srcs), sel, s.now()), warnings
}

func (s *Service) SolutionsDistribution(ctx context.Context, sel Selection) ([]models.LabelValue, []string) {
	srcs, warnings := s.fetch(ctx, s.openRateRequests()...)
	return Solutions(sources.Concat(srcs), sel, s.now()), warnings
}

func (s *Service) PipelineInsights(ctx context.Context, sel Selection) (PipelineInsights, []string) {
	srcs, warnings := s.fetch(ctx, s.pipelineRequest())
	return Insights(srcs[0].Records, sel, s.now()), warnings
}

func (s *Service) PipelineStatus(ctx context.Context, sel Selection) (PipelineStatus, []string) {
	srcs, warnings := s.fetch(ctx, s.pipelineRequest())
	return Status(srcs[0].Records, sel, s.now()), warnings
}

func (s *Service) ToolDistribution(ctx context.Context, sel Selection) ([]models.LabelValue, []string) {
	srcs, warnings := s.fetch(ctx, s.campaignRequests("", "")...)
	return Tools(sources.Concat(srcs), sel, s.now()), warnings
}

func (s *Service) ProjectDistribution(ctx context.Context, sel Selection) ([]models.LabelValue, []string) {
	srcs, warnings := s.fetch(ctx, s.campaignRequests("", "")...)
	return Projects(sources.Concat(srcs), sel, s.now()), warnings
}

// ErrSheetNotFound is returned by RawData when the tab does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// RawData returns a tab as header-keyed rows. A missing tab is
// ErrSheetNotFound; other fetch failures come back as warnings.
func (s *Service) RawData(ctx context.Context, sheet string) (RawSheet, []string, error) {
	out := RawSheet{Sheet: sheet, Headers: []string{}, Rows: []map[string]interface{}{}}
	if s.fetcher == nil {
		return out, nil, client.ErrNotConfigured
	}

	grid, err := s.fetcher.FetchGrid(ctx, sheet, s.sheets.WideRange)
	if err != nil {
		if errors.Is(err, client.ErrInvalidRange) {
			return out, nil, fmt.Errorf("%w: %s", ErrSheetNotFound, client.Advisory(err))
		}
		return out, []string{fmt.Sprintf("%s: %s", sheet, client.Advisory(err))}, nil
	}

	if headers := grid.Headers(); headers != nil {
		out.Headers = headers
	}
	out.Rows = HeaderRows(grid)
	return out, nil, nil
}

// PipelineRows returns the pipeline tab as header-keyed rows.
func (s *Service) PipelineRows(ctx context.Context) (RawSheet, []string, error) {
	return s.RawData(ctx, s.sheets.Pipeline)
}

// SheetNames lists the tabs of the spreadsheet.
func (s *Service) SheetNames(ctx context.Context) ([]string, error) {
	if s.fetcher == nil {
		return nil, client.ErrNotConfigured
	}
	return s.fetcher.Source().ListSheetNames(ctx)
}

// QualityReport normalizes every configured tab and reports data quality.
func (s *Service) QualityReport(ctx context.Context) (models.DataQualityReport, []string) {
	reqs := append(s.campaignRequests("", ""), s.pipelineRequest())
	reqs = append(reqs, s.openRateRequests()...)
	srcs, warnings := s.fetch(ctx, uniqueRequests(reqs)...)
	return s.transformer.GenerateQualityReport(srcs), warnings
}

func uniqueRequests(reqs []sources.Request) []sources.Request {
	seen := make(map[string]bool, len(reqs))
	out := make([]sources.Request, 0, len(reqs))
	for _, r := range reqs {
		if seen[r.Sheet] {
			continue
		}
		seen[r.Sheet] = true
		out = append(out, r)
	}
	return out
}

// Snapshot computes every aggregate from a single round of fetches.
func (s *Service) Snapshot(ctx context.Context, sel Selection) Snapshot {
	now := s.now()
	campaignReqs := s.campaignRequests("", "")
	openReqs := s.openRateRequests()

	reqs := append(append(append([]sources.Request{}, campaignReqs...), s.pipelineRequest()), openReqs...)
	srcs, warnings := s.fetch(ctx, reqs...)

	campaigns := sources.Concat(srcs[:len(campaignReqs)])
	pipeline := srcs[len(campaignReqs)].Records
	openRate := srcs[len(campaignReqs)+1:]

	var oneOnOne []models.CampaignRecord
	for _, src := range openRate {
		if src.Name == s.sheets.OneOnOne {
			oneOnOne = src.Records
		}
	}

	stats := PipelineCards(pipeline, sel, now)
	stats.AvgOpenRate = PooledOpenRate(openRate, sel, now)

	return Snapshot{
		GeneratedAt:           now,
		Stats:                 stats,
		CampaignPerformance:   Performance(openRate, s.performanceLabels(), sel, now),
		ActiveCampaigns:       Active(oneOnOne, sel, now),
		SolutionsDistribution: Solutions(sources.Concat(openRate), sel, now),
		ToolDistribution:      Tools(campaigns, sel, now),
		ProjectDistribution:   Projects(campaigns, sel, now),
		Pipeline:              Insights(pipeline, sel, now),
		PipelineStatus:        Status(pipeline, sel, now),
		OpenRateCampaigns:     OpenRateList(openRate, sel, now),
		Records:               filter(campaigns, CampaignFilter(sel, now)),
		Warnings:              warnings,
	}
}
