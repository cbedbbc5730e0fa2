package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"campaign-dashboard/internal/metrics"
	"campaign-dashboard/internal/models"
	"campaign-dashboard/internal/transformer"
)

// GridSource is the spreadsheet access layer: a range fetch returning raw
// cells, and the list of tab names.
type GridSource interface {
	FetchGrid(ctx context.Context, sheet, rangeSpec string) (models.Grid, error)
	ListSheetNames(ctx context.Context) ([]string, error)
}

// Recorder receives the outcome of every sheet fetch.
type Recorder interface {
	RecordFetch(sheet string, rows int, err error, took time.Duration)
}

// Request names one sheet to fetch and how to read its columns.
// A nil Aliases uses the transformer's own.
type Request struct {
	Sheet   string
	Range   string
	Aliases transformer.Aliases
}

const maxConcurrentFetches = 4

type Fetcher struct {
	source      GridSource
	transformer *transformer.Transformer
	recorder    Recorder
	logger      *logrus.Logger
}

func NewFetcher(source GridSource, t *transformer.Transformer, recorder Recorder, logger *logrus.Logger) *Fetcher {
	if t == nil {
		t = transformer.New()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Fetcher{
		source:      source,
		transformer: t,
		recorder:    recorder,
		logger:      logger,
	}
}

func (f *Fetcher) Source() GridSource {
	return f.source
}

// FetchGrid fetches one raw grid and records the outcome.
func (f *Fetcher) FetchGrid(ctx context.Context, sheet, rangeSpec string) (models.Grid, error) {
	start := time.Now()
	grid, err := f.source.FetchGrid(ctx, sheet, rangeSpec)
	rows := len(grid.DataRows())
	if f.recorder != nil {
		f.recorder.RecordFetch(sheet, rows, err, time.Since(start))
	}
	if err != nil {
		f.logger.WithFields(logrus.Fields{
			"sheet": sheet,
			"range": rangeSpec,
		}).WithError(err).Warn("Sheet fetch failed")
		return nil, err
	}

	f.logger.WithFields(logrus.Fields{
		"sheet": sheet,
		"rows":  rows,
	}).Debug("Sheet fetched")
	return grid, nil
}

// Fetch fetches and normalizes one sheet. A failed fetch yields an empty
// record set with Err set.
func (f *Fetcher) Fetch(ctx context.Context, req Request) models.SourceRecords {
	grid, err := f.FetchGrid(ctx, req.Sheet, req.Range)
	if err != nil {
		return models.SourceRecords{Name: req.Sheet, Err: err}
	}

	aliases := req.Aliases
	if aliases == nil {
		aliases = f.transformer.Aliases()
	}
	return f.transformer.NormalizeGridWith(req.Sheet, grid, aliases)
}

// FetchAll fetches every request concurrently and waits for all of them.
// Results keep the order of reqs regardless of completion order, and one
// failing sheet never fails the others.
func (f *Fetcher) FetchAll(ctx context.Context, reqs []Request) []models.SourceRecords {
	out := make([]models.SourceRecords, len(reqs))

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	for i, req := range reqs {
		g.Go(func() error {
			out[i] = f.Fetch(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Rule is how values from several sources are merged.
type Rule int

const (
	// RuleConcat unions the records of every source.
	RuleConcat Rule = iota
	// RulePooled sums values and counts across sources and divides once.
	RulePooled
)

// Result is the merged output of Combine. Value is the pooled mean for
// RulePooled and the record count for RuleConcat.
type Result struct {
	Records []models.CampaignRecord
	Sample  metrics.Sample
	Value   float64
}

// Combine merges sources under rule. extract is only used by RulePooled.
func Combine(sources []models.SourceRecords, rule Rule, extract metrics.Extractor) Result {
	switch rule {
	case RulePooled:
		s := PooledSample(sources, extract)
		return Result{Sample: s, Value: s.Mean()}
	default:
		records := Concat(sources)
		return Result{Records: records, Value: float64(len(records))}
	}
}

// Concat returns the records of all sources in source order.
func Concat(sources []models.SourceRecords) []models.CampaignRecord {
	n := 0
	for _, s := range sources {
		n += len(s.Records)
	}
	out := make([]models.CampaignRecord, 0, n)
	for _, s := range sources {
		out = append(out, s.Records...)
	}
	return out
}

// PooledSample adds the per-source samples of extract.
func PooledSample(sources []models.SourceRecords, extract metrics.Extractor) metrics.Sample {
	calc := metrics.NewCalculator()
	var total metrics.Sample
	for _, s := range sources {
		total = total.Add(calc.Collect(s.Records, extract))
	}
	return total
}

// PooledAverage is the sum-then-divide mean across sources, not the mean of
// per-source means.
func PooledAverage(sources []models.SourceRecords, extract metrics.Extractor) float64 {
	return PooledSample(sources, extract).Mean()
}

// Filter keeps only the records matching pred in every source.
func Filter(sources []models.SourceRecords, pred metrics.Predicate) []models.SourceRecords {
	out := make([]models.SourceRecords, len(sources))
	for i, s := range sources {
		kept := make([]models.CampaignRecord, 0, len(s.Records))
		for _, r := range s.Records {
			if pred(r) {
				kept = append(kept, r)
			}
		}
		s.Records = kept
		out[i] = s
	}
	return out
}

// Warnings renders one message per failed source. advise turns a fetch error
// into user-facing text; nil uses err.Error().
func Warnings(sources []models.SourceRecords, advise func(error) string) []string {
	var out []string
	for _, s := range sources {
		if s.Err == nil {
			continue
		}
		msg := s.Err.Error()
		if advise != nil {
			msg = advise(s.Err)
		}
		out = append(out, fmt.Sprintf("%s: %s", s.Name, msg))
	}
	return out
}
