package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-scrape-play/models"
	"github.com/aluiziolira/go-scrape-play/parser"
	"github.com/aluiziolira/go-scrape-play/scraper"
)

// Enricher fills the detail fields of one entry in place.
type Enricher interface {
	Enrich(ctx context.Context, e *models.Entry) error
}

// DiscoverFunc produces a fresh batch when no usable one is stored.
type DiscoverFunc func(ctx context.Context) ([]*models.Entry, error)

// Driver walks a batch, enriching pending entries and saving the whole batch
// after each attempt. A stored batch is the checkpoint: rerunning the same
// query resumes where the last run stopped.
type Driver struct {
	store    Store
	enricher Enricher
	metrics  *scraper.Metrics
	logger   *slog.Logger
}

// NewDriver wires a driver. metrics may be nil.
func NewDriver(store Store, enricher Enricher, metrics *scraper.Metrics, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		store:    store,
		enricher: enricher,
		metrics:  metrics,
		logger:   logger.With("component", "driver"),
	}
}

// Run loads or discovers the batch for query and enriches every pending
// entry in order. On cancellation it stops between entries and returns the
// context error; everything enriched so far is already saved. A failed save
// ends the run.
func (d *Driver) Run(ctx context.Context, query string, discover DiscoverFunc) ([]*models.Entry, *models.CrawlResult, error) {
	result := &models.CrawlResult{
		Query:        query,
		StartTime:    time.Now(),
		ErrorsByType: make(map[string]int),
	}

	batch, err := d.load(ctx, query, discover, result)
	if err != nil {
		return batch, d.finish(result, batch), err
	}
	result.TotalCount = len(batch)

	for _, e := range batch {
		if err := ctx.Err(); err != nil {
			d.logger.Warn("run interrupted", slog.String("query", query))
			return batch, d.finish(result, batch), err
		}

		if e.Done() {
			d.logger.Info("already parsed, skip", slog.String("app_id", e.AppID))
			result.SkippedCount++
			d.metrics.IncEntry("skipped")
			continue
		}

		d.logger.Info("parsing", slog.String("app_id", e.AppID))
		result.FetchCount++
		if err := d.enricher.Enrich(ctx, e); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return batch, d.finish(result, batch), ctxErr
			}
			label := scraper.ErrorTypeLabel(err)
			result.ErrorCount++
			result.ErrorsByType[label]++
			d.metrics.IncEntry("failed")
			d.logger.Warn("enrichment failed, entry stays pending",
				slog.String("app_id", e.AppID),
				slog.String("category", label),
				slog.Any("error", err),
			)
		} else if e.Done() {
			result.EnrichedNow++
			d.metrics.IncEntry("enriched")
		} else {
			d.metrics.IncEntry("incomplete")
		}

		if err := d.store.Save(query, batch); err != nil {
			return batch, d.finish(result, batch), fmt.Errorf("persist batch %q: %w", query, err)
		}
	}

	return batch, d.finish(result, batch), nil
}

func (d *Driver) load(ctx context.Context, query string, discover DiscoverFunc, result *models.CrawlResult) ([]*models.Entry, error) {
	batch, err := d.store.Load(query)
	if err == nil {
		d.logger.Info("resuming stored batch",
			slog.String("query", query),
			slog.String("store", d.store.Name()),
			slog.Int("entries", len(batch)),
		)
		return batch, nil
	}
	if errors.Is(err, ErrBatchNotFound) {
		d.logger.Info("no stored batch, discovering", slog.String("query", query))
	} else {
		d.logger.Warn("stored batch unreadable, discovering",
			slog.String("query", query),
			slog.Any("error", err),
		)
	}

	discovered, err := discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover %q: %w", query, err)
	}
	batch = d.admit(discovered)
	result.Discovered = true

	if len(batch) > 0 {
		if err := d.store.Save(query, batch); err != nil {
			return batch, fmt.Errorf("persist batch %q: %w", query, err)
		}
	}
	return batch, nil
}

// admit validates discovered entries and drops an app repeated under the same
// search query, keeping the first occurrence. The same app listed under two
// queries (two categories) is kept once per query.
func (d *Driver) admit(discovered []*models.Entry) []*models.Entry {
	seen := make(map[string]struct{}, len(discovered))
	batch := make([]*models.Entry, 0, len(discovered))
	for _, e := range discovered {
		if err := parser.ValidateEntry(e); err != nil {
			d.logger.Warn("entry rejected", slog.Any("error", err))
			continue
		}
		key := e.SearchQuery + "\x00" + e.AppID
		if _, dup := seen[key]; dup {
			d.logger.Debug("duplicate entry dropped",
				slog.String("app_id", e.AppID),
				slog.String("query", e.SearchQuery),
			)
			continue
		}
		seen[key] = struct{}{}
		batch = append(batch, e)
	}
	return batch
}

func (d *Driver) finish(result *models.CrawlResult, batch []*models.Entry) *models.CrawlResult {
	result.EndTime = time.Now()
	result.TotalCount = len(batch)
	result.DoneCount = 0
	for _, e := range batch {
		if e.Done() {
			result.DoneCount++
		}
	}
	result.PendingCount = result.TotalCount - result.DoneCount
	return result
}
