package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-scrape-play/config"
	"github.com/aluiziolira/go-scrape-play/scraper"
)

// ErrProbe marks a single failed suggestion request.
var ErrProbe = errors.New("suggestion probe failed")

// Suggester answers one suggestion query.
type Suggester interface {
	Suggest(ctx context.Context, query string) ([]Suggestion, error)
}

// Collector runs one probe per expanded suffix and pools the results.
type Collector struct {
	source       Suggester
	alphabet     string
	probeTimeout time.Duration
	cache        *lru.Cache[string, []string]
	metrics      *scraper.Metrics
	logger       *slog.Logger

	probes int
}

// NewCollector builds a collector over source. metrics may be nil.
func NewCollector(source Suggester, cfg *config.Config, metrics *scraper.Metrics, logger *slog.Logger) (*Collector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Collector{
		source:       source,
		alphabet:     Alphabet,
		probeTimeout: cfg.ProbeTimeout,
		metrics:      metrics,
		logger:       logger.With("component", "suggest"),
	}
	if cfg.ProbeCacheSize > 0 {
		cache, err := lru.New[string, []string](cfg.ProbeCacheSize)
		if err != nil {
			return nil, fmt.Errorf("create probe cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Probes returns the number of requests sent to the source.
func (c *Collector) Probes() int {
	return c.probes
}

// Collect probes "{query} {suffix}" for every suffix and calls emit once for
// each suggestion the first time it is seen. A failed probe is logged and
// skipped. On cancellation the pool gathered so far is returned with the
// context error.
func (c *Collector) Collect(ctx context.Context, query string, emit func(string)) (*Pool, error) {
	pool := NewPool()
	total := SuffixCount(len([]rune(c.alphabet)))
	c.logger.Info("collecting suggestions",
		slog.String("query", query),
		slog.Int("probes", total),
	)

	for suffix := range Suffixes(c.alphabet) {
		if err := ctx.Err(); err != nil {
			return pool, err
		}

		texts, err := c.probe(ctx, query+" "+suffix)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return pool, ctxErr
			}
			c.metrics.IncProbe("error")
			c.metrics.IncError(scraper.ErrorTypeLabel(err))
			c.logger.Warn("probe failed",
				slog.String("suffix", suffix),
				slog.Any("error", err),
			)
			continue
		}

		for _, text := range texts {
			if !pool.Add(text) {
				continue
			}
			c.metrics.IncSuggestion()
			if emit != nil {
				emit(text)
			}
		}
	}

	c.logger.Info("suggestions collected",
		slog.String("query", query),
		slog.Int("suggestions", pool.Len()),
		slog.Int("requests", c.probes),
	)
	return pool, nil
}

func (c *Collector) probe(ctx context.Context, probe string) ([]string, error) {
	if c.cache != nil {
		if texts, ok := c.cache.Get(probe); ok {
			c.metrics.IncProbe("cached")
			return texts, nil
		}
	}

	probeCtx := ctx
	if c.probeTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, c.probeTimeout)
		defer cancel()
	}

	c.probes++
	suggestions, err := c.source.Suggest(probeCtx, probe)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrProbe, probe, err)
	}

	texts := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		texts = append(texts, s.Text)
	}
	c.metrics.IncProbe("ok")
	if c.cache != nil {
		c.cache.Add(probe, texts)
	}
	return texts, nil
}
