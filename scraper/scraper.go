// Package scraper fetches storefront listing and detail pages and turns them
// into entries.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/gocolly/colly/v2"
	"golang.org/x/net/html"

	"github.com/aluiziolira/go-scrape-play/config"
	"github.com/aluiziolira/go-scrape-play/models"
	"github.com/aluiziolira/go-scrape-play/parser"
)

// Request phases used as the requests_total label.
const (
	PhaseListing = "listing"
	PhaseDetail  = "detail"
)

// Scraper wraps a synchronous colly collector: one request in flight at a time.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	logger    *slog.Logger
	Metrics   *Metrics

	requestCount int
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config, logger *slog.Logger) (*Scraper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Hostname()),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       cfg.Delay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	return &Scraper{
		cfg:       cfg,
		collector: collector,
		logger:    logger.With("component", "scraper"),
		Metrics:   NewMetrics(),
	}, nil
}

// RequestCount returns the number of page requests issued so far.
func (s *Scraper) RequestCount() int {
	return s.requestCount
}

// Fetch downloads rawURL and parses the body into a node tree.
func (s *Scraper) Fetch(ctx context.Context, phase, rawURL string) (*html.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := s.collector.Clone()
	var body []byte
	status := 0
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	s.requestCount++
	s.Metrics.IncRequest(phase)
	start := time.Now()
	err := c.Visit(rawURL)
	s.Metrics.ObserveDuration(time.Since(start))
	if err != nil {
		classified := ClassifyError(err, status)
		category := ErrorTypeLabel(classified)
		s.Metrics.IncError(category)
		s.logger.Error("request error",
			slog.String("url", rawURL),
			slog.String("phase", phase),
			slog.String("category", category),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("fetch %s: %w", rawURL, classified)
	}

	root, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return root, nil
}

// SearchURL is the storefront search page for query.
func (s *Scraper) SearchURL(query string) string {
	values := url.Values{}
	values.Set("q", query)
	values.Set("c", "apps")
	return s.cfg.BaseURL + "/store/search?" + values.Encode()
}

// DeveloperURL is the storefront page listing a developer's applications.
func (s *Scraper) DeveloperURL(devID string) string {
	return s.cfg.BaseURL + "/store/apps/developer?id=" + url.QueryEscape(devID)
}

// CategoryURL is the top free chart of a category.
func (s *Scraper) CategoryURL(category string) string {
	return s.cfg.BaseURL + "/store/apps/category/" + url.PathEscape(category) + "/collection/topselling_free"
}

// Discover fetches the listing pages for mode and returns their entries in
// page order.
func (s *Scraper) Discover(ctx context.Context, mode config.Mode, query string) ([]*models.Entry, error) {
	switch mode {
	case config.ModeSearch:
		return s.discoverPage(ctx, s.SearchURL(query), query)
	case config.ModeDeveloper:
		return s.discoverPage(ctx, s.DeveloperURL(query), query)
	case config.ModeCategories:
		return s.discoverCategories(ctx)
	default:
		return nil, fmt.Errorf("mode %q has no listing source", mode)
	}
}

func (s *Scraper) discoverPage(ctx context.Context, pageURL, query string) ([]*models.Entry, error) {
	root, err := s.Fetch(ctx, PhaseListing, pageURL)
	if err != nil {
		return nil, err
	}
	entries := parser.ExtractEntries(root, query, s.logger)
	s.logger.Info("listing parsed",
		slog.String("query", query),
		slog.Int("entries", len(entries)),
	)
	return entries, nil
}

func (s *Scraper) discoverCategories(ctx context.Context) ([]*models.Entry, error) {
	categories, err := ReadCategories(s.cfg.CategoriesFile)
	if err != nil {
		return nil, err
	}

	var all []*models.Entry
	for _, category := range categories {
		entries, err := s.discoverPage(ctx, s.CategoryURL(category), category)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return all, ctxErr
			}
			s.logger.Error("category listing failed",
				slog.String("category", category),
				slog.Any("error", err),
			)
			continue
		}
		all = append(all, entries...)
	}
	return all, nil
}

// Enrich fetches the entry's detail page and fills its detail fields in
// place. A transport failure is returned with the entry untouched; a page of
// unexpected shape is logged and leaves the entry as it was.
func (s *Scraper) Enrich(ctx context.Context, e *models.Entry) error {
	root, err := s.Fetch(ctx, PhaseDetail, parser.AppIDURL(s.cfg.BaseURL, e))
	if err != nil {
		return err
	}

	set, ok := parser.ApplyDetail(root, e, s.logger)
	if !ok {
		s.logger.Warn("detail page shape not as expected", slog.String("app_id", e.AppID))
		return nil
	}
	s.logger.Debug("detail applied",
		slog.String("app_id", e.AppID),
		slog.Int("fields", set),
		slog.String("version", e.CurrentVersion),
	)
	return nil
}

// CategoryFromLine normalizes one line of the categories file; "" means skip.
func CategoryFromLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ""
	}
	return strings.ToUpper(line)
}
