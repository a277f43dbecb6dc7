package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/go-scrape-play/config"
	"github.com/aluiziolira/go-scrape-play/models"
)

const testBaseURL = "http://play.test"

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "nil", err: nil, statusCode: 0, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, statusCode: 0, expected: "timeout"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, statusCode: 0, expected: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, statusCode: 0, expected: "connection"},
		{name: "forbidden", err: nil, statusCode: http.StatusForbidden, expected: "forbidden"},
		{name: "not found", err: nil, statusCode: http.StatusNotFound, expected: "not_found"},
		{name: "rate limited", err: nil, statusCode: http.StatusTooManyRequests, expected: "rate_limited"},
		{name: "canceled", err: context.Canceled, statusCode: 0, expected: "canceled"},
		{name: "other", err: errors.New("some other error"), statusCode: 0, expected: "other"},
		{name: "server error", err: nil, statusCode: http.StatusBadGateway, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorTypeLabel(ClassifyError(tt.err, tt.statusCode)); got != tt.expected {
				t.Fatalf("ClassifyError(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}

func newTestScraper(t *testing.T, cfg *config.Config) (*Scraper, *httpmock.MockTransport) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.BaseURL = testBaseURL
	cfg.Delay = 0

	s, err := NewScraper(cfg, nil)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	transport := httpmock.NewMockTransport()
	s.collector.WithTransport(transport)
	return s, transport
}

func TestScraperHTTPStatusClassification(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{status: http.StatusTooManyRequests, expected: "rate_limited"},
		{status: http.StatusForbidden, expected: "forbidden"},
		{status: http.StatusNotFound, expected: "not_found"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			s, transport := newTestScraper(t, nil)
			transport.RegisterResponder("GET", s.DeveloperURL("Dev"), httpmock.NewStringResponder(tt.status, ""))

			_, err := s.Discover(context.Background(), config.ModeDeveloper, "Dev")
			if err == nil {
				t.Fatalf("expected error for status %d", tt.status)
			}
			if got := ErrorTypeLabel(err); got != tt.expected {
				t.Fatalf("label = %q, want %q (err=%v)", got, tt.expected, err)
			}
		})
	}
}

func TestURLBuilders(t *testing.T) {
	s, _ := newTestScraper(t, nil)

	if got, want := s.SearchURL("how to draw"), testBaseURL+"/store/search?c=apps&q=how+to+draw"; got != want {
		t.Fatalf("search url = %q, want %q", got, want)
	}
	if got, want := s.DeveloperURL("Acme Games"), testBaseURL+"/store/apps/developer?id=Acme+Games"; got != want {
		t.Fatalf("developer url = %q, want %q", got, want)
	}
	if got, want := s.CategoryURL("GAME_PUZZLE"), testBaseURL+"/store/apps/category/GAME_PUZZLE/collection/topselling_free"; got != want {
		t.Fatalf("category url = %q, want %q", got, want)
	}
}

func TestDiscoverSearch(t *testing.T) {
	s, transport := newTestScraper(t, nil)
	transport.RegisterResponder("GET", s.SearchURL("how to draw"), htmlResponder(buildListingPage(1, 2, 3)))

	entries, err := s.Discover(context.Background(), config.ModeSearch, "how to draw")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	for i, e := range entries {
		wantID := fmt.Sprintf("/store/apps/details?id=com.app%d", i+1)
		if e.AppID != wantID {
			t.Fatalf("entry %d app id = %q, want %q", i, e.AppID, wantID)
		}
		if e.SearchQuery != "how to draw" {
			t.Fatalf("entry %d search query = %q", i, e.SearchQuery)
		}
	}
	if got := s.RequestCount(); got != 1 {
		t.Fatalf("request count = %d, want 1", got)
	}
}

func TestDiscoverCategories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.txt")
	content := "# top charts\ngame_puzzle\n\n  education \nbroken\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write categories: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.CategoriesFile = path
	s, transport := newTestScraper(t, cfg)
	transport.RegisterResponder("GET", s.CategoryURL("GAME_PUZZLE"), htmlResponder(buildListingPage(1, 2)))
	transport.RegisterResponder("GET", s.CategoryURL("EDUCATION"), htmlResponder(buildListingPage(3)))
	transport.RegisterResponder("GET", s.CategoryURL("BROKEN"), httpmock.NewStringResponder(http.StatusInternalServerError, ""))

	entries, err := s.Discover(context.Background(), config.ModeCategories, "ignored")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].SearchQuery != "GAME_PUZZLE" || entries[2].SearchQuery != "EDUCATION" {
		t.Fatalf("search queries = %q, %q", entries[0].SearchQuery, entries[2].SearchQuery)
	}
	if got := transport.GetTotalCallCount(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

func TestDiscoverCategoriesMissingFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.CategoriesFile = filepath.Join(t.TempDir(), "missing.txt")
	s, _ := newTestScraper(t, cfg)

	if _, err := s.Discover(context.Background(), config.ModeCategories, "x"); err == nil {
		t.Fatalf("expected error for missing categories file")
	}
}

func TestDiscoverCanceled(t *testing.T) {
	s, transport := newTestScraper(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Discover(ctx, config.ModeSearch, "q")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if got := transport.GetTotalCallCount(); got != 0 {
		t.Fatalf("calls = %d, want 0", got)
	}
}

func TestEnrich(t *testing.T) {
	s, transport := newTestScraper(t, nil)
	entry := &models.Entry{AppID: "/store/apps/details?id=com.app1", AppName: "App 1"}
	transport.RegisterResponder("GET", testBaseURL+entry.AppID, htmlResponder(buildDetailPage("2.1.0")))

	if err := s.Enrich(context.Background(), entry); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if entry.Updated != "5 марта 2019" {
		t.Fatalf("updated = %q", entry.Updated)
	}
	if entry.Installations != "10,000 – 50,000" {
		t.Fatalf("installations = %q", entry.Installations)
	}
	if entry.CurrentVersion != "2.1.0" {
		t.Fatalf("current version = %q", entry.CurrentVersion)
	}
	if !entry.Done() {
		t.Fatalf("entry should be done after enrichment")
	}
}

func TestEnrichUnexpectedShape(t *testing.T) {
	s, transport := newTestScraper(t, nil)
	entry := &models.Entry{AppID: "/store/apps/details?id=com.app1"}
	transport.RegisterResponder("GET", testBaseURL+entry.AppID, htmlResponder("<html><body><p>moved</p></body></html>"))

	if err := s.Enrich(context.Background(), entry); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if entry.Done() {
		t.Fatalf("entry should stay pending")
	}
}

func TestEnrichTransportError(t *testing.T) {
	s, transport := newTestScraper(t, nil)
	entry := &models.Entry{AppID: "/store/apps/details?id=com.app1", Updated: "kept"}
	transport.RegisterResponder("GET", testBaseURL+entry.AppID, httpmock.NewErrorResponder(errors.New("connection reset")))

	if err := s.Enrich(context.Background(), entry); err == nil {
		t.Fatalf("expected transport error")
	}
	if entry.Updated != "kept" || entry.Done() {
		t.Fatalf("entry modified on failure: %+v", entry)
	}
}

func TestCategoryFromLine(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"game_puzzle", "GAME_PUZZLE"},
		{"  education  ", "EDUCATION"},
		{"", ""},
		{"   ", ""},
		{"# comment", ""},
	}
	for _, tt := range tests {
		if got := CategoryFromLine(tt.line); got != tt.want {
			t.Fatalf("CategoryFromLine(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	return httpmock.ResponderFromResponse(resp)
}

func buildListingPage(ids ...int) string {
	var builder strings.Builder
	builder.WriteString("<html><body><div class=\"cluster\">")
	for _, id := range ids {
		builder.WriteString(`<div class="card no-rationale square-cover apps small"><div class="card-content"><div class="details">`)
		fmt.Fprintf(&builder, `<a class="title" href="/store/apps/details?id=com.app%d">App %d</a>`, id, id)
		fmt.Fprintf(&builder, `<div class="subtitle-container"><a class="subtitle" href="/store/apps/developer?id=Dev%d">Dev %d</a></div>`, id, id)
		fmt.Fprintf(&builder, `<div class="description">Description %d</div>`, id)
		builder.WriteString("</div></div></div>")
	}
	builder.WriteString("</div></body></html>")
	return builder.String()
}

func buildDetailPage(version string) string {
	var builder strings.Builder
	builder.WriteString("<html><body>")
	builder.WriteString(`<div class="show-more-content text-body">Full description</div>`)
	builder.WriteString(`<div class="rating-box"><div class="score-container"><meta content="4.3" itemprop="ratingValue"></div></div>`)
	builder.WriteString(`<div class="details-section metadata"><div class="details-section-contents">`)
	for _, row := range [][2]string{
		{"Updated", "5 марта 2019"},
		{"Installs", "10,000 – 50,000"},
		{"Current Version", version},
	} {
		fmt.Fprintf(&builder, `<div class="meta-info"><div class="title">%s</div><div class="content">%s</div></div>`, row[0], row[1])
	}
	builder.WriteString("</div></div></body></html>")
	return builder.String()
}
