package suggest

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"

	"github.com/aluiziolira/go-scrape-play/config"
	"github.com/aluiziolira/go-scrape-play/scraper"
)

type fakeSuggester struct {
	calls   []string
	answers map[string][]string
	fail    map[string]bool
	onCall  func(n int)
}

func (f *fakeSuggester) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	f.calls = append(f.calls, query)
	if f.onCall != nil {
		f.onCall(len(f.calls))
	}
	if f.fail[query] {
		return nil, errors.New("boom")
	}
	var out []Suggestion
	for _, text := range f.answers[query] {
		out = append(out, Suggestion{Text: text, Type: 3})
	}
	return out, nil
}

func newTestCollector(t *testing.T, source Suggester, cacheSize int) *Collector {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ProbeCacheSize = cacheSize
	c, err := NewCollector(source, cfg, scraper.NewMetrics(), nil)
	require.NoError(t, err)
	c.alphabet = "ab"
	return c
}

func TestCollectPoolsInDiscoveryOrder(t *testing.T) {
	source := &fakeSuggester{answers: map[string][]string{
		"cats a":  {"cats art", "cats anime"},
		"cats b":  {"cats art", "cats books"},
		"cats ab": {"cats about"},
	}}
	c := newTestCollector(t, source, 0)

	var emitted []string
	pool, err := c.Collect(context.Background(), "cats", func(s string) {
		emitted = append(emitted, s)
	})
	require.NoError(t, err)

	want := []string{"cats art", "cats anime", "cats books", "cats about"}
	require.Equal(t, want, pool.Items())
	require.Equal(t, want, emitted)
	require.Len(t, source.calls, SuffixCount(2))
	require.Equal(t, "cats a", source.calls[0])
}

func TestCollectContinuesAfterFailedProbe(t *testing.T) {
	source := &fakeSuggester{
		answers: map[string][]string{"q b": {"q bee"}},
		fail:    map[string]bool{"q a": true},
	}
	c := newTestCollector(t, source, 0)

	pool, err := c.Collect(context.Background(), "q", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"q bee"}, pool.Items())
	require.Len(t, source.calls, SuffixCount(2))
}

func TestCollectCacheAnswersRepeatedProbes(t *testing.T) {
	source := &fakeSuggester{answers: map[string][]string{"q ba": {"q bar"}}}
	c := newTestCollector(t, source, 16)

	pool, err := c.Collect(context.Background(), "q", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"q bar"}, pool.Items())
	require.Len(t, source.calls, 6, "distinct probes: a b aa ba ab bb")
	require.Equal(t, 6, c.Probes())
}

func TestCollectFailedProbeIsNotCached(t *testing.T) {
	source := &fakeSuggester{fail: map[string]bool{"q ba": true}}
	c := newTestCollector(t, source, 16)

	_, err := c.Collect(context.Background(), "q", nil)
	require.NoError(t, err)
	require.Len(t, source.calls, 7)
}

func TestCollectCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &fakeSuggester{
		answers: map[string][]string{"q a": {"q apple"}},
		onCall: func(n int) {
			if n == 2 {
				cancel()
			}
		},
	}
	c := newTestCollector(t, source, 0)

	pool, err := c.Collect(ctx, "q", nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, []string{"q apple"}, pool.Items())
	require.Len(t, source.calls, 2)
}

func TestCollectDefaultConfigProbesEverySuffix(t *testing.T) {
	source := &fakeSuggester{}
	c, err := NewCollector(source, config.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	c.alphabet = "ab"

	_, err = c.Collect(context.Background(), "q", nil)
	require.NoError(t, err)
	require.Len(t, source.calls, SuffixCount(2), "repeated suffixes are fetched again unless a cache is configured")
	require.Equal(t, SuffixCount(2), c.Probes())
}

type slowSuggester struct{}

func (slowSuggester) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestProbeTimeout(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ProbeTimeout = 10 * time.Millisecond
	cfg.ProbeCacheSize = 0
	c, err := NewCollector(slowSuggester{}, cfg, nil, nil)
	require.NoError(t, err)

	_, err = c.probe(context.Background(), "q a")
	require.ErrorIs(t, err, ErrProbe)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientSuggest(t *testing.T) {
	cfg := config.DefaultConfig()
	client := NewClient(cfg)
	transport := httpmock.NewMockTransport()
	client.http.SetTransport(transport)

	transport.RegisterResponderWithQuery("GET", cfg.SuggestURL,
		map[string]string{"json": "1", "c": "3", "query": "cats a", "hl": "ru", "gl": "RU"},
		httpmock.NewStringResponder(http.StatusOK, `[{"s":"cats art","t":3},{"s":"cats anime","t":3}]`),
	)

	got, err := client.Suggest(context.Background(), "cats a")
	require.NoError(t, err)
	require.Equal(t, []Suggestion{{Text: "cats art", Type: 3}, {Text: "cats anime", Type: 3}}, got)
	require.Equal(t, 1, transport.GetTotalCallCount())
}

func TestClientSuggestErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	client := NewClient(cfg)
	transport := httpmock.NewMockTransport()
	client.http.SetTransport(transport)

	transport.RegisterResponderWithQuery("GET", cfg.SuggestURL, map[string]string{
		"json": "1", "c": "3", "query": "limited", "hl": "ru", "gl": "RU",
	}, httpmock.NewStringResponder(http.StatusTooManyRequests, ""))
	transport.RegisterResponderWithQuery("GET", cfg.SuggestURL, map[string]string{
		"json": "1", "c": "3", "query": "garbled", "hl": "ru", "gl": "RU",
	}, httpmock.NewStringResponder(http.StatusOK, "<html>"))

	_, err := client.Suggest(context.Background(), "limited")
	require.Error(t, err)
	require.Equal(t, "rate_limited", scraper.ErrorTypeLabel(err))

	_, err = client.Suggest(context.Background(), "garbled")
	require.ErrorContains(t, err, "decode suggestions")
}
