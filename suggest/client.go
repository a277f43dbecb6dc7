package suggest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/aluiziolira/go-scrape-play/config"
	"github.com/aluiziolira/go-scrape-play/scraper"
)

// Suggestion is one element of the suggest endpoint's JSON array.
type Suggestion struct {
	Text string `json:"s"`
	Type int    `json:"t"`
}

// Client queries the storefront suggest endpoint.
type Client struct {
	http     *resty.Client
	endpoint string
	language string
	country  string
}

func NewClient(cfg *config.Config) *Client {
	client := resty.New()
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetTimeout(cfg.Timeout)

	return &Client{
		http:     client,
		endpoint: cfg.SuggestURL,
		language: cfg.SuggestLanguage,
		country:  cfg.SuggestCountry,
	}
}

// Suggest returns the suggestions offered for query.
func (c *Client) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"json":  "1",
			"c":     "3",
			"query": query,
			"hl":    c.language,
			"gl":    c.country,
		}).
		Get(c.endpoint)
	if err != nil {
		return nil, scraper.ClassifyError(err, 0)
	}
	if resp.IsError() {
		return nil, scraper.ClassifyError(nil, resp.StatusCode())
	}

	var suggestions []Suggestion
	if err := json.Unmarshal(resp.Body(), &suggestions); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	return suggestions, nil
}
