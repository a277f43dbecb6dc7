package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/aluiziolira/go-scrape-play/models"
)

// CardXPath matches one application card on search, developer and category pages.
const CardXPath = `//div[contains(@class, 'card no-rationale square-cover apps')]`

// Card-relative paths.
const (
	detailsXPath     = `div/div[@class='details']`
	titleXPath       = `a[@class='title']`
	descriptionXPath = `div[@class='description']`
	developerXPath   = `div[@class='subtitle-container']/a`
)

// ErrCardShape is returned for a card missing one of its required sub-nodes.
var ErrCardShape = errors.New("card shape not as expected")

// ExtractEntries returns the entries found on one listing document in page
// order. Malformed cards are logged and skipped; no cards means no entries.
func ExtractEntries(root *html.Node, query string, logger *slog.Logger) []*models.Entry {
	if logger == nil {
		logger = slog.Default()
	}
	if root == nil {
		return nil
	}

	cards := htmlquery.Find(root, CardXPath)
	entries := make([]*models.Entry, 0, len(cards))
	for i, card := range cards {
		entry, err := extractCard(card, query)
		if err != nil {
			logger.Warn("skipping card",
				slog.Int("index", i),
				slog.String("query", query),
				slog.Any("error", err),
			)
			continue
		}
		if err := ValidateEntry(entry); err != nil {
			logger.Warn("discarding card without app id",
				slog.Int("index", i),
				slog.String("query", query),
			)
			continue
		}
		logger.Debug("card extracted", slog.String("app_id", entry.AppID))
		entries = append(entries, entry)
	}
	return entries
}

func extractCard(card *html.Node, query string) (*models.Entry, error) {
	details := htmlquery.FindOne(card, detailsXPath)
	if details == nil {
		return nil, fmt.Errorf("%w: missing details block", ErrCardShape)
	}
	title := htmlquery.FindOne(details, titleXPath)
	if title == nil {
		return nil, fmt.Errorf("%w: missing title link", ErrCardShape)
	}
	description := htmlquery.FindOne(details, descriptionXPath)
	if description == nil {
		return nil, fmt.Errorf("%w: missing description", ErrCardShape)
	}
	developer := htmlquery.FindOne(details, developerXPath)
	if developer == nil {
		return nil, fmt.Errorf("%w: missing developer link", ErrCardShape)
	}

	return &models.Entry{
		SearchQuery: query,
		AppID:       htmlquery.SelectAttr(title, "href"),
		AppName:     strings.TrimSpace(htmlquery.InnerText(title)),
		Desc:        strings.TrimSpace(htmlquery.InnerText(description)),
		DevID:       htmlquery.SelectAttr(developer, "href"),
	}, nil
}
