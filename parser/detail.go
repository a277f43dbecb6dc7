package parser

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/aluiziolira/go-scrape-play/models"
)

// Detail page anchors. A page without both is not an application page.
const (
	descriptionSelector = "div.show-more-content.text-body"
	ratingSelector      = "div.rating-box > div > meta"
	metaRowSelector     = "div.details-section div.meta-info"
	metaLabelSelector   = "div.title"
	metaValueSelector   = "div.content"
)

type detailField struct {
	name  string
	label *regexp.Regexp
	set   func(*models.Entry, string)
}

// detailFields maps metadata rows onto entry fields by position: the first
// row is the update date, the second the installs bracket, the third the
// version. The label pattern is only checked to report markup drift.
var detailFields = []detailField{
	{
		name:  "updated",
		label: regexp.MustCompile(`(?i)updated|обновлен`),
		set:   func(e *models.Entry, v string) { e.Updated = v },
	},
	{
		name:  "installations",
		label: regexp.MustCompile(`(?i)installs|установ`),
		set:   func(e *models.Entry, v string) { e.Installations = v },
	},
	{
		name:  "currentVersion",
		label: regexp.MustCompile(`(?i)version|верси`),
		set:   func(e *models.Entry, v string) { e.CurrentVersion = NormalizeVersion(v) },
	},
}

// ApplyDetail fills updated, installations and currentVersion on e from a
// parsed detail page. It returns false, leaving e untouched, when the
// description or rating anchor is missing. Rows that are absent or empty
// never clear a field set earlier.
func ApplyDetail(root *html.Node, e *models.Entry, logger *slog.Logger) (int, bool) {
	if logger == nil {
		logger = slog.Default()
	}
	if root == nil || e == nil {
		return 0, false
	}

	doc := goquery.NewDocumentFromNode(root)
	if doc.Find(descriptionSelector).Length() == 0 {
		return 0, false
	}
	if doc.Find(ratingSelector).Length() == 0 {
		return 0, false
	}

	set := 0
	doc.Find(metaRowSelector).EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i >= len(detailFields) {
			return false
		}
		field := detailFields[i]

		label := strings.TrimSpace(row.Find(metaLabelSelector).Text())
		if label != "" && !field.label.MatchString(label) {
			logger.Warn("detail row label drift",
				slog.String("app_id", e.AppID),
				slog.String("field", field.name),
				slog.String("label", label),
			)
		}

		value := strings.TrimSpace(row.Find(metaValueSelector).Text())
		if value == "" {
			return true
		}
		field.set(e, value)
		set++
		return true
	})
	return set, true
}
