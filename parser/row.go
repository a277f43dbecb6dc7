package parser

import (
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-play/models"
)

// RowLayout selects the export column order.
type RowLayout string

const (
	// LayoutCompact: developer URL, name, date, installs lower bound, app URL, query.
	LayoutCompact RowLayout = "compact"
	// LayoutExtended: name, description, date, installs range, version, app URL,
	// developer URL, query.
	LayoutExtended RowLayout = "extended"
)

// RowOptions controls FormatRow.
type RowOptions struct {
	Origin    string
	Layout    RowLayout
	DateOrder DateOrder
}

// FormatRow renders one tab-delimited export line without a trailing newline.
func FormatRow(e *models.Entry, opts RowOptions) string {
	updated := FormatUpdated(e.Updated, opts.DateOrder)

	var cols []string
	switch opts.Layout {
	case LayoutExtended:
		cols = []string{
			e.AppName,
			e.Desc,
			updated,
			InstallationsField(e.Installations),
			e.CurrentVersion,
			AppIDURL(opts.Origin, e),
			DevIDURL(opts.Origin, e),
			e.SearchQuery,
		}
	default:
		lower := ""
		if e.Installations != "" {
			lower = strconv.Itoa(InstallationsLowerBound(e.Installations))
		}
		cols = []string{
			DevIDURL(opts.Origin, e),
			e.AppName,
			updated,
			lower,
			AppIDURL(opts.Origin, e),
			e.SearchQuery,
		}
	}
	return strings.Join(cols, "\t")
}
