// Package parser turns storefront HTML into entries and derives the
// export-time fields of an entry from its raw values.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aluiziolira/go-scrape-play/models"
)

// ValidateEntry ensures the scraper captured the natural key.
func ValidateEntry(e *models.Entry) error {
	if e == nil {
		return fmt.Errorf("entry is nil")
	}
	if strings.TrimSpace(e.AppID) == "" {
		return fmt.Errorf("entry missing app id for %q", e.AppName)
	}
	return nil
}

// versionPlaceholder marks a detail page that shows "Version varies with device".
const versionPlaceholder = "0"

// NormalizeVersion replaces the storefront's version placeholder text with "0".
func NormalizeVersion(v string) string {
	if strings.HasPrefix(v, "Version") {
		return versionPlaceholder
	}
	return v
}

var months = [12]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

var monthCaser = cases.Lower(language.Russian)

// MonthNumberByName resolves a genitive Russian month name to 1..12, or 0.
func MonthNumberByName(name string) int {
	lowered := monthCaser.String(name)
	for i, m := range months {
		if m == lowered {
			return i + 1
		}
	}
	return 0
}

// DateOrder selects how FormatUpdated lays out a date.
type DateOrder string

const (
	DateOrderYMD DateOrder = "ymd"
	DateOrderDMY DateOrder = "dmy"
)

// FormatUpdated renders a "5 марта 2019" style date as a zero-padded string.
// Unknown month names render as month 00; a non-numeric day or year renders "".
func FormatUpdated(raw string, order DateOrder) string {
	parts := strings.Fields(raw)
	if len(parts) < 3 {
		return ""
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return ""
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return ""
	}
	month := MonthNumberByName(parts[1])

	if order == DateOrderDMY {
		return fmt.Sprintf("%02d.%02d.%04d", day, month, year)
	}
	return fmt.Sprintf("%04d.%02d.%02d", year, month, day)
}

// InstallRange is the lower and upper bound of an installs bracket.
type InstallRange struct {
	Lower string
	Upper string
}

// String renders the bounds tab-separated; the zero value renders "\t".
func (r InstallRange) String() string {
	return r.Lower + "\t" + r.Upper
}

var separatorStripper = strings.NewReplacer(
	",", "",
	".", "",
	" ", "",
	"\u00a0", "",
	"\u202f", "",
)

// SplitInstallations splits "10,000 – 50,000" on the en dash after removing
// thousands separators. ok is false unless exactly two parts come out.
func SplitInstallations(raw string) (InstallRange, bool) {
	if raw == "" {
		return InstallRange{}, false
	}
	parts := strings.Split(separatorStripper.Replace(raw), "\u2013")
	if len(parts) != 2 {
		return InstallRange{}, false
	}
	return InstallRange{
		Lower: strings.TrimSpace(parts[0]),
		Upper: strings.TrimSpace(parts[1]),
	}, true
}

// InstallationsField renders the bounds column pair for the extended layout.
func InstallationsField(raw string) string {
	if raw == "" {
		return ""
	}
	r, _ := SplitInstallations(raw)
	return r.String()
}

// InstallationsLowerBound returns the first bound as an integer, 0 on failure.
func InstallationsLowerBound(raw string) int {
	r, ok := SplitInstallations(raw)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(r.Lower)
	if err != nil {
		return 0
	}
	return n
}

// AppIDURL joins the storefront origin and the entry's relative app link.
func AppIDURL(origin string, e *models.Entry) string {
	return origin + e.AppID
}

// DevIDURL joins the storefront origin and the entry's relative developer link.
func DevIDURL(origin string, e *models.Entry) string {
	return origin + e.DevID
}
