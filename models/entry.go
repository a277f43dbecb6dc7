// Package models defines data structures for the scraper.
package models

import "time"

// Entry represents one application discovered on a listing page.
//
// Only raw fields are stored; formatted dates, install bounds and absolute
// URLs are derived from them at export time.
type Entry struct {
	SearchQuery    string `json:"searchQuery"`
	AppID          string `json:"appId"`
	DevID          string `json:"devId"`
	Desc           string `json:"desc"`
	Updated        string `json:"updated"`
	Installations  string `json:"installations"`
	CurrentVersion string `json:"currentVersion"`
	AppName        string `json:"appName"`
}

// Done reports whether the entry has been enriched from its detail page.
func (e *Entry) Done() bool {
	return e != nil && e.CurrentVersion != ""
}

// CrawlResult holds the overall result of one driver run.
type CrawlResult struct {
	Query        string
	StartTime    time.Time
	EndTime      time.Time
	TotalCount   int
	DoneCount    int
	SkippedCount int
	EnrichedNow  int
	PendingCount int
	ErrorCount   int
	FetchCount   int
	Discovered   bool
	ErrorsByType map[string]int
}
