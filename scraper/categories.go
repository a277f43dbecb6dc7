package scraper

import (
	"bufio"
	"fmt"
	"os"
)

// ReadCategories loads the newline-delimited category list used by the
// category crawl. Blank lines and lines starting with # are ignored.
func ReadCategories(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open categories file: %w", err)
	}
	defer f.Close()

	var categories []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if category := CategoryFromLine(scanner.Text()); category != "" {
			categories = append(categories, category)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	return categories, nil
}
