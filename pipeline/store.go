// Package pipeline persists crawl batches, drives resumable enrichment over
// them and exports finished batches.
package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aluiziolira/go-scrape-play/models"
)

// ErrBatchNotFound is returned by Store.Load when no batch was saved for the
// query.
var ErrBatchNotFound = errors.New("batch not found")

var errNullBatch = errors.New("batch is null")

// Store persists one ordered batch of entries per query. Save replaces the
// whole batch.
type Store interface {
	Load(query string) ([]*models.Entry, error)
	Save(query string, entries []*models.Entry) error
	Close() error
	Name() string
}

// JSONStore keeps each batch in {dir}/{query}.json as a JSON array.
type JSONStore struct {
	dir string
}

func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{dir: dir}
}

// Path returns the batch file for query.
func (s *JSONStore) Path(query string) string {
	return filepath.Join(s.dir, query+".json")
}

func (s *JSONStore) Name() string {
	return "json"
}

func (s *JSONStore) Load(query string) ([]*models.Entry, error) {
	path := s.Path(query)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, path)
		}
		return nil, fmt.Errorf("read batch %s: %w", path, err)
	}

	var entries []*models.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode batch %s: %w", path, err)
	}
	if entries == nil {
		return nil, fmt.Errorf("decode batch %s: %w", path, errNullBatch)
	}
	return compact(entries), nil
}

// Save writes the batch to a temp file and renames it over the previous one.
// Readers see either the old batch or the new one, never a partial file.
func (s *JSONStore) Save(query string, entries []*models.Entry) error {
	path := s.Path(query)
	if err := ensureDir(path); err != nil {
		return err
	}
	if entries == nil {
		entries = []*models.Entry{}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create batch temp file: %w", err)
	}
	tmpPath := tmp.Name()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode batch: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close batch temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename batch file: %w", err)
	}
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func compact(entries []*models.Entry) []*models.Entry {
	out := entries[:0]
	for _, e := range entries {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}
