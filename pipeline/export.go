package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aluiziolira/go-scrape-play/config"
	"github.com/aluiziolira/go-scrape-play/parser"
)

// Exporter turns a stored batch into {dir}/{query}.csv.
type Exporter struct {
	store  Store
	dir    string
	opts   parser.RowOptions
	logger *slog.Logger
}

func NewExporter(store Store, cfg *config.Config, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		store: store,
		dir:   cfg.OutputDir,
		opts: parser.RowOptions{
			Origin:    cfg.BaseURL,
			Layout:    parser.RowLayout(cfg.Layout),
			DateOrder: parser.DateOrder(cfg.DateOrder),
		},
		logger: logger.With("component", "exporter"),
	}
}

// Path returns the export file for query.
func (x *Exporter) Path(query string) string {
	return filepath.Join(x.dir, query+".csv")
}

// Export writes one row per stored entry and returns the file path and row
// count. A missing or unreadable batch writes nothing and returns an empty
// path with a nil error.
func (x *Exporter) Export(query string) (string, int, error) {
	entries, err := x.store.Load(query)
	if err != nil {
		if errors.Is(err, ErrBatchNotFound) {
			x.logger.Info("nothing to export", slog.String("query", query))
		} else {
			x.logger.Error("stored batch unreadable, export skipped",
				slog.String("query", query),
				slog.Any("error", err),
			)
		}
		return "", 0, nil
	}

	path := x.Path(query)
	writer, err := NewTSVWriter(path)
	if err != nil {
		return "", 0, err
	}
	for _, e := range entries {
		if err := writer.WriteLine(parser.FormatRow(e, x.opts)); err != nil {
			writer.Close()
			return "", 0, err
		}
	}
	if err := writer.Close(); err != nil {
		return "", 0, err
	}
	if err := writer.Validate(); err != nil {
		return "", 0, fmt.Errorf("validate export: %w", err)
	}

	x.logger.Info("export written",
		slog.String("query", query),
		slog.String("path", path),
		slog.Int("rows", writer.Lines()),
	)
	return path, writer.Lines(), nil
}
