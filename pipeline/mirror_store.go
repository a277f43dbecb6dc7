package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aluiziolira/go-scrape-play/models"
)

// MirrorStore saves every batch to a primary and a secondary store. Loads
// come from the primary only; a secondary failure is logged, not returned.
type MirrorStore struct {
	primary   Store
	secondary Store
	logger    *slog.Logger
}

func NewMirrorStore(primary, secondary Store, logger *slog.Logger) *MirrorStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorStore{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With("component", "store"),
	}
}

func (m *MirrorStore) Name() string {
	return m.primary.Name() + "+" + m.secondary.Name()
}

func (m *MirrorStore) Load(query string) ([]*models.Entry, error) {
	return m.primary.Load(query)
}

func (m *MirrorStore) Save(query string, entries []*models.Entry) error {
	if err := m.primary.Save(query, entries); err != nil {
		return fmt.Errorf("%s save failed: %w", m.primary.Name(), err)
	}
	if err := m.secondary.Save(query, entries); err != nil {
		m.logger.Warn("mirror save failed",
			slog.String("store", m.secondary.Name()),
			slog.String("query", query),
			slog.Any("error", err),
		)
	}
	return nil
}

// Close closes both stores and joins their errors.
func (m *MirrorStore) Close() error {
	var errs []error
	if err := m.primary.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%s close failed: %w", m.primary.Name(), err))
	}
	if err := m.secondary.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%s close failed: %w", m.secondary.Name(), err))
	}
	return errors.Join(errs...)
}
