package catalog

import (
	"context"
	"sync"

	"github.com/dshills/mirrorindex/internal/logging"
	"github.com/dshills/mirrorindex/pkg/types"
)

// ManifestSource supplies the current manifest. Both the loader and the
// SQLite store can serve as one.
type ManifestSource interface {
	Manifest(ctx context.Context) (*types.Manifest, error)
}

// SourceFunc adapts a function to ManifestSource
type SourceFunc func(ctx context.Context) (*types.Manifest, error)

func (f SourceFunc) Manifest(ctx context.Context) (*types.Manifest, error) {
	return f(ctx)
}

// Service hands out a Catalog for the source's current manifest and rebuilds
// it only when the manifest changes.
type Service struct {
	source ManifestSource
	locale string
	logger *logging.Logger

	mu      sync.Mutex
	current *Catalog
}

// NewService creates a catalog service
func NewService(source ManifestSource, locale string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{source: source, locale: locale, logger: logger.Named("catalog")}
}

// Catalog returns the catalog of the current manifest
func (s *Service) Catalog(ctx context.Context) (*Catalog, error) {
	m, err := s.source.Manifest(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && sameSnapshot(s.current.manifest, m) {
		return s.current, nil
	}
	s.current = New(m, s.locale)
	s.logger.Debug("catalog:rebuild", logging.Fields{
		"generatedAt": m.GeneratedAt,
		"files":       len(m.Files),
		"categories":  len(s.current.categories),
	})
	return s.current, nil
}

// sameSnapshot treats two manifests as equal when they are the same value
// or share generatedAt and stats. Stores return fresh copies on every read.
func sameSnapshot(a, b *types.Manifest) bool {
	if a == b {
		return true
	}
	return a.GeneratedAt == b.GeneratedAt && a.Stats == b.Stats && len(a.Files) == len(b.Files)
}
