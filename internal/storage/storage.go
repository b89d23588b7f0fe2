package storage

import (
	"context"
	"time"

	"github.com/dshills/mirrorindex/pkg/types"
)

// Storage defines the interface for persisting and querying manifest snapshots
type Storage interface {
	// Snapshot operations
	SaveManifest(ctx context.Context, buildID, root string, m *types.Manifest) error
	LoadManifest(ctx context.Context) (*types.Manifest, error)
	LatestBuild(ctx context.Context) (*Build, error)

	// File operations
	GetFile(ctx context.Context, id string) (*types.FileMeta, error)
	ListFilesByCategory(ctx context.Context, categoryID string) ([]types.FileMeta, error)
	SearchFiles(ctx context.Context, query, categoryID string, limit int) ([]types.FileMeta, error)

	// Category operations
	ListCategories(ctx context.Context) ([]types.CategoryNode, error)
	GetCategory(ctx context.Context, id string) (*types.CategoryNode, error)

	// Database operations
	Close() error
}

// Build records one saved snapshot
type Build struct {
	ID          string
	RootPath    string
	GeneratedAt string
	Stats       types.Stats
	CreatedAt   time.Time
}
