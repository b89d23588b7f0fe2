package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/mirrorindex/internal/catalog"
	"github.com/dshills/mirrorindex/internal/config"
	"github.com/dshills/mirrorindex/internal/indexer"
	"github.com/dshills/mirrorindex/internal/loader"
	"github.com/dshills/mirrorindex/internal/logging"
	"github.com/dshills/mirrorindex/internal/searcher"
	"github.com/dshills/mirrorindex/internal/storage"
	"github.com/dshills/mirrorindex/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "mirrorindex"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	cfg      *config.Config
	logger   *logging.Logger
	storage  storage.Storage // nil without a database
	loader   *loader.Loader
	catalogs *catalog.Service
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
}

// Options selects where served snapshots come from
type Options struct {
	// FromDatabase serves the snapshot saved in cfg.Database instead of the
	// written index files
	FromDatabase bool
}

// NewServer creates a new MCP server instance. The SQLite store is opened
// only when cfg.Database is set.
func NewServer(cfg *config.Config, logger *logging.Logger, opts Options) (*Server, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	if opts.FromDatabase && cfg.Database == "" {
		return nil, errors.New("serving from the database requires a database path")
	}

	var store storage.Storage
	var sink indexer.Sink
	if cfg.Database != "" {
		db, err := storage.NewSQLiteStorage(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		store, sink = db, db
	}

	candidates := cfg.Loader.Candidates
	if len(candidates) == 0 {
		candidates = []string{cfg.OutDir()}
	}
	ld := loader.New(loader.Options{
		Candidates:     candidates,
		IndexFile:      cfg.IndexFile,
		CategoriesFile: cfg.CategoriesFile,
		MaxAge:         cfg.Loader.CacheMaxAge,
		Locale:         cfg.Locale,
	}, logger)

	var source catalog.ManifestSource = ld
	if opts.FromDatabase {
		source = databaseSource(store)
	}
	catalogs := catalog.NewService(source, cfg.Locale, logger)

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		cfg:      cfg,
		logger:   logger.Named("mcp"),
		storage:  store,
		loader:   ld,
		catalogs: catalogs,
		indexer:  indexer.New(sink, logger.Named("indexer")),
		searcher: searcher.NewSearcher(catalogs, store, cfg.Locale),
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// databaseSource reads the saved snapshot; an empty database counts as not indexed
func databaseSource(store storage.Storage) catalog.SourceFunc {
	return func(ctx context.Context) (*types.Manifest, error) {
		m, err := store.LoadManifest(ctx)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, loader.ErrNotFound
		}
		return m, err
	}
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.Close() }()
	s.logger.Info("mcp:serve", logging.Fields{"name": ServerName, "version": ServerVersion})
	return server.ServeStdio(s.mcp)
}

// Close releases the database, if any
func (s *Server) Close() error {
	if s.storage == nil {
		return nil
	}
	return s.storage.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(listCategoriesTool(), s.handleListCategories)
	s.mcp.AddTool(getCategoryTool(), s.handleGetCategory)
	s.mcp.AddTool(getFileTool(), s.handleGetFile)
	s.mcp.AddTool(searchFilesTool(), s.handleSearchFiles)
	s.mcp.AddTool(getIndexStatusTool(), s.handleGetIndexStatus)
	s.mcp.AddTool(rebuildIndexTool(), s.handleRebuildIndex)
}
