package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/mirrorindex/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = types.ErrNotFound
	// ErrEmptyQuery is returned by SearchFiles for a blank query
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// SQLiteStorage implements the Storage interface using SQLite.
// It keeps only the most recently saved snapshot.
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Snapshot operations

// SaveManifest replaces the stored snapshot with m in one transaction
func (s *SQLiteStorage) SaveManifest(ctx context.Context, buildID, root string, m *types.Manifest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Files and categories cascade from builds
	if _, err := tx.ExecContext(ctx, "DELETE FROM builds"); err != nil {
		return fmt.Errorf("failed to clear previous snapshot: %w", err)
	}

	if err := insertBuild(ctx, tx, buildID, root, m); err != nil {
		return err
	}
	if err := insertCategories(ctx, tx, buildID, m.Categories); err != nil {
		return err
	}
	if err := insertFiles(ctx, tx, buildID, m.Files); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func insertBuild(ctx context.Context, q querier, buildID, root string, m *types.Manifest) error {
	query := `
		INSERT INTO builds (id, root_path, generated_at, total_files, total_categories, ignored_paths, processing_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query, buildID, root, m.GeneratedAt,
		m.Stats.TotalFiles, m.Stats.TotalCategories, m.Stats.IgnoredPaths, m.Stats.ProcessingTimeMs, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert build: %w", err)
	}
	return nil
}

func insertCategories(ctx context.Context, tx *sql.Tx, buildID string, categories []types.CategoryNode) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO categories (id, build_id, name, parent_id, depth, children_count, file_count, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare category insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, c := range categories {
		if _, err := stmt.ExecContext(ctx, c.ID, buildID, c.Name, nullString(c.ParentID),
			c.Depth, c.ChildrenCount, c.FileCount, i); err != nil {
			return fmt.Errorf("failed to insert category %s: %w", c.ID, err)
		}
	}
	return nil
}

func insertFiles(ctx context.Context, tx *sql.Tx, buildID string, files []types.FileMeta) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO files (id, build_id, name, category_id, ext, mime, size_bytes, modified_at,
		                   title, digest, preview_url, download_url, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare file insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, f := range files {
		if _, err := stmt.ExecContext(ctx, f.ID, buildID, f.Name, f.CategoryID,
			nullString(f.Ext), nullString(f.Mime), f.Size, f.ModifiedAt,
			f.Title, f.Digest, f.PreviewURL, f.DownloadURL, i); err != nil {
			return fmt.Errorf("failed to insert file %s: %w", f.ID, err)
		}
	}
	return nil
}

// LatestBuild returns the stored build record
func (s *SQLiteStorage) LatestBuild(ctx context.Context) (*Build, error) {
	query := `
		SELECT id, root_path, generated_at, total_files, total_categories, ignored_paths, processing_time_ms, created_at
		FROM builds
		ORDER BY created_at DESC
		LIMIT 1
	`
	var b Build
	err := s.db.QueryRowContext(ctx, query).Scan(&b.ID, &b.RootPath, &b.GeneratedAt,
		&b.Stats.TotalFiles, &b.Stats.TotalCategories, &b.Stats.IgnoredPaths, &b.Stats.ProcessingTimeMs, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}
	return &b, nil
}

// LoadManifest rebuilds the stored snapshot with its original ordering
func (s *SQLiteStorage) LoadManifest(ctx context.Context) (*types.Manifest, error) {
	build, err := s.LatestBuild(ctx)
	if err != nil {
		return nil, err
	}

	files, err := s.queryFiles(ctx, "SELECT "+fileColumns+" FROM files ORDER BY position")
	if err != nil {
		return nil, err
	}
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	return &types.Manifest{
		GeneratedAt: build.GeneratedAt,
		Files:       files,
		Categories:  categories,
		Stats:       build.Stats,
	}, nil
}

// File operations

const fileColumns = `id, name, category_id, ext, mime, size_bytes, modified_at, title, digest, preview_url, download_url`

func (s *SQLiteStorage) GetFile(ctx context.Context, id string) (*types.FileMeta, error) {
	files, err := s.queryFiles(ctx, "SELECT "+fileColumns+" FROM files WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNotFound
	}
	return &files[0], nil
}

// ListFilesByCategory returns the files directly inside a category, in manifest order
func (s *SQLiteStorage) ListFilesByCategory(ctx context.Context, categoryID string) ([]types.FileMeta, error) {
	return s.queryFiles(ctx, "SELECT "+fileColumns+" FROM files WHERE category_id = ? ORDER BY position", categoryID)
}

// SearchFiles matches the query as a substring of name, title, digest or path.
// A non-empty categoryID keeps files in that category or below it. A negative
// limit returns every match; zero means the default of 20.
func (s *SQLiteStorage) SearchFiles(ctx context.Context, query, categoryID string, limit int) ([]types.FileMeta, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit == 0 {
		limit = 20
	}

	pattern := "%" + escapeLike(query) + "%"
	where := `(name LIKE ? ESCAPE '\' OR title LIKE ? ESCAPE '\' OR digest LIKE ? ESCAPE '\' OR id LIKE ? ESCAPE '\')`
	args := []interface{}{pattern, pattern, pattern, pattern}
	if categoryID != "" {
		where += ` AND (category_id = ? OR instr(category_id, ?) = 1)`
		args = append(args, categoryID, categoryID+"/")
	}
	if limit < 0 {
		limit = -1
	}
	args = append(args, limit)

	return s.queryFiles(ctx, `
		SELECT `+fileColumns+` FROM files
		WHERE `+where+`
		ORDER BY position
		LIMIT ?
	`, args...)
}

func (s *SQLiteStorage) queryFiles(ctx context.Context, query string, args ...interface{}) ([]types.FileMeta, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	files := []types.FileMeta{}
	for rows.Next() {
		var (
			f                       types.FileMeta
			ext, mime, modifiedAt   sql.NullString
			title, digest           sql.NullString
			previewURL, downloadURL sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.Name, &f.CategoryID, &ext, &mime, &f.Size, &modifiedAt,
			&title, &digest, &previewURL, &downloadURL); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		f.Path = f.ID
		f.Ext = stringPtr(ext)
		f.Mime = stringPtr(mime)
		f.ModifiedAt = modifiedAt.String
		f.Title = title.String
		f.Digest = digest.String
		f.PreviewURL = previewURL.String
		f.DownloadURL = downloadURL.String
		files = append(files, f)
	}
	return files, rows.Err()
}

// Category operations

const categoryColumns = `id, name, parent_id, depth, children_count, file_count`

// ListCategories returns all categories in manifest order
func (s *SQLiteStorage) ListCategories(ctx context.Context) ([]types.CategoryNode, error) {
	return s.queryCategories(ctx, "SELECT "+categoryColumns+" FROM categories ORDER BY position")
}

func (s *SQLiteStorage) GetCategory(ctx context.Context, id string) (*types.CategoryNode, error) {
	cats, err := s.queryCategories(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		return nil, ErrNotFound
	}
	return &cats[0], nil
}

func (s *SQLiteStorage) queryCategories(ctx context.Context, query string, args ...interface{}) ([]types.CategoryNode, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cats := []types.CategoryNode{}
	for rows.Next() {
		var (
			c        types.CategoryNode
			parentID sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &parentID, &c.Depth, &c.ChildrenCount, &c.FileCount); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.Path = c.ID
		c.ParentID = stringPtr(parentID)
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// Helpers

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
