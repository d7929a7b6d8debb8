package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/www6v/notestudio/internal/model"
)

// Verify at compile time that Store implements all interfaces.
var (
	_ NotebookStore   = (*Store)(nil)
	_ SourceReader    = (*Store)(nil)
	_ SourceWriter    = (*Store)(nil)
	_ ArtifactReader  = (*Store)(nil)
	_ ArtifactWriter  = (*Store)(nil)
	_ ArtifactClaimer = (*Store)(nil)
)

// Store provides data access to the SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and initialises the schema.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// currentSchemaVersion is bumped whenever the schema changes.
// Add a new migration function in the migrations slice below.
const currentSchemaVersion = 1

func (s *Store) migrate() error {
	// Ensure the schema_version table exists.
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		// Fresh database: initialize to version 0.
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema version: %w", err)
		}
		version = 0
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	// migrations is an ordered list of migration functions.
	// Index 0 = migration from v0 to v1, etc.
	migrations := []func() error{
		s.migrateV1, // v0 → v1: initial schema
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](); err != nil {
			return fmt.Errorf("migration v%d→v%d: %w", i, i+1, err)
		}
		if _, err := s.db.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			return fmt.Errorf("update schema version to %d: %w", i+1, err)
		}
	}

	return nil
}

// migrateV1 creates the initial schema (v0 → v1).
func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS notebooks (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sources (
		id          TEXT PRIMARY KEY,
		notebook_id TEXT NOT NULL REFERENCES notebooks(id),
		title       TEXT NOT NULL,
		kind        TEXT NOT NULL,
		cached_text TEXT,
		blob_ref    TEXT,
		is_active   INTEGER NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sources_notebook ON sources(notebook_id, created_at ASC);

	CREATE TABLE IF NOT EXISTS artifacts (
		id          TEXT PRIMARY KEY,
		notebook_id TEXT NOT NULL REFERENCES notebooks(id),
		kind        TEXT NOT NULL,
		title       TEXT NOT NULL,
		status      TEXT NOT NULL,
		payload     TEXT,
		file_ref    TEXT,
		options     TEXT NOT NULL DEFAULT '{}',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_notebook ON artifacts(notebook_id, kind, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_artifacts_status ON artifacts(status, updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ---------------------------------------------------------------------------
// Notebooks
// ---------------------------------------------------------------------------

// CreateNotebook inserts a new notebook.
func (s *Store) CreateNotebook(ctx context.Context, nb model.Notebook) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notebooks (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		nb.ID, nb.Name, nb.CreatedAt, nb.UpdatedAt,
	)
	return err
}

// GetNotebook returns a notebook by id.
func (s *Store) GetNotebook(ctx context.Context, id string) (*model.Notebook, error) {
	var nb model.Notebook
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM notebooks WHERE id = ?`, id,
	).Scan(&nb.ID, &nb.Name, &nb.CreatedAt, &nb.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &nb, nil
}

// ---------------------------------------------------------------------------
// Sources
// ---------------------------------------------------------------------------

// CreateSource inserts a new source.
func (s *Store) CreateSource(ctx context.Context, src model.Source) error {
	active := 0
	if src.IsActive {
		active = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sources (id, notebook_id, title, kind, cached_text, blob_ref, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		src.ID, src.NotebookID, src.Title, src.Kind, src.CachedText, src.BlobRef, active,
		src.CreatedAt, src.UpdatedAt,
	)
	return err
}

// GetSource returns a source by id.
func (s *Store) GetSource(ctx context.Context, id string) (*model.Source, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, notebook_id, title, kind, cached_text, blob_ref, is_active, created_at, updated_at
		 FROM sources WHERE id = ?`, id)
	return scanSource(row)
}

// ListSources returns all sources of a notebook in creation order.
func (s *Store) ListSources(ctx context.Context, notebookID string) ([]model.Source, error) {
	return s.listSources(ctx, notebookID, false)
}

// ListActiveSources returns the active sources of a notebook in creation order.
// The generation pipeline depends on this ordering for stable provenance tags.
func (s *Store) ListActiveSources(ctx context.Context, notebookID string) ([]model.Source, error) {
	return s.listSources(ctx, notebookID, true)
}

func (s *Store) listSources(ctx context.Context, notebookID string, activeOnly bool) ([]model.Source, error) {
	query := `SELECT id, notebook_id, title, kind, cached_text, blob_ref, is_active, created_at, updated_at
		FROM sources WHERE notebook_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, notebookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []model.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *src)
	}
	return sources, rows.Err()
}

// ---------------------------------------------------------------------------
// Artifacts
// ---------------------------------------------------------------------------

// CreateArtifact inserts a new artifact.
func (s *Store) CreateArtifact(ctx context.Context, a model.Artifact) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, notebook_id, kind, title, status, payload, file_ref, options, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.NotebookID, string(a.Kind), a.Title, a.Status, a.Payload, a.FileRef, a.Options,
		a.CreatedAt, a.UpdatedAt,
	)
	return err
}

// GetArtifact returns an artifact by id.
func (s *Store) GetArtifact(ctx context.Context, id string) (*model.Artifact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, notebook_id, kind, title, status, payload, file_ref, options, created_at, updated_at
		 FROM artifacts WHERE id = ?`, id)
	return scanArtifact(row)
}

// ListArtifacts returns a notebook's artifacts, newest first, optionally
// filtered by kind (empty kind means all kinds).
func (s *Store) ListArtifacts(ctx context.Context, notebookID string, kind model.Kind) ([]model.Artifact, error) {
	query := `SELECT id, notebook_id, kind, title, status, payload, file_ref, options, created_at, updated_at
		FROM artifacts WHERE notebook_id = ?`
	args := []interface{}{notebookID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []model.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, *a)
	}
	return artifacts, rows.Err()
}

// ClaimArtifact atomically moves a pending artifact to processing and returns
// it. It returns nil when the artifact does not exist or is not pending, so a
// duplicate generation request degrades to a no-op instead of a second writer.
func (s *Store) ClaimArtifact(ctx context.Context, id string) (*model.Artifact, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	row := s.db.QueryRowContext(ctx, `
		UPDATE artifacts SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
		RETURNING id, notebook_id, kind, title, status, payload, file_ref, options, created_at, updated_at`,
		model.StatusProcessing, now, id, model.StatusPending,
	)
	a, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// MarkArtifactReady stores the generated payload (and optional file ref) and
// moves the artifact to ready.
func (s *Store) MarkArtifactReady(ctx context.Context, id, payload string, fileRef *string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`UPDATE artifacts SET status = ?, payload = ?, file_ref = ?, updated_at = ? WHERE id = ?`,
		model.StatusReady, payload, fileRef, now, id,
	)
	return err
}

// MarkArtifactError moves the artifact to error. Failure detail is logged by
// the caller, never stored on the row.
func (s *Store) MarkArtifactError(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`UPDATE artifacts SET status = ?, updated_at = ? WHERE id = ?`,
		model.StatusError, now, id,
	)
	return err
}

// ResetArtifactForRegenerate atomically moves a ready or error artifact back
// to pending, clearing its payload and file reference. It reports whether the
// reset happened; false means the artifact is missing or a generation attempt
// is already in flight.
func (s *Store) ResetArtifactForRegenerate(ctx context.Context, id string) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `
		UPDATE artifacts SET status = ?, payload = NULL, file_ref = NULL, updated_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		model.StatusPending, now, id, model.StatusReady, model.StatusError,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListStalePending returns pending artifacts whose last update is older than
// the cutoff, oldest first. The recovery sweeper re-dispatches these.
func (s *Store) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]model.Artifact, error) {
	cutoff := olderThan.UTC().Format(time.RFC3339)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, notebook_id, kind, title, status, payload, file_ref, options, created_at, updated_at
		FROM artifacts WHERE status = ? AND updated_at < ?
		ORDER BY updated_at ASC LIMIT ?`,
		model.StatusPending, cutoff, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []model.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, *a)
	}
	return artifacts, rows.Err()
}

// ResetStaleProcessing resets any processing artifacts back to pending (for
// server restart after a crash mid-generation).
func (s *Store) ResetStaleProcessing(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE artifacts SET status = ?, updated_at = ? WHERE status = ?`,
		model.StatusPending, now, model.StatusProcessing,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteArtifact removes an artifact row.
func (s *Store) DeleteArtifact(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE id = ?`, id)
	return err
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSource(row scanner) (*model.Source, error) {
	var src model.Source
	var active int
	err := row.Scan(&src.ID, &src.NotebookID, &src.Title, &src.Kind, &src.CachedText, &src.BlobRef, &active, &src.CreatedAt, &src.UpdatedAt)
	if err != nil {
		return nil, err
	}
	src.IsActive = active == 1
	return &src, nil
}

func scanArtifact(row scanner) (*model.Artifact, error) {
	var a model.Artifact
	var kind string
	err := row.Scan(&a.ID, &a.NotebookID, &kind, &a.Title, &a.Status, &a.Payload, &a.FileRef, &a.Options, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Kind = model.Kind(kind)
	return &a, nil
}
