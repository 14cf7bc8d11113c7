package history

import (
	"context"
	"fmt"
)

const SchemaVersion = 2

// Migrate runs database migrations to ensure schema is up to date.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.createVersionTable(ctx); err != nil {
		return fmt.Errorf("failed to create version table: %w", err)
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if currentVersion < 1 {
		if err := s.migrateV1(ctx); err != nil {
			return fmt.Errorf("failed to run v1 migration: %w", err)
		}
	}

	if currentVersion < 2 {
		if err := s.migrateV2(ctx); err != nil {
			return fmt.Errorf("failed to run v2 migration: %w", err)
		}
	}

	return nil
}

func (s *Store) createVersionTable(ctx context.Context) error {
	_, err := s.exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// SchemaVersion returns the highest applied migration, 0 for a new database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.queryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (s *Store) setSchemaVersion(ctx context.Context, version int) error {
	_, err := s.exec(ctx, "INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// migrateV1 creates the metadata table holding settings such as the
// previously used language.
func (s *Store) migrateV1(ctx context.Context) error {
	if _, err := s.exec(ctx, `
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	if err := s.setSchemaVersion(ctx, 1); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	return nil
}

// migrateV2 adds the rewrite log.
func (s *Store) migrateV2(ctx context.Context) error {
	if _, err := s.exec(ctx, `
		CREATE TABLE IF NOT EXISTS rewrites (
			id TEXT PRIMARY KEY,
			language TEXT NOT NULL,
			rewriter TEXT NOT NULL,
			file TEXT,
			input_hash TEXT NOT NULL,
			output_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create rewrites table: %w", err)
	}

	if _, err := s.exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_rewrites_created_at ON rewrites(created_at)
	`); err != nil {
		return fmt.Errorf("failed to create rewrites created_at index: %w", err)
	}

	if err := s.setSchemaVersion(ctx, 2); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	return nil
}
