package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// KeyPreviousLanguage stores the language of the last planned kata.
const KeyPreviousLanguage = "previous_language"

// GetMetadata retrieves a metadata value by key.
// Returns empty string if the key doesn't exist.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.queryRow(ctx, `
		SELECT value FROM metadata WHERE key = ?
	`, key).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata '%s': %w", key, err)
	}
	return value, nil
}

// SetMetadata stores or updates a metadata key-value pair.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	_, err := s.exec(ctx, `
		INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata '%s': %w", key, err)
	}
	return nil
}

// DeleteMetadata removes a metadata key-value pair.
func (s *Store) DeleteMetadata(ctx context.Context, key string) error {
	_, err := s.exec(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata '%s': %w", key, err)
	}
	return nil
}

// PreviousLanguage returns the last stored language, or fallback when none
// has been stored.
func (s *Store) PreviousLanguage(ctx context.Context, fallback string) (string, error) {
	lang, err := s.GetMetadata(ctx, KeyPreviousLanguage)
	if err != nil {
		return "", err
	}
	if lang == "" {
		return fallback, nil
	}
	return lang, nil
}

// SetPreviousLanguage remembers lang for the next invocation.
func (s *Store) SetPreviousLanguage(ctx context.Context, lang string) error {
	return s.SetMetadata(ctx, KeyPreviousLanguage, lang)
}
