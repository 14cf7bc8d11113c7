package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kataforge-dev/kataforge/internal/models"
)

// Rewrite is one logged rewrite. Sources are stored as hashes only.
type Rewrite struct {
	ID         string    `json:"id"`
	Language   string    `json:"language"`
	Rewriter   string    `json:"rewriter"`
	File       string    `json:"file,omitempty"`
	InputHash  string    `json:"input_hash"`
	OutputHash string    `json:"output_hash"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewRewrite describes rewriting input into output.
func NewRewrite(language, rewriter, file, input, output string) Rewrite {
	return Rewrite{
		Language:   language,
		Rewriter:   rewriter,
		File:       file,
		InputHash:  models.ContentHash(input),
		OutputHash: models.ContentHash(output),
	}
}

// Changed reports whether the rewrite altered its input.
func (r Rewrite) Changed() bool {
	return r.InputHash != r.OutputHash
}

// RecordRewrite stores r, assigning an ID and timestamp when missing, and
// returns the stored record.
func (s *Store) RecordRewrite(ctx context.Context, r Rewrite) (Rewrite, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := s.exec(ctx, `
		INSERT INTO rewrites (id, language, rewriter, file, input_hash, output_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Language, r.Rewriter, r.File, r.InputHash, r.OutputHash, r.CreatedAt.UTC())
	if err != nil {
		return Rewrite{}, fmt.Errorf("failed to record rewrite: %w", err)
	}
	return r, nil
}

// RecentRewrites returns up to limit rewrites, newest first.
func (s *Store) RecentRewrites(ctx context.Context, limit int) ([]Rewrite, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.query(ctx, `
		SELECT id, language, rewriter, COALESCE(file, ''), input_hash, output_hash, created_at
		FROM rewrites
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewrites: %w", err)
	}
	defer rows.Close()

	var out []Rewrite
	for rows.Next() {
		var r Rewrite
		if err := rows.Scan(&r.ID, &r.Language, &r.Rewriter, &r.File, &r.InputHash, &r.OutputHash, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rewrite: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountRewrites returns the number of logged rewrites.
func (s *Store) CountRewrites(ctx context.Context) (int, error) {
	var n int
	if err := s.queryRow(ctx, "SELECT COUNT(*) FROM rewrites").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rewrites: %w", err)
	}
	return n, nil
}
