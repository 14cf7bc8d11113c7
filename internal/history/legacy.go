package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// legacyFile is the history.json layout written by earlier setup scripts.
type legacyFile struct {
	PreviousLanguage string `json:"previousLanguage"`
}

// ImportLegacy copies the previous language from a history.json file into
// the store. A missing file is not an error. It reports whether a language
// was imported; an already stored language is kept.
func (s *Store) ImportLegacy(ctx context.Context, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var legacy legacyFile
	if err := json.Unmarshal(data, &legacy); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if legacy.PreviousLanguage == "" {
		return false, nil
	}

	current, err := s.GetMetadata(ctx, KeyPreviousLanguage)
	if err != nil {
		return false, err
	}
	if current != "" {
		return false, nil
	}

	if err := s.SetPreviousLanguage(ctx, legacy.PreviousLanguage); err != nil {
		return false, err
	}
	return true, nil
}
