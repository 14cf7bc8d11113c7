package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"unicode"
)

// Template names of the two kata files.
const (
	TemplateSolution = "solution"
	TemplateTest     = "test"
)

// SourceFile is one file of a kata. Name carries no extension.
type SourceFile struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
	Template  string `json:"template"`
	Contents  string `json:"contents"`
}

// FileName returns the name with its extension.
func (f SourceFile) FileName() string {
	if f.Extension == "" {
		return f.Name
	}
	return f.Name + "." + f.Extension
}

// KataDetails describes a kata as fetched from its page.
type KataDetails struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Difficulty  string `json:"difficulty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`

	// Files holds the solution first and the tests second.
	Files []SourceFile `json:"files"`
}

// IsValid checks that the details can be planned.
func (d *KataDetails) IsValid() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if d.Difficulty == "" {
		return fmt.Errorf("difficulty is required")
	}
	if len(d.Files) < 2 {
		return fmt.Errorf("solution and test files are required, got %d files", len(d.Files))
	}
	return nil
}

// NumericDifficulty reports whether the difficulty is a kyu rank such as
// "6" rather than a label such as "beta".
func (d *KataDetails) NumericDifficulty() bool {
	if d.Difficulty == "" {
		return false
	}
	for _, r := range d.Difficulty {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Plan is the set of files to create for one kata in one language.
type Plan struct {
	Language  string       `json:"language"`
	Directory string       `json:"directory"`
	Files     []SourceFile `json:"files"`
}

// Clone returns a copy of the plan that shares no slices with p.
func (p *Plan) Clone() *Plan {
	c := *p
	c.Files = append([]SourceFile(nil), p.Files...)
	return &c
}

// Paths returns the slash-separated path of every file in the plan.
func (p *Plan) Paths() []string {
	paths := make([]string, len(p.Files))
	for i, f := range p.Files {
		paths[i] = path.Join(p.Directory, f.FileName())
	}
	return paths
}

// File returns the first file created from template.
func (p *Plan) File(template string) (SourceFile, bool) {
	for _, f := range p.Files {
		if f.Template == template {
			return f, true
		}
	}
	return SourceFile{}, false
}

// ContentHash returns a short stable digest of s.
func ContentHash(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:16])
}
