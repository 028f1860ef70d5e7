// Package artifact persists scrape, analysis, and export artifacts as flat
// JSON files in per-kind directories under the data dir.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Store writes and reads job artifacts. File names embed the job ID and a
// timestamp so concurrent jobs never collide.
type Store struct {
	scrapeDir   string
	analysisDir string
	exportDir   string
}

// NewStore creates the artifact directories under dataDir.
func NewStore(dataDir string) (*Store, error) {
	s := &Store{
		scrapeDir:   filepath.Join(dataDir, "scrapes"),
		analysisDir: filepath.Join(dataDir, "analyses"),
		exportDir:   filepath.Join(dataDir, "exports"),
	}
	for _, dir := range []string{s.scrapeDir, s.analysisDir, s.exportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating artifact directory: %w", err)
		}
	}
	return s, nil
}

// SaveScrape writes the corpus artifact and returns its path.
func (s *Store) SaveScrape(jobID string, v any) (string, error) {
	name := fmt.Sprintf("scrape_%s_%d.json", jobID, time.Now().Unix())
	return s.writeJSON(filepath.Join(s.scrapeDir, name), v)
}

// SaveAnalysis writes the report artifact and returns its path.
func (s *Store) SaveAnalysis(jobID string, v any) (string, error) {
	name := fmt.Sprintf("analysis_%s_%d.json", jobID, time.Now().Unix())
	return s.writeJSON(filepath.Join(s.analysisDir, name), v)
}

// SaveExport writes raw export bytes and returns the file path.
func (s *Store) SaveExport(topic, ext string, data []byte) (string, error) {
	name := fmt.Sprintf("export_%s_%d.%s", slugify(topic), time.Now().Unix(), ext)
	path := filepath.Join(s.exportDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}

// Load reads a JSON artifact into v. Returns os.ErrNotExist when the file
// is gone.
func (s *Store) Load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding artifact %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadRaw returns the raw bytes of an artifact.
func (s *Store) ReadRaw(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Delete removes artifact files, ignoring missing ones. Best effort: the
// first error is returned but removal continues.
func (s *Store) Delete(paths ...string) error {
	var firstErr error
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Store) writeJSON(path string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	return path, nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(s), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "report"
	}
	return slug
}
