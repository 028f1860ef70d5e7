package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type payload struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

func TestSaveAndLoadScrape(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	path, err := s.SaveScrape("job-1", payload{Topic: "gut health", Count: 3})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.Contains(filepath.Base(path), "scrape_job-1_") {
		t.Errorf("unexpected artifact name %s", filepath.Base(path))
	}

	var got payload
	if err := s.Load(path, &got); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Topic != "gut health" || got.Count != 3 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, _ := NewStore(t.TempDir())

	var got payload
	err := s.Load(filepath.Join(t.TempDir(), "gone.json"), &got)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestSaveExportSlugifiesTopic(t *testing.T) {
	s, _ := NewStore(t.TempDir())

	path, err := s.SaveExport("Gut Health & IBS!", "md", []byte("# report"))
	if err != nil {
		t.Fatalf("save export: %v", err)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "export_gut-health-ibs_") || !strings.HasSuffix(name, ".md") {
		t.Errorf("unexpected export name %s", name)
	}
}

func TestDeleteIgnoresMissing(t *testing.T) {
	s, _ := NewStore(t.TempDir())

	path, _ := s.SaveAnalysis("job-1", payload{})
	if err := s.Delete(path, "", "/nonexistent/file.json"); err != nil {
		t.Errorf("delete returned error for missing files: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("existing artifact not removed")
	}
}
