package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/mklatt/painscope/internal/analysis"
	"github.com/mklatt/painscope/internal/artifact"
	"github.com/mklatt/painscope/internal/config"
	"github.com/mklatt/painscope/internal/corpus"
	"github.com/mklatt/painscope/internal/extract"
	"github.com/mklatt/painscope/internal/reddit"
)

// stubScraper returns a canned corpus or a canned error.
type stubScraper struct {
	result *corpus.ScrapeResult
	err    error
}

func (s *stubScraper) ScrapeForums(_ context.Context, forums []string, opts reddit.ScrapeOptions, onProgress reddit.ProgressFunc) (*corpus.ScrapeResult, error) {
	if onProgress != nil {
		onProgress("scraping", "stub progress", 50)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func testCorpus() *corpus.ScrapeResult {
	return &corpus.ScrapeResult{
		Metadata: corpus.ScrapeMetadata{Topic: "gut health", Forums: []string{"guthealth"}},
		Posts: []corpus.Post{
			{
				ID: "p1", Title: "Struggling with bloating", Forum: "guthealth",
				Body: "Tried everything. I tried probiotics but it didn't help.", Score: 10,
				Permalink: "https://example.com/r/guthealth/p1",
			},
		},
		SourceLog: []corpus.SourceLogEntry{
			{Index: 1, URL: "https://example.com/r/guthealth/p1", ExtractionValue: corpus.ValueProblem},
		},
	}
}

func newTestManager(t *testing.T, scraper CorpusScraper) *Manager {
	t.Helper()
	artifacts, err := artifact.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("artifact store: %v", err)
	}
	strategies := map[string]analysis.Strategy{
		"lexical": analysis.NewLexical(extract.DefaultLexicon()),
	}
	defaults := config.Scrape{PostLimit: 10, CommentLimit: 5, Sort: "top", TimeFilter: "year"}
	return NewManager(NewMemoryStore(), artifacts, scraper, strategies, defaults, "lexical")
}

// waitForStatus polls until the job reaches one of the wanted states.
func waitForStatus(t *testing.T, m *Manager, id string, want ...Status) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, err := m.GetJob(id)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		for _, s := range want {
			if j.Status == s {
				return j
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	j, _ := m.GetJob(id)
	t.Fatalf("job %s never reached %v; stuck at %s", id, want, j.Status)
	return nil
}

func TestJobLifecycle(t *testing.T) {
	m := newTestManager(t, &stubScraper{result: testCorpus()})
	defer m.Close()

	created, err := m.CreateJob(Config{Topic: "gut health", Forums: []string{"guthealth"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != StatusPending {
		t.Errorf("new job status %s, want pending", created.Status)
	}
	if created.Config.PostLimit != 10 {
		t.Errorf("defaults not applied: postLimit %d", created.Config.PostLimit)
	}

	if _, err := m.StartJob(created.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	j := waitForStatus(t, m, created.ID, StatusScraped)
	if j.ScrapePath == "" {
		t.Error("scraped job has no artifact path")
	}
	if j.Result == nil || j.Result.PostCount != 1 {
		t.Errorf("result summary wrong: %+v", j.Result)
	}
	if j.Progress.Percent != 100 {
		t.Errorf("progress percent %d, want 100", j.Progress.Percent)
	}

	if _, err := m.StartAnalysis(created.ID, ""); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	j = waitForStatus(t, m, created.ID, StatusAnalyzed)
	if j.AnalysisPath == "" {
		t.Error("analyzed job has no analysis path")
	}
	if j.Result.PainPoints == 0 {
		t.Error("expected pain points in result summary")
	}

	report, err := m.GetAnalysisResult(created.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if report.Metadata.Topic != "gut health" {
		t.Errorf("report topic %q", report.Metadata.Topic)
	}

	// Rerunning analysis from analyzed is allowed.
	if _, err := m.StartAnalysis(created.ID, "lexical"); err != nil {
		t.Fatalf("rerun analyze: %v", err)
	}
	waitForStatus(t, m, created.ID, StatusAnalyzed)
}

func TestScrapeFailureResetsProgress(t *testing.T) {
	m := newTestManager(t, &stubScraper{err: fmt.Errorf("listing rejected with HTTP 429")})
	defer m.Close()

	created, _ := m.CreateJob(Config{Topic: "gut health", Forums: []string{"guthealth"}})
	if _, err := m.StartJob(created.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	j := waitForStatus(t, m, created.ID, StatusFailed)
	if j.Error == "" {
		t.Error("failed job has no error message")
	}
	if j.Progress.Percent != 0 || j.Progress.Phase != "error" {
		t.Errorf("failed job progress %+v, want phase error at 0%%", j.Progress)
	}
}

func TestStartAnalysisRejectedBeforeScrape(t *testing.T) {
	m := newTestManager(t, &stubScraper{result: testCorpus()})
	defer m.Close()

	created, _ := m.CreateJob(Config{Topic: "gut health", Forums: []string{"guthealth"}})

	_, err := m.StartAnalysis(created.ID, "")
	var stateErr *StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError from pending job, got %v", err)
	}

	// The record is untouched.
	j, _ := m.GetJob(created.ID)
	if j.Status != StatusPending {
		t.Errorf("rejected analysis mutated status to %s", j.Status)
	}
}

func TestStartJobRejectedTwice(t *testing.T) {
	m := newTestManager(t, &stubScraper{result: testCorpus()})
	defer m.Close()

	created, _ := m.CreateJob(Config{Topic: "gut health", Forums: []string{"guthealth"}})
	if _, err := m.StartJob(created.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForStatus(t, m, created.ID, StatusScraped)

	var stateErr *StateError
	if _, err := m.StartJob(created.ID); !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError on double start, got %v", err)
	}
}

func TestStartAnalysisUnknownStrategy(t *testing.T) {
	m := newTestManager(t, &stubScraper{result: testCorpus()})
	defer m.Close()

	created, _ := m.CreateJob(Config{Topic: "gut health", Forums: []string{"guthealth"}})
	m.StartJob(created.ID)
	waitForStatus(t, m, created.ID, StatusScraped)

	if _, err := m.StartAnalysis(created.ID, "oracle"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
	j, _ := m.GetJob(created.ID)
	if j.Status != StatusScraped {
		t.Errorf("unknown strategy mutated status to %s", j.Status)
	}
}

func TestDeleteJobRemovesArtifacts(t *testing.T) {
	m := newTestManager(t, &stubScraper{result: testCorpus()})
	defer m.Close()

	created, _ := m.CreateJob(Config{Topic: "gut health", Forums: []string{"guthealth"}})
	m.StartJob(created.ID)
	j := waitForStatus(t, m, created.ID, StatusScraped)

	if _, err := os.Stat(j.ScrapePath); err != nil {
		t.Fatalf("scrape artifact missing before delete: %v", err)
	}

	if err := m.DeleteJob(created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := m.GetJob(created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := os.Stat(j.ScrapePath); !os.IsNotExist(err) {
		t.Errorf("scrape artifact still on disk after delete")
	}
}

func TestExportAnalysisFormats(t *testing.T) {
	m := newTestManager(t, &stubScraper{result: testCorpus()})
	defer m.Close()

	created, _ := m.CreateJob(Config{Topic: "gut health", Forums: []string{"guthealth"}})
	m.StartJob(created.ID)
	waitForStatus(t, m, created.ID, StatusScraped)
	m.StartAnalysis(created.ID, "")
	waitForStatus(t, m, created.ID, StatusAnalyzed)

	for _, format := range []string{"json", "markdown", "csv"} {
		file, err := m.ExportAnalysis(created.ID, format)
		if err != nil {
			t.Fatalf("export %s: %v", format, err)
		}
		if len(file.Data) == 0 {
			t.Errorf("export %s produced no data", format)
		}
		if _, err := os.Stat(file.Path); err != nil {
			t.Errorf("export %s not written to disk: %v", format, err)
		}
	}

	if _, err := m.ExportAnalysis(created.ID, "pdf"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestListJobsNewestFirst(t *testing.T) {
	m := newTestManager(t, &stubScraper{result: testCorpus()})
	defer m.Close()

	first, _ := m.CreateJob(Config{Topic: "first topic", Forums: []string{"a"}})
	time.Sleep(5 * time.Millisecond)
	second, _ := m.CreateJob(Config{Topic: "second topic", Forums: []string{"b"}})

	jobs, err := m.ListJobs()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != second.ID || jobs[1].ID != first.ID {
		t.Errorf("jobs not newest-first: %s, %s", jobs[0].Config.Topic, jobs[1].Config.Topic)
	}
}

func TestCreateJobValidation(t *testing.T) {
	m := newTestManager(t, &stubScraper{result: testCorpus()})
	defer m.Close()

	if _, err := m.CreateJob(Config{Forums: []string{"a"}}); err == nil {
		t.Error("expected error for missing topic")
	}
	if _, err := m.CreateJob(Config{Topic: "x"}); err == nil {
		t.Error("expected error for missing forums")
	}
}
