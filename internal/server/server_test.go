package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mklatt/painscope/internal/analysis"
	"github.com/mklatt/painscope/internal/artifact"
	"github.com/mklatt/painscope/internal/config"
	"github.com/mklatt/painscope/internal/corpus"
	"github.com/mklatt/painscope/internal/extract"
	"github.com/mklatt/painscope/internal/job"
	"github.com/mklatt/painscope/internal/reddit"
)

type stubScraper struct{}

func (stubScraper) ScrapeForums(_ context.Context, forums []string, _ reddit.ScrapeOptions, _ reddit.ProgressFunc) (*corpus.ScrapeResult, error) {
	return &corpus.ScrapeResult{
		Metadata: corpus.ScrapeMetadata{Topic: "gut health", Forums: forums},
		Posts: []corpus.Post{
			{
				ID: "p1", Title: "Struggling with bloating", Forum: "guthealth",
				Body:      "Tried everything. I tried probiotics but it didn't help.",
				Score:     10,
				Permalink: "https://example.com/r/guthealth/p1",
			},
		},
	}, nil
}

type stubDiscoverer struct{}

func (stubDiscoverer) DiscoverForums(_ context.Context, topic string) ([]reddit.Forum, error) {
	return reddit.RankForums([]reddit.Forum{
		{Name: "guthealth", Title: "Gut Health", SubscriberCount: 85000},
		{Name: "funny", Title: "Funny", SubscriberCount: 10000000},
	}, topic), nil
}

func newTestServer(t *testing.T) (*Server, *job.Manager) {
	t.Helper()

	artifacts, err := artifact.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create artifact store: %v", err)
	}
	mgr := job.NewManager(
		job.NewMemoryStore(), artifacts, stubScraper{},
		map[string]analysis.Strategy{"lexical": analysis.NewLexical(extract.DefaultLexicon())},
		config.Scrape{PostLimit: 10, CommentLimit: 5, Sort: "top", TimeFilter: "year"},
		"lexical",
	)
	t.Cleanup(func() { mgr.Close() })

	srv, err := New(mgr, stubDiscoverer{}, filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv, mgr
}

func do(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func waitForStatus(t *testing.T, mgr *job.Manager, id string, want job.Status) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, err := mgr.GetJob(id)
		if err != nil {
			t.Fatalf("failed to get job: %v", err)
		}
		if j.Status == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s", id, want)
}

func TestDiscoverRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(srv, "GET", "/api/forums/discover?topic=gut+health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Topic  string         `json:"topic"`
		Forums []reddit.Forum `json:"forums"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Forums) != 2 || body.Forums[0].Name != "guthealth" {
		t.Errorf("unexpected discovery result: %+v", body.Forums)
	}
}

func TestDiscoverRequiresTopic(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(srv, "GET", "/api/forums/discover", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestJobAPIFlow(t *testing.T) {
	srv, mgr := newTestServer(t)

	rec := do(srv, "POST", "/api/jobs", `{"topic":"gut health","forums":["guthealth"]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var created job.Job
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode job: %v", err)
	}
	waitForStatus(t, mgr, created.ID, job.StatusScraped)

	rec = do(srv, "GET", "/api/jobs/"+created.ID+"/data", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for scraped data, got %d", rec.Code)
	}

	rec = do(srv, "POST", "/api/jobs/"+created.ID+"/analyze", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 for analyze, got %d: %s", rec.Code, rec.Body.String())
	}
	waitForStatus(t, mgr, created.ID, job.StatusAnalyzed)

	rec = do(srv, "GET", "/api/jobs/"+created.ID+"/report", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for report, got %d", rec.Code)
	}
	var report extract.Report
	json.Unmarshal(rec.Body.Bytes(), &report)
	if report.Metadata.Topic != "gut health" {
		t.Errorf("report topic %q, want gut health", report.Metadata.Topic)
	}

	rec = do(srv, "GET", "/api/jobs/"+created.ID+"/export?format=markdown", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for export, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("export content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("export disposition %q", cd)
	}

	rec = do(srv, "GET", "/report/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for report page, got %d", rec.Code)
	}

	rec = do(srv, "DELETE", "/api/jobs/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for delete, got %d", rec.Code)
	}

	rec = do(srv, "GET", "/api/jobs/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestCreateJobValidationError(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(srv, "POST", "/api/jobs", `{"topic":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] == "" {
		t.Error("expected error field in response")
	}
}

func TestAnalyzeUnknownJob(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(srv, "POST", "/api/jobs/nope/analyze", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestAnalyzeConflictBeforeScrape(t *testing.T) {
	srv, mgr := newTestServer(t)

	created, err := mgr.CreateJob(job.Config{Topic: "gut health", Forums: []string{"guthealth"}})
	if err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	rec := do(srv, "POST", "/api/jobs/"+created.ID+"/analyze", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSettingsKeyRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	var body struct {
		Configured bool   `json:"configured"`
		Masked     string `json:"masked"`
	}

	rec := do(srv, "GET", "/api/settings/key", "")
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Configured {
		t.Error("fresh settings should not be configured")
	}

	rec = do(srv, "PUT", "/api/settings/key", `{"key":"sk-test-abcdef123456"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if !body.Configured {
		t.Error("key not marked configured after PUT")
	}
	if strings.Contains(body.Masked, "abcdef") {
		t.Errorf("mask leaks key material: %q", body.Masked)
	}
	if !strings.HasPrefix(body.Masked, "sk-") {
		t.Errorf("mask should keep a short prefix, got %q", body.Masked)
	}
}

func TestIndexRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(srv, "GET", "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type %q", ct)
	}
}
