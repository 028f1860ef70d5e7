package job

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mklatt/painscope/internal/analysis"
	"github.com/mklatt/painscope/internal/artifact"
	"github.com/mklatt/painscope/internal/config"
	"github.com/mklatt/painscope/internal/corpus"
	"github.com/mklatt/painscope/internal/export"
	"github.com/mklatt/painscope/internal/extract"
	"github.com/mklatt/painscope/internal/reddit"
)

// CorpusScraper fetches a corpus for a job. Satisfied by *reddit.Scraper;
// tests swap in a stub.
type CorpusScraper interface {
	ScrapeForums(ctx context.Context, forums []string, opts reddit.ScrapeOptions, onProgress reddit.ProgressFunc) (*corpus.ScrapeResult, error)
}

// ExportFile is a rendered export ready to serve or point at on disk.
type ExportFile struct {
	Path        string
	Name        string
	ContentType string
	Data        []byte
}

// Manager drives the job lifecycle. Scrape and analysis run in background
// goroutines; all record mutations go through the manager so transition
// checks and writes are atomic with respect to each other.
type Manager struct {
	store      Store
	artifacts  *artifact.Store
	scraper    CorpusScraper
	strategies map[string]analysis.Strategy
	defaults   config.Scrape
	strategy   string

	mu sync.Mutex // held around get-check-put sequences
}

// NewManager wires the job manager. defaultStrategy is used when neither
// the request nor the job config names one.
func NewManager(store Store, artifacts *artifact.Store, scraper CorpusScraper, strategies map[string]analysis.Strategy, defaults config.Scrape, defaultStrategy string) *Manager {
	return &Manager{
		store:      store,
		artifacts:  artifacts,
		scraper:    scraper,
		strategies: strategies,
		defaults:   defaults,
		strategy:   defaultStrategy,
	}
}

// CreateJob validates and stores a new pending job. Nothing runs until
// StartJob.
func (m *Manager) CreateJob(cfg Config) (*Job, error) {
	cfg.Topic = strings.TrimSpace(cfg.Topic)
	if cfg.Topic == "" {
		return nil, fmt.Errorf("job topic is required")
	}
	if len(cfg.Forums) == 0 {
		return nil, fmt.Errorf("at least one forum is required")
	}
	if cfg.PostLimit <= 0 {
		cfg.PostLimit = m.defaults.PostLimit
	}
	if cfg.CommentLimit <= 0 {
		cfg.CommentLimit = m.defaults.CommentLimit
	}
	if cfg.Sort == "" {
		cfg.Sort = m.defaults.Sort
	}
	if cfg.TimeFilter == "" {
		cfg.TimeFilter = m.defaults.TimeFilter
	}

	j := &Job{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		Config:    cfg,
		Progress:  Progress{Phase: "pending", Message: "Job created"},
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.Put(j); err != nil {
		return nil, err
	}
	return j.Clone(), nil
}

// StartJob transitions a pending job to running and kicks off the scrape in
// the background. Any other starting state is rejected without mutation.
func (m *Manager) StartJob(id string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	if j.Status != StatusPending {
		return nil, &StateError{ID: id, Status: j.Status, Op: "start"}
	}

	now := time.Now().UTC()
	j.Status = StatusRunning
	j.StartedAt = &now
	j.Progress = Progress{Phase: "starting", Message: "Scrape starting"}
	if err := m.store.Put(j); err != nil {
		return nil, err
	}

	go m.runScrape(j.Clone())
	return j.Clone(), nil
}

func (m *Manager) runScrape(j *Job) {
	onProgress := func(phase, message string, percent int) {
		m.update(j.ID, func(rec *Job) {
			rec.Progress = Progress{Phase: phase, Message: message, Percent: percent}
		})
	}

	opts := reddit.ScrapeOptions{
		Topic:            j.Config.Topic,
		PostLimit:        j.Config.PostLimit,
		CommentLimit:     j.Config.CommentLimit,
		Sort:             j.Config.Sort,
		TimeFilter:       j.Config.TimeFilter,
		FetchLinkContent: j.Config.FetchLinkContent,
	}

	result, err := m.scraper.ScrapeForums(context.Background(), j.Config.Forums, opts, onProgress)
	if err != nil {
		log.Printf("Job %s: scrape failed: %v", j.ID, err)
		m.fail(j.ID, StatusFailed, err)
		return
	}

	path, err := m.artifacts.SaveScrape(j.ID, result)
	if err != nil {
		log.Printf("Job %s: saving scrape artifact failed: %v", j.ID, err)
		m.fail(j.ID, StatusFailed, err)
		return
	}

	now := time.Now().UTC()
	m.update(j.ID, func(rec *Job) {
		rec.Status = StatusScraped
		rec.ScrapePath = path
		rec.CompletedAt = &now
		rec.Result = &Result{
			PostCount:    len(result.Posts),
			CommentCount: result.CommentCount(),
		}
		rec.Progress = Progress{
			Phase:   "complete",
			Message: fmt.Sprintf("Scraped %d posts", len(result.Posts)),
			Percent: 100,
		}
	})
	log.Printf("Job %s: scraped %d posts from %d forum(s)", j.ID, len(result.Posts), len(j.Config.Forums))
}

// StartAnalysis transitions a scraped (or previously analyzed) job to
// analyzing. Reruns overwrite the analysis artifact reference; the old file
// stays on disk until the job is deleted.
func (m *Manager) StartAnalysis(id, strategyName string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	if j.Status != StatusScraped && j.Status != StatusAnalyzed {
		return nil, &StateError{ID: id, Status: j.Status, Op: "analyze"}
	}

	name := strategyName
	if name == "" {
		name = j.Config.Strategy
	}
	if name == "" {
		name = m.strategy
	}
	strategy, ok := m.strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown analysis strategy: %q", name)
	}
	if !strategy.Available() {
		return nil, fmt.Errorf("analysis strategy %q is not available", name)
	}

	j.Status = StatusAnalyzing
	j.Error = ""
	j.Progress = Progress{Phase: "analyzing", Message: "Analysis starting"}
	if err := m.store.Put(j); err != nil {
		return nil, err
	}

	go m.runAnalysis(j.Clone(), strategy)
	return j.Clone(), nil
}

func (m *Manager) runAnalysis(j *Job, strategy analysis.Strategy) {
	var result corpus.ScrapeResult
	if err := m.artifacts.Load(j.ScrapePath, &result); err != nil {
		log.Printf("Job %s: loading scrape artifact failed: %v", j.ID, err)
		m.fail(j.ID, StatusAnalysisFailed, fmt.Errorf("loading scraped data: %w", err))
		return
	}

	onProgress := func(phase, message string, percent int) {
		m.update(j.ID, func(rec *Job) {
			rec.Progress = Progress{Phase: phase, Message: message, Percent: percent}
		})
	}

	report, err := strategy.Analyze(context.Background(), &result, j.Config.Topic, onProgress)
	if err != nil {
		log.Printf("Job %s: analysis failed: %v", j.ID, err)
		m.fail(j.ID, StatusAnalysisFailed, err)
		return
	}

	path, err := m.artifacts.SaveAnalysis(j.ID, report)
	if err != nil {
		log.Printf("Job %s: saving analysis artifact failed: %v", j.ID, err)
		m.fail(j.ID, StatusAnalysisFailed, err)
		return
	}

	now := time.Now().UTC()
	m.update(j.ID, func(rec *Job) {
		rec.Status = StatusAnalyzed
		rec.AnalysisPath = path
		rec.CompletedAt = &now
		if rec.Result == nil {
			rec.Result = &Result{}
		}
		rec.Result.PainPoints = report.Summary.TotalPainPoints
		rec.Result.Symptoms = report.Summary.TotalSymptoms
		rec.Result.Hypotheses = report.Summary.TotalHypotheses
		rec.Progress = Progress{
			Phase:   "complete",
			Message: fmt.Sprintf("Found %d pain points, %d symptoms", report.Summary.TotalPainPoints, report.Summary.TotalSymptoms),
			Percent: 100,
		}
	})
	log.Printf("Job %s: analysis complete (%s)", j.ID, strategy.Name())
}

// GetJob returns a snapshot of one job.
func (m *Manager) GetJob(id string) (*Job, error) {
	return m.store.Get(id)
}

// ListJobs returns all jobs, newest first.
func (m *Manager) ListJobs() ([]*Job, error) {
	return m.store.List()
}

// GetScrapedData loads the scrape artifact for a job.
func (m *Manager) GetScrapedData(id string) (*corpus.ScrapeResult, error) {
	j, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	if j.ScrapePath == "" {
		return nil, ErrNoArtifact
	}
	var result corpus.ScrapeResult
	if err := m.artifacts.Load(j.ScrapePath, &result); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoArtifact
		}
		return nil, err
	}
	return &result, nil
}

// GetAnalysisResult loads the analysis artifact for a job.
func (m *Manager) GetAnalysisResult(id string) (*extract.Report, error) {
	j, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	if j.AnalysisPath == "" {
		return nil, ErrNoArtifact
	}
	var report extract.Report
	if err := m.artifacts.Load(j.AnalysisPath, &report); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoArtifact
		}
		return nil, err
	}
	return &report, nil
}

// ExportAnalysis renders the analysis in the requested format and writes it
// to the export directory. JSON exports are the artifact bytes verbatim.
func (m *Manager) ExportAnalysis(id, format string) (*ExportFile, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	j, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	if j.AnalysisPath == "" {
		return nil, ErrNoArtifact
	}

	var data []byte
	switch f {
	case export.FormatJSON:
		data, err = m.artifacts.ReadRaw(j.AnalysisPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, ErrNoArtifact
			}
			return nil, err
		}
	default:
		report, err := m.GetAnalysisResult(id)
		if err != nil {
			return nil, err
		}
		if f == export.FormatCSV {
			data, err = export.CSV(report)
			if err != nil {
				return nil, err
			}
		} else {
			data = []byte(export.Markdown(report))
		}
	}

	path, err := m.artifacts.SaveExport(j.Config.Topic, f.Ext(), data)
	if err != nil {
		return nil, err
	}
	return &ExportFile{
		Path:        path,
		Name:        filepath.Base(path),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}

// DeleteJob removes the record and its artifacts. Export files are kept;
// they are deliverables, not job state. Deleting a live job is allowed: the
// orphaned goroutine's updates hit a missing record and are dropped.
func (m *Manager) DeleteJob(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, err := m.store.Get(id)
	if err != nil {
		return err
	}
	if _, err := m.store.Delete(id); err != nil {
		return err
	}
	if err := m.artifacts.Delete(j.ScrapePath, j.AnalysisPath); err != nil {
		log.Printf("Job %s: artifact cleanup: %v", id, err)
	}
	return nil
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// fail marks a job failed. The progress bar resets so a stale percentage
// never shows next to an error state.
func (m *Manager) fail(id string, status Status, cause error) {
	now := time.Now().UTC()
	m.update(id, func(rec *Job) {
		rec.Status = status
		rec.Error = cause.Error()
		rec.CompletedAt = &now
		rec.Progress = Progress{Phase: "error", Message: cause.Error(), Percent: 0}
	})
}

// update applies fn to the stored record under the manager lock. A missing
// record (job deleted mid-run) is ignored.
func (m *Manager) update(id string, fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, err := m.store.Get(id)
	if err != nil {
		return
	}
	fn(j)
	if err := m.store.Put(j); err != nil {
		log.Printf("Job %s: persisting update failed: %v", id, err)
	}
}
