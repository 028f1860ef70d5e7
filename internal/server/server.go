// Package server exposes the job API and the HTML report views.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mklatt/painscope/internal/config"
	"github.com/mklatt/painscope/internal/job"
	"github.com/mklatt/painscope/internal/reddit"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// ForumDiscoverer searches and ranks forums for a topic. Satisfied by
// *reddit.Client; tests swap in a stub.
type ForumDiscoverer interface {
	DiscoverForums(ctx context.Context, topic string) ([]reddit.Forum, error)
}

// Server is the HTTP server for the research API and report pages.
type Server struct {
	jobs         *job.Manager
	discoverer   ForumDiscoverer
	settingsPath string
	pages        map[string]*template.Template
	router       chi.Router
}

// New creates a Server. settingsPath locates the runtime settings file the
// key endpoints edit.
func New(jobs *job.Manager, discoverer ForumDiscoverer, settingsPath string) (*Server, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		jobs:         jobs,
		discoverer:   discoverer,
		settingsPath: settingsPath,
		pages:        pages,
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/forums/discover", s.handleDiscover)

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.handleCreateJob)
			r.Get("/", s.handleListJobs)
			r.Route("/{jobID}", func(r chi.Router) {
				r.Get("/", s.handleGetJob)
				r.Delete("/", s.handleDeleteJob)
				r.Post("/analyze", s.handleAnalyze)
				r.Get("/data", s.handleJobData)
				r.Get("/report", s.handleJobReport)
				r.Get("/export", s.handleExport)
			})
		})

		r.Get("/settings/key", s.handleGetKey)
		r.Put("/settings/key", s.handlePutKey)
	})

	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	r.Get("/", s.handleIndex)
	r.Get("/report/{jobID}", s.handleReportPage)

	s.router = r
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		writeError(w, http.StatusBadRequest, "topic query parameter is required")
		return
	}

	forums, err := s.discoverer.DiscoverForums(r.Context(), topic)
	if err != nil {
		log.Printf("Forum discovery failed for %q: %v", topic, err)
		writeError(w, http.StatusBadGateway, "forum discovery failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"topic":  topic,
		"forums": forums,
	})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var cfg job.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.jobs.CreateJob(cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	started, err := s.jobs.StartJob(created.ID)
	if err != nil {
		s.jobError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, started)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.jobs.ListJobs()
	if err != nil {
		s.jobError(w, err)
		return
	}
	if jobs == nil {
		jobs = []*job.Job{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.jobs.GetJob(chi.URLParam(r, "jobID"))
	if err != nil {
		s.jobError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := s.jobs.DeleteJob(chi.URLParam(r, "jobID")); err != nil {
		s.jobError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Strategy string `json:"strategy"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	j, err := s.jobs.StartAnalysis(chi.URLParam(r, "jobID"), body.Strategy)
	if err != nil {
		s.jobError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, j)
}

func (s *Server) handleJobData(w http.ResponseWriter, r *http.Request) {
	result, err := s.jobs.GetScrapedData(chi.URLParam(r, "jobID"))
	if err != nil {
		s.jobError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleJobReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.jobs.GetAnalysisResult(chi.URLParam(r, "jobID"))
	if err != nil {
		s.jobError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	file, err := s.jobs.ExportAnalysis(chi.URLParam(r, "jobID"), r.URL.Query().Get("format"))
	if err != nil {
		if strings.Contains(err.Error(), "unsupported export format") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.jobError(w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Write(file.Data)
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	settings, err := config.LoadSettings(s.settingsPath)
	if err != nil {
		log.Printf("Loading settings failed: %v", err)
		writeError(w, http.StatusInternalServerError, "could not load settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"configured": settings.OpenAIAPIKey != "",
		"masked":     maskKey(settings.OpenAIAPIKey),
	})
}

func (s *Server) handlePutKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings, err := config.LoadSettings(s.settingsPath)
	if err != nil {
		settings = &config.Settings{}
	}
	settings.OpenAIAPIKey = strings.TrimSpace(body.Key)

	if err := config.SaveSettings(s.settingsPath, settings); err != nil {
		log.Printf("Saving settings failed: %v", err)
		writeError(w, http.StatusInternalServerError, "could not save settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"configured": settings.OpenAIAPIKey != "",
		"masked":     maskKey(settings.OpenAIAPIKey),
	})
}

// jobError maps manager errors onto HTTP statuses: missing records and
// artifacts are 404, illegal transitions are 409, the rest 500.
func (s *Server) jobError(w http.ResponseWriter, err error) {
	var stateErr *job.StateError
	switch {
	case errors.Is(err, job.ErrNotFound):
		writeError(w, http.StatusNotFound, "job not found")
	case errors.Is(err, job.ErrNoArtifact):
		writeError(w, http.StatusNotFound, "artifact not available for this job")
	case errors.As(err, &stateErr):
		writeError(w, http.StatusConflict, stateErr.Error())
	case strings.Contains(err.Error(), "strategy"):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Encoding response failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "..." + key[len(key)-4:]
}

// Serve starts the HTTP server on the given port, bound to localhost.
func Serve(jobs *job.Manager, discoverer ForumDiscoverer, settingsPath string, port int) error {
	srv, err := New(jobs, discoverer, settingsPath)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
