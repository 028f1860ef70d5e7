package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mklatt/painscope/internal/analysis"
	"github.com/mklatt/painscope/internal/artifact"
	"github.com/mklatt/painscope/internal/config"
	"github.com/mklatt/painscope/internal/extract"
	"github.com/mklatt/painscope/internal/job"
	"github.com/mklatt/painscope/internal/llm"
	"github.com/mklatt/painscope/internal/reddit"
	"github.com/mklatt/painscope/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "painscope",
	Short:   "Forum pain-point research",
	Long:    "Painscope scrapes health forums and mines them for pain points, symptoms, mechanisms, and marketing hypotheses.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("painscope", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/painscope/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to tune scraping limits and the analysis strategy.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show job and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		jobs, err := mgr.ListJobs()
		if err != nil {
			return err
		}

		counts := map[job.Status]int{}
		for _, j := range jobs {
			counts[j.Status]++
		}

		fmt.Printf("Data dir: %s\n\n", cfg.GetDataDir())
		fmt.Println("Jobs:")
		fmt.Printf("  Total: %d\n", len(jobs))
		for _, status := range []job.Status{
			job.StatusPending, job.StatusRunning, job.StatusScraped, job.StatusFailed,
			job.StatusAnalyzing, job.StatusAnalyzed, job.StatusAnalysisFailed,
		} {
			if counts[status] > 0 {
				fmt.Printf("  %s: %d\n", status, counts[status])
			}
		}

		provider := llm.CreateProvider(cfg.Analysis.Provider, cfg.Analysis.Model,
			cfg.Analysis.OllamaURL, cfg.Analysis.OpenAIModel, cfg.Analysis.APIKeyEnv, settingsKey())
		fmt.Println("\nAnalysis:")
		fmt.Printf("  Default strategy: %s\n", cfg.Analysis.Strategy)
		if provider != nil {
			fmt.Println("  LLM provider: available")
		} else {
			fmt.Println("  LLM provider: not available (lexical only)")
		}
		return nil
	},
}

// --- discover command ---

var discoverCmd = &cobra.Command{
	Use:   "discover [topic]",
	Short: "Find and rank forums for a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scraper := reddit.NewScraper(cfg.Reddit)
		forums, err := scraper.Client().DiscoverForums(context.Background(), args[0])
		if err != nil {
			return err
		}

		if len(forums) == 0 {
			fmt.Println("No forums found.")
			return nil
		}

		fmt.Printf("Forums for %q:\n\n", args[0])
		for _, f := range forums {
			fmt.Printf("  %2d. r/%-24s %8d subscribers  score %.2f\n",
				f.Rank, f.Name, f.SubscriberCount, f.CombinedScore)
		}
		return nil
	},
}

// --- scrape command ---

var (
	scrapeForums []string
	scrapeWait   bool
	postLimit    int
	commentLimit int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [topic]",
	Short: "Create and start a scrape job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(scrapeForums) == 0 {
			return fmt.Errorf("at least one --forum is required (try 'painscope discover' first)")
		}

		mgr, err := openManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		created, err := mgr.CreateJob(job.Config{
			Topic:            args[0],
			Forums:           scrapeForums,
			PostLimit:        postLimit,
			CommentLimit:     commentLimit,
			FetchLinkContent: cfg.Scrape.FetchLinkContent,
		})
		if err != nil {
			return err
		}
		if _, err := mgr.StartJob(created.ID); err != nil {
			return err
		}

		fmt.Printf("Started job %s\n", created.ID)
		if !scrapeWait {
			fmt.Println("Check progress with: painscope jobs list")
			return nil
		}
		return waitForJob(mgr, created.ID, job.StatusScraped, job.StatusFailed)
	},
}

func init() {
	scrapeCmd.Flags().StringSliceVarP(&scrapeForums, "forum", "f", nil, "Forum to scrape (repeatable)")
	scrapeCmd.Flags().BoolVarP(&scrapeWait, "wait", "w", false, "Block until the scrape finishes")
	scrapeCmd.Flags().IntVar(&postLimit, "posts", 0, "Posts per forum (0 = config default)")
	scrapeCmd.Flags().IntVar(&commentLimit, "comments", 0, "Comments per post (0 = config default)")
}

// waitForJob polls until the job reaches a terminal state, echoing progress
// transitions as they happen.
func waitForJob(mgr *job.Manager, id string, success, failure job.Status) error {
	lastMessage := ""
	for {
		time.Sleep(2 * time.Second)

		j, err := mgr.GetJob(id)
		if err != nil {
			return err
		}
		if j.Progress.Message != lastMessage {
			lastMessage = j.Progress.Message
			fmt.Printf("  [%3d%%] %s\n", j.Progress.Percent, j.Progress.Message)
		}

		switch j.Status {
		case success:
			fmt.Printf("Job %s: %s\n", id, success)
			return nil
		case failure:
			return fmt.Errorf("job %s failed: %s", id, j.Error)
		}
	}
}

// --- analyze command ---

var (
	analyzeStrategy string
	analyzeWait     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [job-id]",
	Short: "Run analysis on a scraped job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		if _, err := mgr.StartAnalysis(args[0], analyzeStrategy); err != nil {
			return err
		}

		fmt.Printf("Started analysis for job %s\n", args[0])
		if !analyzeWait {
			return nil
		}
		return waitForJob(mgr, args[0], job.StatusAnalyzed, job.StatusAnalysisFailed)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeStrategy, "strategy", "s", "", "Analysis strategy (lexical or llm)")
	analyzeCmd.Flags().BoolVarP(&analyzeWait, "wait", "w", false, "Block until the analysis finishes")
}

// --- export command ---

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export [job-id]",
	Short: "Export an analyzed job's report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		file, err := mgr.ExportAnalysis(args[0], exportFormat)
		if err != nil {
			return err
		}
		fmt.Printf("Exported: %s\n", file.Path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Export format: json, markdown, or csv")
}

// --- jobs command ---

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage research jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all jobs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		jobs, err := mgr.ListJobs()
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("No jobs. Start one with: painscope scrape")
			return nil
		}

		for _, j := range jobs {
			fmt.Printf("%s  %-16s %-24s %s\n",
				j.ID, j.Status, truncate(j.Config.Topic, 24), j.CreatedAt.Local().Format("2006-01-02 15:04"))
			if j.Progress.Message != "" && j.Progress.Percent < 100 {
				fmt.Printf("  %s (%d%%)\n", j.Progress.Message, j.Progress.Percent)
			}
			if j.Error != "" {
				fmt.Printf("  error: %s\n", j.Error)
			}
		}
		return nil
	},
}

var jobsDeleteCmd = &cobra.Command{
	Use:   "delete [job-id]",
	Short: "Delete a job and its artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		if err := mgr.DeleteJob(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted job %s\n", args[0])
		return nil
	},
}

func init() {
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsDeleteCmd)
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		scraper := reddit.NewScraper(cfg.Reddit)
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(mgr, scraper.Client(), config.SettingsPath(), port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (0 = config default)")
}

// openManager wires the job manager from config: artifact store, job store,
// scraper, and the analysis strategies.
func openManager() (*job.Manager, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	artifacts, err := artifact.NewStore(dataDir)
	if err != nil {
		return nil, err
	}

	var store job.Store
	if cfg.Storage.JobStore == "memory" {
		store = job.NewMemoryStore()
	} else {
		store, err = job.OpenSQLite(filepath.Join(dataDir, "painscope.db"))
		if err != nil {
			return nil, err
		}
	}

	lex := extract.DefaultLexicon()
	provider := llm.CreateProvider(cfg.Analysis.Provider, cfg.Analysis.Model,
		cfg.Analysis.OllamaURL, cfg.Analysis.OpenAIModel, cfg.Analysis.APIKeyEnv, settingsKey())

	strategies := map[string]analysis.Strategy{
		"lexical": analysis.NewLexical(lex),
		"llm":     analysis.NewLLM(provider, lex, cfg.Analysis.MaxTokens),
	}

	scraper := reddit.NewScraper(cfg.Reddit)
	return job.NewManager(store, artifacts, scraper, strategies, cfg.Scrape, cfg.Analysis.Strategy), nil
}

// settingsKey reads the runtime-saved OpenAI key, if any.
func settingsKey() string {
	settings, err := config.LoadSettings(config.SettingsPath())
	if err != nil {
		return ""
	}
	return settings.OpenAIAPIKey
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
