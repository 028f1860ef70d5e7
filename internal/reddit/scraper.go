package reddit

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/mklatt/painscope/internal/config"
	"github.com/mklatt/painscope/internal/corpus"
)

// ProgressFunc receives progress updates at post granularity.
type ProgressFunc func(phase, message string, percent int)

// ScrapeOptions parameterize one scrape run.
type ScrapeOptions struct {
	Topic            string
	PostLimit        int // per forum
	CommentLimit     int // per post
	Sort             string
	TimeFilter       string
	FetchLinkContent bool
}

// Scraper orchestrates a sequential scrape across forums and posts. Forums
// and posts are processed strictly one at a time; the client's politeness
// delay is the rate limit.
type Scraper struct {
	client      *Client
	linkFetcher *LinkFetcher
}

// NewScraper creates a scraper from config.
func NewScraper(cfg config.Reddit) *Scraper {
	return &Scraper{
		client:      NewClient(cfg),
		linkFetcher: NewLinkFetcher(cfg.UserAgent, time.Duration(cfg.TimeoutSeconds)*time.Second),
	}
}

// Client exposes the underlying API client (for discovery).
func (s *Scraper) Client() *Client {
	return s.client
}

// ScrapeForums fetches posts and comments for every forum, reporting
// progress per post and building the source log as posts are assigned.
func (s *Scraper) ScrapeForums(ctx context.Context, forums []string, opts ScrapeOptions, onProgress ProgressFunc) (*corpus.ScrapeResult, error) {
	if onProgress == nil {
		onProgress = func(string, string, int) {}
	}
	if len(forums) == 0 {
		return nil, fmt.Errorf("no forums to scrape")
	}

	result := &corpus.ScrapeResult{
		Metadata: corpus.ScrapeMetadata{
			Topic:     opts.Topic,
			Forums:    forums,
			ScrapedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}

	totalExpected := len(forums) * opts.PostLimit
	done := 0

	for fi, forum := range forums {
		onProgress("fetching", fmt.Sprintf("Fetching posts from r/%s (%d/%d forums)", forum, fi+1, len(forums)), percent(done, totalExpected))

		posts, err := s.client.FetchPosts(ctx, forum, FetchOptions{
			Sort:       opts.Sort,
			TimeFilter: opts.TimeFilter,
			Limit:      opts.PostLimit,
		})
		if err != nil {
			return nil, err
		}
		log.Printf("Fetched %d posts from r/%s", len(posts), forum)

		for pi := range posts {
			post := &posts[pi]

			if opts.FetchLinkContent && post.Body == "" && post.LinkURL != "" {
				if text := s.linkFetcher.Fetch(post.LinkURL); text != "" {
					post.Body = text
				}
			}

			if err := s.client.wait(ctx); err != nil {
				return nil, err
			}
			comments, err := s.client.FetchComments(ctx, post.Permalink, opts.CommentLimit)
			if err != nil {
				// A single broken thread doesn't fail the scrape.
				log.Printf("Comments failed for %s: %v", post.Permalink, err)
			} else {
				post.Comments = comments
			}

			result.Posts = append(result.Posts, *post)
			result.SourceLog = append(result.SourceLog, corpus.SourceLogEntry{
				Index:           len(result.SourceLog) + 1,
				URL:             post.Permalink,
				Forum:           post.Forum,
				Title:           corpus.TruncateTitle(post.Title),
				Score:           post.Score,
				NumComments:     post.NumComments,
				ExtractionValue: classifyTitle(post.Title),
			})

			done++
			onProgress("scraping", fmt.Sprintf("r/%s: %d/%d posts", forum, pi+1, len(posts)), percent(done, totalExpected))
		}
	}

	result.Metadata.PostCount = len(result.Posts)
	result.Metadata.CommentCount = result.CommentCount()

	onProgress("complete", fmt.Sprintf("Scraped %d posts, %d comments", result.Metadata.PostCount, result.Metadata.CommentCount), 100)
	return result, nil
}

var (
	problemTitleRe  = regexp.MustCompile(`(?i)help|problem|struggling|suffering|anyone else|advice|why (?:do|am|is)|\?`)
	solutionTitleRe = regexp.MustCompile(`(?i)cured|fixed|what worked|finally|success|solved|how i|update`)
)

// classifyTitle assigns the coarse scrape-time extraction value.
func classifyTitle(title string) string {
	problem := problemTitleRe.MatchString(title)
	solution := solutionTitleRe.MatchString(title)
	switch {
	case problem && solution:
		return corpus.ValueBoth
	case problem:
		return corpus.ValueProblem
	case solution:
		return corpus.ValueSolution
	default:
		return corpus.ValueGeneral
	}
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	p := done * 100 / total
	if p > 100 {
		p = 100
	}
	return p
}
