// Package reddit implements the corpus fetcher: forum discovery, post and
// comment retrieval over the public JSON API, an RSS fallback for throttled
// listings, and the scrape orchestration that builds a corpus.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mklatt/painscope/internal/config"
	"github.com/mklatt/painscope/internal/corpus"
)

const (
	maxPageSize     = 100
	maxRepliesDepth = 5 // replies kept per top-level comment
)

// FetchOptions control a post listing request.
type FetchOptions struct {
	Sort       string // hot | new | top | rising
	TimeFilter string // hour | day | week | month | year | all
	Limit      int
}

// Client talks to a Reddit-compatible JSON API.
type Client struct {
	http        *resty.Client
	feeds       *FeedFallback
	delay       time.Duration
	rssFallback bool
}

// NewClient creates a client from config.
func NewClient(cfg config.Reddit) *Client {
	rc := resty.New()
	rc.SetBaseURL(cfg.BaseURL)
	rc.SetHeader("User-Agent", cfg.UserAgent)
	rc.SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)

	return &Client{
		http:        rc,
		feeds:       NewFeedFallback(cfg.BaseURL),
		delay:       time.Duration(cfg.RequestDelayMS) * time.Millisecond,
		rssFallback: cfg.RSSFallback,
	}
}

// wait enforces the politeness delay between requests.
func (c *Client) wait(ctx context.Context) error {
	select {
	case <-time.After(c.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// listing mirrors the wire shape of a Reddit listing response.
type listing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string          `json:"kind"`
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type postData struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
	Subreddit   string  `json:"subreddit"`
	URL         string  `json:"url"`
	IsSelf      bool    `json:"is_self"`
}

type commentData struct {
	ID      string          `json:"id"`
	Body    string          `json:"body"`
	Score   int             `json:"score"`
	Author  string          `json:"author"`
	Replies json.RawMessage `json:"replies"` // listing or ""
}

// FetchPosts returns up to opts.Limit posts for a forum, paginating with the
// politeness delay between pages. On 403/429 it falls back to the forum's
// RSS feed when enabled.
func (c *Client) FetchPosts(ctx context.Context, forum string, opts FetchOptions) ([]corpus.Post, error) {
	sort := opts.Sort
	if sort == "" {
		sort = "top"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	var posts []corpus.Post
	after := ""
	for len(posts) < limit {
		pageSize := limit - len(posts)
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		var page listing
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"limit":    strconv.Itoa(pageSize),
				"t":        opts.TimeFilter,
				"after":    after,
				"raw_json": "1",
			}).
			SetResult(&page).
			Get(fmt.Sprintf("/r/%s/%s.json", forum, sort))
		if err != nil {
			return nil, fmt.Errorf("fetching posts for r/%s: %w", forum, err)
		}

		if resp.StatusCode() == http.StatusForbidden || resp.StatusCode() == http.StatusTooManyRequests {
			if c.rssFallback && len(posts) == 0 {
				return c.feeds.FetchPosts(forum, limit)
			}
			return nil, fmt.Errorf("r/%s listing rejected with HTTP %d", forum, resp.StatusCode())
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("r/%s listing returned HTTP %d", forum, resp.StatusCode())
		}

		for _, child := range page.Data.Children {
			var pd postData
			if err := json.Unmarshal(child.Data, &pd); err != nil {
				continue
			}
			if pd.ID == "" || pd.Title == "" {
				continue
			}
			posts = append(posts, corpus.Post{
				ID:          pd.ID,
				Title:       strings.TrimSpace(pd.Title),
				Body:        strings.TrimSpace(pd.Selftext),
				Score:       pd.Score,
				NumComments: pd.NumComments,
				CreatedAt:   int64(pd.CreatedUTC),
				Permalink:   absoluteURL(c.http.BaseURL, pd.Permalink),
				LinkURL:     linkURL(pd),
				Forum:       forumName(pd.Subreddit, forum),
			})
			if len(posts) >= limit {
				break
			}
		}

		if page.Data.After == "" || len(page.Data.Children) == 0 {
			break
		}
		after = page.Data.After

		if err := c.wait(ctx); err != nil {
			return posts, err
		}
	}

	return posts, nil
}

// FetchComments returns up to limit top-level comments for a post, each with
// at most five one-level replies.
func (c *Client) FetchComments(ctx context.Context, permalink string, limit int) ([]corpus.Comment, error) {
	if limit <= 0 {
		limit = 20
	}

	path := strings.TrimPrefix(permalink, c.http.BaseURL)
	if !strings.HasSuffix(path, ".json") {
		path = strings.TrimSuffix(path, "/") + ".json"
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"limit":    strconv.Itoa(limit),
			"depth":    "2",
			"raw_json": "1",
		}).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("fetching comments: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("comments returned HTTP %d", resp.StatusCode())
	}

	// The comments endpoint returns [postListing, commentListing].
	var listings []listing
	if err := json.Unmarshal(resp.Body(), &listings); err != nil {
		return nil, fmt.Errorf("decoding comments: %w", err)
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var comments []corpus.Comment
	for _, child := range listings[1].Data.Children {
		if child.Kind != "t1" {
			continue // skip "more" stubs
		}
		var cd commentData
		if err := json.Unmarshal(child.Data, &cd); err != nil {
			continue
		}
		if cd.Body == "" {
			continue
		}

		comment := corpus.Comment{
			ID:      cd.ID,
			Body:    cd.Body,
			Score:   cd.Score,
			Author:  cd.Author,
			Replies: parseReplies(cd.Replies),
		}
		comments = append(comments, comment)
		if len(comments) >= limit {
			break
		}
	}

	return comments, nil
}

// parseReplies decodes one level of nested replies. Reddit sends an empty
// string instead of a listing when there are none.
func parseReplies(raw json.RawMessage) []corpus.Reply {
	if len(raw) == 0 || string(raw) == `""` {
		return nil
	}

	var l listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil
	}

	var replies []corpus.Reply
	for _, child := range l.Data.Children {
		if child.Kind != "t1" {
			continue
		}
		var cd commentData
		if err := json.Unmarshal(child.Data, &cd); err != nil || cd.Body == "" {
			continue
		}
		replies = append(replies, corpus.Reply{
			ID:     cd.ID,
			Body:   cd.Body,
			Score:  cd.Score,
			Author: cd.Author,
		})
		if len(replies) >= maxRepliesDepth {
			break
		}
	}
	return replies
}

func absoluteURL(base, permalink string) string {
	if strings.HasPrefix(permalink, "http") {
		return permalink
	}
	return strings.TrimSuffix(base, "/") + permalink
}

func linkURL(pd postData) string {
	if pd.IsSelf {
		return ""
	}
	return pd.URL
}

func forumName(fromAPI, requested string) string {
	if fromAPI != "" {
		return fromAPI
	}
	return requested
}
