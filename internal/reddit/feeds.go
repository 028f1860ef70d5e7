package reddit

import (
	"fmt"
	"log"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/mklatt/painscope/internal/corpus"
)

// FeedFallback retrieves a forum's post listing through its RSS/Atom feed.
// Reddit throttles the JSON API aggressively for unauthenticated clients but
// leaves feeds alone. Feeds carry no scores and no comment counts, so the
// fallback trades fidelity for availability.
type FeedFallback struct {
	baseURL string
	parser  *gofeed.Parser
}

// NewFeedFallback creates a feed-based fetcher rooted at baseURL.
func NewFeedFallback(baseURL string) *FeedFallback {
	return &FeedFallback{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		parser:  gofeed.NewParser(),
	}
}

// FetchPosts parses the forum feed and maps entries onto posts.
func (f *FeedFallback) FetchPosts(forum string, limit int) ([]corpus.Post, error) {
	feedURL := fmt.Sprintf("%s/r/%s/.rss", f.baseURL, forum)
	feed, err := f.parser.ParseURL(feedURL)
	if err != nil {
		return nil, fmt.Errorf("parsing feed for r/%s: %w", forum, err)
	}

	var posts []corpus.Post
	for _, item := range feed.Items {
		if len(posts) >= limit {
			break
		}

		title := strings.TrimSpace(item.Title)
		link := item.Link
		if link == "" {
			link = item.GUID
		}
		if title == "" || link == "" {
			continue
		}

		var createdAt int64
		if item.PublishedParsed != nil {
			createdAt = item.PublishedParsed.Unix()
		} else if item.UpdatedParsed != nil {
			createdAt = item.UpdatedParsed.Unix()
		}

		body := item.Content
		if body == "" {
			body = item.Description
		}

		posts = append(posts, corpus.Post{
			ID:        feedEntryID(item, link),
			Title:     title,
			Body:      stripHTML(body),
			CreatedAt: createdAt,
			Permalink: link,
			Forum:     forum,
		})
	}

	log.Printf("RSS fallback: %d posts from r/%s", len(posts), forum)
	return posts, nil
}

func feedEntryID(item *gofeed.Item, link string) string {
	if item.GUID != "" {
		// Feed GUIDs look like "t3_abc123"; keep the bare ID.
		return strings.TrimPrefix(item.GUID, "t3_")
	}
	parts := strings.Split(strings.Trim(link, "/"), "/")
	if len(parts) >= 2 {
		return parts[len(parts)-2]
	}
	return link
}

// stripHTML removes tags and decodes common entities from feed bodies.
func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
