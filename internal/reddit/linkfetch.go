package reddit

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// LinkFetcher pulls readable text out of a link post's outbound URL so link
// posts with no selftext still contribute body text to the corpus.
type LinkFetcher struct {
	client        *http.Client
	userAgent     string
	failedDomains map[string]struct{}
}

// NewLinkFetcher creates a fetcher with the given timeout.
func NewLinkFetcher(userAgent string, timeout time.Duration) *LinkFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &LinkFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent:     userAgent,
		failedDomains: make(map[string]struct{}),
	}
}

// Fetch returns extracted readable text, or "" when the page yields nothing
// usable. A domain that errors once is skipped for the rest of the run.
func (f *LinkFetcher) Fetch(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	domain := strings.ToLower(u.Host)
	if _, failed := f.failedDomains[domain]; failed {
		return ""
	}

	req, err := http.NewRequest("GET", pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.failedDomains[domain] = struct{}{}
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		f.failedDomains[domain] = struct{}{}
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), u)
	if err != nil {
		return ""
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > 100 {
		return text
	}
	return ""
}
