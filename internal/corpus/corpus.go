// Package corpus defines the data model shared between the scraper and the
// analysis engine: posts, threaded comments, and the source log that backs a
// finished report.
package corpus

// Reply is a second-level comment. Nesting stops here.
type Reply struct {
	ID     string `json:"id"`
	Body   string `json:"body"`
	Score  int    `json:"score"`
	Author string `json:"author"`
}

// Comment is a top-level comment with up to a handful of replies.
type Comment struct {
	ID      string  `json:"id"`
	Body    string  `json:"body"`
	Score   int     `json:"score"`
	Author  string  `json:"author"`
	Replies []Reply `json:"replies,omitempty"`
}

// Post is one scraped forum post with its comment thread.
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Score       int       `json:"score"`
	NumComments int       `json:"numComments"`
	CreatedAt   int64     `json:"createdAt"`
	Permalink   string    `json:"permalink"`
	LinkURL     string    `json:"linkUrl,omitempty"` // outbound URL for link posts
	Forum       string    `json:"forum"`
	Comments    []Comment `json:"comments,omitempty"`
}

// Extraction-value labels assigned to source log entries. The coarse values
// are set at scrape time from the post title; enrichment may replace them
// with "/"-joined analysis tags.
const (
	ValueProblem  = "Problem"
	ValueSolution = "Solution"
	ValueBoth     = "Both"
	ValueGeneral  = "General"
)

// SourceLogEntry is one line of the ranked, annotated list of posts backing
// an analysis.
type SourceLogEntry struct {
	Index           int    `json:"index"`
	URL             string `json:"url"`
	Forum           string `json:"forum"`
	Title           string `json:"title"`
	Score           int    `json:"score"`
	NumComments     int    `json:"numComments"`
	ExtractionValue string `json:"extractionValue"`

	// Set during source-log enrichment.
	AnalysisValue string `json:"analysisValue,omitempty"`
	CommentCount  int    `json:"commentCount,omitempty"`
	Engagement    int    `json:"engagement,omitempty"`
}

// ScrapeMetadata describes one scrape run.
type ScrapeMetadata struct {
	Topic        string   `json:"topic"`
	Forums       []string `json:"forums"`
	ScrapedAt    string   `json:"scrapedAt"`
	PostCount    int      `json:"postCount"`
	CommentCount int      `json:"commentCount"`
}

// ScrapeResult is the persisted corpus artifact: metadata, the flat ordered
// corpus, and the per-post source log.
type ScrapeResult struct {
	Metadata  ScrapeMetadata   `json:"metadata"`
	Posts     []Post           `json:"posts"`
	SourceLog []SourceLogEntry `json:"sourceLog"`
}

// CommentCount returns the total number of comments and replies in the corpus.
func (r *ScrapeResult) CommentCount() int {
	n := 0
	for _, p := range r.Posts {
		n += len(p.Comments)
		for _, c := range p.Comments {
			n += len(c.Replies)
		}
	}
	return n
}

// TruncateTitle shortens a title for source-log display.
func TruncateTitle(title string) string {
	if len(title) > 80 {
		return title[:80] + "..."
	}
	return title
}
