package extract

import (
	"sort"
	"strings"

	"github.com/mklatt/painscope/internal/corpus"
)

// EnrichSourceLog re-scans each logged post for root-cause, solution, and
// symptom signals, derives a "/"-joined analysis value (falling back to the
// coarse scrape-time value), attaches comment counts and total engagement,
// and returns the log sorted by engagement descending.
func EnrichSourceLog(log []corpus.SourceLogEntry, posts []corpus.Post, lex *Lexicon) []corpus.SourceLogEntry {
	byURL := make(map[string]*corpus.Post, len(posts))
	for i := range posts {
		byURL[postURL(&posts[i])] = &posts[i]
	}

	out := make([]corpus.SourceLogEntry, len(log))
	copy(out, log)

	for i := range out {
		entry := &out[i]
		post, ok := byURL[entry.URL]
		if !ok {
			entry.AnalysisValue = entry.ExtractionValue
			continue
		}

		text := caseText(post)
		var tags []string
		if lex.RootCauseSignal.MatchString(text) {
			tags = append(tags, "Mechanism")
		}
		if lex.SolutionSignal.MatchString(text) {
			tags = append(tags, "Solution")
		}
		if lex.SymptomSignal.MatchString(text) {
			tags = append(tags, "Symptoms")
		}

		if len(tags) > 0 {
			entry.AnalysisValue = strings.Join(tags, "/")
		} else {
			entry.AnalysisValue = entry.ExtractionValue
		}

		entry.CommentCount = len(post.Comments)
		entry.Engagement = post.Score
		for _, c := range post.Comments {
			entry.Engagement += c.Score
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Engagement > out[j].Engagement
	})
	return out
}
