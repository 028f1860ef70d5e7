package extract

import (
	"math"
	"sort"
	"strings"

	"github.com/mklatt/painscope/internal/corpus"
)

// Quote is a sample quote with its source post.
type Quote struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// PainPoint is a canonicalized recurring problem with derived scores.
type PainPoint struct {
	Rank            int     `json:"rank,omitempty"`
	Name            string  `json:"name"`
	ThreadCount     int     `json:"threadCount"`
	TotalScore      int     `json:"totalScore"`
	EmotionalCharge int     `json:"emotionalCharge"`
	SampleQuotes    []Quote `json:"sampleQuotes"`
	VolumeScore     float64 `json:"volumeScore"`
	EmotionalScore  float64 `json:"emotionalScore"`
	PriorityScore   float64 `json:"priorityScore"`
}

const maxSampleQuotes = 5

// ExtractPainPoints scans every post for pain indicators and aggregates them
// into scored, ranked pain points. The returned slice is sorted by
// priorityScore descending; ties keep first-seen order.
func ExtractPainPoints(posts []corpus.Post, lex *Lexicon) []PainPoint {
	type acc struct {
		pp    *PainPoint
		seen  map[string]bool // post IDs already counted
		order int
	}
	points := make(map[string]*acc)
	var order []string

	for i := range posts {
		post := &posts[i]
		text := combinedText(post)
		charge := emotionalCharge(text, lex)

		matchedNames := make(map[string]bool)
		for _, cand := range lex.PainIndicators.Scan(text) {
			name := normalizeName(cand.Text, lex.Synonyms)
			if name == "" {
				continue
			}

			a, ok := points[name]
			if !ok {
				a = &acc{
					pp:   &PainPoint{Name: name},
					seen: make(map[string]bool),
				}
				points[name] = a
				order = append(order, name)
			}

			if !a.seen[post.ID] {
				a.seen[post.ID] = true
				a.pp.ThreadCount++
				a.pp.TotalScore += post.Score
			}
			if !matchedNames[name] {
				matchedNames[name] = true
				a.pp.EmotionalCharge += charge
			}
			if len(a.pp.SampleQuotes) < maxSampleQuotes {
				a.pp.SampleQuotes = append(a.pp.SampleQuotes, Quote{
					Text: window(text, cand.Start, cand.End, 50),
					URL:  postURL(post),
				})
			}
		}
	}

	out := make([]PainPoint, 0, len(order))
	for _, name := range order {
		pp := points[name].pp
		scorePainPoint(pp)
		out = append(out, *pp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PriorityScore > out[j].PriorityScore
	})
	return out
}

// scorePainPoint derives the volume/emotional/priority scores in place.
// priorityScore always lands in [0,10].
func scorePainPoint(pp *PainPoint) {
	pp.VolumeScore = round1(math.Min(10, math.Log10(float64(pp.ThreadCount)+1)*5))
	if pp.ThreadCount > 0 {
		pp.EmotionalScore = round1(math.Min(10, float64(pp.EmotionalCharge)/float64(pp.ThreadCount)))
	}
	pp.PriorityScore = round1(pp.VolumeScore*0.4 + pp.EmotionalScore*0.6)
}

// emotionalCharge scores a post's lowercased text: one point per emotional
// indicator present, two per desperation pattern matched.
func emotionalCharge(text string, lex *Lexicon) int {
	charge := 0
	for _, ind := range lex.EmotionalIndicators {
		if strings.Contains(text, ind) {
			charge++
		}
	}
	for _, re := range lex.DesperationPatterns {
		if re.MatchString(text) {
			charge += 2
		}
	}
	return charge
}
