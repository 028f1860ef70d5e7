package extract

import (
	"sort"
	"strings"

	"github.com/mklatt/painscope/internal/corpus"
)

// MechanismItem is one deduplicated causal fragment with its evidence.
type MechanismItem struct {
	Text      string   `json:"text"`
	Frequency int      `json:"frequency"`
	Sources   []string `json:"sources"`
}

// Mechanisms holds the five parallel mechanism-material collections.
type Mechanisms struct {
	RootCauses       []MechanismItem `json:"rootCauses"`
	FailedSolutions  []MechanismItem `json:"failedSolutions"`
	WorkingSolutions []MechanismItem `json:"workingSolutions"`
	Beliefs          []MechanismItem `json:"beliefs"`
	Skepticisms      []MechanismItem `json:"skepticisms"`
}

const (
	maxMechanismItems   = 20
	maxMechanismSources = 3
	minDedupeKeyLen     = 5
)

// ExtractMechanisms runs the five regex families over every post's
// case-preserved text and dedupes each family's candidates independently.
func ExtractMechanisms(posts []corpus.Post, lex *Lexicon) Mechanisms {
	return Mechanisms{
		RootCauses:       extractFamily(posts, lex.RootCauses),
		FailedSolutions:  extractFamily(posts, lex.FailedSolutions),
		WorkingSolutions: extractFamily(posts, lex.WorkingSolutions),
		Beliefs:          extractFamily(posts, lex.Beliefs),
		Skepticisms:      extractFamily(posts, lex.Skepticisms),
	}
}

func extractFamily(posts []corpus.Post, family PatternFamily) []MechanismItem {
	var candidates []MechanismItem
	for i := range posts {
		post := &posts[i]
		text := caseText(post)
		for _, cand := range family.Scan(text) {
			candidates = append(candidates, MechanismItem{
				Text:      strings.TrimSpace(cand.Text),
				Frequency: 1,
				Sources:   []string{postURL(post)},
			})
		}
	}
	return DedupeAndRank(candidates, maxMechanismItems)
}

// DedupeAndRank merges items sharing a lowercased trimmed key, summing
// frequencies and keeping up to three distinct sources, then sorts by
// frequency descending (stable) and truncates. Keys shorter than five
// characters are discarded. Idempotent on already-merged input.
func DedupeAndRank(items []MechanismItem, max int) []MechanismItem {
	merged := make(map[string]*MechanismItem)
	var order []string

	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item.Text))
		if len(key) < minDedupeKeyLen {
			continue
		}

		existing, ok := merged[key]
		if !ok {
			cp := item
			cp.Sources = append([]string(nil), item.Sources...)
			if len(cp.Sources) > maxMechanismSources {
				cp.Sources = cp.Sources[:maxMechanismSources]
			}
			merged[key] = &cp
			order = append(order, key)
			continue
		}

		existing.Frequency += item.Frequency
		for _, src := range item.Sources {
			if len(existing.Sources) >= maxMechanismSources {
				break
			}
			if !containsString(existing.Sources, src) {
				existing.Sources = append(existing.Sources, src)
			}
		}
	}

	out := make([]MechanismItem, 0, len(order))
	for _, key := range order {
		out = append(out, *merged[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Frequency > out[j].Frequency
	})
	if len(out) > max {
		out = out[:max]
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
