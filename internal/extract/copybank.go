package extract

import (
	"strings"

	"github.com/mklatt/painscope/internal/corpus"
)

// CopyBank holds verbatim phrase collections usable in marketing copy.
type CopyBank struct {
	SymptomPhrases   []string `json:"symptomPhrases"`
	ProblemPhrases   []string `json:"problemPhrases"`
	DesirePhrases    []string `json:"desirePhrases"`
	ObjectionPhrases []string `json:"objectionPhrases"`
}

const (
	maxCopyPhrases   = 20
	maxObjections    = 10
	copyDedupePrefix = 30
)

// ExtractCopyBank mines the four phrase families from case-preserved text.
// Phrases are deduplicated by their lowercase 30-character prefix.
func ExtractCopyBank(posts []corpus.Post, lex *Lexicon) CopyBank {
	return CopyBank{
		SymptomPhrases:   extractPhrases(posts, lex.SymptomPhrases, maxCopyPhrases),
		ProblemPhrases:   extractPhrases(posts, lex.ProblemPhrases, maxCopyPhrases),
		DesirePhrases:    extractPhrases(posts, lex.DesirePhrases, maxCopyPhrases),
		ObjectionPhrases: extractPhrases(posts, lex.ObjectionPhrases, maxObjections),
	}
}

func extractPhrases(posts []corpus.Post, family PatternFamily, max int) []string {
	seen := make(map[string]bool)
	var out []string

	for i := range posts {
		text := caseText(&posts[i])
		for _, cand := range family.Scan(text) {
			phrase := strings.TrimSpace(cand.Text)
			if phrase == "" {
				continue
			}
			key := phrasePrefix(phrase)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, phrase)
			if len(out) >= max {
				return out
			}
		}
	}
	return out
}

func phrasePrefix(phrase string) string {
	key := strings.ToLower(phrase)
	if len(key) > copyDedupePrefix {
		key = key[:copyDedupePrefix]
	}
	return key
}
