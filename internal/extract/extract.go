// Package extract is the text-mining engine: pure, deterministic functions
// that turn a scraped corpus into ranked pain points, symptom clusters,
// mechanism material, copy phrases, and synthesized hypotheses. No I/O.
package extract

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/mklatt/painscope/internal/corpus"
)

// combinedText joins title, body, and every comment and reply body,
// lowercased, for indicator scanning.
func combinedText(p *corpus.Post) string {
	var b strings.Builder
	b.WriteString(p.Title)
	b.WriteString(" ")
	b.WriteString(p.Body)
	for _, c := range p.Comments {
		b.WriteString(" ")
		b.WriteString(c.Body)
		for _, r := range c.Replies {
			b.WriteString(" ")
			b.WriteString(r.Body)
		}
	}
	return strings.ToLower(b.String())
}

// topLevelText joins title, body, and top-level comment bodies only,
// lowercased. Used for cluster detection.
func topLevelText(p *corpus.Post) string {
	var b strings.Builder
	b.WriteString(p.Title)
	b.WriteString(" ")
	b.WriteString(p.Body)
	for _, c := range p.Comments {
		b.WriteString(" ")
		b.WriteString(c.Body)
	}
	return strings.ToLower(b.String())
}

// caseText joins title, body, and comments with newlines, preserving case
// so quoted material stays readable.
func caseText(p *corpus.Post) string {
	parts := []string{p.Title, p.Body}
	for _, c := range p.Comments {
		parts = append(parts, c.Body)
		for _, r := range c.Replies {
			parts = append(parts, r.Body)
		}
	}
	return strings.Join(parts, "\n")
}

// window returns up to pad bytes of context either side of [start,end),
// widened outward to rune boundaries so samples stay valid UTF-8.
func window(text string, start, end, pad int) string {
	lo := start - pad
	if lo < 0 {
		lo = 0
	}
	hi := end + pad
	if hi > len(text) {
		hi = len(text)
	}
	for lo > 0 && lo < len(text) && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return strings.TrimSpace(text[lo:hi])
}

// round1 rounds to one decimal place.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// normalizeName maps a raw matched phrase to its canonical pain-point label,
// falling back to a title-cased version of the raw phrase.
func normalizeName(raw string, synonyms map[string]string) string {
	key := strings.TrimSpace(strings.ToLower(raw))
	key = strings.Trim(key, ".,!?:;\"'")
	if canon, ok := synonyms[key]; ok {
		return canon
	}
	// Try the longest synonym contained in the phrase.
	best := ""
	for s := range synonyms {
		if strings.Contains(key, s) && len(s) > len(best) {
			best = s
		}
	}
	if best != "" {
		return synonyms[best]
	}
	return titleCase(key)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// postURL is the permalink if set, otherwise a synthetic reference.
func postURL(p *corpus.Post) string {
	if p.Permalink != "" {
		return p.Permalink
	}
	return "r/" + p.Forum + "/" + p.ID
}
