// Package export renders a compiled report as JSON, Markdown, or CSV.
// All renderers are pure formatting functions.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/mklatt/painscope/internal/extract"
)

// Format identifies an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// ParseFormat validates a requested format string.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported export format: %q", s)
}

// Ext returns the file extension for a format.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatCSV:
		return "csv"
	default:
		return "json"
	}
}

// ContentType returns the MIME type for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/json"
	}
}

// Markdown renders the report as a Markdown document. When the report
// carries a pre-rendered narrative (LLM path) that narrative is passed
// through with the source log appended; otherwise the tabular document is
// generated from the structured report.
func Markdown(r *extract.Report) string {
	if r.Narrative != "" {
		var b strings.Builder
		b.WriteString(r.Narrative)
		b.WriteString("\n\n---\n\n")
		writeSourceLog(&b, r)
		return b.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Pain-Point Research: %s\n\n", r.Metadata.Topic)
	fmt.Fprintf(&b, "Generated %s from %d posts / %d comments across %s.\n\n",
		r.Metadata.GeneratedAt, r.Metadata.PostCount, r.Metadata.CommentCount,
		strings.Join(forumList(r.Metadata.Forums), ", "))

	b.WriteString("## Top Pain Points\n\n")
	if len(r.TopPainPoints) == 0 {
		b.WriteString("No pain points detected.\n\n")
	} else {
		b.WriteString("| # | Pain Point | Threads | Priority | Volume | Emotional |\n")
		b.WriteString("|---|------------|---------|----------|--------|-----------|\n")
		for _, p := range r.TopPainPoints {
			fmt.Fprintf(&b, "| %d | %s | %d | %.1f | %.1f | %.1f |\n",
				p.Rank, p.Name, p.ThreadCount, p.PriorityScore, p.VolumeScore, p.EmotionalScore)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Symptoms\n\n")
	if len(r.TopSymptoms) == 0 {
		b.WriteString("No symptoms detected.\n\n")
	} else {
		b.WriteString("| Symptom | Category | Mentions |\n")
		b.WriteString("|---------|----------|----------|\n")
		for _, s := range r.TopSymptoms {
			fmt.Fprintf(&b, "| %s | %s | %d |\n", s.Name, s.Category, s.Frequency)
		}
		b.WriteString("\n")
	}

	if len(r.Clusters) > 0 {
		b.WriteString("## Symptom Clusters\n\n")
		for _, c := range r.Clusters {
			fmt.Fprintf(&b, "- **%s** (seen in %d posts)\n", c.Name, c.Frequency)
		}
		b.WriteString("\n")
	}

	for _, h := range r.Hypotheses {
		fmt.Fprintf(&b, "## Hypothesis: %s\n\n", h.Name)
		fmt.Fprintf(&b, "*Type: %s*\n\n", h.Type)
		fmt.Fprintf(&b, "**Problem side.** %s\n\n", h.ProblemSide)
		fmt.Fprintf(&b, "**Solution side.** %s\n\n", h.SolutionSide)
		fmt.Fprintf(&b, "**Knowledge gap.** %s\n\n", h.KnowledgeGap)
		fmt.Fprintf(&b, "**Sample hook.** %s\n\n", h.SampleHook)
		fmt.Fprintf(&b, "**Sample lead.** %s\n\n", h.SampleLead)
	}

	writeCopyBank(&b, r.CopyBank)
	writeSourceLog(&b, r)
	return b.String()
}

func writeCopyBank(b *strings.Builder, bank extract.CopyBank) {
	sections := []struct {
		title   string
		phrases []string
	}{
		{"Symptom Phrases", bank.SymptomPhrases},
		{"Problem Phrases", bank.ProblemPhrases},
		{"Desire Phrases", bank.DesirePhrases},
		{"Objections", bank.ObjectionPhrases},
	}

	wroteHeader := false
	for _, s := range sections {
		if len(s.phrases) == 0 {
			continue
		}
		if !wroteHeader {
			b.WriteString("## Copy Bank\n\n")
			wroteHeader = true
		}
		fmt.Fprintf(b, "### %s\n\n", s.title)
		for _, phrase := range s.phrases {
			fmt.Fprintf(b, "- %s\n", phrase)
		}
		b.WriteString("\n")
	}
}

func writeSourceLog(b *strings.Builder, r *extract.Report) {
	if len(r.SourceLog.Top) == 0 {
		return
	}
	b.WriteString("## Sources\n\n")
	for _, entry := range r.SourceLog.Top {
		value := entry.AnalysisValue
		if value == "" {
			value = entry.ExtractionValue
		}
		fmt.Fprintf(b, "%d. [%s](%s) (r/%s, %s, engagement %d)\n",
			entry.Index, entry.Title, entry.URL, entry.Forum, value, entry.Engagement)
	}
	b.WriteString("\n")
}

// CSV renders a flat four-column table covering pain points, symptoms,
// hypotheses, and copy phrases. encoding/csv handles quote escaping.
func CSV(r *extract.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"section", "name", "value", "detail"}); err != nil {
		return nil, err
	}

	for _, p := range r.AllPainPoints {
		w.Write([]string{"pain_point", p.Name,
			fmt.Sprintf("%.1f", p.PriorityScore),
			fmt.Sprintf("%d threads, charge %d", p.ThreadCount, p.EmotionalCharge)})
	}
	for _, s := range r.AllSymptoms {
		w.Write([]string{"symptom", s.Name,
			fmt.Sprintf("%d", s.Frequency), s.Category})
	}
	for _, h := range r.Hypotheses {
		w.Write([]string{"hypothesis", h.Name, h.Type, h.SampleHook})
	}
	for _, phrase := range r.CopyBank.SymptomPhrases {
		w.Write([]string{"copy_symptom", phrase, "", ""})
	}
	for _, phrase := range r.CopyBank.ProblemPhrases {
		w.Write([]string{"copy_problem", phrase, "", ""})
	}
	for _, phrase := range r.CopyBank.DesirePhrases {
		w.Write([]string{"copy_desire", phrase, "", ""})
	}
	for _, phrase := range r.CopyBank.ObjectionPhrases {
		w.Write([]string{"copy_objection", phrase, "", ""})
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func forumList(forums []string) []string {
	out := make([]string, len(forums))
	for i, f := range forums {
		out[i] = "r/" + f
	}
	return out
}
