package export

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/mklatt/painscope/internal/extract"
)

func sampleReport() *extract.Report {
	return &extract.Report{
		Metadata: extract.ReportMetadata{
			Topic:        "gut health",
			Forums:       []string{"guthealth"},
			GeneratedAt:  "2026-08-25T10:00:00Z",
			PostCount:    10,
			CommentCount: 40,
		},
		Summary: extract.Summary{TotalPainPoints: 2, TotalSymptoms: 1, TotalHypotheses: 1},
		TopPainPoints: []extract.PainPoint{
			{Rank: 1, Name: "Bloating", ThreadCount: 5, PriorityScore: 7.2, VolumeScore: 3.9, EmotionalScore: 9.4},
			{Rank: 2, Name: "Acid Reflux", ThreadCount: 2, PriorityScore: 4.1, VolumeScore: 2.4, EmotionalScore: 5.2},
		},
		TopSymptoms: []extract.Symptom{
			{Name: "Bloating", Category: "physical", Frequency: 6},
		},
		Hypotheses: []extract.Hypothesis{
			{
				Name: "The Hidden Cause Behind Bloating", Type: extract.TypeHiddenRootCause,
				ProblemSide: "p", SolutionSide: "s", KnowledgeGap: "k",
				SampleHook: "What if?", SampleLead: "lead",
			},
		},
		CopyBank: extract.CopyBank{
			DesirePhrases:    []string{"I just want to eat normally"},
			ObjectionPhrases: []string{`sounds "too good" to be true`},
		},
		AllPainPoints: []extract.PainPoint{
			{Name: "Bloating", PriorityScore: 7.2, ThreadCount: 5, EmotionalCharge: 12},
			{Name: "Acid Reflux", PriorityScore: 4.1, ThreadCount: 2, EmotionalCharge: 4},
		},
		AllSymptoms: []extract.Symptom{{Name: "Bloating", Category: "physical", Frequency: 6}},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"", FormatJSON, false},
		{"markdown", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"CSV", FormatCSV, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMarkdownStructured(t *testing.T) {
	out := Markdown(sampleReport())

	for _, want := range []string{
		"# Pain-Point Research: gut health",
		"| 1 | Bloating | 5 | 7.2 |",
		"## Hypothesis: The Hidden Cause Behind Bloating",
		"I just want to eat normally",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownNarrativePassthrough(t *testing.T) {
	r := sampleReport()
	r.Narrative = "## Memo\n\nThe community is exhausted."

	out := Markdown(r)
	if !strings.HasPrefix(out, "## Memo") {
		t.Errorf("narrative not passed through, got %q", out[:40])
	}
	if strings.Contains(out, "# Pain-Point Research") {
		t.Error("narrative export should replace the generated document")
	}
}

func TestCSVEscapesQuotes(t *testing.T) {
	data, err := CSV(sampleReport())
	if err != nil {
		t.Fatalf("csv: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("generated CSV does not parse back: %v", err)
	}

	// header + 2 pains + 1 symptom + 1 hypothesis + 1 desire + 1 objection
	if len(rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(rows))
	}
	if rows[0][0] != "section" {
		t.Errorf("missing header row: %v", rows[0])
	}

	found := false
	for _, row := range rows {
		if row[0] == "copy_objection" && row[1] == `sounds "too good" to be true` {
			found = true
		}
	}
	if !found {
		t.Error("quoted objection phrase lost or mangled")
	}
}
