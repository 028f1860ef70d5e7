package extract

import (
	"time"

	"github.com/mklatt/painscope/internal/corpus"
)

// ReportMetadata describes the analysis run.
type ReportMetadata struct {
	Topic        string   `json:"topic"`
	Forums       []string `json:"forums"`
	GeneratedAt  string   `json:"generatedAt"`
	PostCount    int      `json:"postCount"`
	CommentCount int      `json:"commentCount"`
	Strategy     string   `json:"strategy"`
}

// Summary holds the headline counts.
type Summary struct {
	TotalPainPoints int `json:"totalPainPoints"`
	TotalSymptoms   int `json:"totalSymptoms"`
	TotalClusters   int `json:"totalClusters"`
	TotalHypotheses int `json:"totalHypotheses"`
}

// SourceLogSection splits the enriched log into the display buckets.
type SourceLogSection struct {
	Top     []corpus.SourceLogEntry            `json:"top"`
	ByValue map[string][]corpus.SourceLogEntry `json:"byValue"`
	Full    []corpus.SourceLogEntry            `json:"full"`
}

// Report is the compiled analysis artifact. Top* slices are the display
// cuts; All* keep the full ranked lists for export.
type Report struct {
	Metadata      ReportMetadata   `json:"metadata"`
	Summary       Summary          `json:"summary"`
	TopPainPoints []PainPoint      `json:"topPainPoints"`
	TopSymptoms   []Symptom        `json:"topSymptoms"`
	Clusters      []SymptomCluster `json:"clusters"`
	HookBank      []string         `json:"hookBank"`
	Mechanisms    Mechanisms       `json:"mechanisms"`
	CopyBank      CopyBank         `json:"copyBank"`
	Hypotheses    []Hypothesis     `json:"hypotheses"`
	SourceLog     SourceLogSection `json:"sourceLog"`
	AllPainPoints []PainPoint      `json:"allPainPoints"`
	AllSymptoms   []Symptom        `json:"allSymptoms"`

	// Narrative is only set by the LLM-backed strategy and passed through
	// on Markdown export.
	Narrative string `json:"narrative,omitempty"`
}

const (
	topPainPoints       = 10
	topSymptoms         = 15
	topSourceLogEntries = 20
	maxBucketEntries    = 10
	maxBeliefItems      = 10
	maxHooks            = 10
)

// Compile assembles a full report from a scrape result. Deterministic for a
// given corpus and lexicon; safe on an empty corpus.
func Compile(result *corpus.ScrapeResult, topic string, lex *Lexicon) *Report {
	pains := ExtractPainPoints(result.Posts, lex)
	symptoms := ExtractSymptoms(result.Posts, lex)
	clusters := ExtractClusters(result.Posts, lex)
	mech := ExtractMechanisms(result.Posts, lex)
	bank := ExtractCopyBank(result.Posts, lex)
	sourceLog := EnrichSourceLog(result.SourceLog, result.Posts, lex)
	hyps := SynthesizeHypotheses(pains, symptoms, mech)

	mech.Beliefs = truncateItems(mech.Beliefs, maxBeliefItems)
	mech.Skepticisms = truncateItems(mech.Skepticisms, maxBeliefItems)

	top := make([]PainPoint, 0, topPainPoints)
	for i, p := range pains {
		if i >= topPainPoints {
			break
		}
		p.Rank = i + 1
		top = append(top, p)
	}

	return &Report{
		Metadata: ReportMetadata{
			Topic:        topic,
			Forums:       result.Metadata.Forums,
			GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
			PostCount:    len(result.Posts),
			CommentCount: result.CommentCount(),
			Strategy:     "lexical",
		},
		Summary: Summary{
			TotalPainPoints: len(pains),
			TotalSymptoms:   len(symptoms),
			TotalClusters:   len(clusters),
			TotalHypotheses: len(hyps),
		},
		TopPainPoints: top,
		TopSymptoms:   truncateSymptoms(symptoms, topSymptoms),
		Clusters:      clusters,
		HookBank:      buildHookBank(pains, bank),
		Mechanisms:    mech,
		CopyBank:      bank,
		Hypotheses:    hyps,
		SourceLog:     splitSourceLog(sourceLog),
		AllPainPoints: pains,
		AllSymptoms:   symptoms,
	}
}

func truncateItems(items []MechanismItem, max int) []MechanismItem {
	if len(items) > max {
		return items[:max]
	}
	return items
}

func truncateSymptoms(symptoms []Symptom, max int) []Symptom {
	if len(symptoms) > max {
		return symptoms[:max]
	}
	return symptoms
}

// buildHookBank collects ready-to-use opening lines: the strongest sample
// quote per top pain point, then desire phrases.
func buildHookBank(pains []PainPoint, bank CopyBank) []string {
	var hooks []string
	for _, p := range pains {
		if len(hooks) >= maxHooks/2 {
			break
		}
		if len(p.SampleQuotes) > 0 {
			hooks = append(hooks, "\""+p.SampleQuotes[0].Text+"\"")
		}
	}
	for _, phrase := range bank.DesirePhrases {
		if len(hooks) >= maxHooks {
			break
		}
		hooks = append(hooks, phrase)
	}
	return hooks
}

func splitSourceLog(log []corpus.SourceLogEntry) SourceLogSection {
	section := SourceLogSection{
		ByValue: make(map[string][]corpus.SourceLogEntry),
		Full:    log,
	}

	if len(log) > topSourceLogEntries {
		section.Top = log[:topSourceLogEntries]
	} else {
		section.Top = log
	}

	for _, entry := range log {
		value := entry.AnalysisValue
		if value == "" {
			value = entry.ExtractionValue
		}
		if len(section.ByValue[value]) < maxBucketEntries {
			section.ByValue[value] = append(section.ByValue[value], entry)
		}
	}
	return section
}
