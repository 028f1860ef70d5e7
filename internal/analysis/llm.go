package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/mklatt/painscope/internal/corpus"
	"github.com/mklatt/painscope/internal/extract"
	"github.com/mklatt/painscope/internal/llm"
)

const narrativePrompt = `You are a market researcher writing an internal research memo about recurring pain points in online health communities, for a team producing supplement marketing copy.

Topic: %s

Structured findings mined from %d forum posts:

Top pain points:
%s

Top symptoms:
%s

Most-cited root-cause beliefs:
%s

Respond with a JSON object with two fields:
- "headline": a one-line title for the memo
- "narrative": a Markdown memo (3-5 sections, ## headings) that narrates what this community is struggling with, what they believe causes it, what they have tried, and where the messaging opportunity lies. Be concrete and quote-driven; no bullet-point dumps, no hype.`

// LLM is the strategy that layers a generated narrative on top of the
// lexical engine's structured report.
type LLM struct {
	provider  llm.Provider
	lexical   *Lexical
	maxTokens int
}

// NewLLM creates the LLM-backed strategy.
func NewLLM(provider llm.Provider, lex *extract.Lexicon, maxTokens int) *LLM {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &LLM{provider: provider, lexical: NewLexical(lex), maxTokens: maxTokens}
}

func (s *LLM) Name() string { return "llm" }

// Available reports whether a provider is configured.
func (s *LLM) Available() bool {
	return s.provider != nil && s.provider.IsConfigured()
}

// Analyze runs the lexical engine for the canonical structured report, then
// asks the provider for a narrative. A narrative failure fails the analysis;
// partial results are not synthesized.
func (s *LLM) Analyze(ctx context.Context, result *corpus.ScrapeResult, topic string, onProgress ProgressFunc) (*extract.Report, error) {
	if onProgress == nil {
		onProgress = func(string, string, int) {}
	}
	if !s.Available() {
		return nil, fmt.Errorf("LLM analysis requested but no provider is configured")
	}

	onProgress("extracting", "Mining structured findings", 15)
	report, err := s.lexical.Analyze(ctx, result, topic, nil)
	if err != nil {
		return nil, err
	}
	report.Metadata.Strategy = "llm"

	onProgress("narrating", "Generating narrative", 60)
	prompt := fmt.Sprintf(narrativePrompt,
		topic,
		report.Metadata.PostCount,
		formatPainPoints(report.TopPainPoints),
		formatSymptoms(report.TopSymptoms),
		formatMechanisms(report.Mechanisms.RootCauses),
	)

	responseText, err := s.provider.Generate(ctx, prompt, s.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("generating narrative: %w", err)
	}
	report.Narrative = narrativeFromResponse(responseText)

	onProgress("complete", "Analysis complete", 100)
	return report, nil
}

// narrativeFromResponse pulls the memo out of the provider's response.
// Models that ignore the JSON instruction and answer in plain Markdown are
// tolerated: the raw text is used as-is.
func narrativeFromResponse(responseText string) string {
	parsed := llm.ParseJSONResponse(responseText)
	if parsed == nil {
		return strings.TrimSpace(responseText)
	}

	narrative := getStr(parsed, "narrative", "")
	if narrative == "" {
		return strings.TrimSpace(responseText)
	}
	if headline := getStr(parsed, "headline", ""); headline != "" {
		return "# " + headline + "\n\n" + narrative
	}
	return narrative
}

func getStr(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func formatPainPoints(points []extract.PainPoint) string {
	if len(points) == 0 {
		return "(none found)"
	}
	var lines []string
	for _, p := range points {
		lines = append(lines, fmt.Sprintf("- %s (%d threads, priority %.1f)", p.Name, p.ThreadCount, p.PriorityScore))
	}
	return strings.Join(lines, "\n")
}

func formatSymptoms(symptoms []extract.Symptom) string {
	if len(symptoms) == 0 {
		return "(none found)"
	}
	var lines []string
	for _, s := range symptoms {
		lines = append(lines, fmt.Sprintf("- %s (%s, %d mentions)", s.Name, s.Category, s.Frequency))
	}
	return strings.Join(lines, "\n")
}

func formatMechanisms(items []extract.MechanismItem) string {
	if len(items) == 0 {
		return "(none found)"
	}
	var lines []string
	for i, item := range items {
		if i >= 10 {
			break
		}
		lines = append(lines, fmt.Sprintf("- %q (%dx)", item.Text, item.Frequency))
	}
	return strings.Join(lines, "\n")
}
