// Package analysis defines the strategy boundary between the job state
// machine and the two report producers: the deterministic lexical engine and
// the LLM-backed narrative variant. Both emit the same structured report
// shape; the lexical shape is canonical.
package analysis

import (
	"context"
	"fmt"

	"github.com/mklatt/painscope/internal/corpus"
	"github.com/mklatt/painscope/internal/extract"
)

// ProgressFunc receives analysis progress updates.
type ProgressFunc func(phase, message string, percent int)

// Strategy turns a corpus into a report.
type Strategy interface {
	Name() string
	// Available reports whether the strategy can run right now.
	Available() bool
	Analyze(ctx context.Context, result *corpus.ScrapeResult, topic string, onProgress ProgressFunc) (*extract.Report, error)
}

// Lexical is the deterministic pattern-based strategy.
type Lexical struct {
	lex *extract.Lexicon
}

// NewLexical creates the lexical strategy. A nil lexicon uses the default.
func NewLexical(lex *extract.Lexicon) *Lexical {
	if lex == nil {
		lex = extract.DefaultLexicon()
	}
	return &Lexical{lex: lex}
}

func (l *Lexical) Name() string    { return "lexical" }
func (l *Lexical) Available() bool { return true }

// Analyze runs the full extraction pipeline. The underlying engine is pure;
// progress is reported around its phases.
func (l *Lexical) Analyze(_ context.Context, result *corpus.ScrapeResult, topic string, onProgress ProgressFunc) (*extract.Report, error) {
	if onProgress == nil {
		onProgress = func(string, string, int) {}
	}
	if result == nil {
		return nil, fmt.Errorf("no scraped data to analyze")
	}

	onProgress("extracting", "Mining pain points and symptoms", 20)
	report := extract.Compile(result, topic, l.lex)
	onProgress("compiling", "Compiling report", 90)
	onProgress("complete", "Analysis complete", 100)
	return report, nil
}
