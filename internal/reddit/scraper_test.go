package reddit

import (
	"testing"

	"github.com/mklatt/painscope/internal/corpus"
)

func TestClassifyTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Help with constant bloating?", corpus.ValueProblem},
		{"Anyone else suffering from reflux", corpus.ValueProblem},
		{"What worked for me after 5 years", corpus.ValueSolution},
		{"Finally cured my IBS", corpus.ValueSolution},
		{"How I fixed my gut - anyone else struggling?", corpus.ValueBoth},
		{"Weekly discussion thread", corpus.ValueGeneral},
	}
	for _, tt := range tests {
		if got := classifyTitle(tt.title); got != tt.want {
			t.Errorf("classifyTitle(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		done, total, want int
	}{
		{0, 10, 0},
		{5, 10, 50},
		{10, 10, 100},
		{20, 10, 100}, // clamped
		{3, 0, 0},     // no division by zero
	}
	for _, tt := range tests {
		if got := percent(tt.done, tt.total); got != tt.want {
			t.Errorf("percent(%d, %d) = %d, want %d", tt.done, tt.total, got, tt.want)
		}
	}
}
