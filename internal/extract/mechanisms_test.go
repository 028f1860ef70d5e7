package extract

import (
	"reflect"
	"strings"
	"testing"

	"github.com/mklatt/painscope/internal/corpus"
)

func TestExtractMechanismsFamilies(t *testing.T) {
	posts := []corpus.Post{
		makePost("p1", "Finally figured it out",
			"My symptoms were caused by low stomach acid. What finally worked for me was betaine HCL.", 30),
		makePost("p2", "Still searching",
			"I tried probiotics but it didn't help. I believe that my gut flora is wrecked.", 12),
		makePost("p3", "Skeptical",
			"Doctors just throw pills at you. Supplements are a scam half the time.", 8),
	}

	mech := ExtractMechanisms(posts, DefaultLexicon())

	assertHasText := func(items []MechanismItem, want, family string) {
		t.Helper()
		for _, item := range items {
			if strings.Contains(strings.ToLower(item.Text), want) {
				return
			}
		}
		t.Errorf("%s: no item containing %q", family, want)
	}

	assertHasText(mech.RootCauses, "low stomach acid", "rootCauses")
	assertHasText(mech.WorkingSolutions, "betaine hcl", "workingSolutions")
	assertHasText(mech.FailedSolutions, "probiotics", "failedSolutions")
	assertHasText(mech.Beliefs, "gut flora", "beliefs")
	assertHasText(mech.Skepticisms, "scam", "skepticisms")
}

func TestDedupeAndRankMerges(t *testing.T) {
	items := []MechanismItem{
		{Text: "Low Stomach Acid", Frequency: 1, Sources: []string{"a"}},
		{Text: "low stomach acid", Frequency: 1, Sources: []string{"b"}},
		{Text: " low stomach acid ", Frequency: 1, Sources: []string{"c", "d"}},
		{Text: "sibo", Frequency: 1, Sources: []string{"e"}},
		{Text: "x", Frequency: 1, Sources: []string{"f"}}, // below key length
	}

	out := DedupeAndRank(items, 20)
	if len(out) != 1 {
		t.Fatalf("expected 1 item after merge, got %d", len(out))
	}
	got := out[0]
	if got.Frequency != 3 {
		t.Errorf("frequency %d, want 3", got.Frequency)
	}
	if len(got.Sources) != 3 {
		t.Errorf("sources capped at 3, got %d", len(got.Sources))
	}
}

func TestDedupeAndRankTruncates(t *testing.T) {
	items := []MechanismItem{
		{Text: "first cause", Frequency: 3, Sources: []string{"a"}},
		{Text: "second cause", Frequency: 5, Sources: []string{"b"}},
		{Text: "third cause", Frequency: 1, Sources: []string{"c"}},
	}

	out := DedupeAndRank(items, 2)
	if len(out) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(out))
	}
	if out[0].Text != "second cause" || out[1].Text != "first cause" {
		t.Errorf("wrong ranking order: %q, %q", out[0].Text, out[1].Text)
	}
}

func TestDedupeAndRankIdempotent(t *testing.T) {
	items := []MechanismItem{
		{Text: "leaky gut", Frequency: 1, Sources: []string{"a"}},
		{Text: "Leaky Gut", Frequency: 1, Sources: []string{"b"}},
		{Text: "stress and cortisol", Frequency: 1, Sources: []string{"c"}},
	}

	once := DedupeAndRank(items, 20)
	twice := DedupeAndRank(once, 20)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("DedupeAndRank not idempotent:\n once: %+v\ntwice: %+v", once, twice)
	}
}
