package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mklatt/painscope/internal/corpus"
)

func TestExtractCopyBankPrefixDedupe(t *testing.T) {
	// Both desire phrases share the same first 30 characters once lowercased;
	// only the first occurrence survives.
	posts := []corpus.Post{
		makePost("p1", "Fed up", "I wish I could eat normally again without any pain.", 1),
		makePost("p2", "Same", "I wish I could eat normally AGAIN without constant worry.", 1),
		makePost("p3", "Different", "I wish my energy would come back.", 1),
	}

	bank := ExtractCopyBank(posts, DefaultLexicon())

	if len(bank.DesirePhrases) != 2 {
		t.Fatalf("expected 2 deduped desire phrases, got %d: %v", len(bank.DesirePhrases), bank.DesirePhrases)
	}
	if bank.DesirePhrases[0] != "I wish I could eat normally again without any pain" {
		t.Errorf("first occurrence should win, got %q", bank.DesirePhrases[0])
	}
	for _, p := range bank.DesirePhrases {
		if strings.Contains(p, "AGAIN") {
			t.Errorf("prefix-colliding duplicate kept: %q", p)
		}
	}
}

func TestExtractCopyBankObjectionCap(t *testing.T) {
	supplements := []string{
		"aloe", "zinc", "kefir", "senna", "maca", "noni",
		"chaga", "reishi", "boron", "lysine", "biotin", "taurine",
	}
	var posts []corpus.Post
	for i, s := range supplements {
		posts = append(posts, makePost(
			fmt.Sprintf("p%d", i+1), "Worth it?",
			fmt.Sprintf("I'm skeptical of %s doing anything at all.", s), 1))
	}

	bank := ExtractCopyBank(posts, DefaultLexicon())

	if len(bank.ObjectionPhrases) != 10 {
		t.Fatalf("expected objection cap of 10, got %d", len(bank.ObjectionPhrases))
	}
	if !strings.Contains(bank.ObjectionPhrases[0], "aloe") {
		t.Errorf("cap should keep the earliest phrases, got %q first", bank.ObjectionPhrases[0])
	}
}

func TestPhrasePrefix(t *testing.T) {
	long := "I Wish I Could Eat Normally Again Without Pain"
	key := phrasePrefix(long)
	if len(key) != 30 {
		t.Errorf("key length %d, want 30", len(key))
	}
	if key != strings.ToLower(long)[:30] {
		t.Errorf("key %q not the lowercase 30-char prefix", key)
	}
	if phrasePrefix("short") != "short" {
		t.Errorf("short phrases should be their own key")
	}
}
