package extract

import (
	"strings"
	"testing"

	"github.com/mklatt/painscope/internal/corpus"
)

func TestExtractSymptomsFirstVariationWinsPerPost(t *testing.T) {
	// Both "bloating" and "bloated" appear; only one counts per post.
	posts := []corpus.Post{
		makePost("p1", "So bloated", "The bloating never stops and I feel bloated all day.", 5),
	}

	symptoms := ExtractSymptoms(posts, DefaultLexicon())
	for _, s := range symptoms {
		if s.Name == "Bloating" {
			if s.Frequency != 1 {
				t.Errorf("expected frequency 1 for single post, got %d", s.Frequency)
			}
			if len(s.SamplePhrases) == 0 {
				t.Error("expected a sample phrase")
			}
			return
		}
	}
	t.Fatal("Bloating symptom not found")
}

func TestExtractSymptomsCategories(t *testing.T) {
	posts := []corpus.Post{
		makePost("p1", "", "Dealing with bloating, brain fog, and I avoid going out now.", 5),
	}

	symptoms := ExtractSymptoms(posts, DefaultLexicon())
	want := map[string]string{
		"Bloating":         "physical",
		"Brain Fog":        "emotional",
		"Social Avoidance": "lifestyle",
	}
	for _, s := range symptoms {
		if cat, ok := want[s.Name]; ok {
			if s.Category != cat {
				t.Errorf("%s: category %q, want %q", s.Name, s.Category, cat)
			}
			delete(want, s.Name)
		}
	}
	for name := range want {
		t.Errorf("symptom %s not extracted", name)
	}
}

func TestExtractClustersShape(t *testing.T) {
	// Three posts share {Bloating, Fatigue}; one post has a lone symptom.
	posts := []corpus.Post{
		makePost("p1", "", "Bloating and fatigue every day.", 5),
		makePost("p2", "", "The bloating is bad and I'm exhausted.", 5),
		makePost("p3", "", "Constant bloating, total exhaustion.", 5),
		makePost("p4", "", "Just a headache today.", 5),
	}

	clusters := ExtractClusters(posts, DefaultLexicon())
	if len(clusters) == 0 {
		t.Fatal("expected at least one cluster")
	}

	for _, c := range clusters {
		if len(c.Symptoms) < 2 {
			t.Errorf("cluster %q has fewer than 2 symptoms", c.Name)
		}
		if len(c.Symptoms) > 5 {
			t.Errorf("cluster %q exceeds 5 symptoms", c.Name)
		}
		if c.Frequency < 2 {
			t.Errorf("cluster %q has frequency %d, want >= 2", c.Name, c.Frequency)
		}
	}

	first := clusters[0]
	if !strings.HasPrefix(first.Name, "Cluster 1: ") {
		t.Errorf("first cluster name %q missing rank prefix", first.Name)
	}
	if first.Frequency != 3 {
		t.Errorf("expected the shared pair to recur 3 times, got %d", first.Frequency)
	}
}

func TestExtractClustersDropsSingletons(t *testing.T) {
	// The symptom set appears only once, so no cluster survives.
	posts := []corpus.Post{
		makePost("p1", "", "Bloating and headaches.", 5),
		makePost("p2", "", "Just nausea here.", 5),
	}

	clusters := ExtractClusters(posts, DefaultLexicon())
	if len(clusters) != 0 {
		t.Errorf("expected no clusters, got %d", len(clusters))
	}
}
