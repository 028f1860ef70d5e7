package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mklatt/painscope/internal/corpus"
)

// Symptom is a canonicalized effect with its matched raw variations.
type Symptom struct {
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Variations    []string `json:"variations"`
	Frequency     int      `json:"frequency"`
	SamplePhrases []string `json:"samplePhrases"`
}

// SymptomCluster is a set of symptoms that recur together in single posts.
type SymptomCluster struct {
	Name      string   `json:"name"`
	Symptoms  []string `json:"symptoms"`
	Frequency int      `json:"frequency"`
}

const (
	maxSamplePhrases   = 5
	maxClusterSymptoms = 5
	maxClusters        = 20
)

// ExtractSymptoms scans each post (replies included) against the symptom
// dictionary. The first matching variation wins per post and symptom, so a
// post never double-counts the same symptom. Sorted by frequency descending.
func ExtractSymptoms(posts []corpus.Post, lex *Lexicon) []Symptom {
	type acc struct {
		s    *Symptom
		vars map[string]bool
	}
	found := make(map[string]*acc)
	var order []string

	for i := range posts {
		post := &posts[i]
		text := combinedText(post)

		for _, entry := range lex.Symptoms {
			for _, variation := range entry.Variations {
				idx := strings.Index(text, variation)
				if idx < 0 {
					continue
				}

				a, ok := found[entry.Name]
				if !ok {
					a = &acc{
						s:    &Symptom{Name: entry.Name, Category: entry.Category},
						vars: make(map[string]bool),
					}
					found[entry.Name] = a
					order = append(order, entry.Name)
				}

				a.s.Frequency++
				if !a.vars[variation] {
					a.vars[variation] = true
					a.s.Variations = append(a.s.Variations, variation)
				}
				if len(a.s.SamplePhrases) < maxSamplePhrases {
					a.s.SamplePhrases = append(a.s.SamplePhrases,
						window(text, idx, idx+len(variation), 30))
				}
				break // first variation wins for this post
			}
		}
	}

	out := make([]Symptom, 0, len(order))
	for _, name := range order {
		out = append(out, *found[name].s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Frequency > out[j].Frequency
	})
	return out
}

// ExtractClusters counts exact co-occurring symptom sets per post. Only sets
// of two or more symptoms form a cluster, membership is capped at five
// symptoms, and clusters seen fewer than twice are dropped. Top 20 kept.
func ExtractClusters(posts []corpus.Post, lex *Lexicon) []SymptomCluster {
	type acc struct {
		symptoms []string
		freq     int
	}
	clusters := make(map[string]*acc)
	var order []string

	for i := range posts {
		text := topLevelText(&posts[i])

		var names []string
		for _, entry := range lex.Symptoms {
			for _, variation := range entry.Variations {
				if strings.Contains(text, variation) {
					names = append(names, entry.Name)
					break
				}
			}
		}
		if len(names) < 2 {
			continue
		}

		sort.Strings(names)
		if len(names) > maxClusterSymptoms {
			names = names[:maxClusterSymptoms]
		}

		key := strings.Join(names, "|")
		a, ok := clusters[key]
		if !ok {
			a = &acc{symptoms: names}
			clusters[key] = a
			order = append(order, key)
		}
		a.freq++
	}

	var out []SymptomCluster
	for _, key := range order {
		a := clusters[key]
		if a.freq < 2 {
			continue
		}
		out = append(out, SymptomCluster{Symptoms: a.symptoms, Frequency: a.freq})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Frequency > out[j].Frequency
	})
	if len(out) > maxClusters {
		out = out[:maxClusters]
	}

	for i := range out {
		out[i].Name = clusterName(i+1, out[i].Symptoms)
	}
	return out
}

func clusterName(rank int, symptoms []string) string {
	shown := symptoms
	suffix := ""
	if len(shown) > 3 {
		shown = shown[:3]
		suffix = " + more"
	}
	return fmt.Sprintf("Cluster %d: %s%s", rank, strings.Join(shown, ", "), suffix)
}
