package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
)

// Forum is one ranked discovery result.
type Forum struct {
	Name            string  `json:"name"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	SubscriberCount int     `json:"subscriberCount"`
	RelevanceScore  float64 `json:"relevanceScore"`
	CombinedScore   float64 `json:"combinedScore"`
	Rank            int     `json:"rank"`
}

// Terms that mark a forum as on-topic for the health/supplement niche
// regardless of literal topic overlap.
var domainBoostTerms = []string{
	"health", "gut", "pain", "chronic", "syndrome", "disorder",
	"supplement", "wellness", "symptom", "diet", "nutrition", "healing",
}

const (
	relevanceWeight = 0.7
	volumeWeight    = 0.3
	discoveryLimit  = 25
)

type subredditData struct {
	DisplayName       string `json:"display_name"`
	Title             string `json:"title"`
	PublicDescription string `json:"public_description"`
	Subscribers       int    `json:"subscribers"`
}

// DiscoverForums searches for forums matching a topic and ranks them by a
// 70/30 blend of topical relevance and log-scaled subscriber volume.
func (c *Client) DiscoverForums(ctx context.Context, topic string) ([]Forum, error) {
	var page listing
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     topic,
			"limit": fmt.Sprintf("%d", discoveryLimit),
		}).
		SetResult(&page).
		Get("/subreddits/search.json")
	if err != nil {
		return nil, fmt.Errorf("searching forums: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("forum search returned HTTP %d", resp.StatusCode())
	}

	var forums []Forum
	for _, child := range page.Data.Children {
		var sd subredditData
		if err := json.Unmarshal(child.Data, &sd); err != nil || sd.DisplayName == "" {
			continue
		}
		forums = append(forums, Forum{
			Name:            sd.DisplayName,
			Title:           sd.Title,
			Description:     sd.PublicDescription,
			SubscriberCount: sd.Subscribers,
		})
	}

	return RankForums(forums, topic), nil
}

// RankForums scores and orders discovery candidates. Exposed separately so
// ranking stays testable without a network.
func RankForums(forums []Forum, topic string) []Forum {
	for i := range forums {
		f := &forums[i]
		f.RelevanceScore = relevanceScore(f, topic)
		f.CombinedScore = round2(relevanceWeight*f.RelevanceScore + volumeWeight*volumeScore(f.SubscriberCount))
	}

	sort.SliceStable(forums, func(i, j int) bool {
		return forums[i].CombinedScore > forums[j].CombinedScore
	})
	for i := range forums {
		forums[i].Rank = i + 1
	}
	return forums
}

// relevanceScore is in [0,1]: substring and token overlap of the topic
// against name/title/description, plus a fixed domain-term boost.
func relevanceScore(f *Forum, topic string) float64 {
	topic = strings.ToLower(strings.TrimSpace(topic))
	name := strings.ToLower(f.Name)
	title := strings.ToLower(f.Title)
	desc := strings.ToLower(f.Description)

	joined := strings.ReplaceAll(topic, " ", "")
	tokens := strings.Fields(topic)

	score := 0.0
	if name == joined {
		score += 0.5
	} else if strings.Contains(name, joined) {
		score += 0.35
	}

	matched := 0
	for _, tok := range tokens {
		if strings.Contains(name, tok) || strings.Contains(title, tok) || strings.Contains(desc, tok) {
			matched++
		}
	}
	if len(tokens) > 0 {
		score += 0.3 * float64(matched) / float64(len(tokens))
	}

	for _, term := range domainBoostTerms {
		if strings.Contains(name, term) || strings.Contains(title, term) {
			score += 0.1
			break
		}
	}
	if strings.Contains(desc, topic) || strings.Contains(title, topic) {
		score += 0.1
	}

	return math.Min(1, score)
}

// volumeScore maps subscriber counts onto [0,1] on a log scale; ~10M
// subscribers saturates the scale.
func volumeScore(subscribers int) float64 {
	if subscribers <= 0 {
		return 0
	}
	return math.Min(1, math.Log10(float64(subscribers)+1)/7)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
