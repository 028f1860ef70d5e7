package extract

import (
	"fmt"
	"strings"
)

// Hypothesis archetype names. The set is closed.
const (
	TypeHiddenRootCause   = "Hidden Root Cause"
	TypeMissingPiece      = "Missing Piece"
	TypeConnectedSymptoms = "Connected Symptoms"
)

// Hypothesis is a synthesized causal narrative built from top-ranked
// extraction results. Never extracted directly from text.
type Hypothesis struct {
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	TargetPainPoints []string `json:"targetPainPoints"`
	KeySymptoms      []string `json:"keySymptoms"`
	ProblemSide      string   `json:"problemSide"`
	SolutionSide     string   `json:"solutionSide"`
	KnowledgeGap     string   `json:"knowledgeGap"`
	SampleHook       string   `json:"sampleHook"`
	SampleLead       string   `json:"sampleLead"`
	Sources          []string `json:"sources"`
}

// SynthesizeHypotheses derives zero to three hypotheses. Each check gates
// independently and the output keeps check order.
func SynthesizeHypotheses(pains []PainPoint, symptoms []Symptom, mech Mechanisms) []Hypothesis {
	var out []Hypothesis

	if len(mech.RootCauses) > 0 && len(mech.WorkingSolutions) > 0 {
		out = append(out, hiddenRootCause(pains, symptoms, mech))
	}
	if len(mech.FailedSolutions) > 0 {
		out = append(out, missingPiece(pains, symptoms, mech))
	}
	if len(symptoms) >= 6 {
		out = append(out, connectedSymptoms(pains, symptoms))
	}
	return out
}

func hiddenRootCause(pains []PainPoint, symptoms []Symptom, mech Mechanisms) Hypothesis {
	rootCause := mech.RootCauses[0]
	solution := mech.WorkingSolutions[0]
	pain := topPainName(pains, "the problem")

	return Hypothesis{
		Name:             fmt.Sprintf("The Hidden Cause Behind %s", pain),
		Type:             TypeHiddenRootCause,
		TargetPainPoints: painNames(pains, 3),
		KeySymptoms:      symptomNames(symptoms, 3),
		ProblemSide: fmt.Sprintf("People struggling with %s keep treating surface symptoms while the community points at a deeper cause: %s.",
			strings.ToLower(pain), rootCause.Text),
		SolutionSide: fmt.Sprintf("The strongest reported wins come from addressing the cause directly, most often %s.",
			solution.Text),
		KnowledgeGap: fmt.Sprintf("Most sufferers have never connected their symptoms to %s.", rootCause.Text),
		SampleHook:   fmt.Sprintf("What if your %s isn't the real problem?", strings.ToLower(pain)),
		SampleLead: fmt.Sprintf("Thousands of posts describe the same loop: treat the symptom, feel better for a week, relapse. The pattern that keeps surfacing is %s, and the people who finally broke the loop did it by targeting exactly that.",
			rootCause.Text),
		Sources: mergeSources(rootCause.Sources, solution.Sources),
	}
}

func missingPiece(pains []PainPoint, symptoms []Symptom, mech Mechanisms) Hypothesis {
	failed := mech.FailedSolutions[0]
	pain := topPainName(pains, "their condition")

	return Hypothesis{
		Name:             fmt.Sprintf("Why %s Keeps Failing", failed.Text),
		Type:             TypeMissingPiece,
		TargetPainPoints: painNames(pains, 3),
		KeySymptoms:      symptomNames(symptoms, 3),
		ProblemSide: fmt.Sprintf("The most commonly tried fix, %s, shows up again and again as a disappointment for people with %s.",
			failed.Text, strings.ToLower(pain)),
		SolutionSide: "A complete approach has to supply whatever the popular fix leaves out, not more of the same.",
		KnowledgeGap: fmt.Sprintf("Nobody has explained to these buyers why %s didn't work for them.", failed.Text),
		SampleHook:   fmt.Sprintf("Tried %s and got nowhere? There's a reason.", failed.Text),
		SampleLead: fmt.Sprintf("Scan any forum thread about %s and one complaint repeats: \"%s didn't work for me.\" That's not bad luck. It's a missing piece.",
			strings.ToLower(pain), failed.Text),
		Sources: failed.Sources,
	}
}

func connectedSymptoms(pains []PainPoint, symptoms []Symptom) Hypothesis {
	first, second := symptoms[0], symptoms[1]

	return Hypothesis{
		Name:             fmt.Sprintf("%s and %s Are Connected", first.Name, second.Name),
		Type:             TypeConnectedSymptoms,
		TargetPainPoints: painNames(pains, 3),
		KeySymptoms:      symptomNames(symptoms, 5),
		ProblemSide: fmt.Sprintf("%s and %s are treated as separate problems, so people chase separate fixes for each.",
			first.Name, second.Name),
		SolutionSide: "One upstream intervention that addresses the shared driver beats stacking single-symptom products.",
		KnowledgeGap: fmt.Sprintf("Few sufferers realize %s and %s routinely appear together in the same stories.",
			strings.ToLower(first.Name), strings.ToLower(second.Name)),
		SampleHook: fmt.Sprintf("Your %s and your %s might be the same problem.",
			strings.ToLower(first.Name), strings.ToLower(second.Name)),
		SampleLead: fmt.Sprintf("Read enough posts and a pattern emerges: where %s shows up, %s is rarely far behind. When two symptoms travel together this consistently, treating them separately is the expensive way to lose.",
			strings.ToLower(first.Name), strings.ToLower(second.Name)),
	}
}

func topPainName(pains []PainPoint, fallback string) string {
	if len(pains) > 0 {
		return pains[0].Name
	}
	return fallback
}

func painNames(pains []PainPoint, max int) []string {
	var out []string
	for _, p := range pains {
		if len(out) >= max {
			break
		}
		out = append(out, p.Name)
	}
	return out
}

func symptomNames(symptoms []Symptom, max int) []string {
	var out []string
	for _, s := range symptoms {
		if len(out) >= max {
			break
		}
		out = append(out, s.Name)
	}
	return out
}

func mergeSources(a, b []string) []string {
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		if len(out) >= maxMechanismSources {
			break
		}
		if !containsString(out, s) {
			out = append(out, s)
		}
	}
	return out
}
