package extract

import "regexp"

// Candidate is one raw match produced by a scanner.
type Candidate struct {
	Text  string // matched or captured phrase
	Start int    // byte offset of the match in the scanned text
	End   int
}

// Scanner is the common capability every extraction family implements:
// run its pattern table over a text and return candidates.
type Scanner interface {
	Scan(text string) []Candidate
}

// PatternFamily is a named, ordered set of regexes. When a pattern has a
// capture group the candidate text is group 1, otherwise the whole match.
type PatternFamily struct {
	Name     string
	Patterns []*regexp.Regexp
}

// Scan implements Scanner.
func (f PatternFamily) Scan(text string) []Candidate {
	var out []Candidate
	for _, re := range f.Patterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[0], loc[1]
			capStart, capEnd := start, end
			if len(loc) >= 4 && loc[2] >= 0 {
				capStart, capEnd = loc[2], loc[3]
			}
			out = append(out, Candidate{
				Text:  text[capStart:capEnd],
				Start: start,
				End:   end,
			})
		}
	}
	return out
}

// SymptomEntry is one canonical symptom and the raw terms that map to it.
type SymptomEntry struct {
	Name       string
	Category   string // physical | emotional | lifestyle
	Variations []string
}

// Lexicon bundles every pattern table the engine runs on. It is plain data:
// swapping or extending the lexicon never touches the algorithms.
type Lexicon struct {
	// Pain-point indicator families, applied in order to lowercased text.
	PainIndicators PatternFamily
	// Raw phrase -> canonical pain-point label.
	Synonyms map[string]string
	// Fixed substrings worth one point of emotional charge each.
	EmotionalIndicators []string
	// Regexes worth two points of emotional charge each.
	DesperationPatterns []*regexp.Regexp

	// Fixed category->term dictionary, scanned in order.
	Symptoms []SymptomEntry

	// Mechanism-material families, applied to case-preserved text.
	RootCauses       PatternFamily
	FailedSolutions  PatternFamily
	WorkingSolutions PatternFamily
	Beliefs          PatternFamily
	Skepticisms      PatternFamily

	// Copy-bank families.
	SymptomPhrases   PatternFamily
	ProblemPhrases   PatternFamily
	DesirePhrases    PatternFamily
	ObjectionPhrases PatternFamily

	// Source-log enrichment signals.
	RootCauseSignal *regexp.Regexp
	SolutionSignal  *regexp.Regexp
	SymptomSignal   *regexp.Regexp
}

// DefaultLexicon is the built-in health/supplement lexicon.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		PainIndicators: PatternFamily{
			Name: "pain",
			Patterns: []*regexp.Regexp{
				// condition phrasing
				regexp.MustCompile(`(?:suffer(?:ing)? (?:from|with)|struggling with|dealing with|diagnosed with|battling|living with)\s+([a-z][a-z' -]{2,40})`),
				// impact phrasing
				regexp.MustCompile(`(?:my|this|the)\s+([a-z][a-z' -]{2,30}?)\s+(?:is ruining|is destroying|is killing|has taken over|is wrecking|controls)\s`),
				// symptom-severity phrasing
				regexp.MustCompile(`(?:chronic|constant|severe|debilitating|persistent|unbearable|crippling)\s+([a-z][a-z' -]{2,30})`),
				// limitation phrasing
				regexp.MustCompile(`(?:i )?(?:can't|cannot|unable to)\s+(sleep|eat|work|focus|concentrate|exercise|leave the house|function|lose weight)`),
				regexp.MustCompile(`(?:so )?tired of\s+(?:my\s+|the\s+|this\s+|being\s+|feeling\s+)?([a-z][a-z' -]{2,40})`),
			},
		},
		Synonyms: map[string]string{
			"ibs":                      "IBS",
			"irritable bowel":          "IBS",
			"irritable bowel syndrome": "IBS",
			"bloat":                    "Bloating",
			"bloated":                  "Bloating",
			"bloating":                 "Bloating",
			"acid reflux":              "Acid Reflux",
			"reflux":                   "Acid Reflux",
			"heartburn":                "Acid Reflux",
			"gerd":                     "Acid Reflux",
			"brain fog":                "Brain Fog",
			"foggy":                    "Brain Fog",
			"insomnia":                 "Insomnia",
			"sleep":                    "Insomnia",
			"sleeplessness":            "Insomnia",
			"fatigue":                  "Fatigue",
			"exhaustion":               "Fatigue",
			"tiredness":                "Fatigue",
			"being tired":              "Fatigue",
			"anxiety":                  "Anxiety",
			"anxious":                  "Anxiety",
			"depression":               "Depression",
			"gut issues":               "Gut Issues",
			"gut problems":             "Gut Issues",
			"digestive issues":         "Gut Issues",
			"digestion":                "Gut Issues",
			"stomach issues":           "Gut Issues",
			"constipation":             "Constipation",
			"joint pain":               "Joint Pain",
			"migraines":                "Migraines",
			"migraine":                 "Migraines",
			"hair loss":                "Hair Loss",
			"weight":                   "Weight Struggles",
			"weight gain":              "Weight Struggles",
			"lose weight":              "Weight Struggles",
			"eczema":                   "Skin Issues",
			"acne":                     "Skin Issues",
			"psoriasis":                "Skin Issues",
		},
		EmotionalIndicators: []string{
			"frustrated", "desperate", "exhausted", "hopeless", "miserable",
			"crying", "fed up", "suffering", "embarrassed", "ashamed",
			"scared", "terrified", "depressed", "losing my mind",
			"ruining my life", "can't take it", "at my limit", "overwhelmed",
		},
		DesperationPatterns: []*regexp.Regexp{
			regexp.MustCompile(`at (?:my|your|her|his) wit'?s end`),
			regexp.MustCompile(`tried everything`),
			regexp.MustCompile(`nothing (?:works|helps|is working|has worked)`),
			regexp.MustCompile(`last resort`),
			regexp.MustCompile(`giv(?:e|ing) up`),
			regexp.MustCompile(`desperate for (?:help|answers|relief|anything)`),
			regexp.MustCompile(`out of (?:options|ideas)`),
			regexp.MustCompile(`doctors? (?:can't|couldn't|won't|don't) (?:help|figure|listen)`),
		},
		Symptoms: []SymptomEntry{
			{Name: "Bloating", Category: "physical", Variations: []string{"bloating", "bloated", "bloat"}},
			{Name: "Fatigue", Category: "physical", Variations: []string{"fatigue", "exhausted", "exhaustion", "tired all the time", "no energy", "drained"}},
			{Name: "Stomach Pain", Category: "physical", Variations: []string{"stomach pain", "abdominal pain", "stomach ache", "stomach cramps", "cramping"}},
			{Name: "Gas", Category: "physical", Variations: []string{"gassy", "flatulence", "trapped gas", "excessive gas"}},
			{Name: "Acid Reflux", Category: "physical", Variations: []string{"acid reflux", "heartburn", "gerd", "regurgitation"}},
			{Name: "Constipation", Category: "physical", Variations: []string{"constipation", "constipated", "can't go"}},
			{Name: "Diarrhea", Category: "physical", Variations: []string{"diarrhea", "loose stools", "urgency"}},
			{Name: "Nausea", Category: "physical", Variations: []string{"nausea", "nauseous", "queasy"}},
			{Name: "Headaches", Category: "physical", Variations: []string{"headache", "headaches", "migraine", "migraines"}},
			{Name: "Joint Pain", Category: "physical", Variations: []string{"joint pain", "aching joints", "stiff joints"}},
			{Name: "Skin Issues", Category: "physical", Variations: []string{"acne", "eczema", "rashes", "breakouts", "itchy skin", "psoriasis"}},
			{Name: "Insomnia", Category: "physical", Variations: []string{"insomnia", "can't sleep", "trouble sleeping", "waking up at night", "poor sleep"}},
			{Name: "Weight Changes", Category: "physical", Variations: []string{"weight gain", "gaining weight", "can't lose weight", "losing weight without trying"}},
			{Name: "Anxiety", Category: "emotional", Variations: []string{"anxiety", "anxious", "panic attacks", "constant worry"}},
			{Name: "Depression", Category: "emotional", Variations: []string{"depression", "depressed", "low mood", "hopeless"}},
			{Name: "Brain Fog", Category: "emotional", Variations: []string{"brain fog", "can't focus", "can't concentrate", "forgetful", "memory issues", "mental fog"}},
			{Name: "Irritability", Category: "emotional", Variations: []string{"irritable", "mood swings", "short fuse", "snapping at"}},
			{Name: "Stress", Category: "emotional", Variations: []string{"stressed out", "so stressed", "under stress", "burned out", "burnout"}},
			{Name: "Social Avoidance", Category: "lifestyle", Variations: []string{"avoid going out", "cancel plans", "stay home", "embarrassed in public", "afraid to go out"}},
			{Name: "Work Impact", Category: "lifestyle", Variations: []string{"missed work", "called in sick", "can't work", "affecting my job", "affecting my work"}},
			{Name: "Relationship Strain", Category: "lifestyle", Variations: []string{"affecting my relationship", "affecting my marriage", "partner doesn't understand"}},
			{Name: "Diet Restriction", Category: "lifestyle", Variations: []string{"elimination diet", "cut out foods", "afraid to eat", "scared to eat", "food fear"}},
			{Name: "Exercise Limitation", Category: "lifestyle", Variations: []string{"can't exercise", "stopped working out", "too tired to exercise"}},
		},
		RootCauses: PatternFamily{
			Name: "rootCauses",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(?:caused by|because of|due to|stems from|traced it (?:back )?to)\s+([^.!?\n]{5,80})`),
				regexp.MustCompile(`(?i)(?:the root cause|the real (?:cause|issue|problem)|the culprit)\s+(?:is|was|turned out to be)\s+([^.!?\n]{5,80})`),
				regexp.MustCompile(`(?i)turned out (?:to be|it was)\s+([^.!?\n]{5,80})`),
			},
		},
		FailedSolutions: PatternFamily{
			Name: "failedSolutions",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(?:tried|been on|was on|took|used)\s+([^.!?\n]{3,60}?)\s+(?:but|and)\s+(?:it\s+)?(?:didn'?t|did not|doesn'?t|never)\s+(?:work|help|do anything|make a difference)`),
				regexp.MustCompile(`(?i)([A-Za-z][^.!?\n]{2,50}?)\s+(?:didn'?t|did not|doesn'?t)\s+(?:work|help)(?:\s+(?:for me|at all))?`),
				regexp.MustCompile(`(?i)(?:tried|took|used)\s+([^.!?\n]{3,60}?)\s+(?:but|and)\s+nothing(?:'s)?\s+(?:worked|helped|works|helps)`),
				regexp.MustCompile(`(?i)wasted (?:money|years|months|so much)\s+on\s+([^.!?\n]{3,60})`),
			},
		},
		WorkingSolutions: PatternFamily{
			Name: "workingSolutions",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)what (?:finally|actually|really)?\s*(?:worked|helped|fixed it)(?: for me)?\s+(?:was|is)\s+([^.!?\n]{3,80})`),
				regexp.MustCompile(`(?i)([A-Za-z][^.!?\n]{2,60}?)\s+(?:finally|actually|completely|totally)\s+(?:worked|helped|fixed|cured|changed everything)`),
				regexp.MustCompile(`(?i)since (?:starting|taking|switching to|adding)\s+([^.!?\n]{3,60})`),
			},
		},
		Beliefs: PatternFamily{
			Name: "beliefs",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)i (?:think|believe|suspect|swear|am convinced)\s+(?:that\s+)?([^.!?\n]{5,100})`),
				regexp.MustCompile(`(?i)pretty sure\s+(?:that\s+)?([^.!?\n]{5,100})`),
				regexp.MustCompile(`(?i)it has to be\s+([^.!?\n]{5,80})`),
			},
		},
		Skepticisms: PatternFamily{
			Name: "skepticisms",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)doctors? (?:just|only|don'?t|won'?t|never)\s+([^.!?\n]{5,80})`),
				regexp.MustCompile(`(?i)(?:don'?t trust|sounds like|probably just)\s+((?:a\s+)?(?:scam|placebo|snake oil|marketing)[^.!?\n]{0,60})`),
				regexp.MustCompile(`(?i)(supplements? (?:are|is) (?:a )?(?:scam|waste of money)[^.!?\n]{0,40})`),
				regexp.MustCompile(`(?i)(big pharma [^.!?\n]{5,60})`),
			},
		},
		SymptomPhrases: PatternFamily{
			Name: "symptomPhrases",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(?:i feel like|it feels like)\s+[^.!?\n]{5,80}`),
				regexp.MustCompile(`(?i)every (?:morning|night|day) i\s+[^.!?\n]{5,80}`),
				regexp.MustCompile(`(?i)i wake up\s+[^.!?\n]{5,80}`),
			},
		},
		ProblemPhrases: PatternFamily{
			Name: "problemPhrases",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)i(?:'m| am) (?:so )?(?:sick|tired) of\s+[^.!?\n]{5,80}`),
				regexp.MustCompile(`(?i)i can'?t (?:even\s+)?[^.!?\n]{5,80} anymore`),
				regexp.MustCompile(`(?i)the worst part is\s+[^.!?\n]{5,80}`),
			},
		},
		DesirePhrases: PatternFamily{
			Name: "desirePhrases",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)i (?:just )?(?:wish|want)(?: to)?\s+[^.!?\n]{5,80}`),
				regexp.MustCompile(`(?i)if only\s+[^.!?\n]{5,80}`),
				regexp.MustCompile(`(?i)i would give anything\s+[^.!?\n]{3,80}`),
			},
		},
		ObjectionPhrases: PatternFamily{
			Name: "objectionPhrases",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(?:sounds? )?too good to be true[^.!?\n]{0,60}`),
				regexp.MustCompile(`(?i)i(?:'m| am) skeptical\s*[^.!?\n]{0,70}`),
				regexp.MustCompile(`(?i)worried about (?:the )?side effects[^.!?\n]{0,50}`),
				regexp.MustCompile(`(?i)i don'?t believe\s+[^.!?\n]{5,70}`),
			},
		},
		RootCauseSignal: regexp.MustCompile(`(?i)root cause|caused by|because of|due to|the real (?:cause|issue|reason)|culprit`),
		SolutionSignal:  regexp.MustCompile(`(?i)worked for me|finally (?:worked|helped)|fixed|cured|solved|huge improvement|game.?changer`),
		SymptomSignal:   regexp.MustCompile(`(?i)bloat|fatigue|tired|pain|ache|fog|insomnia|anxiety|cramp|nausea|reflux|headache`),
	}
}
