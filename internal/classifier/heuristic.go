package classifier

import (
	"strings"
	"unicode"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
)

// Signal boost weights applied on top of keyword scores.
const (
	exclamationBoost = 0.75
	questionBoost    = 0.75
	ellipsisBoost    = 0.5
	allCapsBoost     = 1.0
	// confidenceBump is added to the winning rule's base confidence per
	// supporting punctuation signal, before clamping.
	confidenceBump = 0.02
)

// heuristicPredict classifies text with the versioned keyword tables. It is the
// deterministic fallback used when the LLM path fails or returns an
// unrecognizable label. It always produces a valid classification.
func heuristicPredict(text string) models.Classification {
	t := strings.ToLower(strings.TrimSpace(text))

	for _, p := range phraseOverrides {
		if strings.Contains(t, p.phrase) {
			return models.Classification{
				Prediction: p.label,
				Confidence: models.ClampConfidence(p.confidence),
			}
		}
	}

	exclaims := strings.Count(t, "!")
	questions := strings.Count(t, "?")
	hasEllipsis := strings.Contains(t, "...") || strings.Contains(t, "…")
	shouting := isAllCaps(text)

	scores := make(map[models.MentalState]float64, len(keywordRules))
	signals := 0
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if !strings.Contains(t, kw.term) {
				continue
			}
			w := kw.weight
			if strings.ContainsAny(kw.term, "'!?") {
				w += punctuationBonus
			}
			scores[rule.label] += w
		}
	}

	// Acknowledgments are decided before punctuation boosts so that "yes!"
	// stays neutral instead of reading as excitement.
	if len(scores) == 0 && acknowledgments[strings.Trim(t, ".!? ")] {
		return models.Classification{Prediction: models.StateNeutral, Confidence: models.MinConfidence}
	}

	// Exclamation and all-caps signals read as anger only when a negative
	// keyword already scored; on their own they read as excitement.
	angryKeywords := scores[models.StateAngry] > 0
	if exclaims > 0 {
		scores[models.StateExcited] += exclamationBoost
		if angryKeywords {
			scores[models.StateAngry] += 2 * exclamationBoost
		}
		signals++
	}
	if questions > 0 {
		scores[models.StateConfused] += questionBoost
		signals++
	}
	if hasEllipsis {
		scores[models.StateDepressed] += ellipsisBoost
		scores[models.StateConfused] += ellipsisBoost
		signals++
	}
	if shouting {
		scores[models.StateExcited] += allCapsBoost
		if angryKeywords {
			scores[models.StateAngry] += 2 * allCapsBoost
		}
		signals++
	}

	best, matched := pickBest(scores)
	if !matched {
		// Substantive text with no signal at all defaults to confused, never
		// to neutral: unknown content must not be flattened into calm.
		return models.Classification{Prediction: models.StateConfused, Confidence: models.MinConfidence}
	}

	conf := baseConfidence(best) + float64(signals)*confidenceBump
	return models.Classification{Prediction: best, Confidence: models.ClampConfidence(conf)}
}

// pickBest returns the highest-scoring label; ties resolve to the rule listed
// first in keywordRules (a fixed, reproducible tie-break).
func pickBest(scores map[models.MentalState]float64) (models.MentalState, bool) {
	var best models.MentalState
	bestScore := 0.0
	for _, rule := range keywordRules {
		if s := scores[rule.label]; s > bestScore {
			bestScore = s
			best = rule.label
		}
	}
	return best, bestScore > 0
}

func baseConfidence(label models.MentalState) float64 {
	for _, rule := range keywordRules {
		if rule.label == label {
			return rule.baseConfidence
		}
	}
	return models.MinConfidence
}

// isAllCaps reports whether text reads as shouting: at least four letters and
// no lowercase among them.
func isAllCaps(text string) bool {
	letters := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return letters >= 4
}
