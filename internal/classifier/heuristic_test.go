package classifier

import (
	"testing"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
)

func TestHeuristic_PhraseOverrides(t *testing.T) {
	cases := []struct {
		text string
		want models.MentalState
	}{
		{"honestly life feels amazing right now", models.StateHappy},
		{"I feel hopeless about all of it", models.StateDepressed},
		{"i can't calm down at all", models.StateStressed},
		{"I don't know what to do anymore", models.StateConfused},
	}
	for _, tc := range cases {
		got := heuristicPredict(tc.text)
		if got.Prediction != tc.want {
			t.Errorf("%q: expected %s, got %s", tc.text, tc.want, got.Prediction)
		}
	}
}

func TestHeuristic_KeywordScoring(t *testing.T) {
	cases := []struct {
		text string
		want models.MentalState
	}{
		{"had a panic attack on the bus", models.StateStressed},
		{"I am so furious with them", models.StateAngry},
		{"can't wait for the trip, so thrilled", models.StateExcited},
		{"feeling grateful and blessed today", models.StateHappy},
		{"just a normal day, nothing special", models.StateNeutral},
		{"crying all night, feel so empty and lonely", models.StateDepressed},
	}
	for _, tc := range cases {
		got := heuristicPredict(tc.text)
		if got.Prediction != tc.want {
			t.Errorf("%q: expected %s, got %s", tc.text, tc.want, got.Prediction)
		}
	}
}

func TestHeuristic_AllCapsExclamation(t *testing.T) {
	// No negative keywords: shouting plus exclamations reads as excitement.
	got := heuristicPredict("I CAN'T BELIEVE THIS!!!")
	if got.Prediction != models.StateExcited {
		t.Errorf("expected excited/energetic, got %s", got.Prediction)
	}

	// With an anger keyword present, the same signals read as anger.
	got = heuristicPredict("I HATE THIS SO MUCH!!!")
	if got.Prediction != models.StateAngry {
		t.Errorf("expected angry/frustrated, got %s", got.Prediction)
	}
}

func TestHeuristic_UnknownSubstantiveTextIsConfused(t *testing.T) {
	// The anti-bias rule: substantive unmatched text never defaults to neutral.
	got := heuristicPredict("the weather report mentioned rain tomorrow")
	if got.Prediction != models.StateConfused {
		t.Errorf("expected confused/uncertain default, got %s", got.Prediction)
	}
	if got.Confidence != models.MinConfidence {
		t.Errorf("expected confidence %.2f, got %.2f", models.MinConfidence, got.Confidence)
	}
}

func TestHeuristic_AcknowledgmentsAreNeutral(t *testing.T) {
	for _, text := range []string{"okay", "yes!", "yeah", "thanks", "sure."} {
		got := heuristicPredict(text)
		if got.Prediction != models.StateNeutral {
			t.Errorf("%q: expected neutral/calm, got %s", text, got.Prediction)
		}
	}
}

func TestHeuristic_ConfidenceAlwaysInRange(t *testing.T) {
	inputs := []string{
		"", "hmm", "panic panic panic!!! WORRIED", "great great great great",
		"why why why??? ...", "AMAZING DAY!!!", "maybe", "fed up with everything",
	}
	for _, text := range inputs {
		got := heuristicPredict(text)
		if got.Confidence < models.MinConfidence || got.Confidence > models.MaxConfidence {
			t.Errorf("%q: confidence %.2f out of range", text, got.Confidence)
		}
	}
}

func TestHeuristic_EndToEndWindowScenario(t *testing.T) {
	// The classic four-message window; the aggregator over these should land
	// on depressed/sad via a 2/4 share.
	cases := []struct {
		text    string
		allowed []models.MentalState
	}{
		{"I feel hopeless", []models.MentalState{models.StateDepressed}},
		{"nothing matters", []models.MentalState{models.StateDepressed}},
		{"maybe things will get better", []models.MentalState{models.StateConfused, models.StateHappy}},
	}
	for _, tc := range cases {
		got := heuristicPredict(tc.text)
		ok := false
		for _, want := range tc.allowed {
			if got.Prediction == want {
				ok = true
			}
		}
		if !ok {
			t.Errorf("%q: got %s, want one of %v", tc.text, got.Prediction, tc.allowed)
		}
	}
}
