package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
)

// stubGenAI implements genai.ClientInterface with canned output.
type stubGenAI struct {
	json  string
	err   error
	calls int
}

func (s *stubGenAI) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.json, s.err
}

func (s *stubGenAI) GenerateJSON(ctx context.Context, userPrompt string, temperature float64, maxTokens int64) (string, error) {
	s.calls++
	return s.json, s.err
}

func TestClassify_ShortInputSkipsLLM(t *testing.T) {
	stub := &stubGenAI{json: `{"prediction":"angry/frustrated","confidence":0.9}`}
	c := New(stub)
	for _, input := range []string{"", " ", "ok", "no", "!", "  a  "} {
		got := c.Classify(context.Background(), input)
		if got.Prediction != models.StateNeutral {
			t.Errorf("input %q: expected neutral/calm, got %s", input, got.Prediction)
		}
		if got.Confidence != models.MinConfidence {
			t.Errorf("input %q: expected confidence %.2f, got %.2f", input, models.MinConfidence, got.Confidence)
		}
	}
	if stub.calls != 0 {
		t.Errorf("expected no LLM calls for short inputs, got %d", stub.calls)
	}
}

func TestClassify_LLMDirectJSON(t *testing.T) {
	stub := &stubGenAI{json: `{"prediction":"depressed/sad","confidence":0.88}`}
	c := New(stub)
	got := c.Classify(context.Background(), "everything feels pointless lately")
	if got.Prediction != models.StateDepressed {
		t.Errorf("expected depressed/sad, got %s", got.Prediction)
	}
	if got.Confidence != 0.88 {
		t.Errorf("expected confidence 0.88, got %.2f", got.Confidence)
	}
}

func TestClassify_WrappedJSONRecovered(t *testing.T) {
	stub := &stubGenAI{json: "Sure! Here is the verdict:\n" + `{"prediction":"stressed/anxious","confidence":0.91}` + "\nHope that helps."}
	c := New(stub)
	got := c.Classify(context.Background(), "so much pressure at work")
	if got.Prediction != models.StateStressed {
		t.Errorf("expected stressed/anxious, got %s", got.Prediction)
	}
}

func TestClassify_ConfidenceClamped(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{`{"prediction":"happy/positive","confidence":0.2}`, 0.70},
		{`{"prediction":"happy/positive","confidence":1.7}`, 1.00},
	}
	for _, tc := range cases {
		c := New(&stubGenAI{json: tc.raw})
		got := c.Classify(context.Background(), "today was truly wonderful")
		if got.Confidence != tc.want {
			t.Errorf("raw %s: expected confidence %.2f, got %.2f", tc.raw, tc.want, got.Confidence)
		}
	}
}

func TestClassify_ShorthandLabelNormalized(t *testing.T) {
	stub := &stubGenAI{json: `{"prediction":"Anxious","confidence":0.8}`}
	c := New(stub)
	got := c.Classify(context.Background(), "my heart is racing before the exam")
	if got.Prediction != models.StateStressed {
		t.Errorf("expected stressed/anxious, got %s", got.Prediction)
	}
}

func TestClassify_UnrecognizedLabelFallsBack(t *testing.T) {
	stub := &stubGenAI{json: `{"prediction":"melancholic","confidence":0.8}`}
	c := New(stub)
	got := c.Classify(context.Background(), "i feel hopeless")
	if got.Prediction != models.StateDepressed {
		t.Errorf("expected heuristic depressed/sad, got %s", got.Prediction)
	}
}

func TestClassify_LLMErrorRetriesOnceThenFallsBack(t *testing.T) {
	stub := &stubGenAI{err: errors.New("rate limited")}
	c := New(stub)
	got := c.Classify(context.Background(), "i am so worried about everything")
	if stub.calls != 2 {
		t.Errorf("expected exactly 2 LLM attempts, got %d", stub.calls)
	}
	if got.Prediction != models.StateStressed {
		t.Errorf("expected heuristic stressed/anxious, got %s", got.Prediction)
	}
}

func TestClassify_NilClientUsesHeuristic(t *testing.T) {
	c := New(nil)
	got := c.Classify(context.Background(), "i feel hopeless")
	if got.Prediction != models.StateDepressed {
		t.Errorf("expected depressed/sad, got %s", got.Prediction)
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{`prefix {"a":{"b":2}} suffix`, `{"a":{"b":2}}`, true},
		{`text with "quoted {" inside: {"a":"}"}`, `{"a":"}"}`, true},
		{`no object here`, ``, false},
		{`{"unterminated":`, ``, false},
	}
	for _, tc := range cases {
		got, ok := extractJSONObject(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Errorf("extractJSONObject(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNormalizePrediction(t *testing.T) {
	cases := []struct {
		in   string
		want models.MentalState
		ok   bool
	}{
		{"happy/positive", models.StateHappy, true},
		{" Depressed/Sad ", models.StateDepressed, true},
		{"the user seems anxious", models.StateStressed, true},
		{"i don't know what to do", models.StateConfused, true},
		{"quantum flux", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := normalizePrediction(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("normalizePrediction(%q) = (%s, %v), want (%s, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
