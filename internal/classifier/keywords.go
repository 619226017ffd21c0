package classifier

import "github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"

// KeywordTableVersion identifies the revision of the heuristic keyword tables.
// Bump it whenever the tables below change so stored reports can be correlated
// with the ruleset that produced them.
const KeywordTableVersion = 2

// phraseOverride maps a canned expression to a label with a fixed confidence.
type phraseOverride struct {
	phrase     string
	label      models.MentalState
	confidence float64
}

// phraseOverrides are checked before keyword scoring. Order matters: the first
// matching phrase wins.
var phraseOverrides = []phraseOverride{
	{"life feels amazing", models.StateHappy, 0.95},
	{"i feel amazing", models.StateHappy, 0.95},
	{"i feel great", models.StateHappy, 0.92},
	{"i feel good", models.StateHappy, 0.90},
	{"i feel hopeless", models.StateDepressed, 0.95},
	{"nothing matters", models.StateDepressed, 0.92},
	{"i can't calm", models.StateStressed, 0.95},
	{"i'm overwhelmed", models.StateStressed, 0.93},
	{"i am overwhelmed", models.StateStressed, 0.93},
	{"i don't know what to do", models.StateConfused, 0.85},
}

// keywordRule scores a label from a weighted keyword set. baseConfidence is the
// confidence reported when the rule wins.
type keywordRule struct {
	label          models.MentalState
	baseConfidence float64
	keywords       []weightedKeyword
}

// weightedKeyword is one substring signal. Keywords carrying punctuation are
// more specific and receive a scoring bonus (see punctuationBonus).
type weightedKeyword struct {
	term   string
	weight float64
}

// punctuationBonus is added to the weight of any keyword containing
// apostrophes or terminal punctuation, since such terms rarely match by accident.
const punctuationBonus = 0.5

// keywordRules is the fixed check list. Its order is the tie-break: when two
// labels score equally, the earlier rule wins. Intense negative categories come
// first so they are never shadowed by generic positive terms.
var keywordRules = []keywordRule{
	{
		label:          models.StateDepressed,
		baseConfidence: 0.90,
		keywords: []weightedKeyword{
			{"hopeless", 2}, {"depress", 2}, {"worthless", 2}, {"empty", 1.5},
			{"lonely", 1.5}, {"numb", 1.5}, {"cry", 1}, {"crying", 1.5},
			{"sad", 1}, {"low energy", 1.5},
		},
	},
	{
		label:          models.StateStressed,
		baseConfidence: 0.92,
		keywords: []weightedKeyword{
			{"panic attack", 2.5}, {"panic", 2}, {"anxiety", 2}, {"anxious", 2},
			{"can't calm", 2}, {"heart racing", 2}, {"overwhelmed", 1.5},
			{"overwhelming", 1.5}, {"worried", 1.5}, {"worry", 1}, {"nervous", 1.5},
			{"racing", 1}, {"stress", 1}, {"stressed", 1.5}, {"deadline", 1},
			{"pressure", 1}, {"burned out", 1.5}, {"burnout", 1.5}, {"tense", 1},
		},
	},
	{
		label:          models.StateAngry,
		baseConfidence: 0.88,
		keywords: []weightedKeyword{
			{"furious", 2}, {"rage", 2}, {"hate this", 2}, {"fed up", 1.5},
			{"angry", 1.5}, {"mad", 1}, {"annoyed", 1.5}, {"irritated", 1.5},
			{"frustrat", 1.5}, {"ridiculous", 1},
		},
	},
	{
		label:          models.StateExcited,
		baseConfidence: 0.90,
		keywords: []weightedKeyword{
			{"can't wait", 2}, {"thrilled", 2}, {"pumped", 1.5}, {"hyped", 1.5},
			{"excited", 1.5}, {"eager", 1.5}, {"energ", 1}, {"enthusiastic", 1.5},
		},
	},
	{
		label:          models.StateHappy,
		baseConfidence: 0.92,
		keywords: []weightedKeyword{
			{"happy", 1.5}, {"joy", 1.5}, {"grateful", 1.5}, {"blessed", 1.5},
			{"amazing", 1}, {"wonderful", 1.5}, {"perfect", 1}, {"great", 1},
			{"best", 1}, {"smile", 1}, {"smiling", 1.5}, {"success", 1},
			{"achievement", 1.5},
		},
	},
	{
		label:          models.StateConfused,
		baseConfidence: 0.78,
		keywords: []weightedKeyword{
			{"not sure", 1.5}, {"unsure", 1.5}, {"confus", 1.5}, {"uncertain", 1.5},
			{"don't know", 1.5}, {"can't decide", 2}, {"what should", 1.5},
			{"should i", 1}, {"mixed feelings", 1.5}, {"need clarity", 1.5},
			{"maybe", 1},
		},
	},
	{
		label:          models.StateNeutral,
		baseConfidence: 0.75,
		keywords: []weightedKeyword{
			{"fine", 1}, {"okay", 1}, {"normal day", 1.5}, {"routine", 1},
			{"chill", 1}, {"calm", 1}, {"neutral", 1.5}, {"just here", 1},
			{"doing ok", 1.5},
		},
	},
}

// acknowledgments are canonical short replies that carry no emotional signal.
// Unmatched text outside this set defaults to confused/uncertain, never to
// neutral/calm, so substantive content is not quietly flattened.
var acknowledgments = map[string]bool{
	"ok": true, "okay": true, "k": true, "kk": true,
	"yes": true, "no": true, "yep": true, "nope": true, "yeah": true,
	"sure": true, "thanks": true, "thank you": true, "fine": true,
}

// normalizationMap maps shorthand tokens from LLM output to canonical labels.
// Checked by substring after an exact-label match fails.
var normalizationMap = []struct {
	token string
	label models.MentalState
}{
	{"happy", models.StateHappy},
	{"positive", models.StateHappy},
	{"joy", models.StateHappy},
	{"grateful", models.StateHappy},
	{"blessed", models.StateHappy},
	{"amazing", models.StateHappy},
	{"great", models.StateHappy},
	{"excited", models.StateExcited},
	{"energetic", models.StateExcited},
	{"anxious", models.StateStressed},
	{"anxiety", models.StateStressed},
	{"stressed", models.StateStressed},
	{"panic", models.StateStressed},
	{"worried", models.StateStressed},
	{"depress", models.StateDepressed},
	{"sad", models.StateDepressed},
	{"hopeless", models.StateDepressed},
	{"angry", models.StateAngry},
	{"frustrat", models.StateAngry},
	{"irritated", models.StateAngry},
	{"neutral", models.StateNeutral},
	{"calm", models.StateNeutral},
	{"confused", models.StateConfused},
	{"uncertain", models.StateConfused},
	{"unsure", models.StateConfused},
}

// normalizationPhrases maps canned expressions occasionally echoed back by the
// LLM instead of a label.
var normalizationPhrases = []struct {
	phrase string
	label  models.MentalState
}{
	{"life feels amazing", models.StateHappy},
	{"i feel amazing", models.StateHappy},
	{"i feel great", models.StateHappy},
	{"i feel good", models.StateHappy},
	{"i can't calm", models.StateStressed},
	{"i'm overwhelmed", models.StateStressed},
	{"i am overwhelmed", models.StateStressed},
	{"i'm hopeless", models.StateDepressed},
	{"i don't know what to do", models.StateConfused},
}
