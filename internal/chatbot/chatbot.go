// Package chatbot implements the supportive chat surface. It layers crisis
// detection and canned responses around the LLM so the endpoint always
// produces a caring reply, even with no working model behind it.
package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"regexp"
	"strings"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/genai"
)

const systemPrompt = "You are a compassionate mental health assistant."

// crisisKeywords trigger the fixed crisis response and suppress the LLM.
// Matching is case-insensitive substring.
var crisisKeywords = []string{
	"suicide", "kill myself", "end my life",
	"can't go on", "self harm", "hurt myself",
}

// crisisResponse carries the Sri Lankan hotline numbers. It is the only reply
// allowed to contain hotline text.
const crisisResponse = "I'm really concerned about you. You don't have to go through this alone, " +
	"sometimes sharing what you feel can lighten the weight a little. " +
	"It may help to do something simple like reaching out to a trusted friend or stepping outside for fresh air.\n\n" +
	"If you're thinking about suicide or self-harm, please call **Sumithrayo Hotline (011 2 682 682)** " +
	"or **Sri Lanka College of Psychiatrists Helpline (071 722 5222)** for immediate support.\n\n" +
	"You are stronger than you think, and better days can still come."

// simpleResponses answer greetings and goodbyes without touching the LLM.
// The exact (lowercased, trimmed) message must match a key; one variant is
// picked at random.
var simpleResponses = map[string][]string{
	"hi": {
		"**HELLO!** How can I support you today?",
		"**HI THERE!** Hope your day is going okay.",
		"**HEY FRIEND!** How are you feeling right now?",
	},
	"hello": {
		"**HI THERE!** I'm here to listen.",
		"**HELLO!** Glad you reached out today.",
		"**HEY!** How are things going for you?",
	},
	"hey": {
		"**HEY!** How are you feeling?",
		"**HI!** I'm here for you.",
		"**HEY FRIEND!** Want to share what's on your mind?",
	},
	"bye": {
		"**TAKE CARE!** Remember you're not alone.",
		"**GOODBYE!** Wishing you peace and comfort.",
		"**BYE FOR NOW!** Reach out anytime.",
	},
	"goodbye": {
		"**BE WELL!** Reach out anytime.",
		"**GOODBYE!** You're stronger than you think.",
		"**SEE YOU SOON!** Take good care of yourself.",
	},
	"thanks": {
		"**YOU'RE WELCOME!** I'm here if you need more support.",
		"**ANYTIME!** I'm glad to be here for you.",
		"**OF COURSE!** You're not alone in this.",
	},
}

// fallbackKeywords fixes the check order for fallbackResponses so a message
// matching several concerns ("sad and depressed") always resolves the same way.
var fallbackKeywords = []string{
	"sad", "anxious", "stressed", "depressed", "angry",
	"lonely", "overwhelmed", "helpless", "hopeless",
}

// fallbackResponses serve when the LLM is unavailable or failing, keyed by
// concern keywords found in the message.
var fallbackResponses = map[string][]string{
	"sad": {
		"It's okay to feel sad sometimes. Sadness is a natural emotion, and acknowledging it is an important first step. Have you thought about what might help lift your spirits? Sometimes even a small change, like taking a walk or talking to someone you trust, can make a difference.",
		"I hear that you're feeling sad. That takes courage to share. Remember, this feeling is temporary, and you have strength within you to get through this. Is there someone you care about that you could reach out to?",
	},
	"anxious": {
		"Anxiety can feel overwhelming, but you're not alone in feeling this way. Try taking deep breaths, breathing slowly can help calm your nervous system. Focus on what you can control right now, and remember that this feeling will pass.",
		"Feeling anxious is tough, but there are things that can help. Try breaking down what's worrying you into smaller pieces. Sometimes taking it one step at a time makes it feel more manageable. You've got this!",
	},
	"stressed": {
		"Stress can be really heavy. When you're feeling overwhelmed, it helps to pause and take care of yourself. Even small acts like drinking water, stretching, or stepping outside can make a difference. What's one thing you could do right now to ease some of that stress?",
		"You're carrying a lot right now, and that's understandable. Remember to be kind to yourself. Breaking your tasks into smaller pieces or asking for help isn't weakness. You're doing better than you think.",
	},
	"depressed": {
		"Depression is a real struggle, and I'm glad you're reaching out. It might not feel like it right now, but things can get better. Have you considered talking to someone, a friend, family member, or counselor? Sometimes sharing the load makes it lighter.",
		"What you're feeling matters, and you matter too. Depression can make everything feel hopeless, but that's the depression talking, not the truth. Consider doing one small thing today that brings you even a tiny bit of comfort.",
	},
	"angry": {
		"It's okay to feel angry, that's a valid emotion. When you're feeling this way, try giving yourself permission to feel it without judgment. Sometimes expressing it through exercise, writing, or talking helps. What do you think might help you right now?",
		"Anger often comes from pain or feeling unheard. Both of those things are real. Try taking some space if you need it, or find a constructive way to express what you're feeling. You deserve to be heard.",
	},
	"lonely": {
		"Loneliness is painful, and I'm glad you're reaching out, even here. Remember that you're not truly alone, others care about you, even if they're not right beside you now. Could you reach out to someone today, even just to say hello?",
		"Feeling lonely is so hard. One thing that might help is reaching out to someone, even a short message to a friend can create connection. You deserve companionship and support. Is there someone you could talk to?",
	},
	"overwhelmed": {
		"When everything feels like too much, it helps to slow down and take things one at a time. You don't have to handle everything right now. What's the ONE thing you could focus on today? Start there.",
		"Feeling overwhelmed means you care deeply about things, but it also means it's time to pause. You can't pour from an empty cup. What's one thing you could let go of or ask for help with?",
	},
	"helpless": {
		"Feeling helpless is incredibly difficult. But here's the thing: you reaching out shows you still have power. Even if things feel out of control, there's usually something small you can do. What's one small thing you could try?",
		"You're not as helpless as you feel right now. Despair can make us believe that, but it's not true. You have more strength than you realize. What would help you see that?",
	},
	"hopeless": {
		"Hopelessness is a heavy weight to carry. But despair can be a liar, it makes us believe things are impossible when they're not. Would you be willing to reach out to someone who cares about you? You deserve support.",
		"I know things feel dark right now, but darkness is not permanent. Hope might feel far away, but it exists. Please reach out to someone, a friend, family member, or counselor. You matter, and this matters.",
	},
}

var genericFallbacks = []string{
	"Thank you for sharing with me. It sounds like you're going through something meaningful right now. I'm here to listen and support you however I can. What matters most to you at this moment?",
	"I appreciate you opening up. Your feelings are valid and important. While I'm here to listen, please remember that talking to someone you trust, a friend, family, or professional, can also be really helpful.",
	"You've reached out, and that's important. I want to support you as best as I can. Is there something specific that's on your mind that you'd like to talk about?",
}

// hotlinePattern matches hotline fragments that must not leak into
// non-crisis replies.
var hotlinePattern = regexp.MustCompile(`(?i)(Sumithrayo.*?\d+|Psychiatrists.*?\d+|Helpline.*?\d+)`)

// positivePhrases mark a reply as already ending on an encouraging note.
var positivePhrases = []string{"remember", "you can", "try", "hope", "suggestion"}

const encouragingSuffix = " Remember, small steps can make a big difference."

// intentEntry pairs a dataset tag with its canned advice. Entries keep the
// dataset file's order so the first matching tag wins deterministically.
type intentEntry struct {
	tag    string
	advice string
}

// Bot generates supportive chat replies. A nil LLM client degrades to the
// canned fallback set; Respond never returns an error.
type Bot struct {
	genaiClient genai.ClientInterface
	dataset     []intentEntry
}

// Opts holds configuration options for a Bot.
type Opts struct {
	DatasetPath string
}

// Option configures a Bot.
type Option func(*Opts)

// WithDatasetPath points the bot at a JSON intent dataset. Tags found in the
// user's message merge the tag's first canned response into the LLM prompt.
func WithDatasetPath(path string) Option {
	return func(o *Opts) { o.DatasetPath = path }
}

// New creates a Bot. genaiClient may be nil to run canned-responses only.
func New(genaiClient genai.ClientInterface, opts ...Option) *Bot {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	b := &Bot{genaiClient: genaiClient}
	if cfg.DatasetPath != "" {
		dataset, err := loadDataset(cfg.DatasetPath)
		if err != nil {
			slog.Warn("Bot.New: intent dataset unavailable", "path", cfg.DatasetPath, "error", err)
		} else {
			b.dataset = dataset
			slog.Info("Bot.New: intent dataset loaded", "path", cfg.DatasetPath, "tags", len(dataset))
		}
	}
	return b
}

// loadDataset reads a tag/responses intent file and keeps the first response
// per tag, preserving file order.
func loadDataset(path string) ([]intentEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	var parsed struct {
		Intents []struct {
			Tag       string   `json:"tag"`
			Responses []string `json:"responses"`
		} `json:"intents"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	dataset := make([]intentEntry, 0, len(parsed.Intents))
	for _, intent := range parsed.Intents {
		if intent.Tag != "" && len(intent.Responses) > 0 {
			dataset = append(dataset, intentEntry{tag: intent.Tag, advice: intent.Responses[0]})
		}
	}
	return dataset, nil
}

// Respond produces a reply for the user's message. The reply path is, in
// order: simple responses, crisis detection, the LLM, canned fallbacks.
func (b *Bot) Respond(ctx context.Context, message string) string {
	normalized := strings.ToLower(strings.TrimSpace(message))

	if variants, ok := simpleResponses[normalized]; ok {
		return variants[rand.IntN(len(variants))]
	}

	if containsCrisis(normalized) {
		slog.Warn("Bot.Respond: crisis keywords detected")
		return crisisResponse
	}

	if b.genaiClient != nil {
		reply, err := b.genaiClient.GeneratePrompt(ctx, systemPrompt, b.buildPrompt(message, normalized))
		if err == nil {
			return cleanResponse(reply, false)
		}
		slog.Warn("Bot.Respond: LLM failed, using fallback", "error", err)
	}

	return fallbackResponse(normalized)
}

// buildPrompt assembles the LLM prompt: empathy framing, the user's message,
// any matching intent advice, and the response requirements.
func (b *Bot) buildPrompt(message, normalized string) string {
	parts := []string{
		"As a mental health support assistant, respond with empathy and care:",
		fmt.Sprintf("User's message: %q", message),
	}
	for _, entry := range b.dataset {
		if strings.Contains(normalized, strings.ToLower(entry.tag)) {
			parts = append(parts, "Relevant information: "+entry.advice)
			break
		}
	}
	parts = append(parts,
		"Requirements:",
		"- Start with an encouraging sentence",
		"- Use a warm, friendly tone",
		"- Avoid medical jargon",
		"- Give practical, everyday suggestions",
		"- Keep responses under 200 words",
		"- End with a hopeful note",
		"Note: Do not mention being AI or use AI terminology",
	)
	return strings.Join(parts, "\n")
}

func containsCrisis(normalized string) bool {
	for _, kw := range crisisKeywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

// cleanResponse normalizes raw LLM output: strips any "AI:" prefix and
// surrounding quotes, uppercases the opening sentence, removes hotline
// fragments outside crisis mode, and appends an encouraging line when the
// reply lacks one.
func cleanResponse(text string, crisisMode bool) string {
	if idx := strings.LastIndex(text, "AI:"); idx >= 0 {
		text = text[idx+len("AI:"):]
	}
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"'`)

	if first, rest, found := strings.Cut(text, "\n"); found {
		text = strings.ToUpper(first) + "\n" + rest
	} else if first, rest, found := strings.Cut(text, ". "); found {
		text = strings.ToUpper(strings.TrimSpace(first)) + ". " + strings.TrimSpace(rest)
	}

	if !crisisMode {
		text = hotlinePattern.ReplaceAllString(text, "")
	}

	lower := strings.ToLower(text)
	hasPositive := false
	for _, phrase := range positivePhrases {
		if strings.Contains(lower, phrase) {
			hasPositive = true
			break
		}
	}
	if !hasPositive {
		text += encouragingSuffix
	}
	return strings.TrimSpace(text)
}

// fallbackResponse picks a canned reply matching a concern keyword, else a
// generic listening reply.
func fallbackResponse(normalized string) string {
	for _, keyword := range fallbackKeywords {
		if strings.Contains(normalized, keyword) {
			variants := fallbackResponses[keyword]
			return variants[rand.IntN(len(variants))]
		}
	}
	return genericFallbacks[rand.IntN(len(genericFallbacks))]
}
