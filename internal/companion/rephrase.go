package companion

import (
	"math/rand/v2"
	"strings"

	"github.com/ashureev/mindbloom/internal/domain"
)

// Chooser returns an index in [0, n). Production uses a uniform generator;
// tests inject a deterministic one.
type Chooser func(n int) int

// UniformChooser picks uniformly at random with no seeding contract.
func UniformChooser(n int) int {
	return rand.IntN(n)
}

// phraseSwap replaces the first occurrence of phrase with one alternative.
type phraseSwap struct {
	phrase       string
	alternatives []string
}

var phraseSwaps = []phraseSwap{
	{
		phrase: "I hear you",
		alternatives: []string{
			"That sounds really challenging",
			"This must be difficult for you",
			"I can imagine how hard this feels",
			"That's a tough situation to be in",
		},
	},
	{
		phrase: "I'm here to support you",
		alternatives: []string{
			"You're not alone in this",
			"I'm here with you through this",
			"You have support right now",
			"Let's work through this together",
		},
	},
	{
		phrase: "grounding exercise",
		alternatives: []string{
			"Let's try a brief mindfulness exercise together",
			"Would you like to do a short sensory check-in?",
			"We could try a quick body scan exercise",
			"How about a brief breathing exercise?",
		},
	},
}

var jobLossRephrasings = []string{
	"Losing a job can be a significant blow to both finances and self-esteem.",
	"Job loss affects so many aspects of life - it's understandable to feel this way.",
	"This transition is tough, but it doesn't define your worth or capabilities.",
}

const (
	jobLossFollowUp    = "What was most meaningful to you about your previous work?"
	normalizingPostfix = " This is a normal reaction to a difficult situation."
)

var wrapTemplates = []func(original string) string{
	func(o string) string { return "Understandably, " + o },
	func(o string) string { return "It makes sense that " + strings.ToLower(o) },
	func(o string) string { return "I can see how " + strings.ToLower(o) },
	func(o string) string { return o + normalizingPostfix },
}

// Rephraser produces novel-looking text for an already used response.
type Rephraser struct {
	choose Chooser
}

// NewRephraser returns a rephraser. A nil chooser falls back to UniformChooser.
func NewRephraser(choose Chooser) *Rephraser {
	if choose == nil {
		choose = UniformChooser
	}
	return &Rephraser{choose: choose}
}

// Rephrase rewrites original. Phrase swaps apply in order and may all fire
// on the same text. A job-loss mention in the original text replaces the
// whole result. Text no swap touched is wrapped in one of four templates.
// The follow-up is kept unless the job-loss override applies.
func (r *Rephraser) Rephrase(original domain.Reply, mood domain.MoodResult) domain.Reply {
	_ = mood
	rephrased := original.Response

	for _, swap := range phraseSwaps {
		if strings.Contains(rephrased, swap.phrase) {
			alt := swap.alternatives[r.choose(len(swap.alternatives))]
			rephrased = strings.Replace(rephrased, swap.phrase, alt, 1)
		}
	}

	if strings.Contains(original.Response, "lost job") || strings.Contains(original.Response, "job loss") {
		return domain.Reply{
			Response: jobLossRephrasings[r.choose(len(jobLossRephrasings))],
			FollowUp: jobLossFollowUp,
		}
	}

	if rephrased == original.Response {
		rephrased = wrapTemplates[r.choose(len(wrapTemplates))](original.Response)
	}

	return domain.Reply{Response: rephrased, FollowUp: original.FollowUp}
}
