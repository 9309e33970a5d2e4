package companion

import (
	"regexp"
	"strings"

	"github.com/ashureev/mindbloom/internal/domain"
)

// moodRule is one row of the classification table. Rules are evaluated in
// order and the first matching predicate wins.
type moodRule struct {
	tag            domain.MoodTag
	acknowledgment string
	matches        func(lower string) bool
}

func anyOf(patterns ...*regexp.Regexp) func(string) bool {
	return func(s string) bool {
		for _, p := range patterns {
			if p.MatchString(s) {
				return true
			}
		}
		return false
	}
}

func allOf(preds ...func(string) bool) func(string) bool {
	return func(s string) bool {
		for _, p := range preds {
			if !p(s) {
				return false
			}
		}
		return true
	}
}

var (
	workTerms        = regexp.MustCompile(`\b(job|work|employment|career)\b`)
	lossTerms        = regexp.MustCompile(`\b(lost|loss|fired|laid off|unemployed)\b`)
	endedTerms       = regexp.MustCompile(`\b(no longer|don't have|let go)\b`)
	moneyTerms       = regexp.MustCompile(`\b(business|money|finance|financial|loss|lost|invest|investment|debt)\b`)
	bareAmount       = regexp.MustCompile(`\b(\d{4,})\b`)
	stressTerms      = regexp.MustCompile(`\b(stress|stressed|overwhelmed|pressure|deadline|exam|test)\b`)
	anxietyTerms     = regexp.MustCompile(`\b(anxious|anxiety|worry|worried|nervous|panic|scared)\b`)
	sadnessTerms     = regexp.MustCompile(`\b(sad|lonely|depressed|down|blue|empty|crying)\b`)
	frustrationTerms = regexp.MustCompile(`\b(angry|mad|frustrated|annoyed|irritated)\b`)
)

const neutralAcknowledgment = "Thank you for sharing. I'm here to support you."

// moodRules is the precedence table. job_loss must stay ahead of
// financial_stress since both match "lost". The bare 4+ digit number
// heuristic also fires on years and ids; that false positive is known.
var moodRules = []moodRule{
	{
		tag:            domain.MoodJobLoss,
		acknowledgment: "Losing a job is a major life transition that affects many aspects of life.",
		matches:        allOf(anyOf(workTerms), anyOf(lossTerms, endedTerms)),
	},
	{
		tag:            domain.MoodFinancialStress,
		acknowledgment: "That sounds like a significant financial pressure. It's understandable to feel this way.",
		matches:        anyOf(moneyTerms, bareAmount),
	},
	{
		tag:            domain.MoodStress,
		acknowledgment: "It sounds like you're carrying a lot right now. That's completely valid.",
		matches:        anyOf(stressTerms),
	},
	{
		tag:            domain.MoodAnxiety,
		acknowledgment: "Feeling anxious can be really tough. I'm here to listen.",
		matches:        anyOf(anxietyTerms),
	},
	{
		tag:            domain.MoodSadness,
		acknowledgment: "I'm sorry you're feeling this way. Your feelings matter.",
		matches:        anyOf(sadnessTerms),
	},
	{
		tag:            domain.MoodFrustration,
		acknowledgment: "It's okay to feel frustrated. Let's work through this together.",
		matches:        anyOf(frustrationTerms),
	},
}

// MoodClassifier maps a message to a single mood tag.
type MoodClassifier struct {
	rules []moodRule
}

// NewMoodClassifier returns a classifier over the built-in rule table.
func NewMoodClassifier() *MoodClassifier {
	return &MoodClassifier{rules: moodRules}
}

// Assess classifies message. recent is accepted so callers can pass history,
// but classification currently depends only on message.
func (c *MoodClassifier) Assess(message string, recent []domain.Message) domain.MoodResult {
	_ = recent
	lower := strings.ToLower(message)
	for _, rule := range c.rules {
		if rule.matches(lower) {
			return domain.MoodResult{Tag: rule.tag, Acknowledgment: rule.acknowledgment}
		}
	}
	return domain.MoodResult{Tag: domain.MoodNeutral, Acknowledgment: neutralAcknowledgment}
}
