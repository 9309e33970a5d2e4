package companion

import (
	"strings"

	"github.com/ashureev/mindbloom/internal/domain"
)

// crisisPhrases are matched as plain substrings of the lower-cased message.
// Matching is intentionally not word-aware: "suicidey" still escalates.
var crisisPhrases = []string{
	"want to die", "kill myself", "end it all", "don't want to live",
	"suicide", "hurt myself", "self harm", "cut myself",
	"can't do this anymore", "give up", "nothing matters",
}

// SafetyMessage is returned verbatim whenever crisis language is detected.
const SafetyMessage = "I hear that you are going through something really difficult right now. Your life matters, and there are people who want to support you.\n\n" +
	"Please consider reaching out to:\n" +
	"• A crisis helpline (they are available 24/7)\n" +
	"• A trusted friend, family member, or counselor\n" +
	"• Emergency services (911) if you are in immediate danger\n\n" +
	"You do not have to go through this alone. Would you like me to share some specific resources?"

// RiskClassifier scans raw messages for crisis phrases. It holds no state.
type RiskClassifier struct {
	phrases []string
}

// NewRiskClassifier returns a classifier over the built-in crisis phrase list.
func NewRiskClassifier() *RiskClassifier {
	return &RiskClassifier{phrases: crisisPhrases}
}

// CheckRisk reports high risk if any crisis phrase occurs anywhere in message.
func (c *RiskClassifier) CheckRisk(message string) domain.RiskAssessment {
	lower := strings.ToLower(message)
	for _, phrase := range c.phrases {
		if strings.Contains(lower, phrase) {
			return domain.RiskAssessment{RiskLevel: domain.RiskHigh}
		}
	}
	return domain.RiskAssessment{RiskLevel: domain.RiskLow}
}

// SafetyReply is the escalation reply. It carries no follow-up question.
func SafetyReply() domain.Reply {
	return domain.Reply{Response: SafetyMessage}
}
