package domain

// MoodTag is the closed set of categories assigned to a user message.
type MoodTag string

const (
	MoodJobLoss         MoodTag = "job_loss"
	MoodFinancialStress MoodTag = "financial_stress"
	MoodStress          MoodTag = "stress"
	MoodAnxiety         MoodTag = "anxiety"
	MoodSadness         MoodTag = "sadness"
	MoodFrustration     MoodTag = "frustration"
	MoodNeutral         MoodTag = "neutral"
)

// MoodResult is the outcome of classifying one message.
type MoodResult struct {
	Tag            MoodTag `json:"tag"`
	Acknowledgment string  `json:"acknowledgment"`
}

// ContextSpecific reports whether the tag uses stage-indexed responses
// instead of anti-repetition lookup.
func (t MoodTag) ContextSpecific() bool {
	return t == MoodJobLoss || t == MoodFinancialStress
}
