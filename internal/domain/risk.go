package domain

// RiskLevel is the outcome of the crisis phrase scan.
type RiskLevel string

const (
	RiskLow  RiskLevel = "low"
	RiskHigh RiskLevel = "high"
)

// RiskAssessment is the result of checking a message for crisis language.
type RiskAssessment struct {
	RiskLevel RiskLevel `json:"risk_level"`
}

// High returns true when the message must be escalated.
func (a RiskAssessment) High() bool {
	return a.RiskLevel == RiskHigh
}
