package companion

import "github.com/ashureev/mindbloom/internal/domain"

// maxStage caps the conversation stage used to index context-specific ladders.
const maxStage = 3

// Selector picks a response option for a mood given the session state.
type Selector struct {
	catalog Catalog
}

// NewSelector returns a selector over catalog.
func NewSelector(catalog Catalog) *Selector {
	return &Selector{catalog: catalog}
}

// Stage returns the bounded progression counter for a session: the number of
// user turns before the current one, capped at 3. It expects the current
// message to already be in history.
func Stage(s *Session) int {
	prior := s.UserTurns() - 1
	if prior < 0 {
		prior = 0
	}
	return min(maxStage, prior)
}

// Suggest returns the option for mood.
//
// job_loss and financial_stress walk their ladder by stage (stage mod len)
// and do not consult the used-response set; the caller rephrases repeats.
// Every other mood returns the first option not yet used, or the first
// option when all have been used.
func (s *Selector) Suggest(mood domain.MoodResult, sess *Session) (domain.ResponseOption, error) {
	options, ok := s.catalog[mood.Tag]
	if !ok || len(options) == 0 {
		return domain.ResponseOption{}, &ConfigurationError{Mood: mood.Tag}
	}

	if mood.Tag.ContextSpecific() {
		return options[Stage(sess)%len(options)], nil
	}

	for _, option := range options {
		if !sess.HasUsed(option.Response) {
			return option, nil
		}
	}
	return options[0], nil
}
