package companion

import (
	"errors"
	"fmt"

	"github.com/ashureev/mindbloom/internal/domain"
)

// ErrConfiguration is matched by every ConfigurationError.
var ErrConfiguration = errors.New("companion configuration error")

// ConfigurationError reports a mood tag that has no usable catalog entry.
type ConfigurationError struct {
	Mood domain.MoodTag
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no response catalog for mood %q", e.Mood)
}

// Is lets errors.Is(err, ErrConfiguration) match.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
