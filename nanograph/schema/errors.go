package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotBooted is returned when a model is used before its registry booted
var ErrNotBooted = errors.New("model fields are not booted")

// ResolutionError reports a model reference that the registry cannot resolve
type ResolutionError struct {
	Identifier string
	Known      []string
}

func (e *ResolutionError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("cannot resolve model %q: no models registered", e.Identifier)
	}
	return fmt.Sprintf("cannot resolve model %q (registered: %s)", e.Identifier, strings.Join(e.Known, ", "))
}
