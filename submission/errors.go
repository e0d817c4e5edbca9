package submission

import (
	"errors"
	"fmt"

	"github.com/warp/timeportal/datemath"
)

// ErrAlreadySubmitted is returned when a submission targets a week that
// already has a persisted submission. Surfaced, never retried: the user
// must refresh state.
var ErrAlreadySubmitted = errors.New("week already submitted")

// AlreadySubmittedError reports which week collided.
type AlreadySubmittedError struct {
	Week datemath.WeekKey
}

func (e *AlreadySubmittedError) Error() string {
	return fmt.Sprintf("week %s has already been submitted; contact your manager for changes", e.Week)
}

func (e *AlreadySubmittedError) Unwrap() error { return ErrAlreadySubmitted }
