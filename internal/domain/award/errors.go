package award

import (
	"errors"
	"fmt"
)

var (
	ErrAwardNotFound       = errors.New("award not found")
	ErrAwardAlreadyDecided = errors.New("award has already been decided")
	ErrInvalidDecision     = errors.New("award decision must be APPROVED or REJECTED")
)

// PendingAwardsError is the pre-initiation gate: a single aggregated error
// listing every PENDING signing bonus and termination benefit so reviewers can
// clear the whole backlog at once.
type PendingAwardsError struct {
	Items []PendingItem
}

func (e *PendingAwardsError) Error() string {
	return fmt.Sprintf("cannot initiate payroll run: %d signing bonus/termination benefit record(s) are still pending review", len(e.Items))
}
