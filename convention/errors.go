package convention

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no convention exists for the identifier.
	ErrNotFound = errors.New("convention: not found")
	// ErrAlreadyExists signals a submission with an id already in the store.
	ErrAlreadyExists = errors.New("convention: already exists")
	// ErrAlreadySigned signals a signatory signing twice.
	ErrAlreadySigned = errors.New("convention: signatory already signed")
	// ErrJustificationRequired signals a rejection without a justification.
	ErrJustificationRequired = errors.New("convention: justification required")
)

// ForbiddenTransitionError reports a role not allowed to request the target
// status, independently of the current status.
type ForbiddenTransitionError struct {
	Role   Role
	Target Status
}

func (e ForbiddenTransitionError) Error() string {
	return fmt.Sprintf("convention: role %s may not request status %s", e.Role, e.Target)
}

// InvalidTransitionError reports a target status unreachable from the current
// one, even for an authorized role.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("convention: cannot go from status %s to %s", e.From, e.To)
}
