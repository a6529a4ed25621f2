// Package lifecycle centralizes the status transition tables that the
// original system left implicit in its UI handlers. Every service consults
// its table before writing a status change.
package lifecycle

import (
	"fmt"

	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
)

// Table maps each state to the set of states reachable from it.
type Table[S ~string] map[S][]S

// Can reports whether the transition from -> to is allowed.
func (t Table[S]) Can(from, to S) bool {
	for _, candidate := range t[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Step validates the transition and returns a typed INVALID_TRANSITION error
// when it is not allowed.
func (t Table[S]) Step(from, to S) error {
	if from == to {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("already in status %q", from)).
			WithDetails(map[string]any{"from": string(from), "to": string(to)})
	}
	if !t.Can(from, to) {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("cannot move from %q to %q", from, to)).
			WithDetails(map[string]any{"from": string(from), "to": string(to)})
	}
	return nil
}

// Terminal reports whether no transition leaves the given state.
func (t Table[S]) Terminal(state S) bool {
	return len(t[state]) == 0
}
