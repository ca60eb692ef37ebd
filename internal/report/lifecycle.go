package report

import (
	"cleanghana/pkg/domainerrors"
)

// Each record type has exactly one forward transition, performed by exactly
// one role. Terminal records stay visible, so re-submitting the transition
// must stay error-free.
type transition struct {
	initial  Status
	terminal Status
	by       Role
}

var lifecycles = map[Type]transition{
	TypeWasteReport:      {initial: StatusPending, terminal: StatusResolved, by: RoleAuthority},
	TypeRecyclingRequest: {initial: StatusReady, terminal: StatusCollected, by: RoleRecycler},
}

// InitialStatus is the status a freshly created record of type t starts in.
func InitialStatus(t Type) (Status, error) {
	lc, ok := lifecycles[t]
	if !ok {
		return "", domainerrors.New(domainerrors.CodeValidation, "unknown record type: "+string(t))
	}
	return lc.initial, nil
}

// TerminalStatus is the only status a record of type t can transition to.
func TerminalStatus(t Type) (Status, error) {
	lc, ok := lifecycles[t]
	if !ok {
		return "", domainerrors.New(domainerrors.CodeValidation, "unknown record type: "+string(t))
	}
	return lc.terminal, nil
}

// IsTerminal reports whether the record has finished its lifecycle.
func (r Record) IsTerminal() bool {
	lc, ok := lifecycles[r.Type]
	return ok && r.Status == lc.terminal
}

// CanTransition reports whether role may move record r forward right now.
// The view layer uses it to decide which actions to expose.
func CanTransition(r Record, role Role) bool {
	lc, ok := lifecycles[r.Type]
	return ok && role == lc.by && r.Status == lc.initial
}

// Transition validates that role may move r to target. On success it returns
// apply=true. A repeat of an already-applied transition returns apply=false
// with no error: the caller keeps the record as is. Anything else is a
// domain error.
func Transition(r Record, target Status, role Role) (apply bool, err error) {
	lc, ok := lifecycles[r.Type]
	if !ok {
		return false, domainerrors.New(domainerrors.CodeValidation, "unknown record type: "+string(r.Type))
	}
	if target != lc.terminal {
		return false, domainerrors.New(domainerrors.CodeValidation,
			"records of type "+string(r.Type)+" can only move to "+string(lc.terminal))
	}
	if role != lc.by {
		return false, domainerrors.New(domainerrors.CodeForbidden,
			"role "+string(role)+" may not update "+string(r.Type)+" records")
	}
	if r.Status == lc.terminal {
		// Idempotent against double submission.
		return false, nil
	}
	if r.Status != lc.initial {
		return false, domainerrors.New(domainerrors.CodeValidation,
			"record in unexpected status "+string(r.Status))
	}
	return true, nil
}
