package scope

import "strings"

// Action is what Start does to the currently active scope.
type Action struct {
	// FinishPrevious finishes the active scope before the new one begins.
	FinishPrevious bool

	// SaveForRestore suspends the active scope; the new scope's Finish
	// reinstates it.
	SaveForRestore bool

	// Fold leaves the active scope tracking and starts nothing. Reads made
	// by the new scope's body are attributed to the active scope.
	Fold bool
}

// String describes the action for logs and the CLI table.
func (a Action) String() string {
	var parts []string
	switch {
	case a.Fold:
		return "fold into active"
	case a.FinishPrevious:
		parts = append(parts, "finish active")
	case a.SaveForRestore:
		parts = append(parts, "suspend active")
	}
	parts = append(parts, "begin new")
	if a.SaveForRestore {
		parts = append(parts, "restore on finish")
	}
	return strings.Join(parts, ", ")
}

// Transition decides what starting a scope in mode next does when a scope
// in mode prev is active. hasPrev is false when no scope is active.
//
// An unmanaged scope after an unmanaged scope, or a managed component
// after an unmanaged scope, is an unrelated sibling: the previous scope
// is finished. An unmanaged scope inside a managed one shares the
// parent's tracking. Every other combination nests.
func Transition(hasPrev bool, prev, next UsageMode) Action {
	if !hasPrev {
		return Action{}
	}
	switch {
	case prev == Unmanaged && (next == Unmanaged || next == ManagedComponent):
		return Action{FinishPrevious: true}
	case prev.IsManaged() && next == Unmanaged:
		return Action{Fold: true}
	default:
		return Action{SaveForRestore: true}
	}
}
