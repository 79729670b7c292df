package scope

// UsageMode declares how a scope's Finish is guaranteed.
type UsageMode uint8

const (
	// Unmanaged scopes come from bare calls with no guaranteed cleanup.
	// They are closed by the next unrelated start or by the reaper.
	Unmanaged UsageMode = iota

	// ManagedComponent scopes wrap a component render body in a
	// guaranteed-cleanup block.
	ManagedComponent

	// ManagedHook scopes wrap a custom hook body in a guaranteed-cleanup
	// block.
	ManagedHook
)

// String returns the mode name.
func (m UsageMode) String() string {
	switch m {
	case Unmanaged:
		return "unmanaged"
	case ManagedComponent:
		return "managed-component"
	case ManagedHook:
		return "managed-hook"
	default:
		return "unknown"
	}
}

// IsManaged reports whether the caller guarantees an explicit Finish.
func (m UsageMode) IsManaged() bool {
	return m == ManagedComponent || m == ManagedHook
}

// Modes lists every usage mode in declaration order.
func Modes() []UsageMode {
	return []UsageMode{Unmanaged, ManagedComponent, ManagedHook}
}
