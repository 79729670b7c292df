package scope

import "testing"

func TestTransitionTable(t *testing.T) {
	finish := Action{FinishPrevious: true}
	fold := Action{Fold: true}
	suspend := Action{SaveForRestore: true}

	tests := []struct {
		name    string
		hasPrev bool
		prev    UsageMode
		next    UsageMode
		want    Action
	}{
		{"absent then unmanaged", false, Unmanaged, Unmanaged, Action{}},
		{"absent then component", false, Unmanaged, ManagedComponent, Action{}},
		{"absent then hook", false, Unmanaged, ManagedHook, Action{}},
		{"unmanaged then unmanaged", true, Unmanaged, Unmanaged, finish},
		{"unmanaged then component", true, Unmanaged, ManagedComponent, finish},
		{"unmanaged then hook", true, Unmanaged, ManagedHook, suspend},
		{"component then unmanaged", true, ManagedComponent, Unmanaged, fold},
		{"component then component", true, ManagedComponent, ManagedComponent, suspend},
		{"component then hook", true, ManagedComponent, ManagedHook, suspend},
		{"hook then unmanaged", true, ManagedHook, Unmanaged, fold},
		{"hook then component", true, ManagedHook, ManagedComponent, suspend},
		{"hook then hook", true, ManagedHook, ManagedHook, suspend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transition(tt.hasPrev, tt.prev, tt.next)
			if got != tt.want {
				t.Errorf("Transition(%v, %v, %v) = %+v, want %+v", tt.hasPrev, tt.prev, tt.next, got, tt.want)
			}
		})
	}
}

func TestActionString(t *testing.T) {
	tests := []struct {
		act  Action
		want string
	}{
		{Action{}, "begin new"},
		{Action{FinishPrevious: true}, "finish active, begin new"},
		{Action{SaveForRestore: true}, "suspend active, begin new, restore on finish"},
		{Action{Fold: true}, "fold into active"},
	}
	for _, tt := range tests {
		if got := tt.act.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.act, got, tt.want)
		}
	}
}

func TestUsageMode(t *testing.T) {
	if Unmanaged.IsManaged() {
		t.Error("Unmanaged should not be managed")
	}
	if !ManagedComponent.IsManaged() || !ManagedHook.IsManaged() {
		t.Error("managed modes should report IsManaged")
	}
	if got := ManagedHook.String(); got != "managed-hook" {
		t.Errorf("String() = %q", got)
	}
	if got := UsageMode(9).String(); got != "unknown" {
		t.Errorf("String() = %q, want unknown", got)
	}
	if len(Modes()) != 3 {
		t.Errorf("Modes() returned %d modes", len(Modes()))
	}
}
