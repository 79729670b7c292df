package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{"config read", "S001", "Cannot read configuration file", CategoryConfig},
		{"invalid value", "S003", "Invalid configuration value", CategoryConfig},
		{"devtools", "S020", "Devtools server failed", CategoryDevtools},
		{"unknown", "S999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	cause := fmt.Errorf("no such file")
	err := New("S001").WithDetail("signalscope.yaml").Wrap(cause)

	want := "S001: Cannot read configuration file (signalscope.yaml): no such file"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("loading: %w", New("S003").WithDetailf("log.level %q", "loud"))

	if !stderrors.Is(err, New("S003")) {
		t.Error("errors.Is should match on code")
	}
	if stderrors.Is(err, New("S002")) {
		t.Error("different codes must not match")
	}
	if CodeOf(err) != "S003" {
		t.Errorf("CodeOf() = %q", CodeOf(err))
	}
	if CodeOf(fmt.Errorf("plain")) != "" {
		t.Error("CodeOf(plain) should be empty")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "S001") != nil {
		t.Error("FromError(nil) should be nil")
	}

	coded := New("S020")
	if got := FromError(fmt.Errorf("wrap: %w", coded), "S001"); got != coded {
		t.Error("FromError should return an existing *Error unchanged")
	}

	got := FromError(fmt.Errorf("boom"), "S011")
	if got.Code != "S011" || got.Wrapped == nil {
		t.Errorf("FromError = %+v", got)
	}
}

func TestFormat(t *testing.T) {
	err := New("S030").WithDetail(`no scenario named "x"`)
	out := err.Format()

	for _, want := range []string{"ERROR S030: Unknown demo scenario", `no scenario named "x"`, "Hint: Run `signalscope demo --list`"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}

	var buf bytes.Buffer
	Fprint(&buf, fmt.Errorf("plain failure"))
	if buf.String() != "ERROR: plain failure\n" {
		t.Errorf("Fprint(plain) = %q", buf.String())
	}
}

func TestCodesSortedAndRegistered(t *testing.T) {
	codes := Codes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	for _, code := range codes {
		if _, ok := Lookup(code); !ok {
			t.Errorf("Lookup(%s) failed", code)
		}
	}
	if _, ok := Lookup("nope"); ok {
		t.Error("Lookup of unknown code should fail")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "--interval must be positive, got %s", "0s")

	if err.Code != "" {
		t.Errorf("Code = %q, want empty", err.Code)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
	if got := err.Error(); got != "--interval must be positive, got 0s" {
		t.Errorf("Error() = %q", got)
	}
	if !strings.HasPrefix(err.Format(), "ERROR --interval") {
		t.Errorf("Format() = %q", err.Format())
	}
}
