package main

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/vango-dev/signalscope/internal/config"
	"github.com/vango-dev/signalscope/internal/errors"
)

func testApp(t *testing.T) *app {
	t.Helper()
	cfg := config.Default()
	cfg.Log.Level = "error"
	return &app{cfg: cfg, logger: cfg.Log.Logger(&bytes.Buffer{})}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTable(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// header + 3 absent rows + 9 pairs
	if len(lines) != 13 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}

	tests := []struct {
		prefix string
		action string
	}{
		{"unmanaged          unmanaged", "finish active, begin new"},
		{"managed-component  unmanaged", "fold into active"},
		{"managed-hook       managed-hook", "suspend active, begin new, restore on finish"},
	}
	for _, tt := range tests {
		found := false
		for _, line := range lines {
			if strings.HasPrefix(line, tt.prefix) && strings.HasSuffix(line, tt.action) {
				found = true
			}
		}
		if !found {
			t.Errorf("no row %q -> %q in:\n%s", tt.prefix, tt.action, buf.String())
		}
	}
}

func TestScenarios(t *testing.T) {
	a := testApp(t)

	tests := []struct {
		name string
		want []string
	}{
		{"greeting", []string{`output="Hello Jane"`, "renders=2"}},
		{"leak", []string{"reaped so far: 1", `output="count=1"`}},
		{"nested", []string{`output="badge=4"`, `[grace] theme=light`}},
		{"resubscribe", []string{"renders=2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := a.runScenario(&buf, scenarios[tt.name], true); err != nil {
				t.Fatalf("runScenario error: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestDemoUnknownScenario(t *testing.T) {
	a := testApp(t)
	cmd := demoCmd(a)
	cmd.SetArgs([]string{"nope"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	if errors.CodeOf(err) != "S030" {
		t.Errorf("error = %v, want S030", err)
	}
}

func TestVersionShort(t *testing.T) {
	cmd := versionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--short"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != version {
		t.Errorf("version = %q", buf.String())
	}
}

func TestServeRejectsNonPositiveInterval(t *testing.T) {
	a := testApp(t)

	err := a.serve("127.0.0.1:0", 0)
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("serve() error = %v, want *errors.Error", err)
	}
	if e.Category != errors.CategoryCLI || e.Code != "" {
		t.Errorf("error = %+v, want uncoded CLI error", e)
	}
	if !strings.Contains(e.Message, "--interval must be positive") {
		t.Errorf("Message = %q", e.Message)
	}
}
