package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestCIReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Out: &buf}

	r.Start(2)
	r.Update(1, "image1.jpg found")
	r.Update(2, "image2.jpg missing")
	r.Finish()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"Probing 2 candidates",
		"[1/2] image1.jpg found",
		"[2/2] image2.jpg missing",
		"Probing complete",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestNewReporterInCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter("Probing").(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}

func TestTerminalReporterWithoutStart(t *testing.T) {
	r := &TerminalReporter{Description: "Probing"}
	r.Update(1, "ignored")
	r.Finish()
}
