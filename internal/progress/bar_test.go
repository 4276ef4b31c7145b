package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestBarRendersCompletion(t *testing.T) {
	var buf bytes.Buffer
	b := New(&buf, "Scanning")

	b.Set(1, 4)
	b.Set(4, 4)
	b.Finish()

	out := buf.String()
	if !strings.Contains(out, "Scanning") {
		t.Errorf("label missing from %q", out)
	}
	if !strings.Contains(out, "4/4 (100.0%)") {
		t.Errorf("completion missing from %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Errorf("Finish did not end the line: %q", out)
	}
}

func TestBarThrottlesRedraws(t *testing.T) {
	var buf bytes.Buffer
	b := New(&buf, "")

	b.Set(1, 100)
	b.Set(2, 100)
	if buf.Len() != 0 {
		t.Errorf("redrawn before the interval: %q", buf.String())
	}
}

func TestFinishWithoutProgress(t *testing.T) {
	var buf bytes.Buffer
	b := New(&buf, "x")
	b.Finish()
	b.Finish()
	if buf.Len() != 0 {
		t.Errorf("Finish drew an empty bar: %q", buf.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m30s"},
		{2*time.Hour + 5*time.Minute, "2h5m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
