package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{9, "0:09"},
		{59.9, "0:59"},
		{90, "1:30"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{-5, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		s      string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a longer string here", 10, "a longe..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := TruncateString(tt.s, tt.maxLen); got != tt.want {
			t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
		}
	}
}

func TestFormatProgress(t *testing.T) {
	if got := FormatProgress(50, 100, 10); got != strings.Repeat("━", 5)+strings.Repeat("─", 5) {
		t.Errorf("FormatProgress(50, 100, 10) = %q", got)
	}
	if got := FormatProgress(0, 0, 4); got != strings.Repeat("─", 4) {
		t.Errorf("FormatProgress(0, 0, 4) = %q, want all empty", got)
	}
	if got := FormatProgress(200, 100, 4); got != strings.Repeat("━", 4) {
		t.Errorf("FormatProgress(200, 100, 4) = %q, want clamped full", got)
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTableWriter(&buf, "NAME", "SIZE")
	table.Row("alpha.mp3", "3.2 MB")
	table.Row("beta.wav", "10 MB")
	table.Flush()

	out := buf.String()
	for _, want := range []string{"NAME", "SIZE", "alpha.mp3", "beta.wav"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}
