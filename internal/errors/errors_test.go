package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWithSuggestion(t *testing.T) {
	err := WithSuggestion(ErrTrackNotFound, "try something else")

	if !errors.Is(err, ErrTrackNotFound) {
		t.Error("errors.Is() = false, want wrapped sentinel to match")
	}
	if got := GetSuggestion(err); got != "try something else" {
		t.Errorf("GetSuggestion() = %q, want the explicit suggestion", got)
	}
}

func TestGetSuggestionForSentinels(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrCoordinatorUnreachable, "chorus serve"},
		{ErrLibraryNotConfigured, "library.path"},
		{ErrTrackNotFound, "chorus library"},
		{ErrEmptyQueue, "chorus play"},
		{nil, ""},
		{errors.New("something unrelated"), ""},
	}
	for _, tt := range tests {
		got := GetSuggestion(tt.err)
		if tt.want == "" {
			if got != "" {
				t.Errorf("GetSuggestion(%v) = %q, want none", tt.err, got)
			}
			continue
		}
		if !strings.Contains(got, tt.want) {
			t.Errorf("GetSuggestion(%v) = %q, want mention of %q", tt.err, got, tt.want)
		}
	}
}

func TestGetSuggestionMatchesWrappedErrors(t *testing.T) {
	err := fmt.Errorf("session: %w", ErrCoordinatorUnreachable)
	if got := GetSuggestion(err); !strings.Contains(got, "chorus serve") {
		t.Errorf("GetSuggestion(wrapped) = %q, want coordinator hint", got)
	}

	err = errors.New("dial coordinator ws://127.0.0.1:7531/ws: connection refused")
	if got := GetSuggestion(err); !strings.Contains(got, "chorus serve") {
		t.Errorf("GetSuggestion(dial error) = %q, want coordinator hint", got)
	}
}

func TestFormat(t *testing.T) {
	if got := Format(nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}

	got := Format(errors.New("plain failure"))
	if got != "Error: plain failure" {
		t.Errorf("Format() = %q", got)
	}

	got = Format(ErrEmptyQueue)
	if !strings.Contains(got, "Suggestion:") {
		t.Errorf("Format() = %q, want a suggestion block", got)
	}
}

func TestPartialResult(t *testing.T) {
	var p PartialResult[[]string]
	p.Data = []string{"ok"}

	if p.HasErrors() {
		t.Error("HasErrors() = true for empty result")
	}

	p.AddError(nil)
	if p.HasErrors() {
		t.Error("AddError(nil) recorded an error")
	}

	p.AddError(errors.New("first"))
	p.AddError(errors.New("second"))
	if !p.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
	summary := p.ErrorSummary()
	if !strings.Contains(summary, "2 errors") || !strings.Contains(summary, "first") {
		t.Errorf("ErrorSummary() = %q", summary)
	}
}
