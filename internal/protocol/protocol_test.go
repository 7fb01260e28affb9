package protocol

import (
	"strings"
	"testing"

	"github.com/corvale/chorus/internal/core"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := New(TypeSeekTo, "tab-1", SeekTo{Time: 42.5})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if env.Type != TypeSeekTo {
		t.Errorf("Type = %q, want %q", env.Type, TypeSeekTo)
	}
	if env.TabID != "tab-1" {
		t.Errorf("TabID = %q, want %q", env.TabID, "tab-1")
	}

	var payload SeekTo
	if err := env.Decode(&payload); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if payload.Time != 42.5 {
		t.Errorf("Time = %v, want 42.5", payload.Time)
	}
}

func TestEnvelopeNilPayload(t *testing.T) {
	env, err := New(TypePlayNext, "tab-1", nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(env.Data) != 0 {
		t.Errorf("Data = %q, want empty", env.Data)
	}

	var payload SeekTo
	if err := env.Decode(&payload); err == nil {
		t.Error("Decode() on empty payload = nil error, want error")
	}
}

func TestTrackLocatorNeverOnWire(t *testing.T) {
	env, err := New(TypePlayFile, "tab-1", PlayFile{
		File: core.Track{ID: "a", Name: "Alpha", Locator: "/secret/path.mp3"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// The locator is excluded from serialization entirely; even a caller
	// that forgets Meta() cannot leak it.
	if want := "/secret/path.mp3"; strings.Contains(string(env.Data), want) {
		t.Errorf("envelope data contains locator %q: %s", want, env.Data)
	}
}
