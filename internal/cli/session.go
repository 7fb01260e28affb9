package cli

import (
	"context"
	"time"

	"github.com/corvale/chorus/internal/audio"
	"github.com/corvale/chorus/internal/core"
	cherrors "github.com/corvale/chorus/internal/errors"
	"github.com/corvale/chorus/internal/library"
	"github.com/corvale/chorus/internal/store"
	"github.com/corvale/chorus/internal/tab"
	"github.com/corvale/chorus/internal/transport"
)

const sessionTimeout = 3 * time.Second

// session is a short-lived control connection to the coordinator: a tab
// that never produces audio, used by one-shot commands like pause or next.
type session struct {
	adapter *tab.Adapter
	lib     *library.Library
}

// openSession dials the coordinator, registers as a silent tab, and waits
// for the first authoritative state. withLibrary additionally opens the
// local catalogue for commands that resolve tracks.
func openSession(ctx context.Context, withLibrary bool) (*session, error) {
	log := newLogger()

	var lib *library.Library
	if withLibrary {
		if cfg.Library.Path == "" {
			return nil, cherrors.ErrLibraryNotConfigured
		}
		var err error
		lib, err = library.Open(cfg.Library.Path, log)
		if err != nil {
			return nil, err
		}
	}

	bridge, err := store.NewBridge(cfg.Store.StateFile, log)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, sessionTimeout)
	defer cancel()
	conn, err := transport.Dial(dialCtx, cfg.Coordinator.URL)
	if err != nil {
		return nil, cherrors.WithSuggestion(err,
			"Start the coordinator with 'chorus serve', or check coordinator.url in your config")
	}

	opts := tab.Options{
		Conn:   conn,
		Bridge: bridge,
		Logger: log,
	}
	if lib != nil {
		opts.Resolve = lib.Resolve
	}
	adapter := tab.New(opts)
	if err := adapter.Start(); err != nil {
		conn.Close()
		return nil, err
	}

	waitCtx, cancelWait := context.WithTimeout(ctx, sessionTimeout)
	defer cancelWait()
	if err := adapter.WaitForState(waitCtx); err != nil {
		adapter.Close()
		return nil, cherrors.WithSuggestion(err, "The coordinator did not answer; is 'chorus serve' running?")
	}

	return &session{adapter: adapter, lib: lib}, nil
}

// Close flushes state and unregisters.
func (s *session) Close() {
	s.adapter.Close()
}

// State returns the last known shared state.
func (s *session) State() core.PlaybackState {
	return s.adapter.State()
}

// awaitUpdate waits for the next broadcast to land after a command, so the
// command can report the resulting state rather than the stale one.
func (s *session) awaitUpdate(ctx context.Context) core.PlaybackState {
	waitCtx, cancel := context.WithTimeout(ctx, sessionTimeout)
	defer cancel()
	select {
	case <-s.adapter.Updates():
	case <-waitCtx.Done():
	}
	return s.adapter.State()
}

// resolveTrack finds a track in the library by id, name, or substring.
func (s *session) resolveTrack(query string) (core.Track, error) {
	if s.lib == nil {
		return core.Track{}, cherrors.ErrLibraryNotConfigured
	}
	t, ok := s.lib.Find(query)
	if !ok {
		return core.Track{}, cherrors.WithSuggestion(cherrors.ErrTrackNotFound,
			"Run 'chorus library' to see the tracks in your catalogue")
	}
	return t, nil
}

// newAudioOutput returns the platform audio output for long-running tabs.
func newAudioOutput() audio.Output {
	return audio.NewOutput(newLogger())
}
