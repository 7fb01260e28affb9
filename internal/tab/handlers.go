package tab

import (
	"github.com/corvale/chorus/internal/audio"
	"github.com/corvale/chorus/internal/core"
	"github.com/corvale/chorus/internal/protocol"
)

// handle applies one coordinator message. Full state broadcasts replace
// the local copy wholesale; the narrow update messages patch single fields
// without waiting for the next full broadcast.
func (a *Adapter) handle(env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeStateUpdate:
		var payload protocol.StateUpdate
		if err := env.Decode(&payload); err != nil {
			a.log.Warn().Err(err).Msg("bad state update")
			return
		}
		a.applyState(payload.State, payload.ActiveAudioTabID, false)

	case protocol.TypeStartAudio:
		var payload protocol.StartAudio
		if err := env.Decode(&payload); err != nil {
			a.log.Warn().Err(err).Msg("bad start audio")
			return
		}
		a.applyState(payload.State, a.id, true)

	case protocol.TypeStopAudio:
		a.mu.Lock()
		a.releaseSinkLocked()
		a.active = false
		a.state.ActiveAudioTabID = ""
		a.mu.Unlock()
		a.notify()

	case protocol.TypeSeekTo:
		var payload protocol.SeekTo
		if err := env.Decode(&payload); err != nil {
			return
		}
		a.mu.Lock()
		a.state.Position = payload.Time
		sink := a.sink
		applyToSink := a.active && sink != nil
		a.mu.Unlock()
		if applyToSink {
			if err := sink.SeekTo(payload.Time); err != nil {
				a.log.Warn().Err(err).Float64("time", payload.Time).Msg("seek failed")
			}
		}
		a.notify()

	case protocol.TypeVolumeUpdate:
		var payload protocol.VolumeUpdate
		if err := env.Decode(&payload); err != nil {
			return
		}
		a.mu.Lock()
		a.state.Volume = payload.Volume
		sink := a.sink
		a.mu.Unlock()
		if sink != nil {
			sink.SetVolume(payload.Volume)
		}
		a.notify()

	case protocol.TypeTimeUpdate:
		var payload protocol.TimeUpdate
		if err := env.Decode(&payload); err != nil {
			return
		}
		a.mu.Lock()
		// The active tab's own sink is the position source; only passive
		// tabs track the rebroadcast.
		if !a.active {
			a.state.Position = payload.CurrentTime
		}
		a.mu.Unlock()
		a.notify()

	case protocol.TypeDurationUpdate:
		var payload protocol.DurationUpdate
		if err := env.Decode(&payload); err != nil {
			return
		}
		a.mu.Lock()
		a.state.Duration = payload.Duration
		a.mu.Unlock()
		a.notify()

	case protocol.TypeRepeatCurrent:
		a.mu.Lock()
		a.state.Position = 0
		sink := a.sink
		restart := a.active && sink != nil
		a.mu.Unlock()
		if restart {
			if err := sink.SeekTo(0); err != nil {
				a.log.Warn().Err(err).Msg("restart seek failed")
			}
			sink.Play()
		}
		a.notify()

	case protocol.TypeSetPanelCollapsed:
		var payload protocol.SetPanelCollapsed
		if err := env.Decode(&payload); err != nil {
			return
		}
		a.mu.Lock()
		a.state.PanelCollapsed = payload.Collapsed
		a.mu.Unlock()
		a.notify()

	case protocol.TypeLoadStateRequest:
		a.handleLoadStateRequest()

	case protocol.TypeSaveStateRequest:
		a.handleSaveStateRequest(env)

	default:
		a.log.Debug().Str("type", env.Type).Msg("ignoring unknown message")
	}
}

// handleLoadStateRequest answers with whatever the bridge has saved, which
// may be nothing.
func (a *Adapter) handleLoadStateRequest() {
	var snap *core.PlaybackState
	if a.bridge != nil {
		snap = a.bridge.Load()
	}
	a.send(protocol.TypeLoadStateResponse, protocol.LoadStateResponse{State: snap})
}

func (a *Adapter) handleSaveStateRequest(env protocol.Envelope) {
	if a.bridge == nil {
		return
	}
	var payload protocol.SaveStateRequest
	if err := env.Decode(&payload); err != nil {
		a.log.Warn().Err(err).Msg("bad save request")
		return
	}
	if err := a.bridge.Save(payload.State); err != nil {
		a.log.Warn().Err(err).Msg("snapshot save failed")
	}
}

// applyState installs a new authoritative state and reconciles the local
// audio sink with it. forceRestart rebuilds the sink even for the same
// track, which is what START_AUDIO demands of a freshly elected tab.
func (a *Adapter) applyState(state core.PlaybackState, activeTabID string, forceRestart bool) {
	a.mu.Lock()

	wasActive := a.active
	a.state = state
	a.active = activeTabID == a.id

	switch {
	case !a.active:
		if wasActive {
			a.releaseSinkLocked()
		}
		a.mu.Unlock()

	case forceRestart || a.sinkTrackID != state.CurrentTrackID:
		a.releaseSinkLocked()
		if state.CurrentTrackID == "" {
			a.mu.Unlock()
			break
		}
		sink, ok := a.openSinkLocked(state)
		a.mu.Unlock()
		if ok {
			a.watchSink(sink)
			a.send(protocol.TypeUpdateDuration, protocol.UpdateDuration{Duration: sink.Duration()})
		}

	default:
		// Same track, same sink: reconcile play/pause and volume.
		sink := a.sink
		a.mu.Unlock()
		if sink != nil {
			sink.SetVolume(state.Volume)
			if state.IsPlaying {
				sink.Play()
			} else {
				sink.Pause()
			}
		}
	}

	a.notify()
}

// openSinkLocked resolves the current track to a local locator and brings
// up a sink for it. An unresolvable or unplayable track is logged and
// skipped; state still advanced as commanded, there is just nothing to
// hear from this tab. Callers hold a.mu.
func (a *Adapter) openSinkLocked(state core.PlaybackState) (audio.Sink, bool) {
	if a.output == nil {
		return nil, false
	}

	locator := ""
	if a.resolve != nil {
		if t, found := a.resolve(state.CurrentTrackID); found {
			locator = t.Locator
		}
	}
	if locator == "" {
		a.log.Warn().Str("track", state.CurrentTrackID).Msg("track not in local catalogue, no audio")
		return nil, false
	}

	s, err := a.output.Open(locator)
	if err != nil {
		a.log.Warn().Err(err).Str("track", state.CurrentTrackID).Msg("track unplayable")
		return nil, false
	}

	s.SetVolume(state.Volume)
	if state.Position > 0 {
		if err := s.SeekTo(state.Position); err != nil {
			a.log.Warn().Err(err).Msg("resume seek failed")
		}
	}
	if state.IsPlaying {
		s.Play()
	}

	a.sink = s
	a.sinkTrackID = state.CurrentTrackID
	a.state.Duration = s.Duration()
	return s, true
}
