package coordinator

import (
	"github.com/corvale/chorus/internal/core"
	"github.com/corvale/chorus/internal/protocol"
	"github.com/corvale/chorus/internal/transport"
)

// dispatch applies one inbound tab message. Every message either mutates
// state and broadcasts, or is a no-op; nothing here can abort the actor.
func (c *Coordinator) dispatch(env protocol.Envelope, conn transport.Conn) {
	switch env.Type {
	case protocol.TypeRegisterTab:
		c.handleRegister(env, conn)
	case protocol.TypeUnregisterTab:
		c.removeTab(env.TabID)
	case protocol.TypeTabCanPlayAudio:
		c.handleCapability(env)
	case protocol.TypeReplacePlaylist:
		c.handleReplacePlaylist(env)
	case protocol.TypeAddToPlaylist:
		c.handleAddToPlaylist(env)
	case protocol.TypeRemoveFromPlaylist:
		c.handleRemoveFromPlaylist(env)
	case protocol.TypeClearPlaylist:
		c.state.ClearPlaylist()
		c.scheduleSave()
		c.broadcastState()
	case protocol.TypePlayFile:
		c.handlePlayFile(env)
	case protocol.TypeTogglePlayPause:
		c.state.IsPlaying = !c.state.IsPlaying
		c.scheduleSave()
		c.broadcastState()
	case protocol.TypePlayNext:
		c.state.Advance()
		c.scheduleSave()
		c.broadcastState()
	case protocol.TypePlayPrevious:
		c.state.Retreat()
		c.scheduleSave()
		c.broadcastState()
	case protocol.TypeSeekTo:
		c.handleSeekTo(env)
	case protocol.TypeChangeVolume:
		c.handleChangeVolume(env)
	case protocol.TypeCycleRepeatMode:
		c.state.RepeatMode = c.state.RepeatMode.Cycle()
		c.scheduleSave()
		c.broadcastState()
	case protocol.TypeTogglePanel:
		c.state.PanelVisible = !c.state.PanelVisible
		c.broadcastState()
	case protocol.TypeSetPanelCollapsed:
		c.handleSetPanelCollapsed(env)
	case protocol.TypeUpdateTime:
		c.handleUpdateTime(env)
	case protocol.TypeUpdateDuration:
		c.handleUpdateDuration(env)
	case protocol.TypeAudioEnded:
		c.handleAudioEnded(env)
	case protocol.TypeSaveCurrentState:
		c.persistNow()
	case protocol.TypeLoadStateResponse:
		c.handleLoadStateResponse(env)
	case protocol.TypeFilesAvailable:
		c.handleFilesAvailable(env)
	default:
		c.log.Debug().Str("type", env.Type).Str("tab", env.TabID).Msg("ignoring unknown message")
	}
}

func (c *Coordinator) handleRegister(env protocol.Envelope, conn transport.Conn) {
	if env.TabID == "" {
		c.log.Warn().Msg("register without tab id, ignoring")
		return
	}
	var payload protocol.RegisterTab
	if err := env.Decode(&payload); err != nil {
		// Tabs register optimistically capable until probed.
		payload.CanProduceAudio = true
	}

	c.seq++
	t := &tabConn{
		id:              env.TabID,
		conn:            conn,
		canProduceAudio: payload.CanProduceAudio,
		seq:             c.seq,
	}
	c.tabs[env.TabID] = t
	c.log.Debug().Str("tab", env.TabID).Bool("capable", payload.CanProduceAudio).Int("tabs", len(c.tabs)).Msg("tab registered")

	if len(c.state.Queue) == 0 {
		// The coordinator has no storage of its own; ask the new tab to
		// supply the last persisted snapshot.
		if req, err := protocol.New(protocol.TypeLoadStateRequest, "", nil); err == nil {
			c.sendTo(t, req)
		}
	} else if upd, err := protocol.New(protocol.TypeStateUpdate, "", protocol.StateUpdate{
		State:            c.state.Clone(),
		ActiveAudioTabID: c.state.ActiveAudioTabID,
	}); err == nil {
		c.sendTo(t, upd)
	}

	c.elect()
}

func (c *Coordinator) handleCapability(env protocol.Envelope) {
	var payload protocol.TabCanPlayAudio
	if err := env.Decode(&payload); err != nil {
		c.log.Warn().Err(err).Msg("bad capability report")
		return
	}
	t, ok := c.tabs[env.TabID]
	if !ok {
		return
	}
	t.canProduceAudio = payload.CanProduceAudio
	c.log.Debug().Str("tab", env.TabID).Bool("capable", payload.CanProduceAudio).Msg("capability reported")
	c.elect()
}

func (c *Coordinator) handleReplacePlaylist(env protocol.Envelope) {
	var payload protocol.ReplacePlaylist
	if err := env.Decode(&payload); err != nil {
		c.log.Warn().Err(err).Msg("bad replace playlist")
		return
	}
	c.state.ReplacePlaylist(metaOnly(payload.Files), payload.StartIndex)
	c.scheduleSave()
	c.broadcastState()
}

func (c *Coordinator) handleAddToPlaylist(env protocol.Envelope) {
	var payload protocol.AddToPlaylist
	if err := env.Decode(&payload); err != nil {
		c.log.Warn().Err(err).Msg("bad add to playlist")
		return
	}
	c.state.AddToPlaylist(metaOnly(payload.Files))
	c.scheduleSave()
	c.broadcastState()
}

func (c *Coordinator) handleRemoveFromPlaylist(env protocol.Envelope) {
	var payload protocol.RemoveFromPlaylist
	if err := env.Decode(&payload); err != nil {
		c.log.Warn().Err(err).Msg("bad remove from playlist")
		return
	}
	c.state.RemoveFromPlaylist(payload.FileID)
	c.scheduleSave()
	c.broadcastState()
}

func (c *Coordinator) handlePlayFile(env protocol.Envelope) {
	var payload protocol.PlayFile
	if err := env.Decode(&payload); err != nil {
		c.log.Warn().Err(err).Msg("bad play file")
		return
	}
	c.state.PlayFile(payload.File.Meta())
	c.scheduleSave()
	c.broadcastState()
}

// handleSeekTo sets the position and rebroadcasts the seek to every tab,
// sender included. Only the active tab applies it to a real audio element,
// but all tabs must move their displayed position.
func (c *Coordinator) handleSeekTo(env protocol.Envelope) {
	var payload protocol.SeekTo
	if err := env.Decode(&payload); err != nil {
		c.log.Warn().Err(err).Msg("bad seek")
		return
	}
	if payload.Time < 0 {
		payload.Time = 0
	}
	c.state.Position = payload.Time
	if out, err := protocol.New(protocol.TypeSeekTo, "", payload); err == nil {
		c.broadcast(out)
	}
}

func (c *Coordinator) handleChangeVolume(env protocol.Envelope) {
	var payload protocol.ChangeVolume
	if err := env.Decode(&payload); err != nil {
		c.log.Warn().Err(err).Msg("bad volume change")
		return
	}
	v := payload.Volume
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	c.state.Volume = v
	c.scheduleSave()
	// Lightweight update first for immediate feedback, then the full state.
	if out, err := protocol.New(protocol.TypeVolumeUpdate, "", protocol.VolumeUpdate{Volume: v}); err == nil {
		c.broadcast(out)
	}
	c.broadcastState()
}

// handleSetPanelCollapsed is purely cosmetic state, so it travels as a
// lightweight message rather than a full state broadcast.
func (c *Coordinator) handleSetPanelCollapsed(env protocol.Envelope) {
	var payload protocol.SetPanelCollapsed
	if err := env.Decode(&payload); err != nil {
		c.log.Warn().Err(err).Msg("bad panel collapse")
		return
	}
	c.state.PanelCollapsed = payload.Collapsed
	if out, err := protocol.New(protocol.TypeSetPanelCollapsed, "", payload); err == nil {
		c.broadcast(out)
	}
}

func (c *Coordinator) handleUpdateTime(env protocol.Envelope) {
	if env.TabID != c.state.ActiveAudioTabID {
		return
	}
	var payload protocol.UpdateTime
	if err := env.Decode(&payload); err != nil {
		return
	}
	c.state.Position = payload.CurrentTime
	c.scheduleSave()
	if out, err := protocol.New(protocol.TypeTimeUpdate, "", protocol.TimeUpdate{CurrentTime: payload.CurrentTime}); err == nil {
		c.broadcast(out)
	}
}

func (c *Coordinator) handleUpdateDuration(env protocol.Envelope) {
	if env.TabID != c.state.ActiveAudioTabID {
		return
	}
	var payload protocol.UpdateDuration
	if err := env.Decode(&payload); err != nil {
		return
	}
	c.state.Duration = payload.Duration
	if out, err := protocol.New(protocol.TypeDurationUpdate, "", protocol.DurationUpdate{Duration: payload.Duration}); err == nil {
		c.broadcast(out)
	}
}

// handleAudioEnded advances playback when the active tab's track runs out.
// RepeatOne restarts the same track in place; otherwise the queue advances
// (wrapping under RepeatAll) or playback stops at the end.
func (c *Coordinator) handleAudioEnded(env protocol.Envelope) {
	if env.TabID != c.state.ActiveAudioTabID {
		return
	}
	if c.state.RepeatMode == core.RepeatOne {
		c.state.Position = 0
		c.scheduleSave()
		if out, err := protocol.New(protocol.TypeRepeatCurrent, "", nil); err == nil {
			c.broadcast(out)
		}
		return
	}
	if !c.state.Advance() {
		c.state.IsPlaying = false
		c.state.Position = 0
	}
	c.scheduleSave()
	c.broadcastState()
}

// handleLoadStateResponse applies a restored snapshot, but only while the
// queue is still empty. A response that arrives after commands have already
// populated state is discarded: first writer wins.
func (c *Coordinator) handleLoadStateResponse(env protocol.Envelope) {
	if len(c.state.Queue) != 0 {
		c.log.Debug().Str("tab", env.TabID).Msg("late restore response, ignoring")
		return
	}
	var payload protocol.LoadStateResponse
	if err := env.Decode(&payload); err != nil {
		c.log.Warn().Err(err).Msg("bad restore response")
		return
	}
	if payload.State != nil {
		c.restore(*payload.State)
		c.log.Debug().Int("queue", len(c.state.Queue)).Msg("state restored from snapshot")
	}
	// Broadcast even when there was nothing to restore, so tabs waiting on
	// their first state update are not left hanging.
	c.broadcastState()
}

func (c *Coordinator) handleFilesAvailable(env protocol.Envelope) {
	var payload protocol.FilesAvailable
	if err := env.Decode(&payload); err != nil {
		c.log.Warn().Err(err).Msg("bad files available")
		return
	}
	if c.state.MergeResolved(payload.Files) {
		c.broadcastState()
	}
}

// restore merges a persisted snapshot into the live state, repairing any
// invariants a stale or hand-edited snapshot might violate. Audio ownership
// and playing status belong to the live session, not the snapshot.
func (c *Coordinator) restore(snap core.PlaybackState) {
	snap = snap.Clone()
	snap.IsPlaying = false
	snap.ActiveAudioTabID = c.state.ActiveAudioTabID
	snap.Queue = metaOnly(snap.Queue)

	if len(snap.Queue) == 0 {
		snap.QueuePosition = -1
		snap.CurrentTrackID = ""
	} else {
		if pos := (&snap).IndexOf(snap.CurrentTrackID); pos >= 0 {
			snap.QueuePosition = pos
		} else if snap.QueuePosition < 0 || snap.QueuePosition >= len(snap.Queue) {
			snap.QueuePosition = 0
		}
		snap.CurrentTrackID = snap.Queue[snap.QueuePosition].ID
	}
	if snap.Volume < 0 || snap.Volume > 1 {
		snap.Volume = 1
	}

	c.state = snap
}

// metaOnly strips locators so the coordinator never holds a playable
// reference. Tabs re-resolve ids against their own catalogue.
func metaOnly(files []core.Track) []core.Track {
	if files == nil {
		return nil
	}
	out := make([]core.Track, len(files))
	for i, f := range files {
		out[i] = f.Meta()
	}
	return out
}
