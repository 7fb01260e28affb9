package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/corvale/chorus/internal/core"
	"github.com/corvale/chorus/internal/protocol"
	"github.com/corvale/chorus/internal/transport"
)

const expectTimeout = 2 * time.Second

func newTestCoordinator(t *testing.T, debounce time.Duration) *Coordinator {
	t.Helper()
	c := New(Options{SaveDebounce: debounce, Logger: zerolog.Nop()})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go c.Run(ctx)
	return c
}

// testTab is one simulated client: the far end of a pipe attached to the
// coordinator, with a pump goroutine so slow assertions never stall sends.
type testTab struct {
	t    *testing.T
	id   string
	conn transport.Conn
	in   chan protocol.Envelope
}

func attachTab(t *testing.T, c *Coordinator, id string, capable bool) *testTab {
	t.Helper()
	local, remote := transport.Pipe()
	c.Attach(remote)

	tt := &testTab{t: t, id: id, conn: local, in: make(chan protocol.Envelope, 64)}
	go func() {
		for {
			env, err := local.Receive()
			if err != nil {
				close(tt.in)
				return
			}
			tt.in <- env
		}
	}()
	tt.send(protocol.TypeRegisterTab, protocol.RegisterTab{CanProduceAudio: capable})
	return tt
}

func (tt *testTab) send(msgType string, payload any) {
	tt.t.Helper()
	env, err := protocol.New(msgType, tt.id, payload)
	if err != nil {
		tt.t.Fatalf("New(%s) error = %v", msgType, err)
	}
	if err := tt.conn.Send(env); err != nil {
		tt.t.Fatalf("Send(%s) error = %v", msgType, err)
	}
}

// expect reads envelopes until one of the wanted type arrives, skipping
// everything else.
func (tt *testTab) expect(msgType string) protocol.Envelope {
	tt.t.Helper()
	deadline := time.After(expectTimeout)
	for {
		select {
		case env, ok := <-tt.in:
			if !ok {
				tt.t.Fatalf("connection closed while waiting for %s on %s", msgType, tt.id)
			}
			if env.Type == msgType {
				return env
			}
		case <-deadline:
			tt.t.Fatalf("timed out waiting for %s on %s", msgType, tt.id)
		}
	}
}

// expectNone asserts that forbidden never arrives before sentinel does.
func (tt *testTab) expectNone(forbidden, sentinel string) protocol.Envelope {
	tt.t.Helper()
	deadline := time.After(expectTimeout)
	for {
		select {
		case env, ok := <-tt.in:
			if !ok {
				tt.t.Fatalf("connection closed while waiting for %s on %s", sentinel, tt.id)
			}
			if env.Type == forbidden {
				tt.t.Fatalf("%s received %s before %s", tt.id, forbidden, sentinel)
			}
			if env.Type == sentinel {
				return env
			}
		case <-deadline:
			tt.t.Fatalf("timed out waiting for %s on %s", sentinel, tt.id)
		}
	}
}

func (tt *testTab) expectState() protocol.StateUpdate {
	tt.t.Helper()
	env := tt.expect(protocol.TypeStateUpdate)
	var payload protocol.StateUpdate
	if err := env.Decode(&payload); err != nil {
		tt.t.Fatalf("Decode(STATE_UPDATE) error = %v", err)
	}
	return payload
}

// expectStateWhere skips state updates until one satisfies the predicate.
func (tt *testTab) expectStateWhere(desc string, ok func(protocol.StateUpdate) bool) protocol.StateUpdate {
	tt.t.Helper()
	deadline := time.Now().Add(expectTimeout)
	for time.Now().Before(deadline) {
		payload := tt.expectState()
		if ok(payload) {
			return payload
		}
	}
	tt.t.Fatalf("timed out waiting for state update where %s on %s", desc, tt.id)
	return protocol.StateUpdate{}
}

func metaTracks(ids ...string) []core.Track {
	out := make([]core.Track, len(ids))
	for i, id := range ids {
		out[i] = core.Track{ID: id, Name: "track-" + id}
	}
	return out
}

func TestFirstTabBecomesActive(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab := attachTab(t, c, "tab-1", true)

	// A first tab with an empty session is asked for the persisted snapshot.
	tab.expect(protocol.TypeLoadStateRequest)
	tab.expect(protocol.TypeStartAudio)

	state := tab.expectState()
	if state.ActiveAudioTabID != "tab-1" {
		t.Errorf("ActiveAudioTabID = %q, want %q", state.ActiveAudioTabID, "tab-1")
	}
}

func TestIncumbentKeepsAudioWhenCapableTabJoins(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab1 := attachTab(t, c, "tab-1", true)
	tab1.expect(protocol.TypeStartAudio)

	tab2 := attachTab(t, c, "tab-2", true)
	tab2.expect(protocol.TypeLoadStateRequest)
	tab2.send(protocol.TypeLoadStateResponse, protocol.LoadStateResponse{State: nil})

	// Joining must not steal ownership from a healthy incumbent.
	state := tab2.expectNone(protocol.TypeStartAudio, protocol.TypeStateUpdate)
	var payload protocol.StateUpdate
	if err := state.Decode(&payload); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if payload.ActiveAudioTabID != "tab-1" {
		t.Errorf("ActiveAudioTabID = %q, want %q", payload.ActiveAudioTabID, "tab-1")
	}
}

func TestCapableTabTakesOverFromIncapableIncumbent(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)

	// With no capable tab anywhere, an incapable tab still owns the session.
	tab1 := attachTab(t, c, "tab-1", false)
	tab1.expect(protocol.TypeStartAudio)
	state := tab1.expectState()
	if state.ActiveAudioTabID != "tab-1" {
		t.Fatalf("ActiveAudioTabID = %q, want %q", state.ActiveAudioTabID, "tab-1")
	}

	tab2 := attachTab(t, c, "tab-2", true)
	tab1.expect(protocol.TypeStopAudio)
	tab2.expect(protocol.TypeStartAudio)

	got := tab1.expectStateWhere("active is tab-2", func(s protocol.StateUpdate) bool {
		return s.ActiveAudioTabID == "tab-2"
	})
	if got.ActiveAudioTabID != "tab-2" {
		t.Errorf("ActiveAudioTabID = %q, want %q", got.ActiveAudioTabID, "tab-2")
	}
}

func TestCapabilityLossMovesOwnership(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab1 := attachTab(t, c, "tab-1", true)
	tab1.expect(protocol.TypeStartAudio)
	tab2 := attachTab(t, c, "tab-2", true)

	tab1.send(protocol.TypeTabCanPlayAudio, protocol.TabCanPlayAudio{CanProduceAudio: false})

	tab1.expect(protocol.TypeStopAudio)
	tab2.expect(protocol.TypeStartAudio)
}

func TestUnregisterActiveFallsBackToRemainingTab(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab1 := attachTab(t, c, "tab-1", true)
	tab1.expect(protocol.TypeStartAudio)
	tab2 := attachTab(t, c, "tab-2", false)

	tab1.send(protocol.TypeUnregisterTab, nil)

	// No capable tab remains, so the incapable one still inherits the session.
	tab2.expect(protocol.TypeStartAudio)
	state := tab2.expectStateWhere("active is tab-2", func(s protocol.StateUpdate) bool {
		return s.ActiveAudioTabID == "tab-2"
	})
	if state.ActiveAudioTabID != "tab-2" {
		t.Errorf("ActiveAudioTabID = %q, want %q", state.ActiveAudioTabID, "tab-2")
	}
}

func TestDisconnectedActiveTabIsReplaced(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab1 := attachTab(t, c, "tab-1", true)
	tab1.expect(protocol.TypeStartAudio)
	tab2 := attachTab(t, c, "tab-2", true)

	tab1.conn.Close()

	tab2.expect(protocol.TypeStartAudio)
}

func TestRegisterIntoLiveSessionGetsStateDirectly(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab1 := attachTab(t, c, "tab-1", true)
	tab1.expect(protocol.TypeLoadStateRequest)
	tab1.send(protocol.TypeReplacePlaylist, protocol.ReplacePlaylist{Files: metaTracks("a", "b"), StartIndex: 0})
	tab1.expectStateWhere("queue populated", func(s protocol.StateUpdate) bool {
		return len(s.State.Queue) == 2
	})

	// A tab joining a session that already has a queue must not be asked to
	// restore; it would race the live state.
	tab2 := attachTab(t, c, "tab-2", true)
	env := tab2.expectNone(protocol.TypeLoadStateRequest, protocol.TypeStateUpdate)
	var payload protocol.StateUpdate
	if err := env.Decode(&payload); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(payload.State.Queue) != 2 {
		t.Errorf("len(Queue) = %d, want 2", len(payload.State.Queue))
	}
}

func TestLateRestoreResponseIgnored(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab := attachTab(t, c, "tab-1", true)
	tab.expect(protocol.TypeLoadStateRequest)

	tab.send(protocol.TypeReplacePlaylist, protocol.ReplacePlaylist{Files: metaTracks("a", "b"), StartIndex: 0})

	snap := core.NewPlaybackState()
	snap.Queue = metaTracks("z")
	snap.QueuePosition = 0
	snap.CurrentTrackID = "z"
	tab.send(protocol.TypeLoadStateResponse, protocol.LoadStateResponse{State: &snap})

	tab.send(protocol.TypeTogglePlayPause, nil)
	state := tab.expectStateWhere("playing", func(s protocol.StateUpdate) bool {
		return s.State.IsPlaying
	})
	if len(state.State.Queue) != 2 || state.State.Queue[0].ID != "a" {
		t.Errorf("Queue = %+v, want live queue [a b]", state.State.Queue)
	}
}

func TestRestoreRepairsSnapshot(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab := attachTab(t, c, "tab-1", true)
	tab.expect(protocol.TypeLoadStateRequest)

	snap := core.NewPlaybackState()
	snap.Queue = []core.Track{
		{ID: "a", Name: "Alpha", Locator: "/music/a.mp3"},
		{ID: "b", Name: "Beta"},
	}
	snap.QueuePosition = 7
	snap.CurrentTrackID = "b"
	snap.IsPlaying = true
	snap.Volume = 5
	tab.send(protocol.TypeLoadStateResponse, protocol.LoadStateResponse{State: &snap})

	state := tab.expectStateWhere("queue restored", func(s protocol.StateUpdate) bool {
		return len(s.State.Queue) == 2
	})
	if state.State.IsPlaying {
		t.Error("IsPlaying = true, want false after restore")
	}
	if state.State.QueuePosition != 1 {
		t.Errorf("QueuePosition = %d, want 1 (repaired from track id)", state.State.QueuePosition)
	}
	if state.State.Volume != 1 {
		t.Errorf("Volume = %v, want 1 after out-of-range snapshot", state.State.Volume)
	}
	if state.State.Queue[0].Locator != "" {
		t.Errorf("Queue[0].Locator = %q, want empty", state.State.Queue[0].Locator)
	}
}

func TestSeekBroadcastIncludesSender(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab1 := attachTab(t, c, "tab-1", true)
	tab1.expect(protocol.TypeStartAudio)
	tab2 := attachTab(t, c, "tab-2", true)
	tab2.expect(protocol.TypeLoadStateRequest)

	tab1.send(protocol.TypeSeekTo, protocol.SeekTo{Time: 30})

	for _, tab := range []*testTab{tab1, tab2} {
		env := tab.expect(protocol.TypeSeekTo)
		var payload protocol.SeekTo
		if err := env.Decode(&payload); err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if payload.Time != 30 {
			t.Errorf("%s: Time = %v, want 30", tab.id, payload.Time)
		}
	}
}

func TestTimeUpdatesOnlyFromActiveTab(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab1 := attachTab(t, c, "tab-1", true)
	tab1.expect(protocol.TypeStartAudio)
	tab2 := attachTab(t, c, "tab-2", true)
	tab2.expect(protocol.TypeLoadStateRequest)

	tab2.send(protocol.TypeUpdateTime, protocol.UpdateTime{CurrentTime: 99})
	tab1.send(protocol.TypeUpdateTime, protocol.UpdateTime{CurrentTime: 10})

	env := tab2.expect(protocol.TypeTimeUpdate)
	var payload protocol.TimeUpdate
	if err := env.Decode(&payload); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if payload.CurrentTime != 10 {
		t.Errorf("CurrentTime = %v, want 10: non-active tab report leaked through", payload.CurrentTime)
	}
}

func TestAudioEndedAdvancesQueue(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab := attachTab(t, c, "tab-1", true)
	tab.expect(protocol.TypeStartAudio)

	tab.send(protocol.TypeReplacePlaylist, protocol.ReplacePlaylist{Files: metaTracks("a", "b"), StartIndex: 0})
	tab.send(protocol.TypeAudioEnded, nil)

	state := tab.expectStateWhere("advanced to b", func(s protocol.StateUpdate) bool {
		return s.State.CurrentTrackID == "b"
	})
	if state.State.QueuePosition != 1 {
		t.Errorf("QueuePosition = %d, want 1", state.State.QueuePosition)
	}
}

func TestAudioEndedRepeatOneRestartsTrack(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab := attachTab(t, c, "tab-1", true)
	tab.expect(protocol.TypeStartAudio)

	tab.send(protocol.TypeReplacePlaylist, protocol.ReplacePlaylist{Files: metaTracks("a", "b"), StartIndex: 0})
	tab.send(protocol.TypeCycleRepeatMode, nil)
	tab.send(protocol.TypeAudioEnded, nil)

	tab.expect(protocol.TypeRepeatCurrent)

	// The queue position must not move under repeat-one.
	tab.send(protocol.TypeTogglePlayPause, nil)
	state := tab.expectStateWhere("playing", func(s protocol.StateUpdate) bool {
		return s.State.IsPlaying
	})
	if state.State.CurrentTrackID != "a" {
		t.Errorf("CurrentTrackID = %q, want %q", state.State.CurrentTrackID, "a")
	}
	if state.State.Position != 0 {
		t.Errorf("Position = %v, want 0", state.State.Position)
	}
}

func TestAudioEndedAtQueueEndStops(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab := attachTab(t, c, "tab-1", true)
	tab.expect(protocol.TypeStartAudio)

	tab.send(protocol.TypeReplacePlaylist, protocol.ReplacePlaylist{Files: metaTracks("a", "b"), StartIndex: 1})
	tab.send(protocol.TypeTogglePlayPause, nil)
	tab.expectStateWhere("playing", func(s protocol.StateUpdate) bool { return s.State.IsPlaying })

	tab.send(protocol.TypeAudioEnded, nil)

	state := tab.expectStateWhere("stopped", func(s protocol.StateUpdate) bool {
		return !s.State.IsPlaying && len(s.State.Queue) == 2
	})
	if state.State.QueuePosition != 1 {
		t.Errorf("QueuePosition = %d, want 1: end of queue keeps the last track selected", state.State.QueuePosition)
	}
	if state.State.Position != 0 {
		t.Errorf("Position = %v, want 0", state.State.Position)
	}
}

func TestAudioEndedWrapsWithRepeatAll(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab := attachTab(t, c, "tab-1", true)
	tab.expect(protocol.TypeStartAudio)

	tab.send(protocol.TypeReplacePlaylist, protocol.ReplacePlaylist{Files: metaTracks("a", "b"), StartIndex: 1})
	tab.send(protocol.TypeCycleRepeatMode, nil)
	tab.send(protocol.TypeCycleRepeatMode, nil)
	tab.send(protocol.TypeAudioEnded, nil)

	state := tab.expectStateWhere("wrapped to a", func(s protocol.StateUpdate) bool {
		return s.State.CurrentTrackID == "a"
	})
	if state.State.QueuePosition != 0 {
		t.Errorf("QueuePosition = %d, want 0", state.State.QueuePosition)
	}
}

func TestPlayNextStopsAtQueueEnd(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab := attachTab(t, c, "tab-1", true)
	tab.expect(protocol.TypeStartAudio)

	tab.send(protocol.TypeReplacePlaylist, protocol.ReplacePlaylist{Files: metaTracks("a", "b", "c"), StartIndex: 1})
	tab.send(protocol.TypePlayNext, nil)
	tab.expectStateWhere("on c", func(s protocol.StateUpdate) bool {
		return s.State.CurrentTrackID == "c"
	})

	// At the end without repeat-all, next is a no-op.
	tab.send(protocol.TypePlayNext, nil)
	state := tab.expectStateWhere("queue len 3", func(s protocol.StateUpdate) bool {
		return len(s.State.Queue) == 3
	})
	if state.State.CurrentTrackID != "c" {
		t.Errorf("CurrentTrackID = %q, want %q", state.State.CurrentTrackID, "c")
	}
}

func TestVolumeClampedAndBroadcast(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab := attachTab(t, c, "tab-1", true)
	tab.expect(protocol.TypeStartAudio)

	tab.send(protocol.TypeChangeVolume, protocol.ChangeVolume{Volume: 1.7})

	env := tab.expect(protocol.TypeVolumeUpdate)
	var payload protocol.VolumeUpdate
	if err := env.Decode(&payload); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if payload.Volume != 1 {
		t.Errorf("Volume = %v, want 1", payload.Volume)
	}
	state := tab.expectStateWhere("volume 1", func(s protocol.StateUpdate) bool {
		return s.State.Volume == 1
	})
	if state.State.Volume != 1 {
		t.Errorf("state Volume = %v, want 1", state.State.Volume)
	}
}

func TestSaveCurrentStatePersistsImmediately(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab := attachTab(t, c, "tab-1", true)
	tab.expect(protocol.TypeStartAudio)

	tab.send(protocol.TypeReplacePlaylist, protocol.ReplacePlaylist{Files: metaTracks("a", "b"), StartIndex: 0})
	tab.send(protocol.TypeTogglePlayPause, nil)
	tab.send(protocol.TypeSaveCurrentState, nil)

	env := tab.expect(protocol.TypeSaveStateRequest)
	var payload protocol.SaveStateRequest
	if err := env.Decode(&payload); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(payload.State.Queue) != 2 {
		t.Errorf("len(Queue) = %d, want 2", len(payload.State.Queue))
	}
	if payload.State.IsPlaying {
		t.Error("snapshot IsPlaying = true, want sanitized false")
	}
	if payload.State.ActiveAudioTabID != "" {
		t.Errorf("snapshot ActiveAudioTabID = %q, want empty", payload.State.ActiveAudioTabID)
	}
}

func TestDebouncedSaveFiresAfterQuietPeriod(t *testing.T) {
	c := newTestCoordinator(t, 30*time.Millisecond)
	tab := attachTab(t, c, "tab-1", true)
	tab.expect(protocol.TypeStartAudio)

	tab.send(protocol.TypeReplacePlaylist, protocol.ReplacePlaylist{Files: metaTracks("a"), StartIndex: 0})

	env := tab.expect(protocol.TypeSaveStateRequest)
	var payload protocol.SaveStateRequest
	if err := env.Decode(&payload); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(payload.State.Queue) != 1 {
		t.Errorf("len(Queue) = %d, want 1", len(payload.State.Queue))
	}
}

func TestFilesAvailableMergesMetadata(t *testing.T) {
	c := newTestCoordinator(t, time.Minute)
	tab := attachTab(t, c, "tab-1", true)
	tab.expect(protocol.TypeStartAudio)

	tab.send(protocol.TypeReplacePlaylist, protocol.ReplacePlaylist{
		Files:      []core.Track{{ID: "a"}},
		StartIndex: 0,
	})
	tab.expectStateWhere("queue populated", func(s protocol.StateUpdate) bool {
		return len(s.State.Queue) == 1
	})

	tab.send(protocol.TypeFilesAvailable, protocol.FilesAvailable{
		Files: []core.Track{{ID: "a", Name: "Alpha", Tags: []string{"jazz"}, Locator: "/music/a.mp3"}},
	})

	state := tab.expectStateWhere("name merged", func(s protocol.StateUpdate) bool {
		return s.State.Queue[0].Name == "Alpha"
	})
	if state.State.Queue[0].Locator != "" {
		t.Errorf("Locator = %q, want empty in shared state", state.State.Queue[0].Locator)
	}
}

func TestSeekDoesNotPersist(t *testing.T) {
	c := newTestCoordinator(t, 30*time.Millisecond)
	tab := attachTab(t, c, "tab-1", true)
	tab.expect(protocol.TypeStartAudio)

	// A bare seek is transient; it must not arm the save debounce.
	tab.send(protocol.TypeSeekTo, protocol.SeekTo{Time: 12})
	tab.expect(protocol.TypeSeekTo)

	select {
	case env, ok := <-tab.in:
		if ok && env.Type == protocol.TypeSaveStateRequest {
			t.Error("seek triggered a persistence save")
		}
	case <-time.After(100 * time.Millisecond):
	}
}

// deadConn stands in for a tab whose channel broke between messages: every
// send fails.
type deadConn struct{}

func (deadConn) Send(protocol.Envelope) error        { return transport.ErrClosed }
func (deadConn) Receive() (protocol.Envelope, error) { return protocol.Envelope{}, transport.ErrClosed }
func (deadConn) Close() error                        { return nil }

// recordingConn captures everything sent to it.
type recordingConn struct{ sent []protocol.Envelope }

func (c *recordingConn) Send(env protocol.Envelope) error {
	c.sent = append(c.sent, env)
	return nil
}

func (c *recordingConn) Receive() (protocol.Envelope, error) {
	return protocol.Envelope{}, transport.ErrClosed
}

func (c *recordingConn) Close() error { return nil }

func TestElectWithUnreachableIncumbentStartsSuccessorOnce(t *testing.T) {
	c := New(Options{Logger: zerolog.Nop()})
	rec := &recordingConn{}
	c.tabs["tab-1"] = &tabConn{id: "tab-1", conn: deadConn{}, canProduceAudio: false, seq: 1}
	c.tabs["tab-2"] = &tabConn{id: "tab-2", conn: rec, canProduceAudio: true, seq: 2}
	c.state.ActiveAudioTabID = "tab-1"

	// The STOP_AUDIO send to tab-1 fails, which removes it mid-election.
	// The successor must still be handed ownership exactly once.
	c.elect()

	if c.state.ActiveAudioTabID != "tab-2" {
		t.Errorf("ActiveAudioTabID = %q, want %q", c.state.ActiveAudioTabID, "tab-2")
	}
	if _, ok := c.tabs["tab-1"]; ok {
		t.Error("unreachable tab still registered after failed send")
	}
	starts, states := 0, 0
	for _, env := range rec.sent {
		switch env.Type {
		case protocol.TypeStartAudio:
			starts++
		case protocol.TypeStateUpdate:
			states++
		}
	}
	if starts != 1 {
		t.Errorf("START_AUDIO count = %d, want 1", starts)
	}
	if states != 1 {
		t.Errorf("STATE_UPDATE count = %d, want 1", states)
	}
}
