// Package tab implements the client side of a playback session: one
// adapter per process, holding a locally cached copy of the shared state
// and, only while elected the active audio tab, a live audio sink.
package tab

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/corvale/chorus/internal/audio"
	"github.com/corvale/chorus/internal/core"
	"github.com/corvale/chorus/internal/protocol"
	"github.com/corvale/chorus/internal/store"
	"github.com/corvale/chorus/internal/transport"
)

// DefaultTimeUpdateInterval is how often the active tab reports playback
// position to the coordinator.
const DefaultTimeUpdateInterval = 250 * time.Millisecond

// Options configures an adapter.
type Options struct {
	// Conn is the channel to the coordinator. Required.
	Conn transport.Conn
	// Output produces audio sinks. Nil means this tab can never play audio
	// (an ephemeral control client, for example).
	Output audio.Output
	// Bridge persists and restores snapshots on the coordinator's behalf.
	// Nil means this tab answers restore requests with "nothing saved".
	Bridge *store.Bridge
	// Resolve maps a track id to a locally playable track. Nil means no
	// local catalogue; tracks without locators stay silent here.
	Resolve func(id string) (core.Track, bool)
	// TimeUpdateInterval overrides the position reporting cadence.
	TimeUpdateInterval time.Duration
	Logger             zerolog.Logger
}

// Adapter is one tab's liaison to the coordinator. All of its user-facing
// operations are thin message sends; local state only changes when the
// coordinator broadcasts it back.
type Adapter struct {
	id      string
	conn    transport.Conn
	output  audio.Output
	bridge  *store.Bridge
	resolve func(id string) (core.Track, bool)
	log     zerolog.Logger

	tickInterval time.Duration

	mu          sync.Mutex
	state       core.PlaybackState
	active      bool
	sink        audio.Sink
	sinkTrackID string

	probeOnce sync.Once

	firstState chan struct{}
	stateOnce  sync.Once
	updates    chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// New creates an adapter with a fresh process-unique tab id.
func New(opts Options) *Adapter {
	interval := opts.TimeUpdateInterval
	if interval <= 0 {
		interval = DefaultTimeUpdateInterval
	}
	id := uuid.NewString()
	return &Adapter{
		id:           id,
		conn:         opts.Conn,
		output:       opts.Output,
		bridge:       opts.Bridge,
		resolve:      opts.Resolve,
		log:          opts.Logger.With().Str("component", "tab").Str("tab", id).Logger(),
		tickInterval: interval,
		state:        core.NewPlaybackState(),
		firstState:   make(chan struct{}),
		updates:      make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
}

// ID returns this tab's unique id.
func (a *Adapter) ID() string {
	return a.id
}

// Start registers the tab with the coordinator and begins processing
// broadcasts. Registration is optimistic: a tab with an audio output
// claims capability until the probe corrects it.
func (a *Adapter) Start() error {
	env, err := protocol.New(protocol.TypeRegisterTab, a.id, protocol.RegisterTab{
		CanProduceAudio: a.output != nil,
	})
	if err != nil {
		return err
	}
	if err := a.conn.Send(env); err != nil {
		return err
	}

	a.wg.Add(2)
	go a.receiveLoop()
	go a.reportLoop()
	return nil
}

// Close tears the tab down: a final state flush, an explicit unregister,
// then the connection itself. Both sends are best effort.
func (a *Adapter) Close() error {
	a.closeOnce.Do(func() {
		if env, err := protocol.New(protocol.TypeSaveCurrentState, a.id, nil); err == nil {
			a.conn.Send(env)
		}
		if env, err := protocol.New(protocol.TypeUnregisterTab, a.id, nil); err == nil {
			a.conn.Send(env)
		}
		a.mu.Lock()
		a.releaseSinkLocked()
		a.mu.Unlock()
		close(a.done)
		a.conn.Close()
	})
	a.wg.Wait()
	return nil
}

// State returns a copy of the last broadcast state.
func (a *Adapter) State() core.PlaybackState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Clone()
}

// Active reports whether this tab currently owns audio output.
func (a *Adapter) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Updates signals whenever local state has changed. The channel coalesces;
// read State after each receive.
func (a *Adapter) Updates() <-chan struct{} {
	return a.updates
}

// WaitForState blocks until the first state broadcast arrives.
func (a *Adapter) WaitForState(ctx context.Context) error {
	select {
	case <-a.firstState:
		return nil
	case <-a.done:
		return transport.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ProbeAudio runs the one-shot audio capability check and reports the
// result. Called on the first user interaction; never retried.
func (a *Adapter) ProbeAudio() {
	a.probeOnce.Do(func() {
		capable := a.output != nil && a.output.Probe()
		a.log.Debug().Bool("capable", capable).Msg("audio capability probed")
		a.send(protocol.TypeTabCanPlayAudio, protocol.TabCanPlayAudio{CanProduceAudio: capable})
	})
}

func (a *Adapter) notify() {
	a.stateOnce.Do(func() { close(a.firstState) })
	select {
	case a.updates <- struct{}{}:
	default:
	}
}

func (a *Adapter) send(msgType string, payload any) {
	env, err := protocol.New(msgType, a.id, payload)
	if err != nil {
		a.log.Error().Err(err).Str("type", msgType).Msg("encode message")
		return
	}
	if err := a.conn.Send(env); err != nil {
		a.log.Debug().Str("type", msgType).Msg("send failed, coordinator gone")
	}
}

func (a *Adapter) receiveLoop() {
	defer a.wg.Done()
	for {
		env, err := a.conn.Receive()
		if err != nil {
			a.mu.Lock()
			a.releaseSinkLocked()
			a.active = false
			a.mu.Unlock()
			a.notify()
			return
		}
		a.handle(env)
	}
}

// reportLoop streams playback position to the coordinator while this tab
// is actively playing.
func (a *Adapter) reportLoop() {
	defer a.wg.Done()
	ticker := time.NewTicker(a.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-a.done:
			return
		case <-ticker.C:
		}

		a.mu.Lock()
		sink := a.sink
		playing := a.active && a.state.IsPlaying && sink != nil
		if playing {
			a.state.Position = sink.Position()
		}
		a.mu.Unlock()

		if playing {
			a.send(protocol.TypeUpdateTime, protocol.UpdateTime{CurrentTime: sink.Position()})
			a.notify()
		}
	}
}

// watchSink emits AUDIO_ENDED when the given sink plays to completion. A
// sink that was replaced or released no longer speaks for the tab.
func (a *Adapter) watchSink(sink audio.Sink) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		select {
		case <-a.done:
			return
		case <-sink.Done():
		}
		a.mu.Lock()
		current := a.sink == sink
		a.mu.Unlock()
		if current {
			a.send(protocol.TypeAudioEnded, nil)
		}
	}()
}

// releaseSinkLocked tears down the local audio element. Callers hold a.mu.
// The sink pointer is cleared before Close so the done-watcher cannot
// mistake teardown for end-of-track.
func (a *Adapter) releaseSinkLocked() {
	sink := a.sink
	a.sink = nil
	a.sinkTrackID = ""
	if sink != nil {
		sink.Pause()
		sink.Close()
	}
}
