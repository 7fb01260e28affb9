// Package coordinator implements the shared playback session owner. One
// coordinator serves any number of client tabs; it is the sole mutator of
// the playback state and decides which tab owns real audio output.
//
// The coordinator is a single-goroutine actor. Every attached connection
// feeds a common inbox, so commands from all tabs are applied in one total
// order and the state needs no locks.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/corvale/chorus/internal/core"
	"github.com/corvale/chorus/internal/protocol"
	"github.com/corvale/chorus/internal/store"
	"github.com/corvale/chorus/internal/transport"
)

// DefaultSaveDebounce is the quiet period before a persistence save is
// requested after continuous state changes.
const DefaultSaveDebounce = 2 * time.Second

const inboxBuffer = 256

// Options configures a coordinator.
type Options struct {
	// SaveDebounce overrides the persistence debounce window.
	SaveDebounce time.Duration
	Logger       zerolog.Logger
}

// Coordinator owns the authoritative PlaybackState and mediates all
// playback commands from connected tabs.
type Coordinator struct {
	log          zerolog.Logger
	saveDebounce time.Duration

	inbox chan inbound
	done  chan struct{}
	once  sync.Once

	// Actor-owned. Touched only from the Run goroutine.
	state     core.PlaybackState
	tabs      map[string]*tabConn
	seq       int64
	saveTimer *time.Timer
}

type tabConn struct {
	id              string
	conn            transport.Conn
	canProduceAudio bool
	seq             int64
}

// inbound is one unit of work for the actor loop: a tab message, a
// detected disconnect, or a fired save-debounce timer.
type inbound struct {
	env    protocol.Envelope
	conn   transport.Conn
	detach string
	flush  bool
}

// New creates a coordinator. Call Run to start processing.
func New(opts Options) *Coordinator {
	debounce := opts.SaveDebounce
	if debounce <= 0 {
		debounce = DefaultSaveDebounce
	}
	return &Coordinator{
		log:          opts.Logger.With().Str("component", "coordinator").Logger(),
		saveDebounce: debounce,
		inbox:        make(chan inbound, inboxBuffer),
		done:         make(chan struct{}),
		state:        core.NewPlaybackState(),
		tabs:         make(map[string]*tabConn),
	}
}

// Run processes inbox messages until ctx is cancelled. It must be called
// exactly once; all state handling happens on this goroutine.
func (c *Coordinator) Run(ctx context.Context) {
	defer c.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-c.inbox:
			switch {
			case in.flush:
				c.persistNow()
			case in.detach != "":
				c.removeTab(in.detach)
			default:
				c.dispatch(in.env, in.conn)
			}
		}
	}
}

// Attach hands a connection to the coordinator. A reader goroutine pumps
// its envelopes into the inbox; when the connection dies the tab that last
// spoke on it is implicitly unregistered.
func (c *Coordinator) Attach(conn transport.Conn) {
	go func() {
		var tabID string
		for {
			env, err := conn.Receive()
			if err != nil {
				if tabID != "" {
					c.enqueue(inbound{detach: tabID})
				}
				return
			}
			if env.TabID != "" {
				tabID = env.TabID
			}
			c.enqueue(inbound{env: env, conn: conn})
		}
	}()
}

func (c *Coordinator) enqueue(in inbound) {
	select {
	case c.inbox <- in:
	case <-c.done:
	}
}

func (c *Coordinator) shutdown() {
	c.once.Do(func() { close(c.done) })
	if c.saveTimer != nil {
		c.saveTimer.Stop()
	}
	for _, t := range c.tabs {
		t.conn.Close()
	}
	c.tabs = make(map[string]*tabConn)
}

// scheduleSave arms (or re-arms) the debounced persistence request. The
// timer callback re-enters the actor through the inbox so the save itself
// runs in message order.
func (c *Coordinator) scheduleSave() {
	if c.saveTimer == nil {
		c.saveTimer = time.AfterFunc(c.saveDebounce, func() {
			c.enqueue(inbound{flush: true})
		})
		return
	}
	c.saveTimer.Reset(c.saveDebounce)
}

// persistNow asks a connected tab to write the current snapshot through
// its persistence bridge. The coordinator itself has no storage access.
func (c *Coordinator) persistNow() {
	if c.saveTimer != nil {
		c.saveTimer.Stop()
	}
	target := c.persistTarget()
	if target == nil {
		return
	}
	env, err := protocol.New(protocol.TypeSaveStateRequest, "", protocol.SaveStateRequest{
		State: store.Sanitize(c.state),
	})
	if err != nil {
		c.log.Error().Err(err).Msg("encode save request")
		return
	}
	c.sendTo(target, env)
}

// persistTarget prefers the active audio tab, then the most recently
// registered tab.
func (c *Coordinator) persistTarget() *tabConn {
	if t, ok := c.tabs[c.state.ActiveAudioTabID]; ok {
		return t
	}
	var newest *tabConn
	for _, t := range c.tabs {
		if newest == nil || t.seq > newest.seq {
			newest = t
		}
	}
	return newest
}

// sendTo delivers one envelope to one tab. A failed send means the tab is
// gone: it is removed, which re-elects if it was the audio owner.
func (c *Coordinator) sendTo(t *tabConn, env protocol.Envelope) {
	if err := t.conn.Send(env); err != nil {
		c.log.Debug().Str("tab", t.id).Msg("send failed, dropping tab")
		c.removeTab(t.id)
	}
}

// broadcast sends an envelope to every connected tab, dropping any tab
// whose channel has failed.
func (c *Coordinator) broadcast(env protocol.Envelope) {
	var failed []string
	for id, t := range c.tabs {
		if err := t.conn.Send(env); err != nil {
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		c.log.Debug().Str("tab", id).Msg("send failed, dropping tab")
		c.removeTab(id)
	}
}

// broadcastState sends the full authoritative state to every tab.
func (c *Coordinator) broadcastState() {
	env, err := protocol.New(protocol.TypeStateUpdate, "", protocol.StateUpdate{
		State:            c.state.Clone(),
		ActiveAudioTabID: c.state.ActiveAudioTabID,
	})
	if err != nil {
		c.log.Error().Err(err).Msg("encode state update")
		return
	}
	c.broadcast(env)
}

// removeTab drops a tab from the set. If it owned audio output the
// ownership is re-elected among the remaining tabs.
func (c *Coordinator) removeTab(id string) {
	if _, ok := c.tabs[id]; !ok {
		return
	}
	delete(c.tabs, id)
	c.log.Debug().Str("tab", id).Int("tabs", len(c.tabs)).Msg("tab unregistered")
	if c.state.ActiveAudioTabID == id {
		c.state.ActiveAudioTabID = ""
		c.elect()
	}
}

// elect re-runs the active-tab election. The incumbent keeps ownership as
// long as it is connected and either still reports audio capability or no
// capable tab exists, so audio does not restart on every event. Otherwise
// ownership moves to the most recently registered capable tab, falling
// back to the most recently registered tab of any capability.
func (c *Coordinator) elect() {
	var capable *tabConn
	for _, t := range c.tabs {
		if t.canProduceAudio && (capable == nil || t.seq > capable.seq) {
			capable = t
		}
	}

	old := c.state.ActiveAudioTabID
	if cur, ok := c.tabs[old]; ok {
		if cur.canProduceAudio || capable == nil {
			return
		}
	}

	next := capable
	if next == nil {
		for _, t := range c.tabs {
			if next == nil || t.seq > next.seq {
				next = t
			}
		}
	}

	if next == nil {
		if old == "" {
			return
		}
		c.state.ActiveAudioTabID = ""
		c.log.Debug().Msg("no tabs left, audio ownership cleared")
		c.broadcastState()
		return
	}
	if next.id == old {
		return
	}

	if prev, ok := c.tabs[old]; ok {
		// Ownership is cleared before the STOP_AUDIO send. A failed send
		// removes the tab, and removing a non-owner does not re-enter the
		// election, so the successor is started exactly once.
		c.state.ActiveAudioTabID = ""
		if env, err := protocol.New(protocol.TypeStopAudio, "", nil); err == nil {
			c.sendTo(prev, env)
		}
	}

	c.state.ActiveAudioTabID = next.id
	c.log.Debug().Str("tab", next.id).Bool("capable", next.canProduceAudio).Msg("active audio tab elected")

	start, err := protocol.New(protocol.TypeStartAudio, "", protocol.StartAudio{State: c.state.Clone()})
	if err != nil {
		c.log.Error().Err(err).Msg("encode start audio")
	} else {
		c.sendTo(next, start)
	}
	c.broadcastState()
}
