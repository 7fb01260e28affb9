// Package audio owns the real audio output. Exactly one sink is ever "hot"
// across the whole session: the coordinator designates which tab may hold
// one, and the tab adapter constructs and releases sinks on its orders.
package audio

// Sink is a live audio output for one track.
type Sink interface {
	Play()
	Pause()
	SetVolume(v float64)
	SeekTo(seconds float64) error
	Position() float64
	Duration() float64
	// Done is closed when the track plays to its end. It is not closed on
	// Close.
	Done() <-chan struct{}
	Close() error
}

// Output constructs sinks from locators and answers the capability probe.
type Output interface {
	Open(locator string) (Sink, error)
	// Probe reports whether this execution context can currently produce
	// audible output. Called once per tab, on the first user interaction.
	Probe() bool
}
