package audio

import "sync"

// MockOutput is an Output for tests: it records opened locators and hands
// out MockSinks whose playback is driven manually.
type MockOutput struct {
	mu      sync.Mutex
	capable bool
	openErr error
	opened  []string
	sinks   []*MockSink
}

// NewMockOutput returns a mock output that reports the given capability.
func NewMockOutput(capable bool) *MockOutput {
	return &MockOutput{capable: capable}
}

// SetOpenError makes subsequent Open calls fail with err.
func (o *MockOutput) SetOpenError(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.openErr = err
}

func (o *MockOutput) Open(locator string) (Sink, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.openErr != nil {
		return nil, o.openErr
	}
	s := &MockSink{locator: locator, done: make(chan struct{})}
	o.opened = append(o.opened, locator)
	o.sinks = append(o.sinks, s)
	return s, nil
}

func (o *MockOutput) Probe() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.capable
}

// Opened returns the locators opened so far.
func (o *MockOutput) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.opened...)
}

// LastSink returns the most recently opened sink, or nil.
func (o *MockOutput) LastSink() *MockSink {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sinks) == 0 {
		return nil
	}
	return o.sinks[len(o.sinks)-1]
}

// MockSink records control calls and lets tests drive position, duration
// and end-of-track.
type MockSink struct {
	mu       sync.Mutex
	locator  string
	playing  bool
	closed   bool
	volume   float64
	position float64
	duration float64
	done     chan struct{}
	doneOnce sync.Once
}

func (s *MockSink) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = true
}

func (s *MockSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
}

func (s *MockSink) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
}

func (s *MockSink) SeekTo(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = seconds
	return nil
}

func (s *MockSink) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *MockSink) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *MockSink) Done() <-chan struct{} {
	return s.done
}

func (s *MockSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.closed = true
	return nil
}

// Test drivers.

// FinishTrack simulates the track playing to its end.
func (s *MockSink) FinishTrack() {
	s.doneOnce.Do(func() { close(s.done) })
}

// SetDuration sets the duration reported by the sink.
func (s *MockSink) SetDuration(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duration = seconds
}

// SetPosition sets the position reported by the sink.
func (s *MockSink) SetPosition(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = seconds
}

// Playing reports whether the sink is currently playing.
func (s *MockSink) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Closed reports whether the sink has been released.
func (s *MockSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Volume returns the last volume applied to the sink.
func (s *MockSink) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Locator returns the locator this sink was opened with.
func (s *MockSink) Locator() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locator
}
