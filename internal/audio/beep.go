//go:build cgo || windows || darwin

package audio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/rs/zerolog"
)

// Available indicates whether audio playback is supported in this build.
const Available = true

const outputSampleRate = beep.SampleRate(44100)

// beepOutput produces speaker-backed sinks using beep. The speaker is
// process-global and initialized once, on first open or probe.
type beepOutput struct {
	mu          sync.Mutex
	initialized bool
	initErr     error
	log         zerolog.Logger
}

// NewOutput returns the platform audio output.
func NewOutput(logger zerolog.Logger) Output {
	return &beepOutput{log: logger.With().Str("component", "audio").Logger()}
}

func (o *beepOutput) initSpeaker() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.initialized {
		return o.initErr
	}
	o.initialized = true
	o.initErr = speaker.Init(outputSampleRate, outputSampleRate.N(time.Second/10))
	return o.initErr
}

// Probe attempts to bring up the speaker. Failure is data for the
// coordinator's election, not an error.
func (o *beepOutput) Probe() bool {
	if err := o.initSpeaker(); err != nil {
		o.log.Debug().Err(err).Msg("audio probe failed")
		return false
	}
	return true
}

func (o *beepOutput) Open(locator string) (Sink, error) {
	if err := o.initSpeaker(); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}

	f, err := os.Open(locator)
	if err != nil {
		return nil, fmt.Errorf("open track: %w", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(locator)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported audio format: %s", filepath.Ext(locator))
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode track: %w", err)
	}

	resampled := beep.Resample(4, format.SampleRate, outputSampleRate, streamer)
	volume := &effects.Volume{Streamer: resampled, Base: 2}
	ctrl := &beep.Ctrl{Streamer: volume, Paused: true}
	done := make(chan struct{})

	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		close(done)
	})))

	return &beepSink{
		streamer: streamer,
		format:   format,
		ctrl:     ctrl,
		volume:   volume,
		done:     done,
	}, nil
}

type beepSink struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	done     chan struct{}
}

func (s *beepSink) Play() {
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
}

func (s *beepSink) Pause() {
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

// SetVolume maps the session's linear [0,1] volume onto beep's exponential
// scale; zero mutes outright.
func (s *beepSink) SetVolume(v float64) {
	speaker.Lock()
	if v <= 0 {
		s.volume.Silent = true
	} else {
		s.volume.Silent = false
		if v > 1 {
			v = 1
		}
		s.volume.Volume = math.Log2(v)
	}
	speaker.Unlock()
}

func (s *beepSink) SeekTo(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return s.streamer.Seek(s.format.SampleRate.N(time.Duration(seconds * float64(time.Second))))
}

func (s *beepSink) Position() float64 {
	speaker.Lock()
	pos := s.streamer.Position()
	speaker.Unlock()
	return s.format.SampleRate.D(pos).Seconds()
}

func (s *beepSink) Duration() float64 {
	speaker.Lock()
	n := s.streamer.Len()
	speaker.Unlock()
	return s.format.SampleRate.D(n).Seconds()
}

func (s *beepSink) Done() <-chan struct{} {
	return s.done
}

func (s *beepSink) Close() error {
	speaker.Lock()
	s.ctrl.Paused = true
	s.ctrl.Streamer = nil
	speaker.Unlock()
	return s.streamer.Close()
}
