//go:build !cgo && !windows && !darwin

package audio

import (
	"errors"

	"github.com/rs/zerolog"
)

// Available indicates whether audio playback is supported in this build.
const Available = false

type stubOutput struct{}

// NewOutput returns a stub output on platforms without audio support. Open
// always fails and the probe reports incapable, so the coordinator will
// never elect this tab while a capable one is connected.
func NewOutput(zerolog.Logger) Output {
	return stubOutput{}
}

func (stubOutput) Open(string) (Sink, error) {
	return nil, errors.New("audio playback not supported in this build")
}

func (stubOutput) Probe() bool { return false }
