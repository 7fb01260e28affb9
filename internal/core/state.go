package core

// RepeatMode controls what happens when the current track ends.
type RepeatMode string

const (
	RepeatNone RepeatMode = "none"
	RepeatOne  RepeatMode = "one"
	RepeatAll  RepeatMode = "all"
)

// Cycle returns the next repeat mode: none → one → all → none.
func (m RepeatMode) Cycle() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatOne
	case RepeatOne:
		return RepeatAll
	default:
		return RepeatNone
	}
}

// PlaybackState is the single authoritative description of the shared
// playback session. It is owned and mutated exclusively by the coordinator;
// clients hold eventually-consistent copies received via broadcasts.
type PlaybackState struct {
	CurrentTrackID   string     `json:"currentTrackId,omitempty"`
	IsPlaying        bool       `json:"isPlaying"`
	Position         float64    `json:"currentPosition"`
	Duration         float64    `json:"duration"`
	Volume           float64    `json:"volume"`
	RepeatMode       RepeatMode `json:"repeatMode"`
	Queue            []Track    `json:"queue"`
	QueuePosition    int        `json:"queuePosition"`
	PanelVisible     bool       `json:"panelVisible"`
	PanelCollapsed   bool       `json:"panelCollapsed"`
	ActiveAudioTabID string     `json:"activeAudioTabId,omitempty"`
}

// NewPlaybackState returns the default empty state.
func NewPlaybackState() PlaybackState {
	return PlaybackState{
		Volume:        1,
		RepeatMode:    RepeatNone,
		QueuePosition: -1,
		PanelVisible:  true,
	}
}

// Current returns the currently selected track, or nil if the queue is empty.
func (s *PlaybackState) Current() *Track {
	if s == nil || s.QueuePosition < 0 || s.QueuePosition >= len(s.Queue) {
		return nil
	}
	return &s.Queue[s.QueuePosition]
}

// HasTrack returns true if a track is currently selected.
func (s *PlaybackState) HasTrack() bool {
	return s.Current() != nil
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s *PlaybackState) ProgressPercent() float64 {
	if s == nil || s.Duration <= 0 {
		return 0
	}
	return s.Position / s.Duration * 100
}

// Clone returns a deep copy; the queue slice is not shared.
func (s PlaybackState) Clone() PlaybackState {
	if s.Queue != nil {
		q := make([]Track, len(s.Queue))
		copy(q, s.Queue)
		s.Queue = q
	}
	return s
}
