package core

// Queue transitions. Every mutation below preserves the state invariants:
// no two queue entries share an id, QueuePosition is a valid index whenever
// the queue is non-empty (-1 otherwise), and CurrentTrackID always matches
// Queue[QueuePosition].ID.

// IndexOf returns the queue index of the track with the given id, or -1.
func (s *PlaybackState) IndexOf(id string) int {
	for i, t := range s.Queue {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// ReplacePlaylist replaces the whole queue, deduplicated by id, and selects
// startIndex (clamped into range). Playback position resets to zero.
func (s *PlaybackState) ReplacePlaylist(files []Track, startIndex int) {
	s.Queue = dedupeByID(files)
	s.Position = 0
	if len(s.Queue) == 0 {
		s.QueuePosition = -1
		s.CurrentTrackID = ""
		return
	}
	if startIndex < 0 || startIndex >= len(s.Queue) {
		startIndex = 0
	}
	s.QueuePosition = startIndex
	s.CurrentTrackID = s.Queue[startIndex].ID
}

// AddToPlaylist appends files whose id is not already queued. Adding to an
// empty queue selects the first added track so the position invariant holds.
// Returns the number of tracks actually added.
func (s *PlaybackState) AddToPlaylist(files []Track) int {
	added := 0
	for _, f := range files {
		if s.IndexOf(f.ID) >= 0 {
			continue
		}
		s.Queue = append(s.Queue, f)
		added++
	}
	if s.QueuePosition < 0 && len(s.Queue) > 0 {
		s.QueuePosition = 0
		s.CurrentTrackID = s.Queue[0].ID
	}
	return added
}

// RemoveFromPlaylist removes the entry with the given id. When the current
// track is removed the selection moves to min(removedIndex, len-1): a
// forward-biased choice that keeps playback roughly where it was. Returns
// true if anything was removed.
func (s *PlaybackState) RemoveFromPlaylist(id string) bool {
	idx := s.IndexOf(id)
	if idx < 0 {
		return false
	}
	wasCurrent := s.CurrentTrackID == id
	s.Queue = append(s.Queue[:idx], s.Queue[idx+1:]...)

	if wasCurrent {
		if len(s.Queue) > 0 {
			next := idx
			if next > len(s.Queue)-1 {
				next = len(s.Queue) - 1
			}
			s.QueuePosition = next
			s.CurrentTrackID = s.Queue[next].ID
			s.Position = 0
		} else {
			s.QueuePosition = -1
			s.CurrentTrackID = ""
			s.Position = 0
			s.IsPlaying = false
		}
		return true
	}

	s.QueuePosition = s.IndexOf(s.CurrentTrackID)
	return true
}

// ClearPlaylist empties the queue and stops playback.
func (s *PlaybackState) ClearPlaylist() {
	s.Queue = nil
	s.QueuePosition = -1
	s.CurrentTrackID = ""
	s.Position = 0
	s.IsPlaying = false
}

// PlayFile replaces the queue with a single track and starts playing it.
func (s *PlaybackState) PlayFile(file Track) {
	s.Queue = []Track{file}
	s.QueuePosition = 0
	s.CurrentTrackID = file.ID
	s.Position = 0
	s.IsPlaying = true
}

// Advance moves to the next track, wrapping to the start when RepeatMode is
// RepeatAll. Returns false (and leaves state untouched) when already on the
// last track without wrap-around.
func (s *PlaybackState) Advance() bool {
	if len(s.Queue) == 0 {
		return false
	}
	switch {
	case s.QueuePosition < len(s.Queue)-1:
		s.QueuePosition++
	case s.RepeatMode == RepeatAll:
		s.QueuePosition = 0
	default:
		return false
	}
	s.CurrentTrackID = s.Queue[s.QueuePosition].ID
	s.Position = 0
	return true
}

// Retreat moves to the previous track, wrapping to the end when RepeatMode
// is RepeatAll.
func (s *PlaybackState) Retreat() bool {
	if len(s.Queue) == 0 {
		return false
	}
	switch {
	case s.QueuePosition > 0:
		s.QueuePosition--
	case s.RepeatMode == RepeatAll:
		s.QueuePosition = len(s.Queue) - 1
	default:
		return false
	}
	s.CurrentTrackID = s.Queue[s.QueuePosition].ID
	s.Position = 0
	return true
}

// MergeResolved replaces queue entries in place with metadata from resolved
// tracks matched by id, and recomputes the queue position from the current
// track id. Returns true if anything changed.
func (s *PlaybackState) MergeResolved(files []Track) bool {
	changed := false
	for _, f := range files {
		idx := s.IndexOf(f.ID)
		if idx < 0 {
			continue
		}
		meta := f.Meta()
		if !trackMetaEqual(s.Queue[idx], meta) {
			s.Queue[idx] = meta
			changed = true
		}
	}
	if s.CurrentTrackID != "" {
		if pos := s.IndexOf(s.CurrentTrackID); pos >= 0 && pos != s.QueuePosition {
			s.QueuePosition = pos
			changed = true
		}
	}
	return changed
}

func dedupeByID(files []Track) []Track {
	if len(files) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(files))
	out := make([]Track, 0, len(files))
	for _, f := range files {
		if _, dup := seen[f.ID]; dup {
			continue
		}
		seen[f.ID] = struct{}{}
		out = append(out, f)
	}
	return out
}

func trackMetaEqual(a, b Track) bool {
	if a.ID != b.ID || a.Name != b.Name || a.FolderID != b.FolderID || a.DurationHint != b.DurationHint {
		return false
	}
	if len(a.Tags) != len(b.Tags) {
		return false
	}
	for i := range a.Tags {
		if a.Tags[i] != b.Tags[i] {
			return false
		}
	}
	return true
}
