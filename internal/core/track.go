package core

// Track identifies one playable item. The Locator points at a byte source
// (a file path, today) that is only meaningful inside the client process
// that resolved it; it is never serialized across the coordinator boundary,
// so the coordinator's copy of a track is always metadata-only.
type Track struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Locator      string   `json:"-"`
	Tags         []string `json:"tags,omitempty"`
	FolderID     string   `json:"folderId,omitempty"`
	DurationHint float64  `json:"durationHint,omitempty"`
}

// Resolved returns true if the track carries a playable byte source.
func (t Track) Resolved() bool {
	return t.Locator != ""
}

// Meta returns a copy of the track with the locator stripped, safe to hand
// to the coordinator or to persist.
func (t Track) Meta() Track {
	t.Locator = ""
	return t
}
