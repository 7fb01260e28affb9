package tab

import (
	"github.com/corvale/chorus/internal/core"
	"github.com/corvale/chorus/internal/protocol"
)

// User-facing operations. Each is a thin message send; nothing mutates
// local state directly. The change comes back on the broadcast path, so
// every tab converges on the same view. Tracks are stripped to metadata
// before crossing the wire because locators are only meaningful locally.

// Play replaces the queue with the single given track and starts it.
func (a *Adapter) Play(file core.Track) {
	a.send(protocol.TypePlayFile, protocol.PlayFile{File: file.Meta()})
}

// ReplacePlaylist swaps in a whole new queue starting at startIndex.
func (a *Adapter) ReplacePlaylist(files []core.Track, startIndex int) {
	a.send(protocol.TypeReplacePlaylist, protocol.ReplacePlaylist{
		Files:      metaOnly(files),
		StartIndex: startIndex,
	})
}

// AddToPlaylist appends tracks to the shared queue.
func (a *Adapter) AddToPlaylist(files []core.Track) {
	a.send(protocol.TypeAddToPlaylist, protocol.AddToPlaylist{Files: metaOnly(files)})
}

// RemoveFromPlaylist removes the track with the given id from the queue.
func (a *Adapter) RemoveFromPlaylist(fileID string) {
	a.send(protocol.TypeRemoveFromPlaylist, protocol.RemoveFromPlaylist{FileID: fileID})
}

// ClearPlaylist empties the shared queue.
func (a *Adapter) ClearPlaylist() {
	a.send(protocol.TypeClearPlaylist, nil)
}

// TogglePlayPause flips the shared playing flag.
func (a *Adapter) TogglePlayPause() {
	a.send(protocol.TypeTogglePlayPause, nil)
}

// PlayNext advances the shared queue.
func (a *Adapter) PlayNext() {
	a.send(protocol.TypePlayNext, nil)
}

// PlayPrevious steps the shared queue back.
func (a *Adapter) PlayPrevious() {
	a.send(protocol.TypePlayPrevious, nil)
}

// SeekTo jumps playback to the given position in seconds.
func (a *Adapter) SeekTo(seconds float64) {
	a.send(protocol.TypeSeekTo, protocol.SeekTo{Time: seconds})
}

// ChangeVolume sets the shared volume in [0,1].
func (a *Adapter) ChangeVolume(volume float64) {
	a.send(protocol.TypeChangeVolume, protocol.ChangeVolume{Volume: volume})
}

// CycleRepeatMode steps none, one, all, none.
func (a *Adapter) CycleRepeatMode() {
	a.send(protocol.TypeCycleRepeatMode, nil)
}

// TogglePanel flips the playlist panel visibility.
func (a *Adapter) TogglePanel() {
	a.send(protocol.TypeTogglePanel, nil)
}

// SetPanelCollapsed sets the playlist panel collapse flag.
func (a *Adapter) SetPanelCollapsed(collapsed bool) {
	a.send(protocol.TypeSetPanelCollapsed, protocol.SetPanelCollapsed{Collapsed: collapsed})
}

// AnnounceFiles tells the coordinator which tracks this tab has resolved
// locally, letting it fill in metadata for queue entries restored from a
// snapshot.
func (a *Adapter) AnnounceFiles(files []core.Track) {
	a.send(protocol.TypeFilesAvailable, protocol.FilesAvailable{Files: metaOnly(files)})
}

// SaveNow asks the coordinator for an immediate snapshot flush, skipping
// the debounce window.
func (a *Adapter) SaveNow() {
	a.send(protocol.TypeSaveCurrentState, nil)
}

func metaOnly(files []core.Track) []core.Track {
	if files == nil {
		return nil
	}
	out := make([]core.Track, len(files))
	for i, f := range files {
		out[i] = f.Meta()
	}
	return out
}
