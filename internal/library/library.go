// Package library maintains the local catalogue of playable files. The
// coordinator only ever sees track metadata; resolving a track id back to
// actual bytes happens here, inside each client process.
package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/rs/zerolog"

	"github.com/corvale/chorus/internal/core"
)

var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".ogg":  {},
	".flac": {},
}

// Entry is a catalogued file: the wire-safe track plus local-only details.
type Entry struct {
	core.Track
	Size    int64
	ModTime time.Time
}

// Library scans a directory tree for audio files and resolves track ids to
// locators.
type Library struct {
	root string
	log  zerolog.Logger

	mu      sync.RWMutex
	entries []Entry
	byID    map[string]Entry
}

// Open creates a library rooted at dir and performs the initial scan.
func Open(dir string, logger zerolog.Logger) (*Library, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve library path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library path is not a directory: %s", abs)
	}

	l := &Library{
		root: abs,
		log:  logger.With().Str("component", "library").Logger(),
	}
	if err := l.Rescan(); err != nil {
		return nil, err
	}
	return l, nil
}

// Root returns the library's root directory.
func (l *Library) Root() string {
	return l.root
}

// Rescan walks the library root and rebuilds the catalogue. Unreadable
// files are skipped, not fatal.
func (l *Library) Rescan() error {
	var entries []Entry

	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.log.Debug().Err(err).Str("path", path).Msg("skipping unreadable path")
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			l.log.Debug().Err(err).Str("path", path).Msg("skipping unstatable file")
			return nil
		}

		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return nil
		}

		entries = append(entries, Entry{
			Track: core.Track{
				ID:       trackID(rel, info.Size()),
				Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
				Locator:  path,
				Tags:     tagsFromPath(rel),
				FolderID: filepath.Dir(rel),
			},
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan library: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	byID := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	l.mu.Lock()
	l.entries = entries
	l.byID = byID
	l.mu.Unlock()

	l.log.Debug().Int("tracks", len(entries)).Str("root", l.root).Msg("library scanned")
	return nil
}

// Resolve returns the full track (with locator) for an id.
func (l *Library) Resolve(id string) (core.Track, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.byID[id]
	return e.Track, ok
}

// Tracks returns all catalogued tracks, sorted by name.
func (l *Library) Tracks() []core.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.Track, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Track
	}
	return out
}

// Entries returns all catalogued entries, sorted by name.
func (l *Library) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

// Len returns the number of catalogued tracks.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Find locates a track by id, exact name, or case-insensitive substring.
func (l *Library) Find(query string) (core.Track, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if e, ok := l.byID[query]; ok {
		return e.Track, true
	}
	for _, e := range l.entries {
		if strings.EqualFold(e.Name, query) {
			return e.Track, true
		}
	}
	needle := strings.ToLower(query)
	for _, e := range l.entries {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			return e.Track, true
		}
	}
	return core.Track{}, false
}

// trackID derives a stable id from the file's identity within the library.
// Hashing (relative path, size) keeps ids stable across rescans and
// processes while distinguishing replaced files.
func trackID(rel string, size int64) string {
	h, err := hashstructure.Hash(struct {
		Path string
		Size int64
	}{filepath.ToSlash(rel), size}, hashstructure.FormatV2, nil)
	if err != nil {
		// Hashing a two-field struct cannot fail in practice.
		return filepath.ToSlash(rel)
	}
	return fmt.Sprintf("t%016x", h)
}

// tagsFromPath derives tags from the directory components of the relative
// path, so a file under "jazz/morning/" is tagged jazz and morning.
func tagsFromPath(rel string) []string {
	dir := filepath.Dir(rel)
	if dir == "." {
		return nil
	}
	parts := strings.Split(filepath.ToSlash(dir), "/")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			tags = append(tags, p)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
