package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/corvale/chorus/internal/core"
	"github.com/corvale/chorus/internal/tui/styles"
)

// Library displays the local track catalogue with an optional filter
type Library struct {
	cursor   int
	offset   int
	filtered []core.Track
}

// NewLibrary creates a new Library component
func NewLibrary() *Library {
	return &Library{}
}

// SetTracks installs the catalogue, applying the current filter
func (l *Library) SetTracks(tracks []core.Track, filter string) {
	if filter == "" {
		l.filtered = tracks
	} else {
		needle := strings.ToLower(filter)
		l.filtered = nil
		for _, t := range tracks {
			if strings.Contains(strings.ToLower(t.Name), needle) || tagMatch(t.Tags, needle) {
				l.filtered = append(l.filtered, t)
			}
		}
	}
	if l.cursor >= len(l.filtered) {
		l.cursor = len(l.filtered) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

// Selected returns the track under the cursor
func (l *Library) Selected() (core.Track, bool) {
	if l.cursor < 0 || l.cursor >= len(l.filtered) {
		return core.Track{}, false
	}
	return l.filtered[l.cursor], true
}

// ScrollDown moves the cursor down
func (l *Library) ScrollDown() {
	if l.cursor < len(l.filtered)-1 {
		l.cursor++
	}
}

// ScrollUp moves the cursor up
func (l *Library) ScrollUp() {
	if l.cursor > 0 {
		l.cursor--
	}
}

// Render renders the library panel
func (l *Library) Render(filter string, width, height int, focused bool) string {
	title := styles.PanelTitle(fmt.Sprintf("Library (%d)", len(l.filtered)), focused)

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	lines := []string{title}
	if filter != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(styles.Accent).Render("filter: "+filter))
	} else {
		lines = append(lines, "")
	}

	if len(l.filtered) == 0 {
		lines = append(lines, styles.Muted.Render("No tracks"))
		return panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	}

	visible := height - 4
	if visible < 1 {
		visible = 1
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+visible {
		l.offset = l.cursor - visible + 1
	}

	for i := l.offset; i < len(l.filtered) && i < l.offset+visible; i++ {
		t := l.filtered[i]
		line := "  " + truncate(t.Name, width-8)
		if focused && i == l.cursor {
			line = styles.Highlight.Render("> " + truncate(t.Name, width-8))
		} else {
			line = styles.Subtitle.Render(line)
		}
		lines = append(lines, line)
	}

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func tagMatch(tags []string, needle string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}
