package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/corvale/chorus/internal/core"
	"github.com/corvale/chorus/internal/tui/styles"
)

// Queue displays the shared play queue
type Queue struct {
	cursor int
	offset int
}

// NewQueue creates a new Queue component
func NewQueue() *Queue {
	return &Queue{}
}

// ScrollDown moves the cursor down
func (q *Queue) ScrollDown(max int) {
	if q.cursor < max-1 {
		q.cursor++
	}
}

// ScrollUp moves the cursor up
func (q *Queue) ScrollUp() {
	if q.cursor > 0 {
		q.cursor--
	}
}

// Cursor returns the cursor position, clamped to the queue length.
func (q *Queue) Cursor(length int) int {
	if q.cursor >= length {
		q.cursor = length - 1
	}
	if q.cursor < 0 {
		q.cursor = 0
	}
	return q.cursor
}

// Render renders the queue panel. The collapsed form is a single summary
// line instead of the full listing.
func (q *Queue) Render(state core.PlaybackState, width, height int, focused, collapsed bool) string {
	title := styles.PanelTitle(fmt.Sprintf("Queue (%d)", len(state.Queue)), focused)

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	if collapsed {
		summary := styles.Muted.Render("collapsed - press c to expand")
		return panel.Render(lipgloss.JoinVertical(lipgloss.Left, title, summary))
	}

	if len(state.Queue) == 0 {
		return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			styles.Muted.Render("Queue is empty"),
		))
	}

	visible := height - 4
	if visible < 1 {
		visible = 1
	}
	cursor := q.Cursor(len(state.Queue))
	if cursor < q.offset {
		q.offset = cursor
	}
	if cursor >= q.offset+visible {
		q.offset = cursor - visible + 1
	}

	lines := make([]string, 0, visible+2)
	lines = append(lines, title, "")
	for i := q.offset; i < len(state.Queue) && i < q.offset+visible; i++ {
		t := state.Queue[i]
		marker := "  "
		if i == state.QueuePosition {
			if state.IsPlaying {
				marker = styles.Playing.Render("▶ ")
			} else {
				marker = styles.Paused.Render("● ")
			}
		}

		name := truncate(t.Name, width-10)
		line := fmt.Sprintf("%s%2d. %s", marker, i+1, name)
		if focused && i == cursor {
			line = styles.Highlight.Render(line)
		} else if i == state.QueuePosition {
			line = styles.Title.Render(line)
		} else {
			line = styles.Subtitle.Render(line)
		}
		lines = append(lines, line)
	}

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func truncate(s string, maxLen int) string {
	if maxLen < 4 {
		maxLen = 4
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
