package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/corvale/chorus/internal/core"
	"github.com/corvale/chorus/internal/tui/styles"
)

// NowPlaying displays the currently selected track
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel. isActiveTab marks whether this
// process currently owns the real audio output.
func (n *NowPlaying) Render(state core.PlaybackState, isActiveTab bool, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused)

	var content string
	if state.Current() == nil {
		content = styles.Muted.Render("Nothing queued")
	} else {
		content = n.renderTrack(state, isActiveTab, width-4)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (n *NowPlaying) renderTrack(state core.PlaybackState, isActiveTab bool, width int) string {
	track := state.Current()

	icon := styles.StatusIcon(state.IsPlaying)
	titleStyle := styles.Title.Width(width - 4)
	title := titleStyle.Render(track.Name)

	tags := ""
	if len(track.Tags) > 0 {
		tags = styles.Subtitle.Render(strings.Join(track.Tags, ", "))
	}

	// Progress bar with times on either side
	progressWidth := width - 14
	if progressWidth < 10 {
		progressWidth = 10
	}
	progressBar := styles.ProgressBar(state.ProgressPercent(), progressWidth)
	progress := fmt.Sprintf("%s %s %s",
		FormatSeconds(state.Position),
		progressBar,
		FormatSeconds(state.Duration))

	info := fmt.Sprintf("🔊 %d%%  %s %s",
		int(state.Volume*100+0.5),
		styles.RepeatIcon(string(state.RepeatMode)),
		repeatLabel(state.RepeatMode))
	if isActiveTab {
		info += "  " + styles.Playing.Render("● audio here")
	} else if state.ActiveAudioTabID != "" {
		info += "  " + styles.Dim.Render("○ audio elsewhere")
	} else {
		info += "  " + styles.Dim.Render("○ no audio tab")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+title,
		"  "+tags,
		"",
		progress,
		"",
		styles.Muted.Render(info),
	)
}

func repeatLabel(mode core.RepeatMode) string {
	switch mode {
	case core.RepeatOne:
		return "one"
	case core.RepeatAll:
		return "all"
	default:
		return "off"
	}
}

// FormatSeconds formats a position in seconds as m:ss.
func FormatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
