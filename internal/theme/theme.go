package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
)

// HeaderStyle is used for section headings such as the missing list title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// SuccessStyle marks completed work: everyone submitted, a reminder sent.
var SuccessStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen)

// MissingStyle highlights students without a submission.
var MissingStyle = lipgloss.NewStyle().
	PaddingLeft(2).
	Foreground(ColorRed)

// WarnStyle is used for non-fatal problems such as a failed reminder.
var WarnStyle = lipgloss.NewStyle().
	Foreground(ColorYellow)

// ErrorStyle is used for fatal errors printed before exiting.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// HintStyle is used for remediation hints and informational notices.
var HintStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// ResultStyle returns the style for a per-student delivery line.
func ResultStyle(ok bool) lipgloss.Style {
	if ok {
		return SuccessStyle
	}
	return WarnStyle
}
