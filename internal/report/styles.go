package report

import "github.com/charmbracelet/lipgloss"

var (
	colorSuccess = lipgloss.Color("#10B981") // Green
	colorWarning = lipgloss.Color("#F59E0B") // Amber
	colorError   = lipgloss.Color("#EF4444") // Red
	colorTitle   = lipgloss.Color("#7C3AED") // Purple
	colorMuted   = lipgloss.Color("#9CA3AF") // Medium gray
)

// Styler applies terminal styles. The zero value styles; Plain disables styling
// for pipes, files and tests.
type Styler struct {
	Plain bool
}

var (
	okStyle    = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	titleStyle = lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

func (s Styler) render(st lipgloss.Style, text string) string {
	if s.Plain {
		return text
	}
	return st.Render(text)
}

func (s Styler) OK(text string) string    { return s.render(okStyle, text) }
func (s Styler) Warn(text string) string  { return s.render(warnStyle, text) }
func (s Styler) Fail(text string) string  { return s.render(failStyle, text) }
func (s Styler) Title(text string) string { return s.render(titleStyle, text) }
func (s Styler) Muted(text string) string { return s.render(mutedStyle, text) }

// Status marks used in progress lines and reports.
const (
	markOK   = "✓"
	markWarn = "⚠"
	markFail = "✗"
	markInfo = "•"
)
