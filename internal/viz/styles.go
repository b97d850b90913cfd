package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	// Section heads one implementation's timings.
	Section = lipgloss.NewStyle().
		Bold(true)

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	Pass = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ff88"))

	Fail = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ff4444"))

	SparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	SparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	SparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
)

// TimingLine formats one "  label [ms]: avg (min, max)" report line.
func TimingLine(label string, avg, min, max float64) string {
	return fmt.Sprintf("  %s %s %s",
		MetricLabel.Render(label+" [ms]:"),
		MetricValue.Render(fmt.Sprintf("%g", avg)),
		fmt.Sprintf("(%g, %g)", min, max))
}

// Verdict renders PASS or FAIL.
func Verdict(ok bool) string {
	if ok {
		return Pass.Render("PASS")
	}
	return Fail.Render("FAIL")
}

// Sparkline renders values as a one-line bar chart of at most width
// characters. Slow samples are drawn in red.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / span
		idx := int(norm * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)

		c := string(chars[idx])
		switch {
		case norm > 0.7:
			b.WriteString(SparkHigh.Render(c))
		case norm > 0.3:
			b.WriteString(SparkMid.Render(c))
		default:
			b.WriteString(SparkLow.Render(c))
		}
	}
	return b.String()
}

// Separator is a muted horizontal rule.
func Separator(width int) string {
	return Subtle.Render(strings.Repeat("─", max(width, 0)))
}
