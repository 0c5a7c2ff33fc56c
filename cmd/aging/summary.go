package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/arloliu/go-aging/aging"
)

var (
	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9ece6a"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f7768e"))
	warnStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e0af68"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
)

// renderSummary formats the final summary line of a run.
func renderSummary(s aging.RunSummary, elapsed time.Duration) string {
	var b strings.Builder

	switch {
	case s.Interrupted:
		b.WriteString(warnStyle.Render("INTERRUPTED"))
	case s.Failed == 0 && s.Total > 0:
		b.WriteString(okStyle.Render("PASS"))
	default:
		b.WriteString(failStyle.Render("FAIL"))
	}

	fmt.Fprintf(&b, " %d/%d cycles succeeded, %d failed, success rate %.2f%%",
		s.Succeeded, s.Total, s.Failed, s.SuccessRate())
	b.WriteString(dimStyle.Render(fmt.Sprintf(" (%s)", elapsed.Round(time.Second))))

	return b.String()
}
