package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	accent = lipgloss.Color("62")
	good   = lipgloss.Color("42")
	warn   = lipgloss.Color("214")
	bad    = lipgloss.Color("196")
	faint  = lipgloss.Color("245")

	tagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(accent).Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Foreground(faint)
	valueStyle = lipgloss.NewStyle().Bold(true)
	goodStyle  = lipgloss.NewStyle().Foreground(good)
	warnStyle  = lipgloss.NewStyle().Foreground(warn)
	badStyle   = lipgloss.NewStyle().Foreground(bad).Bold(true)

	barFull  = lipgloss.NewStyle().Foreground(accent)
	barEmpty = lipgloss.NewStyle().Foreground(faint)

	boxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
)

// bar draws a width-cell progress bar filled to frac.
func bar(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	n := int(frac*float64(width) + 0.5)
	return barFull.Render(strings.Repeat("█", n)) + barEmpty.Render(strings.Repeat("░", width-n))
}

// Table renders label/value rows in a rounded box under an optional
// title.
func Table(title string, rows [][2]string) string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	lines := make([]string, 0, len(rows)+1)
	if title != "" {
		lines = append(lines, valueStyle.Foreground(accent).Render(title))
	}
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%-*s  ", width, r[0]))+valueStyle.Render(r[1]))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// OK and Fail mark a check result.
func OK(s string) string   { return goodStyle.Render("ok ") + s }
func Fail(s string) string { return badStyle.Render("missing ") + s }
