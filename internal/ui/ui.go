// Package ui provides terminal rendering helpers for the aucsync CLI.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	colorEnabled = termenv.EnvColorProfile() != termenv.Ascii
)

// render applies a style unless the terminal doesn't support color.
func render(style lipgloss.Style, s string) string {
	if !colorEnabled {
		return s
	}
	return style.Render(s)
}

// RenderAccent highlights informational text.
func RenderAccent(s string) string { return render(accentStyle, s) }

// RenderPass highlights success text.
func RenderPass(s string) string { return render(passStyle, s) }

// RenderWarn highlights warning text.
func RenderWarn(s string) string { return render(warnStyle, s) }

// RenderFail highlights error text.
func RenderFail(s string) string { return render(failStyle, s) }
