// Package render draws the palette, the program and the stage for
// terminals.
package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/AaronLay10/ScratchyEngine/internal/blocks"
)

// Color palette
var (
	ColorMotion  = lipgloss.Color("#3b82f6")
	ColorLooks   = lipgloss.Color("#a855f7")
	ColorSound   = lipgloss.Color("#ec4899")
	ColorEvents  = lipgloss.Color("#eab308")
	ColorControl = lipgloss.Color("#f97316")
	ColorSensing = lipgloss.Color("#14b8a6")

	ColorText   = lipgloss.Color("#f1faee")
	ColorDark   = lipgloss.Color("#1a1a2e")
	ColorMuted  = lipgloss.Color("#666666")
	ColorBorder = lipgloss.Color("#3d5a80")
	ColorAccent = lipgloss.Color("#ffe66d")
	ColorOK     = lipgloss.Color("#a8e6cf")
	ColorBad    = lipgloss.Color("#ff6b6b")
)

var categoryColors = map[blocks.Category]lipgloss.Color{
	blocks.CategoryMotion:  ColorMotion,
	blocks.CategoryLooks:   ColorLooks,
	blocks.CategorySound:   ColorSound,
	blocks.CategoryEvents:  ColorEvents,
	blocks.CategoryControl: ColorControl,
	blocks.CategorySensing: ColorSensing,
}

var (
	HeadingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorMuted).
			MarginTop(1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent).
			Background(ColorDark).
			Padding(0, 1)

	StageStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	CorrectStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorOK)
	WrongStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorBad)
)

// BlockStyle is the chip style for a category; selected chips are
// outlined.
func BlockStyle(c blocks.Category, selected bool) lipgloss.Style {
	color, ok := categoryColors[c]
	if !ok {
		color = ColorMuted
	}
	fg := ColorText
	if c == blocks.CategoryEvents || c == blocks.CategoryControl {
		fg = ColorDark
	}
	s := lipgloss.NewStyle().
		Foreground(fg).
		Background(color).
		Padding(0, 1)
	if selected {
		s = s.Bold(true).Underline(true)
	}
	return s
}
