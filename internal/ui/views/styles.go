package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title       lipgloss.Style
	Dim         lipgloss.Style
	Status      lipgloss.Style
	Section     lipgloss.Style
	Entry       lipgloss.Style
	Meta        lipgloss.Style
	Highlight   lipgloss.Style
	SelectionBg lipgloss.Style
	Empty       lipgloss.Style
	Help        lipgloss.Style
	Main        lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Dim:    lipgloss.NewStyle().Faint(true),
		Status: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Section: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		Entry:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Meta:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		Highlight:   lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		SelectionBg: lipgloss.NewStyle().Background(lipgloss.Color("238")),
		Empty:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		Help:        lipgloss.NewStyle().Faint(true),
		Main:        lipgloss.NewStyle().Padding(1, 2),
	}
}
