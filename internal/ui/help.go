package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/noborus/ov/oviewer"

	"tucan/internal/domain"
)

// renderHelpContent renders the full help shown in the pager
func renderHelpContent(keys keyMap, plugins []domain.PluginInfo) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("220")).
		Width(14)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	var help strings.Builder

	help.WriteString(titleStyle.Render("tucan Help"))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Keys"))
	help.WriteString("\n")
	for _, group := range keys.FullHelp() {
		for _, b := range group {
			h := b.Help()
			help.WriteString(fmt.Sprintf("  %s%s\n", keyStyle.Render(h.Key), descStyle.Render(h.Desc)))
		}
	}
	help.WriteString(fmt.Sprintf("  %s%s\n", keyStyle.Render("any text"), descStyle.Render("Search every plugin")))

	help.WriteString(sectionStyle.Render("Plugins"))
	help.WriteString("\n")
	if len(plugins) == 0 {
		help.WriteString(descStyle.Render("  none registered yet"))
		help.WriteString("\n")
	}
	for _, p := range plugins {
		help.WriteString(fmt.Sprintf("  %s%s\n", keyStyle.Render(fmt.Sprintf("%d", p.Priority)), descStyle.Render(p.Title+" ("+p.ID+")")))
	}

	return help.String()
}

// HelpOps shows help outside of the Bubble Tea renderer
type HelpOps struct {
	program *tea.Program // reference to Bubble Tea program for terminal management
}

// NewHelpOps creates a new help operations instance
func NewHelpOps(program *tea.Program) *HelpOps {
	return &HelpOps{
		program: program,
	}
}

// ShowHelpInPager shows help content using ov pager
func (h *HelpOps) ShowHelpInPager(helpContent string) error {
	if h.program == nil {
		return fmt.Errorf("program not set")
	}

	if err := h.program.ReleaseTerminal(); err != nil {
		return err
	}

	defer func() {
		// let ov leave the alternate screen before we take it back
		time.Sleep(100 * time.Millisecond)
		_ = h.program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(strings.NewReader(helpContent))
	if err != nil {
		return err
	}

	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}
