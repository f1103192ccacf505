package views

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"tucan/internal/controller"
)

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width         int
	Height        int
	Input         string
	Query         string
	Sections      []controller.Section
	SelectedIndex int
	Plugins       int
	HelpView      string
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	width := state.Width
	if width <= 0 {
		width = 80
	}
	height := state.Height
	if height <= 0 {
		height = 24
	}
	innerWidth := width - 4 // main container padding

	var content strings.Builder
	content.WriteString(r.renderTitle(state, innerWidth))
	content.WriteString("\n")
	content.WriteString(state.Input)
	content.WriteString("\n")

	lines, selectedLine := r.renderSections(state, innerWidth)

	// title, input, help and padding
	visible := height - 7
	if visible < 3 {
		visible = 3
	}
	offset := 0
	if selectedLine >= visible {
		offset = selectedLine - visible + 1
	}
	end := offset + visible
	if end > len(lines) {
		end = len(lines)
	}
	if offset < len(lines) {
		content.WriteString(strings.Join(lines[offset:end], "\n"))
	}

	if state.HelpView != "" {
		content.WriteString("\n\n")
		content.WriteString(r.styles.Help.Render(state.HelpView))
	}

	return r.styles.Main.Render(content.String())
}

func (r *Renderer) renderTitle(state ViewState, width int) string {
	logo := r.styles.Title.Render("tucan")

	total := 0
	for _, s := range state.Sections {
		total += len(s.Rows)
	}
	status := r.styles.Status.Render(fmt.Sprintf("%d results · %d plugins", total, state.Plugins))

	padding := width - lipgloss.Width(logo) - lipgloss.Width(status)
	if padding < 2 {
		padding = 2
	}
	return logo + strings.Repeat(" ", padding) + status
}

// renderSections returns the list lines and the line holding the selection
func (r *Renderer) renderSections(state ViewState, width int) ([]string, int) {
	if len(state.Sections) == 0 {
		msg := "No results"
		if state.Query == "" {
			msg = "Waiting for plugins..."
		}
		return []string{"", r.styles.Empty.Render(msg)}, 0
	}

	var lines []string
	selectedLine := 0
	for _, section := range state.Sections {
		lines = append(lines, "", r.styles.Section.Render(section.Plugin.Title))
		for _, row := range section.Rows {
			selected := row.Index == state.SelectedIndex
			if selected {
				selectedLine = len(lines)
			}
			lines = append(lines, r.renderRow(row, selected, state.Query, width))
		}
	}
	return lines, selectedLine
}

func (r *Renderer) renderRow(row controller.Row, selected bool, query string, width int) string {
	marker := "  "
	if selected {
		marker = "› "
	}

	metaWidth := 0
	meta := ""
	if row.Entry.Meta != "" {
		meta = truncate.StringWithTail(row.Entry.Meta, uint(max(width/3, 8)), "…")
		metaWidth = lipgloss.Width(meta) + 2
	}

	titleWidth := width - lipgloss.Width(marker) - metaWidth
	if titleWidth < 4 {
		titleWidth = 4
	}
	title := truncate.StringWithTail(row.Entry.Title, uint(titleWidth), "…")
	gap := titleWidth - lipgloss.Width(title)

	entryStyle := r.styles.Entry
	metaStyle := r.styles.Meta
	highlight := r.styles.Highlight
	if selected {
		bg := r.styles.SelectionBg.GetBackground()
		entryStyle = entryStyle.Background(bg)
		metaStyle = metaStyle.Background(bg)
		highlight = highlight.Background(bg)
	}

	var line strings.Builder
	line.WriteString(entryStyle.Render(marker))
	line.WriteString(highlightMatch(title, query, entryStyle, highlight))
	if meta != "" {
		line.WriteString(entryStyle.Render(strings.Repeat(" ", gap+2)))
		line.WriteString(metaStyle.Render(meta))
	}
	return line.String()
}

// highlightMatch renders the first case-insensitive occurrence of query in text
func highlightMatch(text, query string, base, hl lipgloss.Style) string {
	start, end, ok := matchRange(text, query)
	if !ok {
		return base.Render(text)
	}
	return base.Render(text[:start]) + hl.Render(text[start:end]) + base.Render(text[end:])
}

// matchRange returns the byte range in text of the first window of runes that
// equals query under case folding. Offsets always come from text itself.
func matchRange(text, query string) (start, end int, ok bool) {
	if query == "" {
		return 0, 0, false
	}
	n := utf8.RuneCountInString(query)
	for i := range text {
		j := i
		for k := 0; k < n && j < len(text); k++ {
			_, size := utf8.DecodeRuneInString(text[j:])
			j += size
		}
		if strings.EqualFold(text[i:j], query) {
			return i, j, true
		}
	}
	return 0, 0, false
}
