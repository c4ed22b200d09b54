package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/poresamples/internal/logbook"
	"github.com/kingrea/poresamples/internal/plate"
	"github.com/kingrea/poresamples/internal/session"
)

const (
	colorAccent = "#5B8DEF"
	colorBorder = "#444444"
	colorMuted  = "#888888"
	colorText   = "#AAAAAA"
	colorHeader = "#FF6B6B"
	colorWarn   = "#F5C542"

	plateCellWidth = 7
	logLines       = 6
)

const keyHints = "tab focus · / search · e edit · space mark · d delete · enter pick/drop/restore · " +
	"p/P n/N controls · ctrl+o import · ctrl+s export · ctrl+r reload · ctrl+z undo · q quit"

// View renders the whole screen.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 120
	}
	rightWidth := max(30, width/3)
	leftWidth := width - rightWidth - 4
	if leftWidth < 40 {
		leftWidth = width - 4
		rightWidth = 0
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorHeader)).
		MarginBottom(1).
		Render("⬡ PORESAMPLES")

	left := panelBox(a.focus == focusSheet, leftWidth).Render(a.renderSheetPanel())
	body := left
	if rightWidth > 0 {
		right := lipgloss.JoinVertical(lipgloss.Left,
			panelBox(a.focus == focusPool, rightWidth).Render(a.renderPoolPanel(rightWidth-4)),
			panelBox(a.focus == focusRemoved, rightWidth).Render(a.renderRemovedPanel()),
		)
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	sections := []string{header, body, a.renderPlatePanel()}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	if a.prompt != promptNone {
		sections = append(sections, a.input.View())
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorMuted)).
		MarginTop(1).
		Render(strings.TrimSpace(a.statusMsg + "\n" + keyHints))
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func panelBox(focused bool, width int) lipgloss.Style {
	border := colorBorder
	if focused {
		border = colorAccent
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(0, 1).
		Width(max(20, width))
}

func panelTitle(text string) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorAccent)).
		Render(text)
}

func (a *App) renderSheetPanel() string {
	t := a.session.Table()
	title := fmt.Sprintf("SAMPLES · %d row(s)", t.Len())
	if a.query != "" {
		title += fmt.Sprintf(" · %d shown · filter %q", len(a.visible), a.query)
	}
	if a.session.State() == session.StatePendingUndo {
		title += " · undo available"
	}
	return lipgloss.JoinVertical(lipgloss.Left, panelTitle(title), a.grid.View())
}

func (a *App) renderPoolPanel(width int) string {
	pool := a.session.Pool()
	lines := []string{panelTitle(fmt.Sprintf("BARCODES · %d left", pool.Len()))}
	if a.held != nil {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color(colorHeader)).
			Render(fmt.Sprintf("holding %d from %s", a.held.Count, a.held.Kit)))
	}
	entries := a.poolEntries()
	if len(entries) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted)).Render("No barcodes. Press ctrl+r to reload."))
		return strings.Join(lines, "\n")
	}

	lo, hi := a.poolCursor, a.poolCursor
	if a.poolAnchor >= 0 {
		lo, hi = min(a.poolAnchor, a.poolCursor), max(a.poolAnchor, a.poolCursor)
	}
	// Show a window of entries around the cursor.
	const window = 12
	start := max(0, a.poolCursor-window/2)
	end := min(len(entries), start+window)
	lastKit := ""
	if start > 0 {
		lastKit = entries[start-1].kit
	}
	for i := start; i < end; i++ {
		e := entries[i]
		if e.kit != lastKit {
			lines = append(lines, lipgloss.NewStyle().Bold(true).Render(e.kit))
			lastKit = e.kit
		}
		cursor := "  "
		if i == a.poolCursor && a.focus == focusPool {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%s %s", cursor, e.code.Name, e.code.Sequence)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(colorText)).MaxWidth(max(10, width))
		if i >= lo && i <= hi && (a.poolAnchor >= 0 || i == a.poolCursor) {
			style = style.Foreground(lipgloss.Color(colorAccent))
		}
		lines = append(lines, style.Render(line))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderRemovedPanel() string {
	if len(a.removed.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			panelTitle("REMOVED"),
			lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted)).Render("Nothing removed."),
		)
	}
	return a.removed.View()
}

func (a *App) renderPlatePanel() string {
	layout := plate.Project(a.session.Table().SampleIDs(), a.session.Markers())
	var b strings.Builder
	b.WriteString(panelTitle("PLATE"))
	b.WriteString("\n  ")
	for c := 0; c < plate.Columns; c++ {
		b.WriteString(lipgloss.NewStyle().Width(plateCellWidth).Render(fmt.Sprintf(" %d", c+1)))
	}
	for r := 0; r < plate.Rows; r++ {
		b.WriteString("\n")
		b.WriteString(string(rune('A'+r)) + " ")
		for c := 0; c < plate.Columns; c++ {
			cell := layout.Cells[r][c]
			id := cell.SampleID
			if len([]rune(id)) > plateCellWidth-1 {
				id = string([]rune(id)[:plateCellWidth-1])
			}
			b.WriteString(lipgloss.NewStyle().
				Width(plateCellWidth).
				Background(lipgloss.Color(a.palette.Color(cell.Kind))).
				Foreground(lipgloss.Color("#000000")).
				Render(" " + id))
		}
	}
	if layout.Overflow > 0 {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(colorHeader)).
			Render(fmt.Sprintf("%d sample(s) do not fit on the plate", layout.Overflow)))
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colorBorder)).
		Padding(0, 1).
		Render(b.String())
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	entries, total := a.logbook.Recent(logLines, logbook.LevelInfo)
	if len(entries) == 0 {
		return ""
	}
	_, problems := a.logbook.Recent(1, logbook.LevelWarn)
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := panelTitle(fmt.Sprintf("LOG · %s · %d entries · %d warning(s)", fileName, total, problems))
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = lipgloss.NewStyle().
			Foreground(lipgloss.Color(levelColor(e.Level))).
			Render(e.String())
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colorBorder)).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, strings.Join(lines, "\n")))
}

func levelColor(lv logbook.Level) string {
	switch lv {
	case logbook.LevelError:
		return colorHeader
	case logbook.LevelWarn:
		return colorWarn
	default:
		return colorText
	}
}
