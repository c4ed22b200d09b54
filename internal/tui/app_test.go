package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/poresamples/internal/session"
	"github.com/kingrea/poresamples/internal/sheet"
)

func TestPickUpAndDropAssignsBarcodes(t *testing.T) {
	app := newTestApp(t, "sample_id\nS1\nS2\nS3\n")
	app = press(t, app, "tab", "space", "down", "enter")
	if app.held == nil || app.held.Count != 2 || app.held.Start != 0 {
		t.Fatalf("held = %+v", app.held)
	}
	if app.focus != focusSheet {
		t.Fatalf("picking up barcodes should return focus to the sheet")
	}
	app = press(t, app, "down", "enter")
	rows := app.session.Table().Rows()
	if rows[0].Barcode != "" || rows[1].Barcode != "barcode01" || rows[2].Barcode != "barcode02" {
		t.Fatalf("rows after drop = %+v", rows)
	}
	if app.session.State() != session.StatePendingUndo {
		t.Fatalf("expected pending undo")
	}
	if app.session.Pool().Len() != 2 {
		t.Fatalf("pool len = %d, want 2", app.session.Pool().Len())
	}

	app = press(t, app, "ctrl+z")
	for _, r := range app.session.Table().Rows() {
		if r.Barcode != "" {
			t.Fatalf("undo left barcode on %s", r.SampleID)
		}
	}
	if app.session.Pool().Len() != 4 {
		t.Fatalf("pool len after undo = %d", app.session.Pool().Len())
	}
	app = press(t, app, "ctrl+z")
	if app.statusMsg != "Nothing to undo" {
		t.Fatalf("status = %q", app.statusMsg)
	}
}

func TestDropPastSheetEndIsRejected(t *testing.T) {
	app := newTestApp(t, "sample_id\nS1\nS2\nS3\n")
	app = press(t, app, "tab", "space", "down", "down", "enter")
	app = press(t, app, "down", "enter")
	if !strings.Contains(app.statusMsg, "Assign failed") {
		t.Fatalf("status = %q", app.statusMsg)
	}
	for _, r := range app.session.Table().Rows() {
		if r.Barcode != "" {
			t.Fatalf("rejected drop changed %s", r.SampleID)
		}
	}
	if app.held == nil {
		t.Fatalf("held barcodes should survive a rejected drop")
	}
	app = press(t, app, "esc")
	if app.held != nil {
		t.Fatalf("esc should release held barcodes")
	}
}

func TestDropOntoFilteredRowsIsRejected(t *testing.T) {
	app := newTestApp(t, "sample_id,sex\nS1,F\nS2,M\nS3,F\nS4,M\n")
	app = press(t, app, "/")
	app = typeText(t, app, "= sex == \"F\"")
	app = press(t, app, "enter")
	if len(app.visible) != 2 {
		t.Fatalf("visible = %v", app.visible)
	}
	app = press(t, app, "tab", "space", "down", "enter")
	if app.held == nil || app.held.Count != 2 {
		t.Fatalf("held = %+v", app.held)
	}
	app = press(t, app, "enter")
	if !strings.Contains(app.statusMsg, "Assign failed") {
		t.Fatalf("status = %q", app.statusMsg)
	}
	for _, r := range app.session.Table().Rows() {
		if r.Barcode != "" {
			t.Fatalf("rejected drop wrote %s onto %s", r.Barcode, r.SampleID)
		}
	}
	if app.held == nil || app.session.Pool().Len() != 4 {
		t.Fatalf("rejected drop should keep the held barcodes and the pool")
	}

	app = press(t, app, "esc", "tab", "up", "enter", "down", "enter")
	rows := app.session.Table().Rows()
	if rows[2].Barcode != "barcode01" || rows[1].Barcode != "" {
		t.Fatalf("single drop on the second visible row: %+v", rows)
	}
}

func TestDeleteRangeAndRestore(t *testing.T) {
	app := newTestApp(t, "sample_id\nS1\nS2\nS3\n")
	app = press(t, app, "space", "down", "d")
	if got := app.session.Table().SampleIDs(); len(got) != 1 || got[0] != "S3" {
		t.Fatalf("ids after delete = %v", got)
	}
	if len(app.removed.Items()) != 2 {
		t.Fatalf("removed items = %d", len(app.removed.Items()))
	}
	app = press(t, app, "tab", "tab", "enter")
	if got := app.session.Table().SampleIDs(); len(got) != 2 || got[0] != "S1" {
		t.Fatalf("ids after restore = %v", got)
	}
	if len(app.removed.Items()) != 1 {
		t.Fatalf("removed items after restore = %d", len(app.removed.Items()))
	}
}

func TestSearchFiltersVisibleRows(t *testing.T) {
	app := newTestApp(t, "sample_id,sex\nS1,F\nS2,M\nS10,F\n")
	app = press(t, app, "/")
	app = typeText(t, app, "= sex == \"F\"")
	app = press(t, app, "enter")
	if app.prompt != promptNone {
		t.Fatalf("prompt should close after a valid query")
	}
	if len(app.visible) != 2 || app.visible[0] != 0 || app.visible[1] != 2 {
		t.Fatalf("visible = %v", app.visible)
	}

	app = press(t, app, "/")
	app = typeText(t, app, "x")
	app = press(t, app, "enter")
	if len(app.visible) != 0 {
		t.Fatalf("visible = %v", app.visible)
	}
	app = press(t, app, "/", "esc")
	if len(app.visible) != 3 || app.query != "" {
		t.Fatalf("esc should clear the filter: %v %q", app.visible, app.query)
	}
}

func TestInvalidSearchKeepsPromptOpen(t *testing.T) {
	app := newTestApp(t, "sample_id\nS1\n")
	app = press(t, app, "/")
	app = typeText(t, app, "= sex +")
	app = press(t, app, "enter")
	if app.prompt != promptSearch {
		t.Fatalf("prompt closed on a bad expression")
	}
	if !strings.Contains(app.statusMsg, "Search failed") {
		t.Fatalf("status = %q", app.statusMsg)
	}
}

func TestEditCell(t *testing.T) {
	app := newTestApp(t, "sample_id\nS1\nS2\n")
	for app.columns[app.colCursor] != sheet.ColComment {
		app = press(t, app, "right")
	}
	app = press(t, app, "e")
	if app.prompt != promptEdit {
		t.Fatalf("expected edit prompt")
	}
	app = typeText(t, app, "rerun")
	app = press(t, app, "enter")
	if got := app.session.Table().Rows()[0].Comment; got != "rerun" {
		t.Fatalf("comment = %q", got)
	}
}

func TestControlKeys(t *testing.T) {
	app := newTestApp(t, "sample_id\nS1\n")
	app = press(t, app, "p", "p", "n")
	tbl := app.session.Table()
	if tbl.ControlCount(sheet.PositiveControl) != 2 || tbl.ControlCount(sheet.NegativeControl) != 1 {
		t.Fatalf("ids = %v", tbl.SampleIDs())
	}
	app = press(t, app, "P", "N", "N")
	tbl = app.session.Table()
	if tbl.ControlCount(sheet.PositiveControl) != 1 || tbl.ControlCount(sheet.NegativeControl) != 0 {
		t.Fatalf("ids = %v", tbl.SampleIDs())
	}
	if got := tbl.SampleIDs(); got[0] != "POS_CTRL1" || got[1] != "S1" {
		t.Fatalf("controls out of order: %v", got)
	}
}

func TestExportAndFailedImport(t *testing.T) {
	app := newTestApp(t, "sample_id\nS1\nS2\n")
	app = press(t, app, "ctrl+s", "enter")
	path := filepath.Join(app.config.ExportDir(), defaultExportName)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("export not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "sample_id,") || !strings.Contains(string(data), "S2") {
		t.Fatalf("export = %s", data)
	}

	app = press(t, app, "ctrl+o")
	app = typeText(t, app, "missing.csv")
	app = press(t, app, "enter")
	if app.prompt != promptImport || !strings.Contains(app.statusMsg, "Import failed") {
		t.Fatalf("prompt=%v status=%q", app.prompt, app.statusMsg)
	}
	if app.session.Table().Len() != 2 {
		t.Fatalf("failed import replaced the sheet")
	}
	app = press(t, app, "esc")
	if app.prompt != promptNone {
		t.Fatalf("esc should close the prompt")
	}
}

func TestReloadClearsAssignments(t *testing.T) {
	app := newTestApp(t, "sample_id\nS1\n")
	app = press(t, app, "tab", "enter", "enter")
	if app.session.Table().Rows()[0].Barcode == "" {
		t.Fatalf("expected barcode on S1")
	}
	app = press(t, app, "ctrl+r")
	if app.session.Table().Rows()[0].Barcode != "" {
		t.Fatalf("reload should clear assignments")
	}
	if app.session.State() != session.StateIdle {
		t.Fatalf("reload should drop the undo snapshot")
	}
}

func TestViewRendersPanels(t *testing.T) {
	app := newTestApp(t, "sample_id\nS1\nPOS_CTRL1\n")
	app = update(t, app, tea.WindowSizeMsg{Width: 140, Height: 50})
	view := app.View()
	for _, want := range []string{"PORESAMPLES", "SAMPLES · 2 row(s)", "BARCODES · 4 left", "PLATE", "LOG"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func newTestApp(t *testing.T, csv string) *App {
	t.Helper()
	projectDir := t.TempDir()
	path := filepath.Join(projectDir, "input.csv")
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	app, err := NewApp(projectDir, WithSheet(path, "sheet"))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if app.session.Table().Len() == 0 {
		t.Fatalf("initial import failed: %s", app.statusMsg)
	}
	return app
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+z":
		return tea.KeyMsg{Type: tea.KeyCtrlZ}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+o":
		return tea.KeyMsg{Type: tea.KeyCtrlO}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(t *testing.T, app *App, keys ...string) *App {
	t.Helper()
	for _, k := range keys {
		app = update(t, app, keyMsg(k))
	}
	return app
}

func typeText(t *testing.T, app *App, text string) *App {
	t.Helper()
	for _, r := range text {
		if r == ' ' {
			app = update(t, app, keyMsg("space"))
			continue
		}
		app = update(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return app
}

func update(t *testing.T, app *App, msg tea.Msg) *App {
	t.Helper()
	model, _ := app.Update(msg)
	next, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	return next
}
