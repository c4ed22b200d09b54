// internal/tui/app.go
//
// This is the sample sheet editor. It uses bubbletea, which follows The Elm
// Architecture:
//
// 1. Model: the App below, wrapping a session.Session
// 2. Update: key presses become session operations
// 3. View: the sheet, barcode pool, removed samples, plate and log
//
// Every mutation goes through the session, so the update loop is the only
// writer and nothing here needs locking.

package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/poresamples/internal/barcode"
	"github.com/kingrea/poresamples/internal/config"
	"github.com/kingrea/poresamples/internal/filter"
	"github.com/kingrea/poresamples/internal/logbook"
	"github.com/kingrea/poresamples/internal/plate"
	"github.com/kingrea/poresamples/internal/session"
	"github.com/kingrea/poresamples/internal/sheet"
)

// panel is the part of the screen receiving keys.
type panel int

const (
	focusSheet   panel = iota // sample grid
	focusPool                 // barcode pool
	focusRemoved              // removed samples
)

func (p panel) String() string {
	switch p {
	case focusPool:
		return "barcodes"
	case focusRemoved:
		return "removed"
	default:
		return "samples"
	}
}

// promptKind says what the text input at the bottom is collecting.
type promptKind int

const (
	promptNone promptKind = iota
	promptSearch
	promptEdit
	promptImport
	promptExport
)

const defaultExportName = "samplesheet.csv"

// AppOption customizes App construction for tests and the CLI.
type AppOption func(*App)

// WithSheet imports path with the named importer when the app starts.
func WithSheet(path, importer string) AppOption {
	return func(a *App) {
		a.initialPath = path
		if strings.TrimSpace(importer) != "" {
			a.importer = importer
		}
	}
}

// poolEntry is one line of the barcode panel.
type poolEntry struct {
	kit   string
	index int
	code  barcode.Barcode
}

// removedItem implements list.Item for the removed samples panel.
type removedItem struct {
	sample sheet.Sample
}

func (i removedItem) Title() string { return i.sample.SampleID }
func (i removedItem) Description() string {
	parts := []string{}
	for _, v := range []string{i.sample.Sex, i.sample.Age, i.sample.Comment} {
		if strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " · ")
}
func (i removedItem) FilterValue() string { return i.sample.SampleID }

// App is the main application model.
type App struct {
	config   *config.Config
	session  *session.Session
	logbook  *logbook.Logbook
	palette  plate.Palette
	importer string

	initialPath string

	focus panel

	// sample grid; visible maps grid rows to table rows
	grid      table.Model
	columns   []string
	colCursor int
	visible   []int
	query     string
	matcher   filter.Matcher
	rowAnchor int

	// barcode pool
	poolCursor int
	poolAnchor int
	held       *session.Drop

	removed list.Model

	prompt     promptKind
	input      textinput.Model
	editRow    int
	editColumn string

	statusMsg string

	width  int
	height int
}

// NewApp creates the editor for projectDir, creating .poresamples when it is
// missing.
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	if err := config.InitDir(projectDir); err != nil {
		return nil, err
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	lb, err := logbook.New(cfg.LogPath())
	if err != nil {
		return nil, err
	}

	app := &App{
		config:    cfg,
		logbook:   lb,
		palette:   cfg.Palette(),
		importer:  cfg.DefaultImporter(),
		matcher:   filter.All,
		rowAnchor: -1,

		poolAnchor: -1,
		editRow:    -1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}

	pool, poolErr := barcode.Load(cfg.BarcodeFile())
	app.session = session.New(nil, pool,
		session.WithLogbook(lb),
		session.WithMarkers(cfg.Markers()),
		session.WithBarcodeFile(cfg.BarcodeFile()),
	)
	lb.Info("session opened in %s", cfg.ProjectDir)
	if poolErr != nil {
		app.logError("load barcodes: %v", poolErr)
		app.statusMsg = fmt.Sprintf("Barcodes unavailable: %v", poolErr)
	}

	app.grid = table.New(table.WithFocused(true), table.WithHeight(16))
	app.removed = list.New(nil, list.NewDefaultDelegate(), 30, 8)
	app.removed.Title = "Removed"
	app.removed.SetShowStatusBar(false)
	app.removed.SetFilteringEnabled(false)
	app.removed.SetShowHelp(false)
	app.input = textinput.New()
	app.input.CharLimit = 512
	app.input.Width = 60

	if app.initialPath != "" {
		if _, err := app.session.Import(app.initialPath, app.importer); err != nil {
			app.statusMsg = fmt.Sprintf("Import failed: %v", err)
		} else {
			app.statusMsg = fmt.Sprintf("Imported %s", filepath.Base(app.initialPath))
		}
	}
	app.refresh()
	return app, nil
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// fail reports err in the footer. The session has already logged it.
func (a *App) fail(action string, err error) {
	a.statusMsg = fmt.Sprintf("%s failed: %v", action, err)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.grid.SetHeight(max(5, msg.Height-26))
		a.removed.SetSize(max(20, msg.Width/3-4), 8)
		a.input.Width = max(20, msg.Width-20)
		return a, nil

	case tea.KeyMsg:
		if a.prompt != promptNone {
			return a.handlePromptKey(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			a.logInfo("session closed")
			return a, tea.Quit
		case "tab":
			a.cycleFocus()
			return a, nil
		case "esc":
			a.held = nil
			a.rowAnchor = -1
			a.poolAnchor = -1
			a.statusMsg = ""
			return a, nil
		case "ctrl+z":
			a.undo()
			return a, nil
		case "ctrl+r":
			a.reloadBarcodes()
			return a, nil
		case "ctrl+o":
			return a, a.openPrompt(promptImport, "Import "+a.importer+" file: ", "")
		case "ctrl+s":
			return a, a.openPrompt(promptExport, "Export to: ", filepath.Join(a.config.ExportDir(), defaultExportName))
		case "/":
			return a, a.openPrompt(promptSearch, "Search: ", a.query)
		case "p":
			a.adjustControls(sheet.PositiveControl, 1)
			return a, nil
		case "P":
			a.adjustControls(sheet.PositiveControl, -1)
			return a, nil
		case "n":
			a.adjustControls(sheet.NegativeControl, 1)
			return a, nil
		case "N":
			a.adjustControls(sheet.NegativeControl, -1)
			return a, nil
		}

		switch a.focus {
		case focusSheet:
			return a.handleSheetKey(msg)
		case focusPool:
			return a.handlePoolKey(msg)
		case focusRemoved:
			return a.handleRemovedKey(msg)
		}
	}
	return a, nil
}

func (a *App) handleSheetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if a.held != nil {
			a.dropBarcodes()
		}
		return a, nil
	case " ", "space":
		if a.rowAnchor >= 0 {
			a.rowAnchor = -1
		} else {
			a.rowAnchor = a.grid.Cursor()
		}
		a.refreshGrid()
		return a, nil
	case "d", "delete":
		a.deleteRows()
		return a, nil
	case "e":
		return a, a.beginEdit()
	case "left", "h":
		if a.colCursor > 0 {
			a.colCursor--
			a.refreshGrid()
		}
		return a, nil
	case "right", "l":
		if a.colCursor < len(a.columns)-1 {
			a.colCursor++
			a.refreshGrid()
		}
		return a, nil
	}
	var cmd tea.Cmd
	a.grid, cmd = a.grid.Update(msg)
	if a.rowAnchor >= 0 {
		a.refreshGrid()
	}
	return a, cmd
}

func (a *App) handlePoolKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := a.poolEntries()
	switch msg.String() {
	case "up", "k":
		if a.poolCursor > 0 {
			a.poolCursor--
		}
	case "down", "j":
		if a.poolCursor < len(entries)-1 {
			a.poolCursor++
		}
	case " ", "space":
		if a.poolAnchor >= 0 {
			a.poolAnchor = -1
		} else if len(entries) > 0 {
			a.poolAnchor = a.poolCursor
		}
	case "enter":
		a.pickUpBarcodes(entries)
	}
	return a, nil
}

func (a *App) handleRemovedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		a.restoreSelected()
		return a, nil
	}
	var cmd tea.Cmd
	a.removed, cmd = a.removed.Update(msg)
	return a, cmd
}

func (a *App) cycleFocus() {
	a.focus = (a.focus + 1) % 3
	if a.focus == focusSheet {
		a.grid.Focus()
	} else {
		a.grid.Blur()
	}
	a.statusMsg = fmt.Sprintf("Focus: %s", a.focus)
}

// currentRow maps the grid cursor to a table row.
func (a *App) currentRow() (int, bool) {
	c := a.grid.Cursor()
	if c < 0 || c >= len(a.visible) {
		return 0, false
	}
	return a.visible[c], true
}

// selectedRows returns the table rows of the marked range, or the cursor row.
func (a *App) selectedRows() []int {
	c := a.grid.Cursor()
	if c < 0 || c >= len(a.visible) {
		return nil
	}
	lo, hi := c, c
	if a.rowAnchor >= 0 && a.rowAnchor < len(a.visible) {
		lo, hi = min(a.rowAnchor, c), max(a.rowAnchor, c)
	}
	rows := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		rows = append(rows, a.visible[i])
	}
	return rows
}

func (a *App) deleteRows() {
	rows := a.selectedRows()
	if len(rows) == 0 {
		a.statusMsg = "No sample selected"
		return
	}
	if err := a.session.Remove(rows...); err != nil {
		a.fail("Remove", err)
		return
	}
	a.rowAnchor = -1
	a.statusMsg = fmt.Sprintf("Removed %d sample(s)", len(rows))
	a.refresh()
}

func (a *App) restoreSelected() {
	if len(a.removed.Items()) == 0 {
		a.statusMsg = "Nothing to restore"
		return
	}
	idx := a.removed.Index()
	item, _ := a.removed.SelectedItem().(removedItem)
	if err := a.session.Restore(idx); err != nil {
		a.fail("Restore", err)
		return
	}
	a.statusMsg = fmt.Sprintf("Restored %s", item.sample.SampleID)
	a.refresh()
}

func (a *App) adjustControls(kind sheet.ControlKind, delta int) {
	n := a.session.Table().ControlCount(kind) + delta
	if n < 0 {
		a.statusMsg = fmt.Sprintf("No %s controls to remove", kind)
		return
	}
	if err := a.session.SetControls(kind, n); err != nil {
		a.fail("Controls", err)
		return
	}
	a.statusMsg = fmt.Sprintf("%s controls: %d", kind, n)
	a.refresh()
}

// poolEntries flattens the pool for the barcode panel.
func (a *App) poolEntries() []poolEntry {
	pool := a.session.Pool()
	var out []poolEntry
	for _, kit := range pool.Kits() {
		for i, bc := range pool.Kit(kit) {
			out = append(out, poolEntry{kit: kit, index: i, code: bc})
		}
	}
	return out
}

// pickUpBarcodes holds the marked range of one kit until it is dropped on a
// sample row.
func (a *App) pickUpBarcodes(entries []poolEntry) {
	if len(entries) == 0 || a.poolCursor >= len(entries) {
		a.statusMsg = "Barcode pool is empty"
		return
	}
	cur := entries[a.poolCursor]
	start, end := cur.index, cur.index
	if a.poolAnchor >= 0 && a.poolAnchor < len(entries) {
		anchor := entries[a.poolAnchor]
		if anchor.kit != cur.kit {
			a.statusMsg = "A barcode selection must stay inside one kit"
			return
		}
		start, end = min(anchor.index, cur.index), max(anchor.index, cur.index)
	}
	a.held = &session.Drop{Kit: cur.kit, Start: start, Count: end - start + 1}
	a.poolAnchor = -1
	a.focus = focusSheet
	a.grid.Focus()
	a.statusMsg = fmt.Sprintf("Holding %d barcode(s) from %s: press enter on the first sample", a.held.Count, cur.kit)
}

func (a *App) dropBarcodes() {
	row, ok := a.currentRow()
	if !ok {
		a.statusMsg = "No sample under the cursor"
		return
	}
	d := *a.held
	d.TargetRow = row
	if err := a.checkDropTarget(d.Count); err != nil {
		a.logbook.Warn("rejected drop of %d barcode(s) from %s: %v", d.Count, d.Kit, err)
		a.fail("Assign", err)
		return
	}
	if err := a.session.Assign(d); err != nil {
		a.fail("Assign", err)
		return
	}
	a.held = nil
	a.statusMsg = fmt.Sprintf("Assigned %d barcode(s) from %s (ctrl+z to undo)", d.Count, d.Kit)
	a.refresh()
}

// checkDropTarget requires the count rows shown from the cursor down to be
// consecutive table rows, so a drop never lands on rows a filter hides.
func (a *App) checkDropTarget(count int) error {
	c := a.grid.Cursor()
	if c+count > len(a.visible) {
		return fmt.Errorf("%w: %d barcode(s) but only %d visible row(s) from the cursor",
			session.ErrSelectionMismatch, count, len(a.visible)-c)
	}
	for i := 1; i < count; i++ {
		if a.visible[c+i] != a.visible[c]+i {
			return fmt.Errorf("%w: the filter hides rows between %s and %s",
				session.ErrSelectionMismatch, a.sampleID(a.visible[c]), a.sampleID(a.visible[c+i]))
		}
	}
	return nil
}

func (a *App) sampleID(row int) string {
	r, err := a.session.Table().Row(row)
	if err != nil {
		return fmt.Sprintf("row %d", row+1)
	}
	return r.SampleID
}

func (a *App) undo() {
	if err := a.session.Undo(); err != nil {
		if errors.Is(err, session.ErrNothingToUndo) {
			a.statusMsg = "Nothing to undo"
			return
		}
		a.fail("Undo", err)
		return
	}
	a.statusMsg = "Assignment undone"
	a.refresh()
}

func (a *App) reloadBarcodes() {
	if err := a.session.ReloadBarcodes(); err != nil {
		a.fail("Reload", err)
		return
	}
	a.held = nil
	a.poolAnchor = -1
	a.statusMsg = fmt.Sprintf("Reloaded %d barcode(s); assignments cleared", a.session.Pool().Len())
	a.refresh()
}

func (a *App) beginEdit() tea.Cmd {
	row, ok := a.currentRow()
	if !ok || a.colCursor >= len(a.columns) {
		a.statusMsg = "No cell selected"
		return nil
	}
	column := a.columns[a.colCursor]
	value, err := a.session.Table().Value(row, column)
	if err != nil {
		a.fail("Edit", err)
		return nil
	}
	a.editRow = row
	a.editColumn = column
	return a.openPrompt(promptEdit, column+": ", value)
}

func (a *App) openPrompt(kind promptKind, label, value string) tea.Cmd {
	a.prompt = kind
	a.input.Prompt = label
	a.input.SetValue(value)
	a.input.CursorEnd()
	a.input.Focus()
	return textinput.Blink
}

func (a *App) closePrompt() {
	a.prompt = promptNone
	a.input.Blur()
	a.input.SetValue("")
}

func (a *App) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		if a.prompt == promptSearch {
			a.applyQuery("")
		}
		a.closePrompt()
		return a, nil
	case "enter":
		if a.submitPrompt(strings.TrimSpace(a.input.Value())) {
			a.closePrompt()
		}
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submitPrompt acts on the prompt value and reports whether the prompt can
// close. Invalid input keeps it open for correction.
func (a *App) submitPrompt(value string) bool {
	switch a.prompt {
	case promptSearch:
		return a.applyQuery(value)
	case promptEdit:
		if err := a.session.Set(a.editRow, a.editColumn, value); err != nil {
			a.fail("Edit", err)
			return false
		}
		a.statusMsg = fmt.Sprintf("%s updated", a.editColumn)
		a.refresh()
	case promptImport:
		if value == "" {
			return false
		}
		res, err := a.session.Import(a.resolve(value), a.importer)
		if err != nil {
			a.fail("Import", err)
			return false
		}
		a.held = nil
		a.rowAnchor = -1
		a.statusMsg = fmt.Sprintf("Imported %d sample(s), %d incomplete row(s) dropped", len(res.Samples), res.Dropped)
		a.refresh()
	case promptExport:
		if value == "" {
			return false
		}
		path := a.resolve(value)
		if err := a.session.Export(path); err != nil {
			a.fail("Export", err)
			return false
		}
		a.statusMsg = fmt.Sprintf("Exported to %s", path)
	}
	return true
}

func (a *App) applyQuery(q string) bool {
	m, err := filter.CompileWithMarkers(q, a.session.Markers())
	if err != nil {
		a.fail("Search", err)
		return false
	}
	a.query = q
	a.matcher = m
	a.rowAnchor = -1
	if q == "" {
		a.statusMsg = "Filter cleared"
	} else {
		a.statusMsg = fmt.Sprintf("Filter: %s", q)
	}
	a.refresh()
	return true
}

func (a *App) resolve(path string) string {
	if filepath.IsAbs(path) || a.config == nil {
		return path
	}
	return filepath.Join(a.config.ProjectDir, path)
}

// refresh rebuilds every panel from the session.
func (a *App) refresh() {
	t := a.session.Table()
	a.visible = filter.Indices(t.Rows(), a.matcher)
	a.columns = t.Columns()
	if a.colCursor >= len(a.columns) {
		a.colCursor = max(0, len(a.columns)-1)
	}
	a.refreshGrid()

	removed := t.Removed()
	items := make([]list.Item, len(removed))
	for i, s := range removed {
		items[i] = removedItem{sample: s}
	}
	a.removed.SetItems(items)

	if n := len(a.poolEntries()); a.poolCursor >= n {
		a.poolCursor = max(0, n-1)
	}
}

func (a *App) refreshGrid() {
	rows := a.session.Table().Rows()
	cols := make([]table.Column, 0, len(a.columns)+1)
	cols = append(cols, table.Column{Title: " ", Width: 1})
	for i, name := range a.columns {
		title := name
		if i == a.colCursor {
			title = "[" + name + "]"
		}
		cols = append(cols, table.Column{Title: title, Width: columnWidth(name)})
	}

	marked := map[int]bool{}
	if a.rowAnchor >= 0 {
		for _, r := range a.selectedRows() {
			marked[r] = true
		}
	}
	gridRows := make([]table.Row, 0, len(a.visible))
	for _, idx := range a.visible {
		s := rows[idx]
		mark := " "
		if marked[idx] {
			mark = "*"
		}
		r := table.Row{mark}
		for _, col := range a.columns {
			v, _ := s.Value(col)
			r = append(r, v)
		}
		gridRows = append(gridRows, r)
	}

	// Clear rows first so the new columns never render against old rows.
	a.grid.SetRows(nil)
	a.grid.SetColumns(cols)
	a.grid.SetRows(gridRows)
	if len(gridRows) > 0 && a.grid.Cursor() >= len(gridRows) {
		a.grid.SetCursor(len(gridRows) - 1)
	}
}

func columnWidth(name string) int {
	switch name {
	case sheet.ColSampleID:
		return 14
	case sheet.ColComment:
		return 16
	case sheet.ColSex, sheet.ColAge:
		return 5
	default:
		return 10
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
