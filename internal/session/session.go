// internal/session/session.go
//
// A Session is the editing state shared by the TUI and the CLI: the sample
// table, the barcode pool and a single level of undo for barcode assignment.
// It is not safe for concurrent use; the bubbletea update loop serialises
// every call.

package session

import (
	"errors"
	"fmt"

	"github.com/kingrea/poresamples/internal/barcode"
	"github.com/kingrea/poresamples/internal/logbook"
	"github.com/kingrea/poresamples/internal/sheet"
	"github.com/kingrea/poresamples/internal/sheetio"
)

var (
	// ErrSelectionMismatch is returned when a drop does not fit the source kit
	// or the target rows.
	ErrSelectionMismatch = errors.New("session: selection does not fit")
	// ErrEmptySelection is returned for a drop of zero barcodes.
	ErrEmptySelection = errors.New("session: empty selection")
	// ErrNothingToUndo is returned by Undo when no assignment is pending.
	ErrNothingToUndo = errors.New("session: nothing to undo")
	// ErrNoBarcodeFile is returned by ReloadBarcodes without a configured file.
	ErrNoBarcodeFile = errors.New("session: no barcode file configured")
)

// State is the assignment state.
type State int

const (
	StateIdle State = iota
	StatePendingUndo
)

func (s State) String() string {
	if s == StatePendingUndo {
		return "pending-undo"
	}
	return "idle"
}

// Drop describes one barcode assignment: Count barcodes of Kit starting at
// Start go onto rows TargetRow..TargetRow+Count-1.
type Drop struct {
	Kit       string
	Start     int
	Count     int
	TargetRow int
}

type snapshot struct {
	table *sheet.Table
	pool  *barcode.Pool
}

// Session owns the table and pool being edited.
type Session struct {
	table       *sheet.Table
	pool        *barcode.Pool
	undo        *snapshot
	barcodeFile string
	markers     sheet.Markers
	log         *logbook.Logbook
}

// Option customises a Session.
type Option func(*Session)

// WithLogbook records every operation in book.
func WithLogbook(book *logbook.Logbook) Option {
	return func(s *Session) {
		s.log = book
	}
}

// WithMarkers sets the control markers used for new tables.
func WithMarkers(m sheet.Markers) Option {
	return func(s *Session) {
		s.markers = m
	}
}

// WithBarcodeFile sets the file ReloadBarcodes and Import read the pool from.
func WithBarcodeFile(path string) Option {
	return func(s *Session) {
		s.barcodeFile = path
	}
}

// New creates a session over table and pool. Nil arguments start empty.
func New(table *sheet.Table, pool *barcode.Pool, opts ...Option) *Session {
	s := &Session{markers: sheet.DefaultMarkers}
	for _, opt := range opts {
		opt(s)
	}
	if table == nil {
		table = sheet.New(nil, nil)
	}
	if pool == nil {
		pool = barcode.NewPool(nil)
	}
	table.SetMarkers(s.markers)
	s.table = table
	s.pool = pool
	return s
}

// Table returns the live table. Callers must mutate it through the session.
func (s *Session) Table() *sheet.Table { return s.table }

// Pool returns the live barcode pool.
func (s *Session) Pool() *barcode.Pool { return s.pool }

// Markers returns the control markers.
func (s *Session) Markers() sheet.Markers { return s.markers }

// BarcodeFile returns the file ReloadBarcodes reads.
func (s *Session) BarcodeFile() string { return s.barcodeFile }

// Logbook returns the session logbook, possibly nil.
func (s *Session) Logbook() *logbook.Logbook { return s.log }

// State reports whether an assignment can be undone.
func (s *Session) State() State {
	if s.undo != nil {
		return StatePendingUndo
	}
	return StateIdle
}

// Assign moves the barcodes described by d from the pool onto sample rows.
// Nothing changes on error.
func (s *Session) Assign(d Drop) error {
	if err := s.validateDrop(d); err != nil {
		s.log.Warn("assign rejected: %v", err)
		return err
	}
	snap := &snapshot{table: s.table.Clone(), pool: s.pool.Clone()}
	taken, err := s.pool.Take(d.Kit, d.Start, d.Count)
	if err != nil {
		s.table, s.pool = snap.table, snap.pool
		return fmt.Errorf("%w: %v", ErrSelectionMismatch, err)
	}
	for i, bc := range taken {
		if err := s.table.AssignBarcode(d.TargetRow+i, bc.Name, bc.Kit); err != nil {
			s.table, s.pool = snap.table, snap.pool
			return fmt.Errorf("%w: %v", ErrSelectionMismatch, err)
		}
	}
	s.undo = snap
	s.log.Info("assigned %d barcode(s) from %s[%d] to rows %d-%d",
		d.Count, d.Kit, d.Start, d.TargetRow, d.TargetRow+d.Count-1)
	return nil
}

func (s *Session) validateDrop(d Drop) error {
	if d.Count < 1 {
		return ErrEmptySelection
	}
	if !s.pool.HasKit(d.Kit) {
		return fmt.Errorf("%w: %s", barcode.ErrUnknownKit, d.Kit)
	}
	if d.Start < 0 || d.Start+d.Count > len(s.pool.Kit(d.Kit)) {
		return fmt.Errorf("%w: %d barcode(s) from %s[%d] but the kit has %d left",
			ErrSelectionMismatch, d.Count, d.Kit, d.Start, len(s.pool.Kit(d.Kit)))
	}
	if d.TargetRow < 0 || d.TargetRow+d.Count > s.table.Len() {
		return fmt.Errorf("%w: %d barcode(s) onto row %d but the sheet has %d row(s)",
			ErrSelectionMismatch, d.Count, d.TargetRow, s.table.Len())
	}
	return nil
}

// Undo reverts the last assignment.
func (s *Session) Undo() error {
	if s.undo == nil {
		return ErrNothingToUndo
	}
	s.table, s.pool = s.undo.table, s.undo.pool
	s.undo = nil
	s.log.Info("undid barcode assignment")
	return nil
}

// Import replaces the table with the contents of path and refills the pool
// from the barcode file, so new data starts with every barcode available.
// Table and pool are both kept if either read fails.
func (s *Session) Import(path, importer string) (sheetio.Result, error) {
	res, err := sheetio.ImportFile(path, importer)
	if err != nil {
		s.log.Error("import %s: %v", path, err)
		return sheetio.Result{}, err
	}
	pool := s.pool
	if s.barcodeFile != "" {
		if pool, err = barcode.Load(s.barcodeFile); err != nil {
			s.log.Error("import %s: reload barcodes: %v", path, err)
			return sheetio.Result{}, err
		}
	}
	table := res.TableWithMarkers(s.markers)
	s.table = table
	s.pool = pool
	s.undo = nil
	s.log.Info("imported %d sample(s) from %s (%d incomplete row(s) dropped, %d barcode(s) available)",
		table.Len(), path, res.Dropped, pool.Len())
	return res, nil
}

// ReloadBarcodes rereads the barcode file, clears every assignment and
// discards the undo snapshot. The current pool is kept if loading fails.
func (s *Session) ReloadBarcodes() error {
	if s.barcodeFile == "" {
		return ErrNoBarcodeFile
	}
	pool, err := barcode.Load(s.barcodeFile)
	if err != nil {
		s.log.Error("reload barcodes: %v", err)
		return err
	}
	s.pool = pool
	s.table.ClearBarcodes()
	s.undo = nil
	s.log.Info("reloaded %d barcode(s) in %d kit(s) from %s", pool.Len(), len(pool.Kits()), s.barcodeFile)
	return nil
}

// Export writes the sheet to path.
func (s *Session) Export(path string) error {
	if err := sheetio.ExportFile(path, s.table); err != nil {
		s.log.Error("export %s: %v", path, err)
		return err
	}
	s.log.Info("exported %d sample(s) to %s", s.table.Len(), path)
	return nil
}

// Remove moves rows into the removed buffer.
func (s *Session) Remove(rows ...int) error {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if row, err := s.table.Row(r); err == nil {
			ids = append(ids, row.SampleID)
		}
	}
	if err := s.table.Remove(rows...); err != nil {
		return err
	}
	s.log.Info("removed %d row(s): %v", len(ids), ids)
	return nil
}

// Restore returns entry i of the removed buffer to the sheet.
func (s *Session) Restore(i int) error {
	removed := s.table.Removed()
	if err := s.table.Restore(i); err != nil {
		return err
	}
	s.log.Info("restored %s", removed[i].SampleID)
	return nil
}

// Set edits one cell.
func (s *Session) Set(row int, column, value string) error {
	before, err := s.table.Value(row, column)
	if err != nil {
		return err
	}
	if err := s.table.Set(row, column, value); err != nil {
		return err
	}
	s.log.Info("set %s on row %d: %q -> %q", column, row, before, value)
	return nil
}

// SetControls sets the number of control rows of a kind.
func (s *Session) SetControls(kind sheet.ControlKind, n int) error {
	if err := s.table.SetControls(kind, n); err != nil {
		return err
	}
	s.log.Info("%s controls set to %d", kind, n)
	return nil
}

// Append adds rows to the sheet.
func (s *Session) Append(rows ...sheet.Sample) {
	s.table.Append(rows...)
	s.log.Info("appended %d row(s)", len(rows))
}
