// internal/sheet/table.go
//
// Table holds the sample sheet in memory. Every mutation re-sorts the rows by
// (order, sample_id) so the row order seen by callers always matches the sort
// key. Rows evicted with Remove are kept in a side buffer and can be restored.
//
// A Table is not safe for concurrent use; the UI serialises all access.

package sheet

import (
	"errors"
	"fmt"
	"sort"

	"github.com/maruel/natural"
)

var (
	// ErrRowOutOfRange is returned when a row or buffer index does not exist.
	ErrRowOutOfRange = errors.New("sheet: row index out of range")
	// ErrReadOnlyColumn is returned when editing a derived column.
	ErrReadOnlyColumn = errors.New("sheet: column is read-only")
	// ErrUnknownColumn is returned when editing a column the table does not have.
	ErrUnknownColumn = errors.New("sheet: unknown column")
)

// Table is the sorted sample sheet plus the removed-samples buffer.
type Table struct {
	rows    []Sample
	removed []Sample
	extras  []string
	markers Markers
}

// New builds a table from rows and the names of their passthrough columns.
func New(samples []Sample, extras []string) *Table {
	t := &Table{
		extras:  append([]string(nil), extras...),
		markers: DefaultMarkers,
	}
	t.rows = make([]Sample, 0, len(samples))
	for _, s := range samples {
		row := s.clone()
		row.normalize(t.extras)
		t.rows = append(t.rows, row)
	}
	t.Sort()
	return t
}

// SetMarkers changes the id substrings used to recognise control wells.
func (t *Table) SetMarkers(m Markers) {
	t.markers = m.withDefaults()
}

// Markers returns the control markers in use.
func (t *Table) Markers() Markers {
	return t.markers
}

// Len returns the number of rows in the sheet.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns a copy of the row at index i.
func (t *Table) Row(i int) (Sample, error) {
	if i < 0 || i >= len(t.rows) {
		return Sample{}, fmt.Errorf("%w: %d", ErrRowOutOfRange, i)
	}
	return t.rows[i].clone(), nil
}

// Rows returns a copy of all rows in sorted order.
func (t *Table) Rows() []Sample {
	return cloneRows(t.rows)
}

// Removed returns a copy of the removed-samples buffer.
func (t *Table) Removed() []Sample {
	return cloneRows(t.removed)
}

// Extras returns the passthrough column names.
func (t *Table) Extras() []string {
	return append([]string(nil), t.extras...)
}

// Columns returns the visible columns. The order column is an internal sort
// key and is not listed.
func (t *Table) Columns() []string {
	cols := make([]string, 0, len(CanonicalColumns)+len(t.extras))
	for _, c := range CanonicalColumns {
		if c == ColOrder {
			continue
		}
		cols = append(cols, c)
	}
	return append(cols, t.extras...)
}

// SampleIDs returns the ids in row order.
func (t *Table) SampleIDs() []string {
	ids := make([]string, len(t.rows))
	for i, r := range t.rows {
		ids[i] = r.SampleID
	}
	return ids
}

// Append adds rows and re-sorts. Duplicate ids are allowed.
func (t *Table) Append(rows ...Sample) {
	for _, r := range rows {
		row := r.clone()
		row.normalize(t.extras)
		t.rows = append(t.rows, row)
	}
	t.Sort()
}

// Remove moves the rows at the given indices into the removed buffer. The
// indices may come from any selection; duplicates are ignored and rows enter
// the buffer in table order. Nothing changes if any index is invalid.
func (t *Table) Remove(indices ...int) error {
	if len(indices) == 0 {
		return nil
	}
	selected := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(t.rows) {
			return fmt.Errorf("%w: %d", ErrRowOutOfRange, idx)
		}
		selected[idx] = struct{}{}
	}
	kept := make([]Sample, 0, len(t.rows)-len(selected))
	for i, row := range t.rows {
		if _, ok := selected[i]; ok {
			t.removed = append(t.removed, row)
			continue
		}
		kept = append(kept, row)
	}
	t.rows = kept
	t.Sort()
	return nil
}

// Restore moves entry i of the removed buffer back into the sheet.
func (t *Table) Restore(i int) error {
	if i < 0 || i >= len(t.removed) {
		return fmt.Errorf("%w: removed[%d]", ErrRowOutOfRange, i)
	}
	row := t.removed[i]
	t.removed = append(t.removed[:i:i], t.removed[i+1:]...)
	t.Append(row)
	return nil
}

// Set edits one cell and re-sorts, so editing order or sample_id can move the
// row.
func (t *Table) Set(row int, column, value string) error {
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	if err := t.rows[row].set(column, value, t.extras); err != nil {
		return err
	}
	t.Sort()
	return nil
}

// Value returns the string value of a cell.
func (t *Table) Value(row int, column string) (string, error) {
	if row < 0 || row >= len(t.rows) {
		return "", fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	if column == ColPlatePosition {
		return "", ErrReadOnlyColumn
	}
	v, ok := t.rows[row].Value(column)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	return v, nil
}

// AssignBarcode writes a barcode name and kit into a row without re-sorting;
// neither column is part of the sort key.
func (t *Table) AssignBarcode(row int, name, kit string) error {
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	t.rows[row].Barcode = name
	t.rows[row].Kit = kit
	return nil
}

// ClearBarcodes blanks the barcode and kit of every row.
func (t *Table) ClearBarcodes() {
	for i := range t.rows {
		t.rows[i].Barcode = ""
		t.rows[i].Kit = ""
	}
}

// Sort orders rows by order ascending, then sample_id in natural order.
// Ties keep their current relative position.
func (t *Table) Sort() {
	sort.SliceStable(t.rows, func(i, j int) bool {
		return Less(t.rows[i], t.rows[j])
	})
}

// IsSorted reports whether the rows satisfy the sort key.
func (t *Table) IsSorted() bool {
	return sort.SliceIsSorted(t.rows, func(i, j int) bool {
		return Less(t.rows[i], t.rows[j])
	})
}

// Clone returns a deep copy including the removed buffer.
func (t *Table) Clone() *Table {
	return &Table{
		rows:    cloneRows(t.rows),
		removed: cloneRows(t.removed),
		extras:  append([]string(nil), t.extras...),
		markers: t.markers,
	}
}

// Less is the sheet ordering: order, then natural sample id.
func Less(a, b Sample) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	return natural.Less(a.SampleID, b.SampleID)
}

func cloneRows(rows []Sample) []Sample {
	if rows == nil {
		return nil
	}
	out := make([]Sample, len(rows))
	for i, r := range rows {
		out[i] = r.clone()
	}
	return out
}
