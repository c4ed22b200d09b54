// internal/plate/plate.go
//
// The plate projector maps rows of the sorted sample sheet onto a 96-well
// plate. Wells are filled down rows A-H first and then across columns 1-12,
// so row i lands in well (i mod 8, i div 8). The projection has no state of
// its own; it is recomputed from the current row order on every call.

package plate

import (
	"fmt"

	"github.com/kingrea/poresamples/internal/sheet"
)

const (
	// Rows is the number of lettered plate rows (A-H).
	Rows = 8
	// Columns is the number of numbered plate columns (1-12).
	Columns = 12
	// Capacity is the number of wells on the plate.
	Capacity = Rows * Columns
)

const rowLetters = "ABCDEFGH"

// Well is a zero-based plate coordinate.
type Well struct {
	Row    int
	Column int
}

// Label returns the well name, e.g. "A1" or "H12".
func (w Well) Label() string {
	return fmt.Sprintf("%c%d", rowLetters[w.Row], w.Column+1)
}

// Position returns the well for the i-th row of the sheet. It reports false
// for rows that do not fit on the plate.
func Position(i int) (Well, bool) {
	if i < 0 || i >= Capacity {
		return Well{}, false
	}
	return Well{Row: i % Rows, Column: i / Rows}, true
}

// Label returns the well label for the i-th row, or "" past the plate.
func Label(i int) string {
	w, ok := Position(i)
	if !ok {
		return ""
	}
	return w.Label()
}

// Kind classifies what occupies a well.
type Kind int

const (
	KindEmpty Kind = iota
	KindSample
	KindPositive
	KindNegative
)

func (k Kind) String() string {
	switch k {
	case KindSample:
		return "sample"
	case KindPositive:
		return "positive"
	case KindNegative:
		return "negative"
	default:
		return "empty"
	}
}

// Cell is one plotted well.
type Cell struct {
	SampleID string
	Kind     Kind
}

// Layout is a projected plate. Cells is indexed [row][column].
type Layout struct {
	Cells [Rows][Columns]Cell
	// Overflow counts the rows that did not fit on the plate.
	Overflow int
}

// Project plots ids in sheet order. Rows past the plate capacity are not
// plotted.
func Project(ids []string, markers sheet.Markers) Layout {
	var layout Layout
	for i, id := range ids {
		w, ok := Position(i)
		if !ok {
			layout.Overflow = len(ids) - Capacity
			break
		}
		layout.Cells[w.Row][w.Column] = Cell{SampleID: id, Kind: Classify(id, markers)}
	}
	return layout
}

// Classify returns the colour class of a sample id. Positive markers win
// when an id carries both.
func Classify(id string, markers sheet.Markers) Kind {
	switch {
	case markers.IsPositive(id):
		return KindPositive
	case markers.IsNegative(id):
		return KindNegative
	default:
		return KindSample
	}
}

// Cell returns the content of a well.
func (l Layout) Cell(w Well) Cell {
	return l.Cells[w.Row][w.Column]
}

// Count returns the number of occupied wells.
func (l Layout) Count() int {
	n := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			if l.Cells[r][c].Kind != KindEmpty {
				n++
			}
		}
	}
	return n
}
