package sheet

import (
	"fmt"
	"strings"
)

// ControlKind distinguishes positive from negative control wells.
type ControlKind int

const (
	PositiveControl ControlKind = iota
	NegativeControl
)

func (k ControlKind) String() string {
	if k == NegativeControl {
		return "negative"
	}
	return "positive"
}

// Markers are the id substrings that identify control wells.
type Markers struct {
	Positive string
	Negative string
}

// DefaultMarkers matches ids such as POS_CTRL1 and NEG_CTRL2.
var DefaultMarkers = Markers{Positive: "POS", Negative: "NEG"}

func (m Markers) withDefaults() Markers {
	if strings.TrimSpace(m.Positive) == "" {
		m.Positive = DefaultMarkers.Positive
	}
	if strings.TrimSpace(m.Negative) == "" {
		m.Negative = DefaultMarkers.Negative
	}
	return m
}

// Marker returns the substring for a control kind.
func (m Markers) Marker(kind ControlKind) string {
	if kind == NegativeControl {
		return m.Negative
	}
	return m.Positive
}

// IsPositive reports whether the id names a positive control.
func (m Markers) IsPositive(id string) bool {
	return m.Positive != "" && strings.Contains(id, m.Positive)
}

// IsNegative reports whether the id names a negative control.
func (m Markers) IsNegative(id string) bool {
	return m.Negative != "" && strings.Contains(id, m.Negative)
}

// Order returns the sort key a row with this id gets: -1 for positive
// controls, 1 for negative controls and 0 for samples.
func (m Markers) Order(id string) int {
	switch {
	case m.IsPositive(id):
		return -1
	case m.IsNegative(id):
		return 1
	default:
		return 0
	}
}

// ControlCount returns how many rows of the given kind are in the sheet.
func (t *Table) ControlCount(kind ControlKind) int {
	marker := t.markers.Marker(kind)
	n := 0
	for _, r := range t.rows {
		if strings.Contains(r.SampleID, marker) {
			n++
		}
	}
	return n
}

// SetControls replaces every control row of the given kind with n freshly
// numbered controls. n == 0 only removes them.
func (t *Table) SetControls(kind ControlKind, n int) error {
	if n < 0 {
		return fmt.Errorf("sheet: control count must be >= 0, got %d", n)
	}
	marker := t.markers.Marker(kind)
	kept := t.rows[:0:0]
	for _, r := range t.rows {
		if strings.Contains(r.SampleID, marker) {
			continue
		}
		kept = append(kept, r)
	}
	t.rows = kept

	order := -1
	if kind == NegativeControl {
		order = 1
	}
	controls := make([]Sample, 0, n)
	for i := 1; i <= n; i++ {
		controls = append(controls, Sample{
			SampleID: fmt.Sprintf("%s_CTRL%d", marker, i),
			Order:    order,
			Comment:  fmt.Sprintf("%s Control", marker),
		})
	}
	t.Append(controls...)
	return nil
}
