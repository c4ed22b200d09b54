// internal/sheet/sample.go
//
// A Sample is one row of the sample sheet. Rows have no stable key: they are
// addressed by their position in the sorted table.

package sheet

import (
	"fmt"
	"strconv"
	"strings"
)

// Column names of the canonical sheet.
const (
	ColSampleID      = "sample_id"
	ColBarcode       = "barcode"
	ColKit           = "kit"
	ColFlowcell      = "flowcell"
	ColSex           = "sex"
	ColAge           = "age"
	ColComment       = "comment"
	ColOrder         = "order"
	ColPlatePosition = "plate_position"
)

// CanonicalColumns lists the canonical columns in sheet order, including the
// internal sort key.
var CanonicalColumns = []string{
	ColSampleID,
	ColBarcode,
	ColKit,
	ColFlowcell,
	ColSex,
	ColAge,
	ColComment,
	ColOrder,
}

// Sample is a single sheet row. Order is the primary sort key: negative for
// positive controls, positive for negative controls, zero for samples.
type Sample struct {
	SampleID string
	Barcode  string
	Kit      string
	Flowcell string
	Sex      string
	Age      string
	Comment  string
	Order    int
	Extra    map[string]string
}

// Value returns the string form of a column.
func (s Sample) Value(column string) (string, bool) {
	switch column {
	case ColSampleID:
		return s.SampleID, true
	case ColBarcode:
		return s.Barcode, true
	case ColKit:
		return s.Kit, true
	case ColFlowcell:
		return s.Flowcell, true
	case ColSex:
		return s.Sex, true
	case ColAge:
		return s.Age, true
	case ColComment:
		return s.Comment, true
	case ColOrder:
		return strconv.Itoa(s.Order), true
	}
	if s.Extra != nil {
		v, ok := s.Extra[column]
		return v, ok
	}
	return "", false
}

func (s *Sample) set(column, value string, extras []string) error {
	switch column {
	case ColSampleID:
		s.SampleID = value
	case ColBarcode:
		s.Barcode = value
	case ColKit:
		s.Kit = value
	case ColFlowcell:
		s.Flowcell = value
	case ColSex:
		s.Sex = value
	case ColAge:
		s.Age = value
	case ColComment:
		s.Comment = value
	case ColOrder:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("sheet: order must be an integer: %w", err)
		}
		s.Order = n
	case ColPlatePosition:
		return ErrReadOnlyColumn
	default:
		if !containsColumn(extras, column) {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, column)
		}
		if s.Extra == nil {
			s.Extra = map[string]string{}
		}
		s.Extra[column] = value
	}
	return nil
}

// normalize fills unset passthrough fields with the blank placeholder so every
// row carries every column.
func (s *Sample) normalize(extras []string) {
	if len(extras) == 0 {
		return
	}
	if s.Extra == nil {
		s.Extra = make(map[string]string, len(extras))
	}
	for _, col := range extras {
		if _, ok := s.Extra[col]; !ok {
			s.Extra[col] = ""
		}
	}
}

func (s Sample) clone() Sample {
	out := s
	if s.Extra != nil {
		out.Extra = make(map[string]string, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

func containsColumn(columns []string, target string) bool {
	for _, c := range columns {
		if c == target {
			return true
		}
	}
	return false
}
