package sheetio

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kingrea/poresamples/internal/sheet"
)

// sheetImporter reads canonical sheets, including ones written by Export.
// Columns outside the canonical set are kept as passthrough columns.
type sheetImporter struct{}

func (sheetImporter) Name() string { return "sheet" }

func (sheetImporter) Description() string {
	return "Canonical sample sheet (sample_id, barcode, kit, ...), any delimiter"
}

func (sheetImporter) Import(r io.Reader) (Result, error) {
	records, err := readRecords(r, 0)
	if err != nil {
		return Result{}, err
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = canonicalName(h)
	}
	if err := requireColumns(header, sheet.ColSampleID); err != nil {
		return Result{}, err
	}

	var extras []string
	for _, h := range header {
		if h == "" || h == sheet.ColPlatePosition || isCanonical(h) {
			continue
		}
		extras = append(extras, h)
	}

	hasOrder := false
	for _, h := range header {
		if h == sheet.ColOrder {
			hasOrder = true
		}
	}

	// Exported sheets carry no order column, so controls are found by id.
	res := Result{Extras: extras, DerivedOrder: !hasOrder}
	for line, row := range records[1:] {
		s := sheet.Sample{}
		for i, col := range header {
			if i >= len(row) {
				break
			}
			v := strings.TrimSpace(row[i])
			switch col {
			case "", sheet.ColPlatePosition:
			case sheet.ColSampleID:
				s.SampleID = v
			case sheet.ColBarcode:
				s.Barcode = v
			case sheet.ColKit:
				s.Kit = v
			case sheet.ColFlowcell:
				s.Flowcell = v
			case sheet.ColSex:
				s.Sex = v
			case sheet.ColAge:
				s.Age = v
			case sheet.ColComment:
				s.Comment = v
			case sheet.ColOrder:
				if v == "" {
					continue
				}
				n, err := strconv.Atoi(v)
				if err != nil {
					return Result{}, fmt.Errorf("line %d: order %q is not an integer", line+2, v)
				}
				s.Order = n
			default:
				if s.Extra == nil {
					s.Extra = map[string]string{}
				}
				s.Extra[col] = v
			}
		}
		if s.SampleID == "" {
			res.Dropped++
			continue
		}
		if !hasOrder {
			s.Order = sheet.DefaultMarkers.Order(s.SampleID)
		}
		res.Samples = append(res.Samples, s)
	}
	return res, nil
}

func canonicalName(header string) string {
	h := strings.TrimSpace(header)
	if mapped, ok := AnalytixColumns[h]; ok {
		return mapped
	}
	h = strings.ToLower(h)
	// Older sheets used the plural.
	if h == "barcodes" {
		return sheet.ColBarcode
	}
	return h
}

func isCanonical(col string) bool {
	for _, c := range sheet.CanonicalColumns {
		if c == col {
			return true
		}
	}
	return false
}
