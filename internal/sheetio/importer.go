// internal/sheetio/importer.go
//
// Importers turn instrument or LIMS exports into sample sheet rows. Each
// importer knows one source format; the registry maps the names shown in the
// UI and accepted on the command line to an implementation.

package sheetio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/kingrea/poresamples/internal/sheet"
)

var (
	// ErrMissingColumn is returned when a required source column is absent.
	ErrMissingColumn = errors.New("sheetio: missing required column")
	// ErrUnknownImporter is returned for an importer name nobody registered.
	ErrUnknownImporter = errors.New("sheetio: unknown importer")
	// ErrEmptyInput is returned when the input has no header row.
	ErrEmptyInput = errors.New("sheetio: input is empty")
)

// Result is the outcome of an import.
type Result struct {
	Samples []sheet.Sample
	// Extras names the passthrough columns carried by Samples.
	Extras []string
	// Dropped counts source rows skipped because a field was missing.
	Dropped int
	// DerivedOrder is set when the source had no order column and the
	// sort key was inferred from the sample ids.
	DerivedOrder bool
}

// Table builds a sorted sample table using the default control markers.
func (r Result) Table() *sheet.Table {
	return r.TableWithMarkers(sheet.DefaultMarkers)
}

// TableWithMarkers builds a sorted sample table whose control rows are
// recognised by m. A derived sort key is recomputed from m.
func (r Result) TableWithMarkers(m sheet.Markers) *sheet.Table {
	samples := r.Samples
	if r.DerivedOrder {
		samples = make([]sheet.Sample, len(r.Samples))
		for i, s := range r.Samples {
			s.Order = m.Order(s.SampleID)
			samples[i] = s
		}
	}
	t := sheet.New(samples, r.Extras)
	t.SetMarkers(m)
	return t
}

// Importer reads one source format.
type Importer interface {
	Name() string
	Description() string
	Import(r io.Reader) (Result, error)
}

var registry = map[string]Importer{}

func register(imp Importer) {
	registry[imp.Name()] = imp
}

func init() {
	register(analytixImporter{})
	register(sheetImporter{})
}

// DefaultImporter is used when neither the config nor the caller picks one.
const DefaultImporter = "analytix"

// Lookup returns the importer registered under name.
func Lookup(name string) (Importer, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultImporter
	}
	imp, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownImporter, name, strings.Join(Names(), ", "))
	}
	return imp, nil
}

// Names lists the registered importers alphabetically.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ImportFile reads path with the named importer.
func ImportFile(path, importer string) (Result, error) {
	imp, err := Lookup(importer)
	if err != nil {
		return Result{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("sheetio: open %s: %w", path, err)
	}
	defer f.Close()
	res, err := imp.Import(f)
	if err != nil {
		return Result{}, fmt.Errorf("sheetio: import %s as %s: %w", path, imp.Name(), err)
	}
	return res, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readRecords reads every record of a delimited file. A zero delimiter means
// sniff it from the data. Rows may have differing field counts; callers
// decide what a short row means.
func readRecords(r io.Reader, delimiter rune) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}
	if delimiter == 0 {
		delimiter = DetectDelimiter(bytes.NewReader(data))
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}
	for i := range records[0] {
		records[0][i] = strings.TrimSpace(records[0][i])
	}
	return records, nil
}

// complete reports whether a row has a non-blank value for every header
// column.
func complete(row []string, width int) bool {
	if len(row) < width {
		return false
	}
	for _, v := range row[:width] {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

func requireColumns(header []string, required ...string) error {
	have := make(map[string]struct{}, len(header))
	for _, h := range header {
		have[h] = struct{}{}
	}
	var missing []string
	for _, col := range required {
		if _, ok := have[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// recordReader feeds already split records to gocsv.
type recordReader struct {
	records [][]string
	pos     int
}

func (r *recordReader) Read() ([]string, error) {
	if r.pos >= len(r.records) {
		return nil, io.EOF
	}
	rec := r.records[r.pos]
	r.pos++
	return rec, nil
}

func (r *recordReader) ReadAll() ([][]string, error) {
	rest := r.records[r.pos:]
	r.pos = len(r.records)
	return rest, nil
}
