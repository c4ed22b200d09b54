package sheet

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"
)

func testSamples() []Sample {
	return []Sample{
		{SampleID: "SAMPLE_10", Sex: "F", Age: "40"},
		{SampleID: "SAMPLE_2", Sex: "M", Age: "31"},
		{SampleID: "NEG_CTRL1", Order: 1},
		{SampleID: "SAMPLE_1", Sex: "F", Age: "22"},
		{SampleID: "POS_CTRL1", Order: -1},
	}
}

func ids(t *Table) []string {
	return t.SampleIDs()
}

func TestNewSortsByOrderThenNaturalID(t *testing.T) {
	table := New(testSamples(), nil)
	want := []string{"POS_CTRL1", "SAMPLE_1", "SAMPLE_2", "SAMPLE_10", "NEG_CTRL1"}
	if got := ids(table); !reflect.DeepEqual(got, want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
}

func TestSortInvariantHoldsForAllInputOrders(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		samples := testSamples()
		for i := 0; i < 8; i++ {
			samples = append(samples, Sample{SampleID: fmt.Sprintf("S%d", rng.Intn(30)), Order: rng.Intn(3) - 1})
		}
		rng.Shuffle(len(samples), func(i, j int) { samples[i], samples[j] = samples[j], samples[i] })

		table := New(samples[:5], nil)
		if !table.IsSorted() {
			t.Fatalf("trial %d: unsorted after New: %v", trial, ids(table))
		}
		table.Append(samples[5:]...)
		if !table.IsSorted() {
			t.Fatalf("trial %d: unsorted after Append: %v", trial, ids(table))
		}
		if err := table.Remove(0, rng.Intn(table.Len())); err != nil {
			t.Fatalf("trial %d: remove: %v", trial, err)
		}
		if !table.IsSorted() {
			t.Fatalf("trial %d: unsorted after Remove: %v", trial, ids(table))
		}
		if err := table.Restore(0); err != nil {
			t.Fatalf("trial %d: restore: %v", trial, err)
		}
		if !table.IsSorted() {
			t.Fatalf("trial %d: unsorted after Restore: %v", trial, ids(table))
		}
	}
}

func TestDuplicateIDsAreKept(t *testing.T) {
	table := New([]Sample{{SampleID: "A", Comment: "first"}, {SampleID: "A", Comment: "second"}}, nil)
	if table.Len() != 2 {
		t.Fatalf("len = %d, want 2", table.Len())
	}
	first, _ := table.Row(0)
	if first.Comment != "first" {
		t.Fatalf("stable tie-break broken: first comment %q", first.Comment)
	}
}

func TestRemoveThenRestoreKeepsValues(t *testing.T) {
	table := New(testSamples(), []string{"client"})
	target, err := table.Row(2)
	if err != nil {
		t.Fatalf("row: %v", err)
	}
	if err := table.Remove(2); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if table.Len() != 4 {
		t.Fatalf("len after remove = %d", table.Len())
	}
	removed := table.Removed()
	if len(removed) != 1 || !reflect.DeepEqual(removed[0], target) {
		t.Fatalf("removed buffer = %+v, want %+v", removed, target)
	}
	if err := table.Restore(0); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(table.Removed()) != 0 {
		t.Fatalf("buffer should be empty after restore")
	}
	found := false
	for _, row := range table.Rows() {
		if reflect.DeepEqual(row, target) {
			found = true
		}
	}
	if !found {
		t.Fatalf("restored row %+v missing from %v", target, ids(table))
	}
}

func TestRemoveMultiSelectionKeepsTableOrder(t *testing.T) {
	table := New(testSamples(), nil)
	if err := table.Remove(3, 1, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	var got []string
	for _, r := range table.Removed() {
		got = append(got, r.SampleID)
	}
	want := []string{"SAMPLE_1", "SAMPLE_10"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("removed = %v, want %v", got, want)
	}
}

func TestRemoveInvalidIndexChangesNothing(t *testing.T) {
	table := New(testSamples(), nil)
	before := table.Rows()
	err := table.Remove(0, 99)
	if !errors.Is(err, ErrRowOutOfRange) {
		t.Fatalf("err = %v, want ErrRowOutOfRange", err)
	}
	if !reflect.DeepEqual(table.Rows(), before) || len(table.Removed()) != 0 {
		t.Fatalf("table changed after failed remove")
	}
}

func TestRestoreOutOfRange(t *testing.T) {
	table := New(testSamples(), nil)
	if err := table.Restore(0); !errors.Is(err, ErrRowOutOfRange) {
		t.Fatalf("err = %v, want ErrRowOutOfRange", err)
	}
}

func TestSetResortsAndGuardsColumns(t *testing.T) {
	table := New(testSamples(), []string{"client"})
	// SAMPLE_1 is row 1; moving it to order 2 puts it last.
	if err := table.Set(1, ColOrder, "2"); err != nil {
		t.Fatalf("set order: %v", err)
	}
	if got := ids(table)[table.Len()-1]; got != "SAMPLE_1" {
		t.Fatalf("last id = %s, want SAMPLE_1", got)
	}
	if err := table.Set(0, ColComment, "checked"); err != nil {
		t.Fatalf("set comment: %v", err)
	}
	if v, _ := table.Value(0, ColComment); v != "checked" {
		t.Fatalf("comment = %q", v)
	}
	if err := table.Set(0, "client", "lab 4"); err != nil {
		t.Fatalf("set extra: %v", err)
	}
	if err := table.Set(0, ColPlatePosition, "A1"); !errors.Is(err, ErrReadOnlyColumn) {
		t.Fatalf("plate_position err = %v", err)
	}
	if err := table.Set(0, "nope", "x"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("unknown column err = %v", err)
	}
	if err := table.Set(0, ColOrder, "first"); err == nil {
		t.Fatalf("expected error for non-integer order")
	}
}

func TestAppendFillsExtras(t *testing.T) {
	table := New(nil, []string{"client"})
	table.Append(Sample{SampleID: "X"})
	v, err := table.Value(0, "client")
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != "" {
		t.Fatalf("extra = %q, want blank", v)
	}
}

func TestColumnsHideOrder(t *testing.T) {
	table := New(nil, []string{"client"})
	for _, c := range table.Columns() {
		if c == ColOrder {
			t.Fatalf("order column must be hidden")
		}
	}
	if cols := table.Columns(); cols[len(cols)-1] != "client" {
		t.Fatalf("extras should follow canonical columns: %v", cols)
	}
}

func TestCloneIsDeep(t *testing.T) {
	table := New([]Sample{{SampleID: "A", Extra: map[string]string{"client": "x"}}}, []string{"client"})
	clone := table.Clone()
	if err := table.Set(0, "client", "y"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, _ := clone.Value(0, "client"); v != "x" {
		t.Fatalf("clone shares extra map: %q", v)
	}
}

func TestSetControlsReplacesExisting(t *testing.T) {
	table := New(testSamples(), nil)
	if err := table.SetControls(PositiveControl, 3); err != nil {
		t.Fatalf("set controls: %v", err)
	}
	if got := table.ControlCount(PositiveControl); got != 3 {
		t.Fatalf("positive controls = %d, want 3", got)
	}
	want := []string{"POS_CTRL1", "POS_CTRL2", "POS_CTRL3"}
	if got := ids(table)[:3]; !reflect.DeepEqual(got, want) {
		t.Fatalf("leading ids = %v, want %v", got, want)
	}
	row, _ := table.Row(0)
	if row.Comment != "POS Control" || row.Order != -1 {
		t.Fatalf("control row = %+v", row)
	}
	if err := table.SetControls(NegativeControl, 0); err != nil {
		t.Fatalf("clear negatives: %v", err)
	}
	if got := table.ControlCount(NegativeControl); got != 0 {
		t.Fatalf("negative controls = %d, want 0", got)
	}
	if err := table.SetControls(NegativeControl, -1); err == nil {
		t.Fatalf("expected error for negative count")
	}
}

func TestClearBarcodes(t *testing.T) {
	table := New([]Sample{{SampleID: "A", Barcode: "BC01", Kit: "SQK"}}, nil)
	table.ClearBarcodes()
	row, _ := table.Row(0)
	if row.Barcode != "" || row.Kit != "" {
		t.Fatalf("barcodes not cleared: %+v", row)
	}
}
