package filter

import (
	"reflect"
	"testing"

	"github.com/kingrea/poresamples/internal/sheet"
)

func rows() []sheet.Sample {
	return []sheet.Sample{
		{SampleID: "POS_CTRL1", Order: -1, Comment: "POS Control"},
		{SampleID: "SAMPLE_1", Sex: "F", Age: "41", Barcode: "barcode01", Kit: "SQK"},
		{SampleID: "SAMPLE_2", Sex: "M", Age: "35", Extra: map[string]string{"client": "Ward 7"}},
		{SampleID: "NEG_CTRL1", Order: 1},
	}
}

func TestEmptyQueryMatchesAll(t *testing.T) {
	m, err := Compile("  ")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got := Indices(rows(), m); len(got) != 4 {
		t.Fatalf("indices = %v", got)
	}
}

func TestWildcardIsCaseInsensitiveAndSearchesExtras(t *testing.T) {
	cases := map[string][]int{
		"sample":  {1, 2},
		"ward":    {2},
		"ctrl?":   {0, 3},
		"bar*01":  {1},
		"nothing": {},
	}
	for q, want := range cases {
		m, err := Compile(q)
		if err != nil {
			t.Fatalf("compile %q: %v", q, err)
		}
		if got := Indices(rows(), m); !reflect.DeepEqual(got, want) {
			t.Fatalf("query %q = %v, want %v", q, got, want)
		}
	}
}

func TestExpressionQueries(t *testing.T) {
	cases := map[string][]int{
		"= order < 0":                   {0},
		"= positive or negative":        {0, 3},
		`= sex == "F" && assigned`:      {1},
		`= extra["client"] == "Ward 7"`: {2},
		`= sample_id startsWith "SAMP"`: {1, 2},
	}
	for q, want := range cases {
		m, err := Compile(q)
		if err != nil {
			t.Fatalf("compile %q: %v", q, err)
		}
		if got := Indices(rows(), m); !reflect.DeepEqual(got, want) {
			t.Fatalf("query %q = %v, want %v", q, got, want)
		}
	}
}

func TestExpressionErrors(t *testing.T) {
	if _, err := Compile("= order +"); err == nil {
		t.Fatalf("expected syntax error")
	}
	if _, err := Compile("= sample_id"); err == nil {
		t.Fatalf("expected non-bool expression to be rejected")
	}
}

func TestWildcardMatchesAcrossSlashesAndLiterals(t *testing.T) {
	samples := []sheet.Sample{
		{SampleID: "POS_CTRL1", Comment: "POS/NEG control"},
		{SampleID: "P7", Extra: map[string]string{"sample_date": "2024/03/01"}},
		{SampleID: "P8", Comment: "[rerun] (x2)"},
		{SampleID: "P9", Comment: "plain"},
	}
	cases := map[string][]int{
		"control":     {0},
		"pos":         {0},
		"/neg":        {0},
		"2024/*/01":   {1},
		"03/0?":       {1},
		"[rerun]":     {2},
		"(x2)":        {2},
		"p.":          {},
		"pos*control": {0},
	}
	for q, want := range cases {
		m, err := Compile(q)
		if err != nil {
			t.Fatalf("compile %q: %v", q, err)
		}
		if got := Indices(samples, m); !reflect.DeepEqual(got, want) {
			t.Fatalf("query %q = %v, want %v", q, got, want)
		}
	}
}

func TestCustomMarkers(t *testing.T) {
	m, err := CompileWithMarkers("= positive", sheet.Markers{Positive: "PC", Negative: "NC"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got := Indices([]sheet.Sample{{SampleID: "PC_1"}, {SampleID: "POS_CTRL1"}}, m)
	if !reflect.DeepEqual(got, []int{0}) {
		t.Fatalf("indices = %v", got)
	}
}
