// Package filter implements the sample search bar. Plain text matches rows
// by wildcard over every visible field; a query starting with "=" is an
// expr-lang boolean expression over the row's fields.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/kingrea/poresamples/internal/sheet"
)

// ExprPrefix marks a query as an expression.
const ExprPrefix = "="

// Matcher decides whether a row is shown.
type Matcher func(sheet.Sample) bool

// All matches every row.
func All(sheet.Sample) bool { return true }

// RowEnv is the expression environment for one sample row.
type RowEnv struct {
	SampleID string            `expr:"sample_id"`
	Barcode  string            `expr:"barcode"`
	Kit      string            `expr:"kit"`
	Flowcell string            `expr:"flowcell"`
	Sex      string            `expr:"sex"`
	Age      string            `expr:"age"`
	Comment  string            `expr:"comment"`
	Order    int               `expr:"order"`
	Positive bool              `expr:"positive"`
	Negative bool              `expr:"negative"`
	Assigned bool              `expr:"assigned"`
	Extra    map[string]string `expr:"extra"`
}

// Compile turns a search query into a Matcher using the default control
// markers.
func Compile(query string) (Matcher, error) {
	return CompileWithMarkers(query, sheet.DefaultMarkers)
}

// CompileWithMarkers is Compile with explicit control markers for the
// positive and negative expression fields.
func CompileWithMarkers(query string, markers sheet.Markers) (Matcher, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return All, nil
	}
	if strings.HasPrefix(q, ExprPrefix) {
		return compileExpr(strings.TrimSpace(strings.TrimPrefix(q, ExprPrefix)), markers)
	}
	return compileWildcard(q)
}

func compileWildcard(q string) (Matcher, error) {
	re, err := wildcardRegexp(q)
	if err != nil {
		return nil, fmt.Errorf("filter: bad pattern %q: %w", q, err)
	}
	return func(s sheet.Sample) bool {
		for _, v := range fields(s) {
			if re.MatchString(v) {
				return true
			}
		}
		return false
	}, nil
}

// wildcardRegexp turns a search term into an unanchored, case-insensitive
// regexp: '*' matches any run of characters, including '/', and '?' matches
// exactly one. Everything else is literal.
func wildcardRegexp(q string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?is)")
	for _, r := range q {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return regexp.Compile(b.String())
}

func compileExpr(src string, markers sheet.Markers) (Matcher, error) {
	if src == "" {
		return All, nil
	}
	program, err := expr.Compile(src, expr.Env(RowEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("filter: compile %q: %w", src, err)
	}
	return func(s sheet.Sample) bool {
		return run(program, Env(s, markers))
	}, nil
}

func run(program *vm.Program, env RowEnv) bool {
	out, err := expr.Run(program, env)
	if err != nil {
		return false
	}
	b, ok := out.(bool)
	return ok && b
}

// Env builds the expression environment for a row.
func Env(s sheet.Sample, markers sheet.Markers) RowEnv {
	extra := s.Extra
	if extra == nil {
		extra = map[string]string{}
	}
	return RowEnv{
		SampleID: s.SampleID,
		Barcode:  s.Barcode,
		Kit:      s.Kit,
		Flowcell: s.Flowcell,
		Sex:      s.Sex,
		Age:      s.Age,
		Comment:  s.Comment,
		Order:    s.Order,
		Positive: markers.IsPositive(s.SampleID),
		Negative: markers.IsNegative(s.SampleID),
		Assigned: strings.TrimSpace(s.Barcode) != "",
		Extra:    extra,
	}
}

func fields(s sheet.Sample) []string {
	out := []string{s.SampleID, s.Barcode, s.Kit, s.Flowcell, s.Sex, s.Age, s.Comment}
	for _, v := range s.Extra {
		out = append(out, v)
	}
	return out
}

// Indices returns the table indices of the rows m accepts.
func Indices(rows []sheet.Sample, m Matcher) []int {
	if m == nil {
		m = All
	}
	out := make([]int, 0, len(rows))
	for i, r := range rows {
		if m(r) {
			out = append(out, i)
		}
	}
	return out
}
