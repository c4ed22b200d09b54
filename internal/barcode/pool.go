// internal/barcode/pool.go
//
// The barcode pool is the list of unused barcodes, grouped by kit. It is
// loaded from a YAML file shaped as
//
//	SQK-NBD114.24:
//	  barcode01: AAGAAAGTTGTCGGTGTCTTTGTG
//	  barcode02: TCGATTCCGTTTGTAGTCGTCTGT
//
// Kits and barcodes keep the order they have in the file. Barcodes leave the
// pool when they are assigned and only come back with a full reload.

package barcode

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownKit is returned when a kit is not present in the pool.
	ErrUnknownKit = errors.New("barcode: unknown kit")
	// ErrRangeOutOfBounds is returned when a selection runs past the kit.
	ErrRangeOutOfBounds = errors.New("barcode: selection out of range")
)

// Barcode is one entry of the pool.
type Barcode struct {
	Kit      string
	Name     string
	Sequence string
}

// Pool holds the unused barcodes of every kit.
type Pool struct {
	kits  []string
	byKit map[string][]Barcode
}

// NewPool builds a pool from barcodes, grouping them by kit in first-seen
// order.
func NewPool(barcodes []Barcode) *Pool {
	p := &Pool{byKit: map[string][]Barcode{}}
	for _, bc := range barcodes {
		if _, ok := p.byKit[bc.Kit]; !ok {
			p.kits = append(p.kits, bc.Kit)
		}
		p.byKit[bc.Kit] = append(p.byKit[bc.Kit], bc)
	}
	return p
}

// Load reads a barcode YAML file.
func Load(path string) (*Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("barcode: read %s: %w", path, err)
	}
	pool, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("barcode: parse %s: %w", path, err)
	}
	return pool, nil
}

// Parse decodes the nested kit -> {name: sequence} mapping.
func Parse(data []byte) (*Pool, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return NewPool(nil), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of kits", root.Line)
	}
	var barcodes []Barcode
	for i := 0; i+1 < len(root.Content); i += 2 {
		kitNode, codes := root.Content[i], root.Content[i+1]
		kit := strings.TrimSpace(kitNode.Value)
		if kit == "" {
			return nil, fmt.Errorf("line %d: kit name is empty", kitNode.Line)
		}
		if codes.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: kit %s must map barcode names to sequences", codes.Line, kit)
		}
		for j := 0; j+1 < len(codes.Content); j += 2 {
			name, seq := codes.Content[j], codes.Content[j+1]
			if seq.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: sequence for %s/%s must be a string", seq.Line, kit, name.Value)
			}
			barcodes = append(barcodes, Barcode{
				Kit:      kit,
				Name:     strings.TrimSpace(name.Value),
				Sequence: strings.TrimSpace(seq.Value),
			})
		}
	}
	return NewPool(barcodes), nil
}

// Kits returns the kit names in file order. Kits whose barcodes are all used
// are still listed.
func (p *Pool) Kits() []string {
	return append([]string(nil), p.kits...)
}

// Kit returns the unused barcodes of a kit.
func (p *Pool) Kit(kit string) []Barcode {
	return append([]Barcode(nil), p.byKit[kit]...)
}

// HasKit reports whether the kit is known to the pool.
func (p *Pool) HasKit(kit string) bool {
	_, ok := p.byKit[kit]
	return ok
}

// Len returns the number of unused barcodes across all kits.
func (p *Pool) Len() int {
	n := 0
	for _, codes := range p.byKit {
		n += len(codes)
	}
	return n
}

// All returns every unused barcode in kit order.
func (p *Pool) All() []Barcode {
	var out []Barcode
	for _, kit := range p.kits {
		out = append(out, p.byKit[kit]...)
	}
	return out
}

// Peek returns count barcodes of a kit starting at start without removing
// them.
func (p *Pool) Peek(kit string, start, count int) ([]Barcode, error) {
	codes, ok := p.byKit[kit]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKit, kit)
	}
	if start < 0 || count < 0 || start+count > len(codes) {
		return nil, fmt.Errorf("%w: %s[%d:%d] of %d", ErrRangeOutOfBounds, kit, start, start+count, len(codes))
	}
	return append([]Barcode(nil), codes[start:start+count]...), nil
}

// Take removes and returns count barcodes of a kit starting at start.
func (p *Pool) Take(kit string, start, count int) ([]Barcode, error) {
	taken, err := p.Peek(kit, start, count)
	if err != nil {
		return nil, err
	}
	codes := p.byKit[kit]
	rest := make([]Barcode, 0, len(codes)-count)
	rest = append(rest, codes[:start]...)
	rest = append(rest, codes[start+count:]...)
	p.byKit[kit] = rest
	return taken, nil
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	out := &Pool{
		kits:  append([]string(nil), p.kits...),
		byKit: make(map[string][]Barcode, len(p.byKit)),
	}
	for kit, codes := range p.byKit {
		out.byKit[kit] = append([]Barcode{}, codes...)
	}
	return out
}
