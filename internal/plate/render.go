package plate

import (
	"fmt"
	"strings"

	"github.com/fogleman/gg"
)

// Palette holds the hex colours used for each kind of well.
type Palette struct {
	Positive string `yaml:"positive"`
	Negative string `yaml:"negative"`
	Sample   string `yaml:"sample"`
	Empty    string `yaml:"empty"`
}

// DefaultPalette is the colour scheme the lab sheets have always used.
var DefaultPalette = Palette{
	Positive: "#e5fab9",
	Negative: "#fc9b90",
	Sample:   "#b3d0ff",
	Empty:    "#ffffff",
}

// WithDefaults fills blank entries from DefaultPalette.
func (p Palette) WithDefaults() Palette {
	if strings.TrimSpace(p.Positive) == "" {
		p.Positive = DefaultPalette.Positive
	}
	if strings.TrimSpace(p.Negative) == "" {
		p.Negative = DefaultPalette.Negative
	}
	if strings.TrimSpace(p.Sample) == "" {
		p.Sample = DefaultPalette.Sample
	}
	if strings.TrimSpace(p.Empty) == "" {
		p.Empty = DefaultPalette.Empty
	}
	return p
}

// Color returns the colour for a kind.
func (p Palette) Color(k Kind) string {
	switch k {
	case KindPositive:
		return p.Positive
	case KindNegative:
		return p.Negative
	case KindSample:
		return p.Sample
	default:
		return p.Empty
	}
}

// RenderText draws the layout as a fixed-width grid with row letters and
// column numbers.
func RenderText(l Layout, cellWidth int) string {
	if cellWidth < 3 {
		cellWidth = 3
	}
	var b strings.Builder
	b.WriteString("  ")
	for c := 0; c < Columns; c++ {
		fmt.Fprintf(&b, " %-*d", cellWidth, c+1)
	}
	b.WriteByte('\n')
	for r := 0; r < Rows; r++ {
		fmt.Fprintf(&b, "%c ", rowLetters[r])
		for c := 0; c < Columns; c++ {
			id := l.Cells[r][c].SampleID
			if id == "" {
				id = "."
			}
			fmt.Fprintf(&b, " %-*s", cellWidth, truncate(id, cellWidth))
		}
		b.WriteByte('\n')
	}
	if l.Overflow > 0 {
		fmt.Fprintf(&b, "%d sample(s) not plotted: plate holds %d\n", l.Overflow, Capacity)
	}
	return b.String()
}

const (
	pngWell   = 96.0
	pngMargin = 40.0
)

// RenderPNG writes the layout as a PNG image to path.
func RenderPNG(l Layout, p Palette, path string) error {
	p = p.WithDefaults()
	width := int(pngMargin + Columns*pngWell + pngMargin/2)
	height := int(pngMargin + Rows*pngWell + pngMargin/2)
	dc := gg.NewContext(width, height)
	dc.SetHexColor("#ffffff")
	dc.Clear()

	dc.SetHexColor("#333333")
	for c := 0; c < Columns; c++ {
		x := pngMargin + float64(c)*pngWell + pngWell/2
		dc.DrawStringAnchored(fmt.Sprintf("%d", c+1), x, pngMargin/2, 0.5, 0.5)
	}
	for r := 0; r < Rows; r++ {
		y := pngMargin + float64(r)*pngWell + pngWell/2
		dc.DrawStringAnchored(string(rowLetters[r]), pngMargin/2, y, 0.5, 0.5)
	}

	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			cell := l.Cells[r][c]
			x := pngMargin + float64(c)*pngWell
			y := pngMargin + float64(r)*pngWell
			dc.DrawRectangle(x+2, y+2, pngWell-4, pngWell-4)
			dc.SetHexColor(p.Color(cell.Kind))
			dc.FillPreserve()
			dc.SetHexColor("#888888")
			dc.SetLineWidth(1)
			dc.Stroke()
			if cell.SampleID != "" {
				dc.SetHexColor("#000000")
				dc.DrawStringWrapped(cell.SampleID, x+pngWell/2, y+pngWell/2, 0.5, 0.5, pngWell-8, 1.2, gg.AlignCenter)
			}
		}
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("plate: write png %s: %w", path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
