package sheetio

import (
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// DetectDelimiter returns the most likely field delimiter of a CSV-like
// input. A comma wins whenever it is one of the candidates.
func DetectDelimiter(r io.Reader) rune {
	d := detector.New()
	candidates := d.DetectDelimiter(r, '"')
	if len(candidates) == 0 {
		return ','
	}
	for _, c := range candidates {
		if c == "," {
			return ','
		}
	}
	return rune(candidates[0][0])
}
