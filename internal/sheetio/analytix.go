package sheetio

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/kingrea/poresamples/internal/sheet"
)

// Analytix exports are semicolon separated with Swedish headers.
const analytixDelimiter = ';'

const (
	analytixSampleID = "ProvNr"
	analytixSex      = "Kön"
	analytixAge      = "Ålder (vid provtagning)"
)

// AnalytixColumns maps Analytix headers to their canonical names.
var AnalytixColumns = map[string]string{
	"Beställarkod":     "client",
	analytixSex:        sheet.ColSex,
	"Prov ID":          "sample_name",
	"Provdatum":        "sample_date",
	"Analys":           "analysis",
	analytixAge:        sheet.ColAge,
	analytixSampleID:   sheet.ColSampleID,
	"Godkännandedatum": "apprvl_date",
	"Resultat":         "result",
}

type analytixRecord struct {
	Client       string `csv:"Beställarkod"`
	Sex          string `csv:"Kön"`
	SampleName   string `csv:"Prov ID"`
	SampleDate   string `csv:"Provdatum"`
	Analysis     string `csv:"Analys"`
	Age          string `csv:"Ålder (vid provtagning)"`
	SampleID     string `csv:"ProvNr"`
	ApprovalDate string `csv:"Godkännandedatum"`
	Result       string `csv:"Resultat"`
}

type analytixImporter struct{}

func (analytixImporter) Name() string { return "analytix" }

func (analytixImporter) Description() string {
	return "Analytix LIMS export (semicolon separated, Swedish headers)"
}

// Import keeps only rows where every source field is filled in, then
// projects them onto the canonical sheet columns.
func (analytixImporter) Import(r io.Reader) (Result, error) {
	records, err := readRecords(r, analytixDelimiter)
	if err != nil {
		return Result{}, err
	}
	header := records[0]
	if err := requireColumns(header, analytixSampleID, analytixSex, analytixAge); err != nil {
		return Result{}, err
	}

	kept := [][]string{header}
	dropped := 0
	for _, row := range records[1:] {
		if !complete(row, len(header)) {
			dropped++
			continue
		}
		kept = append(kept, row)
	}

	var decoded []*analytixRecord
	if err := gocsv.UnmarshalCSV(&recordReader{records: kept}, &decoded); err != nil {
		return Result{}, fmt.Errorf("decode analytix rows: %w", err)
	}

	samples := make([]sheet.Sample, 0, len(decoded))
	for _, rec := range decoded {
		samples = append(samples, sheet.Sample{
			SampleID: strings.TrimSpace(rec.SampleID),
			Sex:      strings.TrimSpace(rec.Sex),
			Age:      strings.TrimSpace(rec.Age),
		})
	}
	return Result{Samples: samples, Dropped: dropped}, nil
}
