package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kingrea/poresamples/internal/config"
	"github.com/kingrea/poresamples/internal/filter"
	"github.com/kingrea/poresamples/internal/logbook"
	"github.com/kingrea/poresamples/internal/session"
	"github.com/kingrea/poresamples/internal/sheet"
	"github.com/kingrea/poresamples/internal/sheetio"
)

// convert command flags
var (
	convertOutput   string
	convertPositive int
	convertNegative int
	convertWhere    string
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert an export into a sample sheet without the editor",
	Long: `Import a file, optionally filter rows and add controls, and write the
sample sheet as CSV. Without -o the sheet goes to stdout.`,
	Example: `  poresamples convert export.csv -o sheet.csv
  poresamples convert export.csv --positive 1 --negative 2
  poresamples convert sheet.csv -i sheet --where 'sex == "F"'`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output file (default stdout)")
	convertCmd.Flags().IntVar(&convertPositive, "positive", -1, "number of positive controls")
	convertCmd.Flags().IntVar(&convertNegative, "negative", -1, "number of negative controls")
	convertCmd.Flags().StringVarP(&convertWhere, "where", "w", "", "keep only rows matching this expression")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, importer, err := loadConfig()
	if err != nil {
		return err
	}
	s := openSession(cfg)
	res, err := s.Import(args[0], importer)
	if err != nil {
		return err
	}
	if res.Dropped > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d incomplete row(s) dropped\n", res.Dropped)
	}

	if convertWhere != "" {
		m, err := filter.CompileWithMarkers(filter.ExprPrefix+convertWhere, s.Markers())
		if err != nil {
			return err
		}
		var drop []int
		for i, row := range s.Table().Rows() {
			if !m(row) {
				drop = append(drop, i)
			}
		}
		if len(drop) > 0 {
			if err := s.Remove(drop...); err != nil {
				return err
			}
		}
	}
	if convertPositive >= 0 {
		if err := s.SetControls(sheet.PositiveControl, convertPositive); err != nil {
			return err
		}
	}
	if convertNegative >= 0 {
		if err := s.SetControls(sheet.NegativeControl, convertNegative); err != nil {
			return err
		}
	}

	if convertOutput == "" || convertOutput == "-" {
		return sheetio.Export(cmd.OutOrStdout(), s.Table())
	}
	if err := s.Export(convertOutput); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d sample(s) to %s\n", s.Table().Len(), convertOutput)
	return nil
}

// openSession builds a session from the project config. Operations are
// logged only when the project has been initialised.
func openSession(cfg *config.Config) *session.Session {
	opts := []session.Option{
		session.WithMarkers(cfg.Markers()),
	}
	if _, err := os.Stat(cfg.StateDir); err == nil {
		if lb, err := logbook.New(cfg.LogPath()); err == nil {
			opts = append(opts, session.WithLogbook(lb))
		}
	}
	return session.New(nil, nil, opts...)
}
