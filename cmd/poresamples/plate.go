package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/poresamples/internal/plate"
)

var platePNG string

var plateCmd = &cobra.Command{
	Use:   "plate <file>",
	Short: "Show where each sample lands on the 96 well plate",
	Example: `  poresamples plate export.csv
  poresamples plate sheet.csv -i sheet --png plate.png`,
	Args: cobra.ExactArgs(1),
	RunE: runPlate,
}

func init() {
	plateCmd.Flags().StringVar(&platePNG, "png", "", "also render the plate to a PNG file")
}

func runPlate(cmd *cobra.Command, args []string) error {
	cfg, importer, err := loadConfig()
	if err != nil {
		return err
	}
	s := openSession(cfg)
	if _, err := s.Import(args[0], importer); err != nil {
		return err
	}
	layout := plate.Project(s.Table().SampleIDs(), s.Markers())
	fmt.Fprint(cmd.OutOrStdout(), plate.RenderText(layout, 9))
	if platePNG == "" {
		return nil
	}
	if err := plate.RenderPNG(layout, cfg.Palette(), platePNG); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", platePNG)
	return nil
}
