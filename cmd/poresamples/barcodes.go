package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/poresamples/internal/barcode"
)

var (
	barcodesFile    string
	barcodesVerbose bool
)

var barcodesCmd = &cobra.Command{
	Use:   "barcodes",
	Short: "List the kits and barcodes in the barcode pool",
	Args:  cobra.NoArgs,
	RunE:  runBarcodes,
}

func init() {
	barcodesCmd.Flags().StringVarP(&barcodesFile, "file", "f", "", "barcode file (default from config)")
	barcodesCmd.Flags().BoolVarP(&barcodesVerbose, "verbose", "v", false, "list every barcode")
}

func runBarcodes(cmd *cobra.Command, args []string) error {
	path := barcodesFile
	if path == "" {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.BarcodeFile()
	}
	pool, err := barcode.Load(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d barcode(s) in %d kit(s)\n", path, pool.Len(), len(pool.Kits()))
	for _, kit := range pool.Kits() {
		codes := pool.Kit(kit)
		fmt.Fprintf(out, "  %-24s %d\n", kit, len(codes))
		if !barcodesVerbose {
			continue
		}
		for _, bc := range codes {
			fmt.Fprintf(out, "    %-12s %s\n", bc.Name, bc.Sequence)
		}
	}
	return nil
}
