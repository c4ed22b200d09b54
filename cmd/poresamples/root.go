package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/poresamples/internal/config"
	"github.com/kingrea/poresamples/internal/tui"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// projectDir is the directory holding .poresamples.
var projectDir string

// importerName overrides the configured importer for commands reading a file.
var importerName string

var rootCmd = &cobra.Command{
	Use:   "poresamples [file]",
	Short: "Build nanopore sample sheets",
	Long: `poresamples turns LIMS exports into nanopore sample sheets:

  - import Analytix exports or earlier sheets
  - assign barcodes from a kit pool, with undo
  - add positive and negative controls
  - preview the 96 well plate and export the sheet as CSV

Examples:
  poresamples                              # Open the editor
  poresamples edit export.csv              # Open the editor with a file loaded
  poresamples convert export.csv -o sheet.csv --positive 1 --negative 1
  poresamples plate sheet.csv --importer sheet --png plate.png
  poresamples barcodes                     # List the barcode pool`,
	Version:       Version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runEdit,
}

var editCmd = &cobra.Command{
	Use:   "edit [file]",
	Short: "Open the sample sheet editor",
	Long:  `Open the interactive editor, optionally importing a file first.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEdit,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the .poresamples directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitDir(projectDir); err != nil {
			return err
		}
		cfg, err := config.NewConfig(projectDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", cfg.StateDir)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "project directory")
	rootCmd.PersistentFlags().StringVarP(&importerName, "importer", "i", "", "importer for input files (analytix, sheet)")

	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(plateCmd)
	rootCmd.AddCommand(barcodesCmd)
	rootCmd.AddCommand(initCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	var opts []tui.AppOption
	if len(args) == 1 {
		opts = append(opts, tui.WithSheet(args[0], importerName))
	}
	app, err := tui.NewApp(projectDir, opts...)
	if err != nil {
		return err
	}
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run editor: %w", err)
	}
	return nil
}

// loadConfig reads the project config and resolves the importer to use.
func loadConfig() (*config.Config, string, error) {
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, "", err
	}
	importer := importerName
	if importer == "" {
		importer = cfg.DefaultImporter()
	}
	return cfg, importer, nil
}
