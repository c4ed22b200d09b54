// internal/config/config.go
//
// This package handles configuration and the .poresamples directory.
// Every directory poresamples runs in gets a .poresamples/ folder holding the
// project config, the session log and default exports.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/poresamples/internal/plate"
	"github.com/kingrea/poresamples/internal/sheet"
	"github.com/kingrea/poresamples/internal/sheetio"
)

const (
	// StateDirName is the name of the directory we create in each project
	StateDirName = ".poresamples"

	defaultBarcodeFile = "barcodes.yaml"
	defaultExportDir   = "exports"
)

// Environment variables that override config.yaml. They may also be set in
// a .env file in the project or state directory.
const (
	EnvBarcodes  = "PORESAMPLES_BARCODES"
	EnvImporter  = "PORESAMPLES_IMPORTER"
	EnvExportDir = "PORESAMPLES_EXPORT_DIR"
)

const defaultProjectConfigYAML = `# poresamples project configuration
version: 1

# Barcode pool: a mapping of kit -> {barcode name: sequence}.
# Relative paths are resolved against the project directory.
barcodes:
  file: .poresamples/barcodes.yaml

# Importer used for Ctrl+O and "poresamples convert" (analytix or sheet).
import:
  default: analytix

export:
  dir: .poresamples/exports

# Substrings of sample ids that mark control wells.
controls:
  positive_marker: POS
  negative_marker: NEG

plate:
  colors:
    positive: "#e5fab9"
    negative: "#fc9b90"
    sample: "#b3d0ff"
`

const defaultBarcodesYAML = `# kit -> barcode name -> sequence
SQK-NBD114.24:
  barcode01: AAGAAAGTTGTCGGTGTCTTTGTG
  barcode02: TCGATTCCGTTTGTAGTCGTCTGT
  barcode03: GAGTCTTGTGTCCCAGTTACCAGG
  barcode04: TTCGGATTCTATCGTGTTTCCCTA
`

// BarcodeConfig locates the barcode pool file.
type BarcodeConfig struct {
	File string `yaml:"file"`
}

// ImportConfig selects the importer.
type ImportConfig struct {
	Default string `yaml:"default"`
}

// ExportConfig selects where exports go by default.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// ControlConfig names the id markers of control wells.
type ControlConfig struct {
	PositiveMarker string `yaml:"positive_marker"`
	NegativeMarker string `yaml:"negative_marker"`
}

// PlateConfig customizes the plate view.
type PlateConfig struct {
	Colors plate.Palette `yaml:"colors"`
}

// ProjectConfig models .poresamples/config.yaml.
type ProjectConfig struct {
	Version  int           `yaml:"version"`
	Barcodes BarcodeConfig `yaml:"barcodes"`
	Import   ImportConfig  `yaml:"import"`
	Export   ExportConfig  `yaml:"export"`
	Controls ControlConfig `yaml:"controls"`
	Plate    PlateConfig   `yaml:"plate"`
}

// Config holds the runtime configuration.
type Config struct {
	// ProjectDir is the directory poresamples was started from
	ProjectDir string

	// StateDir is ProjectDir/.poresamples
	StateDir string

	Project ProjectConfig
}

// InitDir creates the .poresamples directory structure in the given project
// directory, along with a default config and an example barcode file.
//
// Structure created:
// .poresamples/
// ├── config.yaml
// ├── barcodes.yaml
// ├── logs/       <- session log
// └── exports/    <- default export location
func InitDir(projectDir string) error {
	stateDir := filepath.Join(projectDir, StateDirName)
	dirs := []string{
		filepath.Join(stateDir, "logs"),
		filepath.Join(stateDir, defaultExportDir),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	if err := ensureFile(filepath.Join(stateDir, "config.yaml"), defaultProjectConfigYAML); err != nil {
		return err
	}
	return ensureFile(filepath.Join(stateDir, defaultBarcodeFile), defaultBarcodesYAML)
}

// NewConfig loads the project config, .env files and environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve project dir: %w", err)
	}
	cfg := &Config{
		ProjectDir: abs,
		StateDir:   filepath.Join(abs, StateDirName),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadEnvFiles(); err != nil {
		return nil, err
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	cfg.Project.normalize(cfg.ProjectDir)
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ConfigPath returns the on-disk location for the project config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.StateDir, "config.yaml")
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// LogPath returns the session log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "session.log")
}

// ExportDir returns the default export directory.
func (c *Config) ExportDir() string {
	return c.Project.Export.Dir
}

// BarcodeFile returns the barcode pool file.
func (c *Config) BarcodeFile() string {
	return c.Project.Barcodes.File
}

// DefaultImporter returns the configured importer name.
func (c *Config) DefaultImporter() string {
	return c.Project.Import.Default
}

// Markers returns the control markers.
func (c *Config) Markers() sheet.Markers {
	return sheet.Markers{
		Positive: c.Project.Controls.PositiveMarker,
		Negative: c.Project.Controls.NegativeMarker,
	}
}

// Palette returns the plate colours.
func (c *Config) Palette() plate.Palette {
	return c.Project.Plate.Colors.WithDefaults()
}

// SetDefaultImporter updates the default importer and persists it to
// .poresamples/config.yaml.
func (c *Config) SetDefaultImporter(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, err := sheetio.Lookup(name); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project.Import.Default = name
	return c.saveProjectConfig()
}

func (c *Config) loadEnvFiles() error {
	for _, path := range []string{
		filepath.Join(c.ProjectDir, ".env"),
		filepath.Join(c.StateDir, ".env"),
	} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		// godotenv.Load never overrides variables already set.
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("config: load %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) loadProjectConfig() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	c.Project = parsed
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(EnvBarcodes)); v != "" {
		c.Project.Barcodes.File = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvImporter)); v != "" {
		c.Project.Import.Default = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportDir)); v != "" {
		c.Project.Export.Dir = v
	}
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:  1,
		Barcodes: BarcodeConfig{File: filepath.Join(StateDirName, defaultBarcodeFile)},
		Import:   ImportConfig{Default: sheetio.DefaultImporter},
		Export:   ExportConfig{Dir: filepath.Join(StateDirName, defaultExportDir)},
		Controls: ControlConfig{
			PositiveMarker: sheet.DefaultMarkers.Positive,
			NegativeMarker: sheet.DefaultMarkers.Negative,
		},
		Plate: PlateConfig{Colors: plate.DefaultPalette},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	defaults := defaultProjectConfig()
	if pc.Version == 0 {
		pc.Version = defaults.Version
	}
	if strings.TrimSpace(pc.Barcodes.File) == "" {
		pc.Barcodes.File = defaults.Barcodes.File
	}
	if strings.TrimSpace(pc.Import.Default) == "" {
		pc.Import.Default = defaults.Import.Default
	}
	if strings.TrimSpace(pc.Export.Dir) == "" {
		pc.Export.Dir = defaults.Export.Dir
	}
	if strings.TrimSpace(pc.Controls.PositiveMarker) == "" {
		pc.Controls.PositiveMarker = defaults.Controls.PositiveMarker
	}
	if strings.TrimSpace(pc.Controls.NegativeMarker) == "" {
		pc.Controls.NegativeMarker = defaults.Controls.NegativeMarker
	}
	pc.Plate.Colors = pc.Plate.Colors.WithDefaults()
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Barcodes.File = resolvePath(base, pc.Barcodes.File)
	pc.Export.Dir = resolvePath(base, pc.Export.Dir)
	pc.Import.Default = strings.ToLower(strings.TrimSpace(pc.Import.Default))
	pc.Controls.PositiveMarker = strings.TrimSpace(pc.Controls.PositiveMarker)
	pc.Controls.NegativeMarker = strings.TrimSpace(pc.Controls.NegativeMarker)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if _, err := sheetio.Lookup(pc.Import.Default); err != nil {
		return fmt.Errorf("import.default: %w", err)
	}
	if pc.Controls.PositiveMarker == pc.Controls.NegativeMarker {
		return fmt.Errorf("controls: positive and negative markers must differ")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.StateDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure state dir: %w", err)
	}
	out := c.Project
	out.Barcodes.File = relativeTo(c.ProjectDir, out.Barcodes.File)
	out.Export.Dir = relativeTo(c.ProjectDir, out.Export.Dir)
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}

func relativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
