// Command nirspec runs the spectral processing pipeline: it discovers
// raw spectra CSVs, removes the continuum from each, extracts the
// absorption-band features, and writes the exports and results catalog.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spectralsuite/nirspec/internal/app"
	"github.com/spectralsuite/nirspec/internal/database"
	"github.com/spectralsuite/nirspec/internal/log"
	"github.com/spectralsuite/nirspec/pkg/config"
)

const version = "1.2-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "nirspec.yaml", "Path to configuration source:\n\t\t\t  YAML: nirspec.yaml\n\t\t\t  env: path to a .env file (or empty for process environment)")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'env' for environment variables/.env")
	workers := flag.Int("workers", 0, "Concurrent spectra workers (0 = one per CPU, overrides config)")
	noCatalog := flag.Bool("no-catalog", false, "Skip writing the SQLite results catalog")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("nirspec %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfgData, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfgData.Workers = *workers
	}

	var catalog *database.Client
	if !*noCatalog {
		path := cfgData.Catalog
		if path == "" {
			path = filepath.Join(cfgData.OutputDir, "results.db")
		}
		catalog, err = database.Open(path, log.GetSugaredLogger())
		if err != nil {
			log.Errorf("Failed to open results catalog: %v", err)
			os.Exit(1)
		}
	}

	pipeline := app.New(cfgData, catalog, log.GetSugaredLogger())
	if err := pipeline.Run(context.Background()); err != nil {
		log.Errorf("Pipeline error: %v", err)
		os.Exit(1)
	}
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	var provider config.ConfigProvider

	switch cfgBackend {
	case "yaml":
		filename, _ := filepath.Abs(cfgFile)
		provider = config.NewYAMLProvider(filename)
	case "env":
		provider = config.NewEnvProvider(cfgFile)
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'env'", cfgBackend)
	}

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	return cfgData, nil
}
