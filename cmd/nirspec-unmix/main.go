// Command nirspec-unmix estimates, for each sample in an exported
// feature table, the proportional mixture of library endmembers that
// best reconstructs its feature vector, and writes the predictions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/spectralsuite/nirspec/internal/database"
	"github.com/spectralsuite/nirspec/internal/export"
	"github.com/spectralsuite/nirspec/internal/ingest"
	"github.com/spectralsuite/nirspec/internal/log"
	"github.com/spectralsuite/nirspec/internal/unmix"
	"github.com/spectralsuite/nirspec/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "nirspec.yaml", "Path to configuration source (YAML file or .env, per -config-backend)")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' or 'env'")
	featuresPath := flag.String("features", "", "Feature table CSV (default <output>/plots/features.csv)")
	endmembersPath := flag.String("endmembers", "", "Endmember library YAML (default from config)")
	outPath := flag.String("out", "", "Prediction CSV destination (default <output>/plots/predictions.csv)")
	objective := flag.String("objective", "", "Residual measure: 'absolute' or 'relative' (overrides config)")
	workers := flag.Int("workers", runtime.NumCPU(), "Concurrent solver workers")
	noCatalog := flag.Bool("no-catalog", false, "Skip writing the SQLite results catalog")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(*cfgFile, *cfgBackend, *featuresPath, *endmembersPath, *outPath, *objective, *workers, *noCatalog); err != nil {
		log.Errorf("Unmixing error: %v", err)
		os.Exit(1)
	}
}

func run(cfgFile, cfgBackend, featuresPath, endmembersPath, outPath, objective string, workers int, noCatalog bool) error {
	cfgData, err := loadConfig(cfgFile, cfgBackend)
	if err != nil {
		return err
	}

	if featuresPath == "" {
		featuresPath = filepath.Join(export.PlotsDir(cfgData.OutputDir), "features.csv")
	}
	if endmembersPath == "" {
		endmembersPath = cfgData.EndmembersPath
	}
	if endmembersPath == "" {
		return fmt.Errorf("no endmember library: set -endmembers or the config's endmembers path")
	}
	if outPath == "" {
		outPath = filepath.Join(export.PlotsDir(cfgData.OutputDir), "predictions.csv")
	}

	lib, err := ingest.ReadEndmembers(endmembersPath)
	if err != nil {
		return err
	}
	samples, params, err := ingest.ReadFeatureTable(featuresPath)
	if err != nil {
		return err
	}
	log.Infof("unmixing %d samples against %d endmembers (%d parameters)",
		len(samples), lib.Size(), lib.Cols())

	solverParams := unmix.SolverParams{
		MaxIterations: cfgData.Solver.MaxIterations,
		Tolerance:     cfgData.Solver.Tolerance,
		Objective:     unmix.Objective(cfgData.Solver.Objective),
	}
	if objective != "" {
		solverParams.Objective = unmix.Objective(objective)
	}

	solver := unmix.NewSolver(lib, solverParams)
	results := solver.SolveBatch(context.Background(), samples, workers)

	solved := 0
	for _, res := range results {
		if res.Err != nil {
			log.Errorf("sample %s: %v", res.ID, res.Err)
			continue
		}
		solved++
	}
	if solved == 0 {
		return fmt.Errorf("all %d samples failed to solve", len(samples))
	}

	if err := export.WritePredictions(outPath, lib.IDs(), params, results); err != nil {
		return err
	}
	log.Infof("wrote %d predictions to %s", solved, outPath)

	if !noCatalog {
		if err := persist(cfgData, results); err != nil {
			log.Errorf("persisting predictions: %v", err)
		}
	}

	return nil
}

func persist(cfgData *config.ConfigData, results []unmix.BatchResult) error {
	path := cfgData.Catalog
	if path == "" {
		path = filepath.Join(cfgData.OutputDir, "results.db")
	}
	catalog, err := database.Open(path, log.GetSugaredLogger())
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	solved := 0
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		solved++
	}
	if err := catalog.SaveRun(&database.Run{
		ID:           runID,
		InputDir:     cfgData.InputDir,
		SpectraCount: solved,
		FailedCount:  len(results) - solved,
	}); err != nil {
		return err
	}
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		if err := catalog.SaveMixture(runID, res.ID, res.Mixture); err != nil {
			return err
		}
	}
	return nil
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

	return provider.LoadConfig()
}
