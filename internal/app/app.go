// Package app wires the pipeline stages together: spectra discovery,
// continuum removal, feature extraction, exports, and the results
// catalog. Each spectrum is an independent unit of work; failures are
// logged per item and never abort the batch.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spectralsuite/nirspec/internal/database"
	"github.com/spectralsuite/nirspec/internal/export"
	"github.com/spectralsuite/nirspec/internal/features"
	"github.com/spectralsuite/nirspec/internal/ingest"
	"github.com/spectralsuite/nirspec/internal/spectrum"
	"github.com/spectralsuite/nirspec/pkg/config"
)

// App represents the spectra processing pipeline
type App struct {
	cfg        *config.ConfigData
	thresholds []features.Threshold
	logger     *zap.SugaredLogger
	catalog    *database.Client // nil when the catalog is disabled
}

// New creates a new pipeline instance
func New(cfg *config.ConfigData, catalog *database.Client, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:        cfg,
		thresholds: Thresholds(cfg),
		logger:     logger,
		catalog:    catalog,
	}
}

// Thresholds converts the configured windows into extractor thresholds,
// preserving order.
func Thresholds(cfg *config.ConfigData) []features.Threshold {
	out := make([]features.Threshold, len(cfg.Thresholds))
	for i, t := range cfg.Thresholds {
		out[i] = features.Threshold{Name: t.Name, Low: t.Low, High: t.High}
	}
	return out
}

// result is one spectrum's completed pipeline pass.
type result struct {
	name  string
	cr    *spectrum.ContinuumRemoved
	feats []features.Feature
}

// Run processes every input CSV and writes all exports. It returns an
// error only for whole-batch failures (unreadable input directory, no
// processable spectra); per-spectrum failures are logged and skipped.
func (a *App) Run(ctx context.Context) error {
	runID := uuid.NewString()
	started := time.Now()

	paths, err := ingest.DiscoverCSV(a.cfg.InputDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no CSV files found in %s", a.cfg.InputDir)
	}
	a.logger.Infof("run %s: found %d spectra in %s", runID, len(paths), a.cfg.InputDir)

	if err := export.PrepareOutputDirs(a.cfg.OutputDir); err != nil {
		return err
	}
	dataDir := export.DataDir(a.cfg.OutputDir)
	plotsDir := export.PlotsDir(a.cfg.OutputDir)

	workers := a.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var mu sync.Mutex
	results := make([]result, 0, len(paths))
	failed := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := a.processOne(path, dataDir)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				a.logger.Errorf("processing %s: %v", path, err)
				failed++
				return nil
			}
			results = append(results, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if len(results) == 0 {
		return fmt.Errorf("all %d spectra failed to process", len(paths))
	}

	// Discovery order is deterministic but worker completion is not;
	// restore name order for the table exports.
	sortResults(results)

	rows := make([]export.FeatureRow, len(results))
	bundle := &export.RunBundle{
		RunID:     runID,
		CreatedAt: started.UTC(),
		InputDir:  a.cfg.InputDir,
	}
	for i, r := range results {
		rows[i] = export.FeatureRow{Name: r.name, Features: r.feats}
		bundle.Spectra = append(bundle.Spectra, export.SpectrumBundle{
			Name:        r.name,
			Wavelengths: r.cr.Wavelengths(),
			Values:      r.cr.Values(),
			Continuum:   continuumOf(r.cr),
			Features:    r.feats,
		})
	}

	if err := export.WriteFeatureTable(filepath.Join(plotsDir, "features.csv"), rows); err != nil {
		return err
	}
	if err := export.WriteRunBundle(filepath.Join(plotsDir, "run.msgpack"), bundle); err != nil {
		return err
	}

	if a.catalog != nil {
		if err := a.persist(runID, results, len(paths), failed); err != nil {
			// The file exports already landed; a catalog failure should
			// not discard them.
			a.logger.Errorf("persisting run %s: %v", runID, err)
		}
	}

	a.logger.Infof("run %s: processed %d spectra (%d failed) in %s",
		runID, len(results), failed, time.Since(started).Round(time.Millisecond))
	return nil
}

// processOne runs the full per-spectrum pipeline: parse, export the raw
// window cuts, remove the continuum, extract features, export both.
func (a *App) processOne(path, dataDir string) (result, error) {
	name := ingest.SpectrumName(path)

	s, err := ingest.ReadSpectrumCSV(path)
	if err != nil {
		return result{}, err
	}

	if err := export.WriteWindowCuts(dataDir, name, s, a.thresholds); err != nil {
		return result{}, err
	}

	cr := spectrum.RemoveContinuum(s)
	if err := export.WriteContinuumRemoved(dataDir, name, cr); err != nil {
		return result{}, err
	}

	feats, err := features.Extract(cr, a.thresholds)
	if err != nil {
		return result{}, err
	}
	for _, f := range feats {
		if f.ClampedLeft || f.ClampedRight {
			a.logger.Warnf("%s: %s width clamped to window edge (left=%v right=%v)",
				name, f.Threshold, f.ClampedLeft, f.ClampedRight)
		}
	}

	if err := export.WriteFeatureCSV(dataDir, name, feats); err != nil {
		return result{}, err
	}

	return result{name: name, cr: cr, feats: feats}, nil
}

func (a *App) persist(runID string, results []result, total, failed int) error {
	if err := a.catalog.SaveRun(&database.Run{
		ID:           runID,
		CreatedAt:    time.Now().UTC(),
		InputDir:     a.cfg.InputDir,
		SpectraCount: total,
		FailedCount:  failed,
	}); err != nil {
		return err
	}
	for _, r := range results {
		if err := a.catalog.SaveFeatures(runID, r.name, r.feats); err != nil {
			return err
		}
	}
	return nil
}

func continuumOf(cr *spectrum.ContinuumRemoved) []float64 {
	out := make([]float64, cr.Len())
	for i := range out {
		out[i] = cr.Continuum(i)
	}
	return out
}

func sortResults(results []result) {
	sort.Slice(results, func(i, j int) bool { return results[i].name < results[j].name })
}
