package database

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/spectralsuite/nirspec/internal/features"
	"github.com/spectralsuite/nirspec/internal/log"
	"github.com/spectralsuite/nirspec/internal/unmix"
)

// Client holds the connection to the SQLite results catalog
type Client struct {
	DB     *gorm.DB // Exported so it can be accessed from other packages
	logger *zap.SugaredLogger
}

// Open connects to (or creates) the catalog at path and migrates the
// schema.
func Open(path string, sugared *zap.SugaredLogger) (*Client, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("opening results catalog %s: %w", path, err)
	}

	if err := db.AutoMigrate(&Run{}, &FeatureRecord{}, &MixtureRecord{}); err != nil {
		return nil, fmt.Errorf("migrating results catalog: %w", err)
	}

	return &Client{DB: db, logger: sugared}, nil
}

// SaveRun inserts the run header row.
func (c *Client) SaveRun(run *Run) error {
	if err := c.DB.Create(run).Error; err != nil {
		return fmt.Errorf("saving run %s: %w", run.ID, err)
	}
	return nil
}

// SaveFeatures persists one spectrum's feature descriptors under a run.
func (c *Client) SaveFeatures(runID, name string, feats []features.Feature) error {
	records := make([]FeatureRecord, len(feats))
	for i, f := range feats {
		records[i] = FeatureRecord{
			RunID:        runID,
			Spectrum:     name,
			Threshold:    f.Threshold,
			Position:     f.Position,
			Depth:        f.Depth,
			Width:        f.Width,
			LeftCross:    f.LeftCross,
			RightCross:   f.RightCross,
			ClampedLeft:  f.ClampedLeft,
			ClampedRight: f.ClampedRight,
		}
	}
	if err := c.DB.Create(&records).Error; err != nil {
		return fmt.Errorf("saving features for %s: %w", name, err)
	}
	return nil
}

// SaveMixture persists one sample's unmixing result under a run.
func (c *Client) SaveMixture(runID, sample string, m *unmix.Mixture) error {
	records := make([]MixtureRecord, len(m.Weights))
	for i, w := range m.Weights {
		records[i] = MixtureRecord{
			RunID:     runID,
			Sample:    sample,
			Endmember: m.IDs[i],
			Weight:    w,
			Residual:  m.Residual,
		}
	}
	if err := c.DB.Create(&records).Error; err != nil {
		return fmt.Errorf("saving mixture for %s: %w", sample, err)
	}
	return nil
}

// ListRuns returns all runs, newest first.
func (c *Client) ListRuns() ([]Run, error) {
	var runs []Run
	if err := c.DB.Order("created_at DESC").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// FeaturesForRun returns every feature row of one run, ordered by
// spectrum then insertion order (which preserves threshold order).
func (c *Client) FeaturesForRun(runID string) ([]FeatureRecord, error) {
	var records []FeatureRecord
	if err := c.DB.Where("run_id = ?", runID).Order("spectrum, id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("fetching features for run %s: %w", runID, err)
	}
	return records, nil
}

// MixturesForRun returns every mixture row of one run.
func (c *Client) MixturesForRun(runID string) ([]MixtureRecord, error) {
	var records []MixtureRecord
	if err := c.DB.Where("run_id = ?", runID).Order("sample, id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("fetching mixtures for run %s: %w", runID, err)
	}
	return records, nil
}

// FeaturesForSpectrum returns a spectrum's feature rows across all runs,
// newest run first.
func (c *Client) FeaturesForSpectrum(name string) ([]FeatureRecord, error) {
	var records []FeatureRecord
	if err := c.DB.Where("spectrum = ?", name).Order("run_id, id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("fetching features for spectrum %s: %w", name, err)
	}
	return records, nil
}
