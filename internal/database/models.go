package database

import (
	"time"
)

// Run represents one pipeline invocation in the results catalog
type Run struct {
	ID           string    `gorm:"primaryKey;column:id"`
	CreatedAt    time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	InputDir     string    `gorm:"column:input_dir"`
	SpectraCount int       `gorm:"column:spectra_count"`
	FailedCount  int       `gorm:"column:failed_count"`
}

// TableName specifies the table name for Run
func (Run) TableName() string {
	return "runs"
}

// FeatureRecord is one absorption-band descriptor: one row per
// (run, spectrum, threshold)
type FeatureRecord struct {
	ID           uint    `gorm:"primaryKey;autoIncrement;column:id"`
	RunID        string  `gorm:"column:run_id;index"`
	Spectrum     string  `gorm:"column:spectrum;index"`
	Threshold    string  `gorm:"column:threshold"`
	Position     float64 `gorm:"column:position"`
	Depth        float64 `gorm:"column:depth"`
	Width        float64 `gorm:"column:width"`
	LeftCross    float64 `gorm:"column:left_cross"`
	RightCross   float64 `gorm:"column:right_cross"`
	ClampedLeft  bool    `gorm:"column:clamped_left"`
	ClampedRight bool    `gorm:"column:clamped_right"`
}

// TableName specifies the table name for FeatureRecord
func (FeatureRecord) TableName() string {
	return "features"
}

// MixtureRecord is one endmember's weight in one sample's unmixing
// solve, plus the shared residual of that solve
type MixtureRecord struct {
	ID        uint    `gorm:"primaryKey;autoIncrement;column:id"`
	RunID     string  `gorm:"column:run_id;index"`
	Sample    string  `gorm:"column:sample;index"`
	Endmember string  `gorm:"column:endmember"`
	Weight    float64 `gorm:"column:weight"`
	Residual  float64 `gorm:"column:residual"`
}

// TableName specifies the table name for MixtureRecord
func (MixtureRecord) TableName() string {
	return "mixtures"
}
