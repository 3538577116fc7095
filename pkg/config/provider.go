// Package config defines the pipeline configuration model and its
// backends. Configuration can come from a YAML file or from environment
// variables (optionally via a .env file); both backends produce the same
// ConfigData and the rest of the system is agnostic to the source.
package config

import (
	"fmt"
)

// ConfigProvider defines the interface for configuration sources
type ConfigProvider interface {
	LoadConfig() (*ConfigData, error)
}

// ConfigData is the complete pipeline configuration.
type ConfigData struct {
	// InputDir holds the raw spectra CSV files.
	InputDir string
	// OutputDir receives the data/ and plots/ result trees.
	OutputDir string
	// EndmembersPath points at the endmember library YAML file.
	EndmembersPath string
	// Thresholds are the absorption windows, in feature-vector order.
	Thresholds []ThresholdData
	// Solver bounds the mixture minimizer.
	Solver SolverData
	// Workers caps the batch fan-out; 0 means one worker per CPU.
	Workers int
	// Catalog is the SQLite results catalog path; empty disables it.
	Catalog string
	// Listen is the results server bind address.
	Listen string
}

// ThresholdData is a named wavelength window.
type ThresholdData struct {
	Name string  `yaml:"name"`
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// SolverData bounds the mixture solver.
type SolverData struct {
	MaxIterations int     `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance"`
	Objective     string  `yaml:"objective"`
}

// DefaultThresholds returns the stock NIR absorption windows applied
// when a backend supplies none.
func DefaultThresholds() []ThresholdData {
	return []ThresholdData{
		{Name: "peak-1", Low: 5500, High: 8000},
		{Name: "peak-2", Low: 4600, High: 5540},
		{Name: "peak-3", Low: 4310, High: 4788},
	}
}

// Validate checks the loaded configuration for structural problems that
// every backend must reject the same way.
func (c *ConfigData) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("config: input directory not set")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("config: output directory not set")
	}
	if len(c.Thresholds) == 0 {
		return fmt.Errorf("config: no thresholds configured")
	}
	seen := make(map[string]bool, len(c.Thresholds))
	for _, t := range c.Thresholds {
		if t.Name == "" {
			return fmt.Errorf("config: threshold has no name")
		}
		if seen[t.Name] {
			return fmt.Errorf("config: duplicate threshold %q", t.Name)
		}
		seen[t.Name] = true
		if t.Low >= t.High {
			return fmt.Errorf("config: threshold %q: low %g must be below high %g", t.Name, t.Low, t.High)
		}
	}
	return nil
}
