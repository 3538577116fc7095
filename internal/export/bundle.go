package export

import (
	"fmt"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/spectralsuite/nirspec/internal/features"
)

// RunBundle is a compact binary snapshot of one pipeline run: every
// spectrum's continuum-removed series and feature descriptors, plus the
// run metadata. It round-trips through MessagePack so other tooling can
// reload a run without re-parsing the text exports.
type RunBundle struct {
	RunID     string           `msgpack:"run_id"`
	CreatedAt time.Time        `msgpack:"created_at"`
	InputDir  string           `msgpack:"input_dir"`
	Spectra   []SpectrumBundle `msgpack:"spectra"`
}

// SpectrumBundle is one spectrum's slice of the run bundle.
type SpectrumBundle struct {
	Name        string             `msgpack:"name"`
	Wavelengths []float64          `msgpack:"wavelengths"`
	Values      []float64          `msgpack:"values"`
	Continuum   []float64          `msgpack:"continuum"`
	Features    []features.Feature `msgpack:"features"`
}

// WriteRunBundle serializes the bundle to path.
func WriteRunBundle(path string, bundle *RunBundle) error {
	raw, err := msgpack.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("encoding run bundle: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing run bundle: %w", err)
	}
	return nil
}

// ReadRunBundle loads a bundle written by WriteRunBundle.
func ReadRunBundle(path string) (*RunBundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run bundle: %w", err)
	}
	var bundle RunBundle
	if err := msgpack.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("decoding run bundle: %w", err)
	}
	return &bundle, nil
}
