// Package ingest reads raw spectra, endmember libraries, and exported
// feature tables from disk into the core types. Parsing is forgiving the
// way the field CSVs demand: header rows are skipped and rows that do
// not coerce to numbers are dropped. Structural validation is the
// spectrum model's job, not this package's.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v2"

	"github.com/spectralsuite/nirspec/internal/spectrum"
	"github.com/spectralsuite/nirspec/internal/unmix"
)

// percentThreshold decides whether reflectance arrived on the percent
// scale. Fractional reflectance tops out near 1; anything clearly above
// that is percent and gets divided by 100.
const percentThreshold = 1.5

// DiscoverCSV lists the spectra CSV files in dir, sorted by name.
// Office-suite lock files are skipped.
func DiscoverCSV(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".~lock.") {
			continue
		}
		if ext := strings.ToLower(filepath.Ext(name)); ext != ".csv" {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

// SpectrumName derives the sample name from a file path.
func SpectrumName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadSpectrumCSV parses a two-column (wavelength, reflectance) CSV into
// a Spectrum. The first row is treated as a header when it does not
// parse as numbers; other non-numeric rows are dropped. Reflectance on
// the percent scale is converted to fractional.
func ReadSpectrumCSV(path string) (*spectrum.Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are dropped below, not fatal
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var wvl, refl []float64
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		w, errW := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		v, errV := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if errW != nil || errV != nil {
			continue // header or junk row
		}
		wvl = append(wvl, w)
		refl = append(refl, v)
	}

	if len(refl) > 0 && floats.Max(refl) > percentThreshold {
		floats.Scale(0.01, refl)
	}

	s, err := spectrum.New(wvl, refl)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ReadEndmembers loads an endmember library from a YAML file of the form
//
//	endmembers:
//	  - id: illite
//	    vector: [5810, 0.42, 310]
func ReadEndmembers(path string) (*unmix.Library, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading endmembers: %w", err)
	}

	var doc struct {
		Endmembers []unmix.Endmember `yaml:"endmembers"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing endmembers %s: %w", path, err)
	}

	lib, err := unmix.NewLibrary(doc.Endmembers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lib, nil
}

// ReadFeatureTable loads an exported aggregate feature table back into
// per-sample vectors: first column is the sample name, every remaining
// column a feature parameter. The header row is required and its
// parameter columns are returned alongside the samples.
func ReadFeatureTable(path string) ([]unmix.Sample, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening feature table: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing feature table %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("feature table %s has no data rows", path)
	}

	header := records[0]
	if len(header) < 2 {
		return nil, nil, fmt.Errorf("feature table %s has no parameter columns", path)
	}
	params := header[1:]

	var samples []unmix.Sample
	for i, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, nil, fmt.Errorf("feature table %s: row %d has %d columns, expected %d",
				path, i+2, len(rec), len(header))
		}
		vec := make([]float64, len(params))
		for j, cell := range rec[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("feature table %s: row %d column %q: %w",
					path, i+2, header[j+1], err)
			}
			vec[j] = v
		}
		samples = append(samples, unmix.Sample{ID: rec[0], Vector: vec})
	}

	return samples, params, nil
}
