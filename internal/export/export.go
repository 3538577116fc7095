// Package export writes pipeline results to disk: the per-threshold
// window cuts, the continuum-removed spectra, the feature tables, the
// unmixing predictions, and a binary run bundle. Output shapes follow
// the layout downstream tooling already consumes: tab-separated spectra
// under data/, feature CSVs and the aggregate table under plots/.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spectralsuite/nirspec/internal/features"
	"github.com/spectralsuite/nirspec/internal/spectrum"
	"github.com/spectralsuite/nirspec/internal/unmix"
)

// PrepareOutputDirs clears and recreates the data/ and plots/ trees
// under outputDir, so every run starts from an empty slate.
func PrepareOutputDirs(outputDir string) error {
	for _, sub := range []string{"data", "plots"} {
		dir := filepath.Join(outputDir, sub)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("clearing %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// DataDir returns the directory for spectra exports under outputDir.
func DataDir(outputDir string) string { return filepath.Join(outputDir, "data") }

// PlotsDir returns the directory for table exports under outputDir.
func PlotsDir(outputDir string) string { return filepath.Join(outputDir, "plots") }

// WriteWindowCuts writes one tab-separated file per threshold holding
// the raw spectrum restricted to that window, named
// <name>-<threshold>.txt. Windows with no samples are skipped here;
// the extractor is where an empty window is an error.
func WriteWindowCuts(dir, name string, s *spectrum.Spectrum, thresholds []features.Threshold) error {
	for _, th := range thresholds {
		column := fmt.Sprintf("%s-%s", name, th.Name)
		path := filepath.Join(dir, column+".txt")

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}

		fmt.Fprintf(f, "Wavelength\t%s\n", column)
		for i := 0; i < s.Len(); i++ {
			w := s.Wavelength(i)
			if w < th.Low || w > th.High {
				continue
			}
			fmt.Fprintf(f, "%g\t%g\n", w, s.Reflectance(i))
		}

		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", path, err)
		}
	}
	return nil
}

// WriteContinuumRemoved writes the continuum-removed spectrum as a
// headerless tab-separated (wavelength, quotient) file named
// <name>_continuum_corr_spectra.txt.
func WriteContinuumRemoved(dir, name string, cr *spectrum.ContinuumRemoved) error {
	path := filepath.Join(dir, name+"_continuum_corr_spectra.txt")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	for i := 0; i < cr.Len(); i++ {
		fmt.Fprintf(f, "%g\t%g\n", cr.Wavelength(i), cr.Value(i))
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

var featureHeader = []string{
	"threshold", "position", "depth", "width",
	"left_cross", "right_cross", "clamped_left", "clamped_right",
}

// WriteFeatureCSV writes one spectrum's feature descriptors as
// <name>.csv with one row per threshold.
func WriteFeatureCSV(dir, name string, feats []features.Feature) error {
	path := filepath.Join(dir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(featureHeader); err != nil {
		f.Close()
		return err
	}
	for _, ft := range feats {
		rec := []string{
			ft.Threshold,
			formatFloat(ft.Position),
			formatFloat(ft.Depth),
			formatFloat(ft.Width),
			formatFloat(ft.LeftCross),
			formatFloat(ft.RightCross),
			strconv.FormatBool(ft.ClampedLeft),
			strconv.FormatBool(ft.ClampedRight),
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FeatureRow is one spectrum's entry in the aggregate feature table.
type FeatureRow struct {
	Name     string
	Features []features.Feature
}

// WriteFeatureTable writes the aggregate table consumed by the unmixing
// stage: one row per spectrum, columns <threshold>_position,
// <threshold>_depth, <threshold>_width in threshold order. All rows must
// share the same threshold layout; that is the positional contract.
func WriteFeatureTable(path string, rows []FeatureRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("no feature rows to export")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	header := []string{"filename"}
	for _, ft := range rows[0].Features {
		header = append(header,
			ft.Threshold+"_position",
			ft.Threshold+"_depth",
			ft.Threshold+"_width",
		)
	}
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}

	for _, row := range rows {
		if len(row.Features) != len(rows[0].Features) {
			f.Close()
			return fmt.Errorf("feature table row %q has %d features, expected %d",
				row.Name, len(row.Features), len(rows[0].Features))
		}
		rec := []string{row.Name}
		for _, v := range features.Vector(row.Features) {
			rec = append(rec, formatFloat(v))
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WritePredictions writes the unmixing results: one row per sample with
// the endmember weights, the fit residual, and the predicted parameters.
func WritePredictions(path string, ids []string, params []string, results []unmix.BatchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	header := []string{"id"}
	for _, em := range ids {
		header = append(header, "weight_"+em)
	}
	header = append(header, "residual")
	for _, p := range params {
		header = append(header, "predicted_"+p)
	}
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}

	for _, res := range results {
		if res.Err != nil {
			continue // failed items are logged by the caller, not exported
		}
		rec := []string{res.ID}
		for _, wt := range res.Mixture.Weights {
			rec = append(rec, formatFloat(wt))
		}
		rec = append(rec, formatFloat(res.Mixture.Residual))
		for _, p := range res.Mixture.Predicted {
			rec = append(rec, formatFloat(p))
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
