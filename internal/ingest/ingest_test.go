package ingest

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spectralsuite/nirspec/internal/spectrum"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestDiscoverCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", "")
	writeFile(t, dir, "a.CSV", "")
	writeFile(t, dir, "notes.txt", "")
	writeFile(t, dir, ".~lock.b.csv", "")

	paths, err := DiscoverCSV(dir)
	if err != nil {
		t.Fatalf("DiscoverCSV() error = %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2: %v", len(paths), paths)
	}
	if filepath.Base(paths[0]) != "a.CSV" || filepath.Base(paths[1]) != "b.csv" {
		t.Errorf("paths not sorted by name: %v", paths)
	}
}

func TestReadSpectrumCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sample.csv",
		"wavelength,reflectance\n4000,0.52\n4100,0.48\nbad,row\n4200,0.55\n")

	s, err := ReadSpectrumCSV(path)
	if err != nil {
		t.Fatalf("ReadSpectrumCSV() error = %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (header and junk rows dropped)", s.Len())
	}
	if s.Reflectance(1) != 0.48 {
		t.Errorf("Reflectance(1) = %g, want 0.48", s.Reflectance(1))
	}
}

func TestReadSpectrumCSVPercentScale(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "percent.csv",
		"Wvl,Reflect. %\n4000,52.0\n4100,48.0\n4200,55.0\n")

	s, err := ReadSpectrumCSV(path)
	if err != nil {
		t.Fatalf("ReadSpectrumCSV() error = %v", err)
	}
	if math.Abs(s.Reflectance(0)-0.52) > 1e-12 {
		t.Errorf("Reflectance(0) = %g, want 0.52 (percent input rescaled)", s.Reflectance(0))
	}
}

func TestReadSpectrumCSVTooFewRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "short.csv", "wavelength,reflectance\n4000,0.5\n")

	_, err := ReadSpectrumCSV(path)
	if !errors.Is(err, spectrum.ErrMalformedSpectrum) {
		t.Fatalf("ReadSpectrumCSV() error = %v, want ErrMalformedSpectrum", err)
	}
}

func TestSpectrumName(t *testing.T) {
	if got := SpectrumName("/data/in/soil-A12.csv"); got != "soil-A12" {
		t.Errorf("SpectrumName() = %q, want soil-A12", got)
	}
}

func TestReadEndmembers(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "endmembers.yaml", `
endmembers:
  - id: illite
    vector: [5810, 0.42, 310]
  - id: kaolinite
    vector: [6020, 0.11, 480]
`)

	lib, err := ReadEndmembers(path)
	if err != nil {
		t.Fatalf("ReadEndmembers() error = %v", err)
	}
	if lib.Size() != 2 || lib.Cols() != 3 {
		t.Errorf("library %dx%d, want 2x3", lib.Size(), lib.Cols())
	}
	if ids := lib.IDs(); ids[0] != "illite" || ids[1] != "kaolinite" {
		t.Errorf("IDs() = %v", ids)
	}
}

func TestReadFeatureTable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "features.csv",
		"filename,peak-1_position,peak-1_depth\nsoil-A,5810,0.42\nsoil-B,6020,0.11\n")

	samples, params, err := ReadFeatureTable(path)
	if err != nil {
		t.Fatalf("ReadFeatureTable() error = %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if len(params) != 2 || params[0] != "peak-1_position" {
		t.Errorf("params = %v", params)
	}
	if samples[1].ID != "soil-B" || samples[1].Vector[1] != 0.11 {
		t.Errorf("samples[1] = %+v", samples[1])
	}
}

func TestReadFeatureTableBadCell(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "features.csv",
		"filename,depth\nsoil-A,not-a-number\n")

	_, _, err := ReadFeatureTable(path)
	if err == nil {
		t.Fatal("ReadFeatureTable() error = nil, want parse error")
	}
}
