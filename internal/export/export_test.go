package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spectralsuite/nirspec/internal/features"
	"github.com/spectralsuite/nirspec/internal/spectrum"
)

func testSpectrum(t *testing.T) *spectrum.Spectrum {
	t.Helper()
	s, err := spectrum.New(
		[]float64{4000, 4100, 4200, 4300},
		[]float64{0.8, 0.5, 0.6, 0.82},
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func testFeatures() []features.Feature {
	return []features.Feature{
		{Threshold: "peak-1", Position: 5810, Depth: 0.42, Width: 310, LeftCross: 5650, RightCross: 5960},
		{Threshold: "peak-2", Position: 4720, Depth: 0.18, Width: 120, LeftCross: 4660, RightCross: 4780, ClampedLeft: true},
	}
}

func TestPrepareOutputDirs(t *testing.T) {
	out := t.TempDir()
	stale := filepath.Join(out, "data", "stale.txt")
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := PrepareOutputDirs(out); err != nil {
		t.Fatalf("PrepareOutputDirs() error = %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale file survived PrepareOutputDirs")
	}
	for _, sub := range []string{"data", "plots"} {
		if fi, err := os.Stat(filepath.Join(out, sub)); err != nil || !fi.IsDir() {
			t.Errorf("%s/ missing after PrepareOutputDirs", sub)
		}
	}
}

func TestWriteWindowCuts(t *testing.T) {
	dir := t.TempDir()
	ths := []features.Threshold{{Name: "band", Low: 4050, High: 4250}}

	if err := WriteWindowCuts(dir, "soil-A", testSpectrum(t), ths); err != nil {
		t.Fatalf("WriteWindowCuts() error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "soil-A-band.txt"))
	if err != nil {
		t.Fatalf("reading cut: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 { // header + the two in-window samples
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), raw)
	}
	if lines[0] != "Wavelength\tsoil-A-band" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "4100\t") {
		t.Errorf("first data line = %q", lines[1])
	}
}

func TestWriteContinuumRemoved(t *testing.T) {
	dir := t.TempDir()
	cr := spectrum.RemoveContinuum(testSpectrum(t))

	if err := WriteContinuumRemoved(dir, "soil-A", cr); err != nil {
		t.Fatalf("WriteContinuumRemoved() error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "soil-A_continuum_corr_spectra.txt"))
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != cr.Len() {
		t.Fatalf("got %d lines, want %d (headerless)", len(lines), cr.Len())
	}
	if !strings.HasPrefix(lines[0], "4000\t1") {
		t.Errorf("first line = %q, want hull vertex at quotient 1", lines[0])
	}
}

func TestWriteFeatureTableRoundTripShape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "features.csv")

	rows := []FeatureRow{
		{Name: "soil-A", Features: testFeatures()},
		{Name: "soil-B", Features: testFeatures()},
	}
	if err := WriteFeatureTable(path, rows); err != nil {
		t.Fatalf("WriteFeatureTable() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	wantHeader := "filename,peak-1_position,peak-1_depth,peak-1_width,peak-2_position,peak-2_depth,peak-2_width"
	if lines[0] != wantHeader {
		t.Errorf("header = %q\nwant %q", lines[0], wantHeader)
	}
}

func TestWriteFeatureTableRaggedRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "features.csv")

	rows := []FeatureRow{
		{Name: "soil-A", Features: testFeatures()},
		{Name: "soil-B", Features: testFeatures()[:1]},
	}
	if err := WriteFeatureTable(path, rows); err == nil {
		t.Fatal("WriteFeatureTable() error = nil, want ragged-row error")
	}
}

func TestRunBundleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.msgpack")

	cr := spectrum.RemoveContinuum(testSpectrum(t))
	in := &RunBundle{
		RunID:     "run-1",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		InputDir:  "/data/in",
		Spectra: []SpectrumBundle{
			{
				Name:        "soil-A",
				Wavelengths: cr.Wavelengths(),
				Values:      cr.Values(),
				Features:    testFeatures(),
			},
		},
	}

	if err := WriteRunBundle(path, in); err != nil {
		t.Fatalf("WriteRunBundle() error = %v", err)
	}
	out, err := ReadRunBundle(path)
	if err != nil {
		t.Fatalf("ReadRunBundle() error = %v", err)
	}

	if out.RunID != in.RunID || len(out.Spectra) != 1 {
		t.Fatalf("bundle = %+v", out)
	}
	if out.Spectra[0].Name != "soil-A" {
		t.Errorf("spectrum name = %q", out.Spectra[0].Name)
	}
	if len(out.Spectra[0].Values) != cr.Len() {
		t.Errorf("values length = %d, want %d", len(out.Spectra[0].Values), cr.Len())
	}
	if out.Spectra[0].Features[1].Threshold != "peak-2" {
		t.Errorf("features = %+v", out.Spectra[0].Features)
	}
}
