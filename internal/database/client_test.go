package database

import (
	"path/filepath"
	"testing"

	"github.com/spectralsuite/nirspec/internal/features"
	"github.com/spectralsuite/nirspec/internal/log"
	"github.com/spectralsuite/nirspec/internal/unmix"
)

func openTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "results.db"), log.GetSugaredLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return c
}

func TestCatalogRoundTrip(t *testing.T) {
	c := openTestClient(t)

	if err := c.SaveRun(&Run{ID: "run-1", InputDir: "/in", SpectraCount: 2}); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	feats := []features.Feature{
		{Threshold: "peak-1", Position: 5810, Depth: 0.42, Width: 310},
		{Threshold: "peak-2", Position: 4720, Depth: 0.18, Width: 120, ClampedLeft: true},
	}
	if err := c.SaveFeatures("run-1", "soil-A", feats); err != nil {
		t.Fatalf("SaveFeatures() error = %v", err)
	}

	mix := &unmix.Mixture{
		IDs:      []string{"illite", "kaolinite"},
		Weights:  []float64{0.3, 0.7},
		Residual: 1e-9,
	}
	if err := c.SaveMixture("run-1", "soil-A", mix); err != nil {
		t.Fatalf("SaveMixture() error = %v", err)
	}

	runs, err := c.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" {
		t.Fatalf("runs = %+v", runs)
	}

	got, err := c.FeaturesForRun("run-1")
	if err != nil {
		t.Fatalf("FeaturesForRun() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d feature rows, want 2", len(got))
	}
	if got[0].Threshold != "peak-1" || got[1].Threshold != "peak-2" {
		t.Error("threshold order not preserved")
	}
	if !got[1].ClampedLeft {
		t.Error("ClampedLeft not persisted")
	}

	mixes, err := c.MixturesForRun("run-1")
	if err != nil {
		t.Fatalf("MixturesForRun() error = %v", err)
	}
	if len(mixes) != 2 {
		t.Fatalf("got %d mixture rows, want 2", len(mixes))
	}
	if mixes[0].Endmember != "illite" || mixes[0].Weight != 0.3 {
		t.Errorf("mixes[0] = %+v", mixes[0])
	}

	bySpectrum, err := c.FeaturesForSpectrum("soil-A")
	if err != nil {
		t.Fatalf("FeaturesForSpectrum() error = %v", err)
	}
	if len(bySpectrum) != 2 {
		t.Errorf("got %d rows for spectrum, want 2", len(bySpectrum))
	}
}
