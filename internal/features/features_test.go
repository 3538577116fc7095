package features

import (
	"errors"
	"math"
	"testing"

	"github.com/spectralsuite/nirspec/internal/spectrum"
)

// triangularDip builds a continuum-removed spectrum whose quotient is a
// flat 1 with one triangular dip of the given depth centered at apex.
// The underlying spectrum sits on a flat 0.8 baseline, so the hull is
// the baseline and the quotient reproduces the requested shape exactly.
func triangularDip(t *testing.T, apex, halfSpan, depth float64) *spectrum.ContinuumRemoved {
	t.Helper()
	var wvl, refl []float64
	for w := 4000.0; w <= 4400.0; w += 25 {
		q := 1.0
		if d := math.Abs(w - apex); d < halfSpan {
			q = 1 - depth*(1-d/halfSpan)
		}
		wvl = append(wvl, w)
		refl = append(refl, 0.8*q)
	}
	s, err := spectrum.New(wvl, refl)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return spectrum.RemoveContinuum(s)
}

func TestExtractTriangularDip(t *testing.T) {
	cr := triangularDip(t, 4200, 100, 0.4)

	feats, err := Extract(cr, []Threshold{{Name: "band", Low: 4000, High: 4400}})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(feats) != 1 {
		t.Fatalf("got %d features, want 1", len(feats))
	}

	f := feats[0]
	const eps = 1e-9
	if math.Abs(f.Position-4200) > eps {
		t.Errorf("Position = %g, want 4200", f.Position)
	}
	if math.Abs(f.Depth-0.4) > eps {
		t.Errorf("Depth = %g, want 0.4", f.Depth)
	}
	// Half-depth level 0.8 crosses the triangle at half the half-span on
	// each side: width = halfSpan.
	if math.Abs(f.Width-100) > eps {
		t.Errorf("Width = %g, want 100", f.Width)
	}
	if f.ClampedLeft || f.ClampedRight {
		t.Errorf("crossings clamped (%v, %v), want neither", f.ClampedLeft, f.ClampedRight)
	}
}

func TestExtractEmptyWindow(t *testing.T) {
	cr := triangularDip(t, 4200, 100, 0.4)

	_, err := Extract(cr, []Threshold{{Name: "outside", Low: 9000, High: 9500}})
	if !errors.Is(err, ErrEmptyWindow) {
		t.Fatalf("Extract() error = %v, want ErrEmptyWindow", err)
	}
}

func TestExtractClampsToWindowEdge(t *testing.T) {
	cr := triangularDip(t, 4200, 100, 0.4)

	// Window starts inside the dip's left flank: the left half-depth
	// crossing lies outside the window, so the edge stands in and the
	// approximation is flagged.
	feats, err := Extract(cr, []Threshold{{Name: "cut", Low: 4160, High: 4400}})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	f := feats[0]
	if !f.ClampedLeft {
		t.Error("ClampedLeft = false, want true")
	}
	if f.ClampedRight {
		t.Error("ClampedRight = true, want false")
	}
	if math.Abs(f.LeftCross-4175) > 1e-9 {
		t.Errorf("LeftCross = %g, want 4175 (first sample in window)", f.LeftCross)
	}
	if math.Abs(f.RightCross-4250) > 1e-9 {
		t.Errorf("RightCross = %g, want 4250", f.RightCross)
	}
}

func TestExtractFlatWindow(t *testing.T) {
	cr := triangularDip(t, 4200, 100, 0.4)

	// The region above 4300 is flat at quotient 1: zero depth, width
	// spans the window, both sides clamped.
	feats, err := Extract(cr, []Threshold{{Name: "flat", Low: 4300, High: 4400}})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	f := feats[0]
	if f.Depth != 0 {
		t.Errorf("Depth = %g, want 0", f.Depth)
	}
	if !f.ClampedLeft || !f.ClampedRight {
		t.Errorf("clamp flags = (%v, %v), want both true", f.ClampedLeft, f.ClampedRight)
	}
	if math.Abs(f.Width-100) > 1e-9 {
		t.Errorf("Width = %g, want 100", f.Width)
	}
}

func TestExtractPreservesThresholdOrder(t *testing.T) {
	cr := triangularDip(t, 4200, 100, 0.4)

	ths := []Threshold{
		{Name: "right", Low: 4250, High: 4400},
		{Name: "band", Low: 4100, High: 4300},
		{Name: "left", Low: 4000, High: 4150},
	}
	feats, err := Extract(cr, ths)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	for i, th := range ths {
		if feats[i].Threshold != th.Name {
			t.Errorf("feats[%d].Threshold = %q, want %q", i, feats[i].Threshold, th.Name)
		}
	}

	v := Vector(feats)
	if len(v) != 3*len(ths) {
		t.Errorf("Vector length = %d, want %d", len(v), 3*len(ths))
	}
}

func TestThresholdValidate(t *testing.T) {
	tests := []struct {
		name string
		th   Threshold
		ok   bool
	}{
		{"valid", Threshold{Name: "a", Low: 1, High: 2}, true},
		{"unnamed", Threshold{Low: 1, High: 2}, false},
		{"inverted", Threshold{Name: "a", Low: 2, High: 1}, false},
		{"degenerate", Threshold{Name: "a", Low: 2, High: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.th.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
			if !tt.ok && err == nil {
				t.Error("Validate() error = nil, want error")
			}
		})
	}
}
