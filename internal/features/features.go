// Package features extracts absorption-band descriptors from
// continuum-removed spectra inside named wavelength windows.
package features

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/spectralsuite/nirspec/internal/spectrum"
)

// ErrEmptyWindow indicates a threshold window containing no sample
// points. This is a configuration/data mismatch: skipping the window
// would silently shrink the feature vector and break the positional
// contract with the endmember library, so it is surfaced instead.
var ErrEmptyWindow = errors.New("no samples in threshold window")

// Threshold is a named wavelength window within which one absorption
// feature is expected. Thresholds are immutable configuration; their
// order across a run defines the positional layout of every feature
// vector and endmember row.
type Threshold struct {
	Name string  `yaml:"name"`
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// Validate checks the window bounds.
func (t Threshold) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("threshold has no name")
	}
	if t.Low >= t.High {
		return fmt.Errorf("threshold %q: low %g must be below high %g", t.Name, t.Low, t.High)
	}
	return nil
}

// DefaultThresholds returns the stock NIR absorption windows used when
// the configuration does not override them.
func DefaultThresholds() []Threshold {
	return []Threshold{
		{Name: "peak-1", Low: 5500, High: 8000},
		{Name: "peak-2", Low: 4600, High: 5540},
		{Name: "peak-3", Low: 4310, High: 4788},
	}
}

// Feature describes one absorption band found inside a threshold window
// of a continuum-removed spectrum.
type Feature struct {
	Threshold string
	// Position is the wavelength of minimum continuum-removed
	// reflectance inside the window.
	Position float64
	// Depth is 1 - reflectance at the minimum. Nominally in [0, 1];
	// noise can push it slightly outside and that is tolerated.
	Depth float64
	// Width is the span between the two half-depth crossings, the
	// wavelengths on either side of the minimum where the quotient
	// crosses 1 - Depth/2.
	Width float64
	// LeftCross and RightCross are the half-depth crossing wavelengths.
	LeftCross  float64
	RightCross float64
	// ClampedLeft/ClampedRight report that no crossing existed on that
	// side before the window edge, and the edge was used instead. The
	// width is then an approximation, visible to consumers rather than
	// hidden.
	ClampedLeft  bool
	ClampedRight bool
}

// Extract locates the absorption band in each threshold window, in
// configuration order. That order is the positional contract consumed
// by the mixture solver, so a window with no samples is a hard error
// for the whole spectrum, not a skipped entry.
func Extract(cr *spectrum.ContinuumRemoved, thresholds []Threshold) ([]Feature, error) {
	out := make([]Feature, 0, len(thresholds))
	for _, th := range thresholds {
		if err := th.Validate(); err != nil {
			return nil, err
		}
		f, err := extractOne(cr, th)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func extractOne(cr *spectrum.ContinuumRemoved, th Threshold) (Feature, error) {
	// Restrict to grid indices inside [Low, High].
	lo, hi := -1, -1
	for i := 0; i < cr.Len(); i++ {
		w := cr.Wavelength(i)
		if w < th.Low || w > th.High {
			continue
		}
		if lo < 0 {
			lo = i
		}
		hi = i
	}
	if lo < 0 {
		return Feature{}, fmt.Errorf("%w: threshold %q [%g, %g] vs spectrum [%g, %g]",
			ErrEmptyWindow, th.Name, th.Low, th.High, cr.Wavelength(0), cr.Wavelength(cr.Len()-1))
	}

	window := cr.Values()[lo : hi+1]
	minIdx := lo + floats.MinIdx(window)
	minVal := cr.Value(minIdx)

	depth := 1 - minVal
	if depth < 0 {
		depth = 0
	}

	// The window edge stands in for a missing crossing. The edge is the
	// configured bound clipped to the sampled span, so the width never
	// extends into unsampled territory.
	edgeLow := th.Low
	if w := cr.Wavelength(lo); w > edgeLow {
		edgeLow = w
	}
	edgeHigh := th.High
	if w := cr.Wavelength(hi); w < edgeHigh {
		edgeHigh = w
	}

	f := Feature{
		Threshold: th.Name,
		Position:  cr.Wavelength(minIdx),
		Depth:     depth,
	}

	if depth == 0 {
		// Flat window: no band. Report the window span with both sides
		// clamped so the degenerate case is visible downstream.
		f.LeftCross, f.RightCross = edgeLow, edgeHigh
		f.ClampedLeft, f.ClampedRight = true, true
		f.Width = edgeHigh - edgeLow
		return f, nil
	}

	half := 1 - depth/2

	f.LeftCross, f.ClampedLeft = crossLeft(cr, lo, minIdx, half, edgeLow)
	f.RightCross, f.ClampedRight = crossRight(cr, hi, minIdx, half, edgeHigh)
	f.Width = f.RightCross - f.LeftCross
	return f, nil
}

// crossLeft walks outward (toward lower wavelengths) from the band
// minimum and linearly interpolates the wavelength where the quotient
// rises through the half-depth level.
func crossLeft(cr *spectrum.ContinuumRemoved, lo, minIdx int, half, edge float64) (float64, bool) {
	for j := minIdx - 1; j >= lo; j-- {
		if cr.Value(j) >= half {
			return interpCross(
				cr.Wavelength(j), cr.Value(j),
				cr.Wavelength(j+1), cr.Value(j+1),
				half,
			), false
		}
	}
	return edge, true
}

func crossRight(cr *spectrum.ContinuumRemoved, hi, minIdx int, half, edge float64) (float64, bool) {
	for j := minIdx + 1; j <= hi; j++ {
		if cr.Value(j) >= half {
			return interpCross(
				cr.Wavelength(j-1), cr.Value(j-1),
				cr.Wavelength(j), cr.Value(j),
				half,
			), false
		}
	}
	return edge, true
}

// interpCross returns the wavelength where the segment (x0,y0)-(x1,y1)
// reaches level y. The caller guarantees y lies between y0 and y1.
func interpCross(x0, y0, x1, y1, y float64) float64 {
	if y1 == y0 {
		return x0
	}
	t := (y - y0) / (y1 - y0)
	return x0 + t*(x1-x0)
}

// Vector flattens a feature sequence into the fixed-length numeric
// vector consumed by the mixture solver: (position, depth, width) per
// threshold, in threshold order.
func Vector(feats []Feature) []float64 {
	v := make([]float64, 0, 3*len(feats))
	for _, f := range feats {
		v = append(v, f.Position, f.Depth, f.Width)
	}
	return v
}
