// Package spectrum provides the canonical in-memory representation of a
// near-infrared reflectance spectrum and the convex-hull continuum-removal
// transform that normalizes it.
package spectrum

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrMalformedSpectrum indicates a structural invariant violation at
// construction: mismatched series lengths, fewer than two points,
// non-finite values, or duplicate wavelengths.
var ErrMalformedSpectrum = errors.New("malformed spectrum")

// ErrOutOfRange indicates an interpolation request outside the spectrum's
// wavelength span.
var ErrOutOfRange = errors.New("wavelength out of range")

// Spectrum is an ordered (wavelength, reflectance) series, sorted by
// ascending wavelength with unique wavelengths. It is immutable once
// constructed; accessors return copies.
type Spectrum struct {
	wavelengths []float64
	reflectance []float64
}

type pointSorter struct {
	wvl  []float64
	refl []float64
}

func (p pointSorter) Len() int           { return len(p.wvl) }
func (p pointSorter) Less(i, j int) bool { return p.wvl[i] < p.wvl[j] }
func (p pointSorter) Swap(i, j int) {
	p.wvl[i], p.wvl[j] = p.wvl[j], p.wvl[i]
	p.refl[i], p.refl[j] = p.refl[j], p.refl[i]
}

// New builds a Spectrum from paired wavelength/reflectance arrays. The
// input is copied and sorted by wavelength. Duplicate wavelengths are
// rejected rather than averaged, since the averaging intent is ambiguous.
func New(wavelengths, reflectance []float64) (*Spectrum, error) {
	if len(wavelengths) != len(reflectance) {
		return nil, fmt.Errorf("%w: %d wavelengths vs %d reflectance values",
			ErrMalformedSpectrum, len(wavelengths), len(reflectance))
	}
	if len(wavelengths) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, got %d",
			ErrMalformedSpectrum, len(wavelengths))
	}

	wvl := make([]float64, len(wavelengths))
	refl := make([]float64, len(reflectance))
	copy(wvl, wavelengths)
	copy(refl, reflectance)

	for i := range wvl {
		if math.IsNaN(wvl[i]) || math.IsInf(wvl[i], 0) {
			return nil, fmt.Errorf("%w: non-finite wavelength at index %d", ErrMalformedSpectrum, i)
		}
		if math.IsNaN(refl[i]) || math.IsInf(refl[i], 0) {
			return nil, fmt.Errorf("%w: non-finite reflectance at index %d", ErrMalformedSpectrum, i)
		}
	}

	sort.Sort(pointSorter{wvl: wvl, refl: refl})

	for i := 1; i < len(wvl); i++ {
		if wvl[i] == wvl[i-1] {
			return nil, fmt.Errorf("%w: duplicate wavelength %g", ErrMalformedSpectrum, wvl[i])
		}
	}

	return &Spectrum{wavelengths: wvl, reflectance: refl}, nil
}

// Len returns the number of points in the spectrum.
func (s *Spectrum) Len() int { return len(s.wavelengths) }

// Wavelength returns the wavelength at index i.
func (s *Spectrum) Wavelength(i int) float64 { return s.wavelengths[i] }

// Reflectance returns the reflectance at index i.
func (s *Spectrum) Reflectance(i int) float64 { return s.reflectance[i] }

// Wavelengths returns a copy of the wavelength grid.
func (s *Spectrum) Wavelengths() []float64 {
	out := make([]float64, len(s.wavelengths))
	copy(out, s.wavelengths)
	return out
}

// Reflectances returns a copy of the reflectance series.
func (s *Spectrum) Reflectances() []float64 {
	out := make([]float64, len(s.reflectance))
	copy(out, s.reflectance)
	return out
}

// MinWavelength returns the lowest wavelength in the spectrum.
func (s *Spectrum) MinWavelength() float64 { return s.wavelengths[0] }

// MaxWavelength returns the highest wavelength in the spectrum.
func (s *Spectrum) MaxWavelength() float64 { return s.wavelengths[len(s.wavelengths)-1] }

// Interpolate returns the linearly interpolated reflectance at an
// arbitrary wavelength inside the spectrum's span.
func (s *Spectrum) Interpolate(wl float64) (float64, error) {
	if wl < s.MinWavelength() || wl > s.MaxWavelength() {
		return 0, fmt.Errorf("%w: %g outside [%g, %g]",
			ErrOutOfRange, wl, s.MinWavelength(), s.MaxWavelength())
	}

	// Index of the first grid point at or above wl.
	i := sort.SearchFloat64s(s.wavelengths, wl)
	if i < len(s.wavelengths) && s.wavelengths[i] == wl {
		return s.reflectance[i], nil
	}

	x0, x1 := s.wavelengths[i-1], s.wavelengths[i]
	y0, y1 := s.reflectance[i-1], s.reflectance[i]
	t := (wl - x0) / (x1 - x0)
	return y0 + t*(y1-y0), nil
}
