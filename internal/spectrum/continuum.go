package spectrum

// Continuum removal by convex-hull quotient: the continuum is the upper
// convex hull of the (wavelength, reflectance) point set, and the
// continuum-removed value at each grid point is reflectance divided by
// the hull height there. Hull vertices therefore map to exactly 1, and
// narrow absorption features become dips below 1 that are comparable
// across samples regardless of the broad baseline trend.

// ContinuumRemoved is a spectrum normalized against its upper convex
// hull. It shares the wavelength grid of the source spectrum and keeps
// the continuum curve itself for diagnostics and export.
type ContinuumRemoved struct {
	wavelengths []float64
	values      []float64
	continuum   []float64
	hullIdx     []int
}

// RemoveContinuum computes the upper convex hull of s and divides each
// reflectance value by the hull height at its wavelength. The first and
// last grid points are always hull vertices, so the quotient is 1 at
// both ends. A spectrum that is already convex from above (including a
// constant one) comes back as all ones; that is valid output.
func RemoveContinuum(s *Spectrum) *ContinuumRemoved {
	n := s.Len()
	hull := upperHull(s.wavelengths, s.reflectance)

	continuum := make([]float64, n)
	values := make([]float64, n)

	// Walk the grid and the hull together; seg is the hull segment whose
	// x-range covers the current grid point.
	seg := 0
	for i := 0; i < n; i++ {
		for seg+1 < len(hull)-1 && s.wavelengths[hull[seg+1]] <= s.wavelengths[i] {
			seg++
		}
		a, b := hull[seg], hull[seg+1]
		if i == a {
			continuum[i] = s.reflectance[a]
		} else if i == b {
			continuum[i] = s.reflectance[b]
		} else {
			x0, x1 := s.wavelengths[a], s.wavelengths[b]
			y0, y1 := s.reflectance[a], s.reflectance[b]
			t := (s.wavelengths[i] - x0) / (x1 - x0)
			continuum[i] = y0 + t*(y1-y0)
		}

		switch {
		case continuum[i] <= 0:
			// Degenerate: hull height is non-positive, which can only
			// happen when the reflectance there equals it. Treat as flat.
			values[i] = 1
		default:
			q := s.reflectance[i] / continuum[i]
			if q > 1 {
				q = 1
			}
			values[i] = q
		}
	}

	return &ContinuumRemoved{
		wavelengths: s.wavelengths,
		values:      values,
		continuum:   continuum,
		hullIdx:     hull,
	}
}

// upperHull returns the indices of the upper convex hull of the point
// set (x, y), in ascending x order. x must be sorted ascending with
// unique values, which Spectrum guarantees. Monotone-chain construction;
// the sort is already done, so this pass is O(n).
func upperHull(x, y []float64) []int {
	n := len(x)
	hull := make([]int, 0, n)
	for i := 0; i < n; i++ {
		// Pop while the last two retained points and the candidate make a
		// counter-clockwise (or collinear) turn: those cannot lie on the
		// chain visible from above.
		for len(hull) >= 2 {
			o, a := hull[len(hull)-2], hull[len(hull)-1]
			cross := (x[a]-x[o])*(y[i]-y[o]) - (y[a]-y[o])*(x[i]-x[o])
			if cross >= 0 {
				hull = hull[:len(hull)-1]
			} else {
				break
			}
		}
		hull = append(hull, i)
	}
	return hull
}

// Len returns the number of points.
func (c *ContinuumRemoved) Len() int { return len(c.wavelengths) }

// Wavelength returns the wavelength at index i.
func (c *ContinuumRemoved) Wavelength(i int) float64 { return c.wavelengths[i] }

// Value returns the continuum-removed reflectance at index i.
func (c *ContinuumRemoved) Value(i int) float64 { return c.values[i] }

// Continuum returns the hull height at index i.
func (c *ContinuumRemoved) Continuum(i int) float64 { return c.continuum[i] }

// Wavelengths returns a copy of the wavelength grid.
func (c *ContinuumRemoved) Wavelengths() []float64 {
	out := make([]float64, len(c.wavelengths))
	copy(out, c.wavelengths)
	return out
}

// Values returns a copy of the continuum-removed series.
func (c *ContinuumRemoved) Values() []float64 {
	out := make([]float64, len(c.values))
	copy(out, c.values)
	return out
}

// HullIndices returns the grid indices of the hull vertices, ascending.
func (c *ContinuumRemoved) HullIndices() []int {
	out := make([]int, len(c.hullIdx))
	copy(out, c.hullIdx)
	return out
}

// AsSpectrum re-wraps the continuum-removed series as a Spectrum so it
// can be fed back through the pipeline (the grid is already sorted and
// unique, so construction cannot fail on a well-formed receiver).
func (c *ContinuumRemoved) AsSpectrum() (*Spectrum, error) {
	return New(c.wavelengths, c.values)
}
