package spectrum

import (
	"errors"
	"math"
	"testing"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		wvl  []float64
		refl []float64
		ok   bool
	}{
		{
			name: "valid",
			wvl:  []float64{4000, 4100, 4200},
			refl: []float64{0.5, 0.4, 0.6},
			ok:   true,
		},
		{
			name: "unsorted input is sorted",
			wvl:  []float64{4200, 4000, 4100},
			refl: []float64{0.6, 0.5, 0.4},
			ok:   true,
		},
		{
			name: "length mismatch",
			wvl:  []float64{4000, 4100},
			refl: []float64{0.5},
			ok:   false,
		},
		{
			name: "too few points",
			wvl:  []float64{4000},
			refl: []float64{0.5},
			ok:   false,
		},
		{
			name: "NaN reflectance",
			wvl:  []float64{4000, 4100},
			refl: []float64{0.5, math.NaN()},
			ok:   false,
		},
		{
			name: "infinite wavelength",
			wvl:  []float64{4000, math.Inf(1)},
			refl: []float64{0.5, 0.4},
			ok:   false,
		},
		{
			name: "duplicate wavelengths",
			wvl:  []float64{4000, 4100, 4100},
			refl: []float64{0.5, 0.4, 0.6},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.wvl, tt.refl)
			if tt.ok {
				if err != nil {
					t.Fatalf("New() error = %v, want nil", err)
				}
				if s.Len() != len(tt.wvl) {
					t.Errorf("Len() = %d, want %d", s.Len(), len(tt.wvl))
				}
				for i := 1; i < s.Len(); i++ {
					if s.Wavelength(i) <= s.Wavelength(i-1) {
						t.Errorf("wavelengths not strictly ascending at %d", i)
					}
				}
			} else {
				if !errors.Is(err, ErrMalformedSpectrum) {
					t.Fatalf("New() error = %v, want ErrMalformedSpectrum", err)
				}
			}
		})
	}
}

func TestSortKeepsPairsTogether(t *testing.T) {
	s, err := New([]float64{4200, 4000, 4100}, []float64{0.3, 0.1, 0.2})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	want := []float64{0.1, 0.2, 0.3}
	for i, w := range want {
		if s.Reflectance(i) != w {
			t.Errorf("Reflectance(%d) = %g, want %g", i, s.Reflectance(i), w)
		}
	}
}

func TestInterpolate(t *testing.T) {
	s, err := New([]float64{4000, 4100, 4300}, []float64{0.2, 0.4, 0.8})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name string
		wl   float64
		want float64
		ok   bool
	}{
		{"exact grid point", 4100, 0.4, true},
		{"first point", 4000, 0.2, true},
		{"last point", 4300, 0.8, true},
		{"midway first segment", 4050, 0.3, true},
		{"midway second segment", 4200, 0.6, true},
		{"below range", 3999, 0, false},
		{"above range", 4301, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Interpolate(tt.wl)
			if tt.ok {
				if err != nil {
					t.Fatalf("Interpolate(%g) error = %v", tt.wl, err)
				}
				if math.Abs(got-tt.want) > 1e-12 {
					t.Errorf("Interpolate(%g) = %g, want %g", tt.wl, got, tt.want)
				}
			} else if !errors.Is(err, ErrOutOfRange) {
				t.Fatalf("Interpolate(%g) error = %v, want ErrOutOfRange", tt.wl, err)
			}
		})
	}
}

func TestAccessorsCopy(t *testing.T) {
	s, err := New([]float64{4000, 4100}, []float64{0.2, 0.4})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w := s.Wavelengths()
	w[0] = 0
	if s.Wavelength(0) != 4000 {
		t.Error("Wavelengths() must return a copy")
	}
	r := s.Reflectances()
	r[0] = 0
	if s.Reflectance(0) != 0.2 {
		t.Error("Reflectances() must return a copy")
	}
}
