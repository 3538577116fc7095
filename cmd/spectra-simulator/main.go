// Command spectra-simulator generates synthetic NIR reflectance spectra
// for pipeline demos and fixtures: a convex baseline with gaussian
// absorption bands dropped into the stock threshold windows.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
)

// band is one synthetic absorption feature.
type band struct {
	center float64
	width  float64
	depth  float64
}

// SpectrumEmulator generates synthetic reflectance spectra.
type SpectrumEmulator struct {
	rng      *rand.Rand
	lowWvl   float64
	highWvl  float64
	baseRefl float64
}

func NewSpectrumEmulator(seed int64) *SpectrumEmulator {
	return &SpectrumEmulator{
		rng:      rand.New(rand.NewSource(seed)),
		lowWvl:   4000,
		highWvl:  8500,
		baseRefl: 0.85,
	}
}

// Generate produces one spectrum of n points with randomized band
// depths, plus multiplicative noise.
func (e *SpectrumEmulator) Generate(n int, noise float64) ([]float64, []float64) {
	bands := []band{
		{center: 6900 + e.rng.Float64()*400, width: 350, depth: 0.15 + e.rng.Float64()*0.35},
		{center: 5100 + e.rng.Float64()*200, width: 180, depth: 0.10 + e.rng.Float64()*0.30},
		{center: 4500 + e.rng.Float64()*120, width: 90, depth: 0.05 + e.rng.Float64()*0.25},
	}

	wvl := make([]float64, n)
	refl := make([]float64, n)
	span := e.highWvl - e.lowWvl
	for i := 0; i < n; i++ {
		w := e.lowWvl + span*float64(i)/float64(n-1)

		// Gentle concave baseline so the continuum is not a flat line.
		x := (w - e.lowWvl) / span
		r := e.baseRefl * (1 - 0.15*(x-0.5)*(x-0.5)*4)

		for _, b := range bands {
			d := (w - b.center) / b.width
			r *= 1 - b.depth*math.Exp(-d*d)
		}

		r *= 1 + noise*(e.rng.Float64()-0.5)

		wvl[i] = w
		refl[i] = r
	}
	return wvl, refl
}

func main() {
	outDir := flag.String("out", "input", "Output directory for generated CSVs")
	count := flag.Int("count", 5, "Number of spectra to generate")
	points := flag.Int("points", 800, "Samples per spectrum")
	noise := flag.Float64("noise", 0.01, "Multiplicative noise amplitude")
	seed := flag.Int64("seed", 1, "Random seed")
	percent := flag.Bool("percent", false, "Write reflectance on the percent scale")
	flag.Parse()

	if *points < 2 {
		fmt.Fprintln(os.Stderr, "Error: -points must be at least 2")
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	for i := 0; i < *count; i++ {
		emulator := NewSpectrumEmulator(*seed + int64(i))
		wvl, refl := emulator.Generate(*points, *noise)

		path := filepath.Join(*outDir, fmt.Sprintf("synthetic-%02d.csv", i+1))
		f, err := os.Create(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", path, err)
			os.Exit(1)
		}

		fmt.Fprintln(f, "wavelength,reflectance")
		for j := range wvl {
			r := refl[j]
			if *percent {
				r *= 100
			}
			fmt.Fprintf(f, "%.2f,%.6f\n", wvl[j], r)
		}
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing %s: %v\n", path, err)
			os.Exit(1)
		}

		fmt.Printf("wrote %s (%d points)\n", path, *points)
	}
}
