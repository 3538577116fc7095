// Package unmix estimates the proportional mixture of reference
// endmembers that best explains a sample's extracted feature vector.
package unmix

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrDimensionMismatch indicates a library whose rows do not all share
// the same feature-vector length, or an empty library.
var ErrDimensionMismatch = errors.New("endmember dimension mismatch")

// ErrParameterCountMismatch indicates a sample feature vector whose
// length differs from the library's column count. This is a
// configuration error on the caller's side, not a numerical one.
var ErrParameterCountMismatch = errors.New("parameter count mismatch")

// ParameterCountError carries the two disagreeing lengths so callers can
// tell too-few from too-many parameters. It unwraps to
// ErrParameterCountMismatch.
type ParameterCountError struct {
	LibraryCols int
	SampleLen   int
}

func (e *ParameterCountError) Error() string {
	rel := "too many"
	if e.SampleLen < e.LibraryCols {
		rel = "too few"
	}
	return fmt.Sprintf("parameter count mismatch: sample has %d parameters, library expects %d (%s)",
		e.SampleLen, e.LibraryCols, rel)
}

func (e *ParameterCountError) Unwrap() error { return ErrParameterCountMismatch }

// TooFew reports whether the sample is short of parameters.
func (e *ParameterCountError) TooFew() bool { return e.SampleLen < e.LibraryCols }

// Endmember is one reference material: an identifier and its feature
// vector. Vector order must match the threshold configuration order of
// the samples it will be solved against; the library checks dimension
// only, positional semantics are the caller's contract.
type Endmember struct {
	ID     string    `yaml:"id"`
	Vector []float64 `yaml:"vector"`
}

// Library holds the reference endmembers, read-only after construction.
// It may be shared across concurrent solver invocations.
type Library struct {
	members []Endmember
	cols    int
}

// NewLibrary validates that every endmember row has the same length and
// copies the rows into an immutable library.
func NewLibrary(members []Endmember) (*Library, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: library is empty", ErrDimensionMismatch)
	}
	cols := len(members[0].Vector)
	if cols == 0 {
		return nil, fmt.Errorf("%w: endmember %q has an empty feature vector",
			ErrDimensionMismatch, members[0].ID)
	}

	copied := make([]Endmember, len(members))
	for i, m := range members {
		if len(m.Vector) != cols {
			return nil, fmt.Errorf("%w: endmember %q has %d parameters, expected %d",
				ErrDimensionMismatch, m.ID, len(m.Vector), cols)
		}
		v := make([]float64, cols)
		copy(v, m.Vector)
		copied[i] = Endmember{ID: m.ID, Vector: v}
	}

	return &Library{members: copied, cols: cols}, nil
}

// Size returns the number of endmembers.
func (l *Library) Size() int { return len(l.members) }

// Cols returns the feature-vector length shared by all endmembers.
func (l *Library) Cols() int { return l.cols }

// IDs returns the endmember identifiers in library order.
func (l *Library) IDs() []string {
	ids := make([]string, len(l.members))
	for i, m := range l.members {
		ids[i] = m.ID
	}
	return ids
}

// Member returns a copy of the endmember at index i.
func (l *Library) Member(i int) Endmember {
	v := make([]float64, l.cols)
	copy(v, l.members[i].Vector)
	return Endmember{ID: l.members[i].ID, Vector: v}
}

// checkSample validates the positional contract for a solve.
func (l *Library) checkSample(sample []float64) error {
	if len(sample) != l.cols {
		return &ParameterCountError{LibraryCols: l.cols, SampleLen: len(sample)}
	}
	return nil
}

// matrix returns the m×k endmember matrix E (one column per endmember),
// so that E·w is the predicted feature vector of the mixture w.
func (l *Library) matrix() *mat.Dense {
	e := mat.NewDense(l.cols, len(l.members), nil)
	for j, m := range l.members {
		for i, v := range m.Vector {
			e.Set(i, j, v)
		}
	}
	return e
}
