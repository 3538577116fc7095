package unmix

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// ErrSolverDidNotConverge indicates the minimizer exhausted its
// iteration/evaluation budget before satisfying the convergence
// tolerance. A converged fit with a large residual is NOT this error;
// poor fits are valid results with the residual reported.
var ErrSolverDidNotConverge = errors.New("mixture solver did not converge")

// Objective selects how the reconstruction error is measured.
type Objective string

const (
	// ObjectiveAbsolute minimizes the plain sum of squared residuals
	// between the predicted and observed feature vectors.
	ObjectiveAbsolute Objective = "absolute"
	// ObjectiveRelative minimizes squared residuals scaled by the mean
	// of the observed and predicted values, which keeps parameters of
	// very different magnitudes (band position vs band depth)
	// commensurable. Terms with a near-zero mean are dropped rather than
	// amplified.
	ObjectiveRelative Objective = "relative"
)

// relativeEpsilon guards the relative objective's denominator.
const relativeEpsilon = 1e-9

// SolverParams bounds the minimizer. The budget is a deterministic
// iteration/evaluation count, not a wall-clock timeout.
type SolverParams struct {
	// MaxIterations caps major iterations of the minimizer.
	MaxIterations int `yaml:"max_iterations"`
	// Tolerance is the absolute objective-convergence tolerance: the
	// solve is converged once the objective stops improving by more
	// than this across the converger's window.
	Tolerance float64 `yaml:"tolerance"`
	// Objective selects the residual measure (absolute by default).
	Objective Objective `yaml:"objective"`
}

// DefaultSolverParams returns the stock solver configuration.
func DefaultSolverParams() SolverParams {
	return SolverParams{
		MaxIterations: 2000,
		Tolerance:     1e-12,
		Objective:     ObjectiveAbsolute,
	}
}

// Mixture is a converged solve: non-negative weights summing to one,
// ordered as the library's endmembers, plus the residual of the fit and
// the feature vector the mixture predicts.
type Mixture struct {
	IDs       []string
	Weights   []float64
	Residual  float64
	Predicted []float64
}

// Solver finds the simplex-constrained least-squares mixture of a
// library's endmembers for one sample feature vector. A Solver is
// stateless between solves and safe for concurrent use; the library is
// shared read-only.
type Solver struct {
	lib    *Library
	e      *mat.Dense
	params SolverParams
}

// NewSolver builds a solver over the given library.
func NewSolver(lib *Library, params SolverParams) *Solver {
	if params.MaxIterations <= 0 {
		params.MaxIterations = DefaultSolverParams().MaxIterations
	}
	if params.Tolerance <= 0 {
		params.Tolerance = DefaultSolverParams().Tolerance
	}
	if params.Objective == "" {
		params.Objective = ObjectiveAbsolute
	}
	return &Solver{lib: lib, e: lib.matrix(), params: params}
}

// Solve minimizes the reconstruction error of sample over the open
// simplex (weights non-negative, summing to one). The simplex
// constraint is enforced by construction: the minimizer runs over an
// unconstrained vector z and the weights are softmax(z), so every
// intermediate iterate is a valid mixture. The search is seeded at the
// uniform mixture (z = 0).
//
// With fewer parameters than endmembers the problem is underdetermined
// and several mixtures may fit equally well; the returned one is valid
// but not unique.
func (s *Solver) Solve(sample []float64) (*Mixture, error) {
	if err := s.lib.checkSample(sample); err != nil {
		return nil, err
	}

	k := s.lib.Size()
	if k == 1 {
		// Nothing to optimize: the only endmember carries all weight.
		w := []float64{1}
		return s.mixture(w, sample), nil
	}

	problem := optimize.Problem{
		Func: func(z []float64) float64 {
			return s.objective(softmax(z), sample)
		},
	}

	settings := &optimize.Settings{
		MajorIterations: s.params.MaxIterations,
		FuncEvaluations: 10 * s.params.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   s.params.Tolerance,
			Iterations: 5 * k,
		},
	}

	z0 := make([]float64, k) // softmax(0) is the uniform mixture
	result, err := optimize.Minimize(problem, z0, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSolverDidNotConverge, err)
	}
	switch result.Status {
	case optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit:
		return nil, fmt.Errorf("%w: %v after %d evaluations",
			ErrSolverDidNotConverge, result.Status, result.FuncEvaluations)
	}

	return s.mixture(softmax(result.X), sample), nil
}

// mixture assembles the result for a weight vector, renormalizing so the
// exported weights sum to one at machine precision.
func (s *Solver) mixture(w, sample []float64) *Mixture {
	floats.Scale(1/floats.Sum(w), w)
	return &Mixture{
		IDs:       s.lib.IDs(),
		Weights:   w,
		Residual:  s.objective(w, sample),
		Predicted: s.predict(w),
	}
}

// predict returns E·w, the feature vector of the weighted mixture.
func (s *Solver) predict(w []float64) []float64 {
	var p mat.VecDense
	p.MulVec(s.e, mat.NewVecDense(len(w), w))
	return p.RawVector().Data
}

func (s *Solver) objective(w, sample []float64) float64 {
	pred := s.predict(w)
	sum := 0.0
	for i, p := range pred {
		switch s.params.Objective {
		case ObjectiveRelative:
			denom := (sample[i] + p) / 2
			if math.Abs(denom) > relativeEpsilon {
				r := (p - sample[i]) / denom
				sum += r * r
			}
		default:
			r := p - sample[i]
			sum += r * r
		}
	}
	return sum
}

// softmax maps an unconstrained vector onto the open simplex.
func softmax(z []float64) []float64 {
	w := make([]float64, len(z))
	max := floats.Max(z)
	sum := 0.0
	for i, v := range z {
		w[i] = math.Exp(v - max)
		sum += w[i]
	}
	floats.Scale(1/sum, w)
	return w
}

// Sample pairs an identifier with a feature vector for batch solving.
type Sample struct {
	ID     string
	Vector []float64
}

// BatchResult is the outcome of one sample's solve. Err is set for
// per-item failures; a failed item never aborts the batch.
type BatchResult struct {
	ID      string
	Mixture *Mixture
	Err     error
}

// SolveBatch solves every sample against the shared library, fanning
// out across at most workers goroutines. Solves are independent, so the
// only coordination is the result slot each worker owns.
func (s *Solver) SolveBatch(ctx context.Context, samples []Sample, workers int) []BatchResult {
	if workers <= 0 {
		workers = 1
	}

	results := make([]BatchResult, len(samples))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, smp := range samples {
		i, smp := i, smp
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = BatchResult{ID: smp.ID, Err: err}
				return nil
			}
			m, err := s.Solve(smp.Vector)
			results[i] = BatchResult{ID: smp.ID, Mixture: m, Err: err}
			return nil
		})
	}

	g.Wait()
	return results
}
