package regime

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	maxFitIterations = 2000
	gradTolerance    = 1e-6
	// Loose acceptance bound: a fit that has not pushed the gradient at
	// least this far down is reported as non-converged and skipped.
	gradGiveUp = 1e-2
)

var errNotConverged = errors.New("regime: logistic fit did not converge")

// logisticModel is a fitted median-impute -> standardize -> L2 logistic
// regression pipeline. It lives only for the duration of one predict window.
type logisticModel struct {
	medians []float64
	means   []float64
	scales  []float64
	weights []float64 // bias at index 0
}

// fitLogistic fits the pipeline on rows X (may contain NaN) and binary
// labels y via full-batch gradient descent on the L2-regularized mean
// cross-entropy. c is the inverse regularization strength.
func fitLogistic(X [][]float64, y []float64, c float64) (*logisticModel, error) {
	n := len(X)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("regime: bad training shape: %d rows, %d labels", n, len(y))
	}
	d := len(X[0])
	if d == 0 {
		return nil, errors.New("regime: no predictors")
	}
	if c <= 0 {
		return nil, fmt.Errorf("regime: regularization C must be positive, got %g", c)
	}

	m := &logisticModel{
		medians: columnMedians(X),
		means:   make([]float64, d),
		scales:  make([]float64, d),
		weights: make([]float64, d+1),
	}

	// Impute, then standardize on the imputed training distribution.
	imputed := make([]float64, n*d)
	for i, row := range X {
		for j, v := range row {
			if math.IsNaN(v) {
				v = m.medians[j]
			}
			imputed[i*d+j] = v
		}
	}
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		for i := 0; i < n; i++ {
			col[i] = imputed[i*d+j]
		}
		m.means[j] = stat.Mean(col, nil)
		sd := stat.StdDev(col, nil)
		if sd == 0 || math.IsNaN(sd) {
			sd = 1.0 // constant column: center only
		}
		m.scales[j] = sd
	}

	// Design matrix with a leading bias column.
	z := mat.NewDense(n, d+1, nil)
	for i := 0; i < n; i++ {
		z.Set(i, 0, 1.0)
		for j := 0; j < d; j++ {
			z.Set(i, j+1, (imputed[i*d+j]-m.means[j])/m.scales[j])
		}
	}

	lambda := 1.0 / (c * float64(n))

	// Step size from a Lipschitz bound on the regularized gradient.
	fro := mat.Norm(z, 2)
	lip := fro*fro/(4.0*float64(n)) + lambda
	step := 1.0 / lip

	w := make([]float64, d+1)
	grad := make([]float64, d+1)
	p := make([]float64, n)
	for iter := 0; iter < maxFitIterations; iter++ {
		// p = sigmoid(Z w)
		zw := mat.NewVecDense(n, p)
		zw.MulVec(z, mat.NewVecDense(d+1, w))
		for i := 0; i < n; i++ {
			p[i] = sigmoid(p[i])
		}
		// grad = Z^T (p - y)/n + lambda*w (bias unpenalized)
		resid := make([]float64, n)
		for i := 0; i < n; i++ {
			resid[i] = (p[i] - y[i]) / float64(n)
		}
		gv := mat.NewVecDense(d+1, grad)
		gv.MulVec(z.T(), mat.NewVecDense(n, resid))
		for j := 1; j <= d; j++ {
			grad[j] += lambda * w[j]
		}
		if floats.Norm(grad, 2) < gradTolerance {
			break
		}
		floats.AddScaled(w, -step, grad)
	}
	if gn := floats.Norm(grad, 2); math.IsNaN(gn) || gn > gradGiveUp {
		return nil, errNotConverged
	}

	copy(m.weights, w)
	return m, nil
}

// predictProba returns the positive-class probability for one raw feature
// row, applying the fitted imputation and scaling.
func (m *logisticModel) predictProba(row []float64) float64 {
	s := m.weights[0]
	for j, v := range row {
		if math.IsNaN(v) {
			v = m.medians[j]
		}
		s += m.weights[j+1] * (v - m.means[j]) / m.scales[j]
	}
	return sigmoid(s)
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// columnMedians computes per-column medians ignoring NaN. A column with no
// observations imputes to zero, which standardization then centers away.
func columnMedians(X [][]float64) []float64 {
	d := len(X[0])
	out := make([]float64, d)
	buf := make([]float64, 0, len(X))
	for j := 0; j < d; j++ {
		buf = buf[:0]
		for _, row := range X {
			if !math.IsNaN(row[j]) {
				buf = append(buf, row[j])
			}
		}
		if len(buf) == 0 {
			out[j] = 0
			continue
		}
		sort.Float64s(buf)
		out[j] = stat.Quantile(0.5, stat.Empirical, buf, nil)
	}
	return out
}
