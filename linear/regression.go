// Package linear provides ordinary least squares regression on gonum matrices.
package linear

import (
	"math"

	"github.com/YuminosukeSato/delaycast/core/model"
	"github.com/YuminosukeSato/delaycast/core/parallel"
	"github.com/YuminosukeSato/delaycast/metrics"
	"github.com/YuminosukeSato/delaycast/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// parallelThreshold is the row count above which centering runs on all cores.
const parallelThreshold = 1000

// LinearRegression is an ordinary least squares regressor with intercept.
//
// A fitted LinearRegression is never mutated except by a later Fit, so the
// serving layer shares it across goroutines without locking.
type LinearRegression struct {
	model.BaseEstimator
	weights   []float64
	intercept float64
	nFeatures int
}

// Params is the serializable state of a fitted LinearRegression.
type Params struct {
	Coefficients []float64
	Intercept    float64
	NFeatures    int
}

var _ model.Regressor = (*LinearRegression)(nil)

// NewLinearRegression creates an unfitted model.
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

// FromParams rebuilds a fitted model from exported parameters.
func FromParams(p Params) (*LinearRegression, error) {
	if p.NFeatures <= 0 {
		return nil, errors.NewInvalidInputError("LinearRegression.FromParams", "NFeatures", "must be positive", p.NFeatures)
	}
	if len(p.Coefficients) != p.NFeatures {
		return nil, errors.NewDimensionError("LinearRegression.FromParams", p.NFeatures, len(p.Coefficients), 1)
	}
	if err := errors.CheckFinite("LinearRegression.FromParams", append([]float64{p.Intercept}, p.Coefficients...)...); err != nil {
		return nil, err
	}

	lr := &LinearRegression{
		weights:   append([]float64(nil), p.Coefficients...),
		intercept: p.Intercept,
		nFeatures: p.NFeatures,
	}
	lr.SetFitted()
	return lr, nil
}

// Fit solves min ||y - Xw - b||² on centered data using the SVD
// pseudo-inverse, which yields the minimum-norm solution when X is rank
// deficient (for example a single sample, or a feature that never varies).
// The receiver is left untouched when Fit fails.
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewInvalidInputError("LinearRegression.Fit", "y", "must be a column vector", cy)
	}

	xMean := make([]float64, c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			xMean[j] += X.At(i, j)
		}
		xMean[j] /= float64(r)
	}
	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	xc := mat.NewDense(r, c, nil)
	yc := mat.NewVecDense(r, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				xc.Set(i, j, X.At(i, j)-xMean[j])
			}
			yc.SetVec(i, y.At(i, 0)-yMean)
		}
	})

	weights, err := solveMinNorm(xc, yc)
	if err != nil {
		return err
	}

	intercept := yMean
	for j := 0; j < c; j++ {
		intercept -= xMean[j] * weights[j]
	}
	if err := errors.CheckFinite("LinearRegression.Fit", append([]float64{intercept}, weights...)...); err != nil {
		return err
	}

	lr.weights = weights
	lr.intercept = intercept
	lr.nFeatures = c
	lr.SetFitted()
	return nil
}

// solveMinNorm returns V·Σ⁺·Uᵀ·b for the thin SVD of a.
func solveMinNorm(a *mat.Dense, b *mat.VecDense) ([]float64, error) {
	r, c := a.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, errors.NewModelError("LinearRegression.Fit", "SVD factorization failed", errors.ErrSingularMatrix)
	}
	values := svd.Values(nil)

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var maxSingular float64
	for _, s := range values {
		maxSingular = math.Max(maxSingular, s)
	}
	tol := maxSingular * float64(max(r, c)) * 2.220446049250313e-16

	var utb mat.VecDense
	utb.MulVec(u.T(), b)
	for i, s := range values {
		if s > tol {
			utb.SetVec(i, utb.AtVec(i)/s)
		} else {
			utb.SetVec(i, 0)
		}
	}

	var w mat.VecDense
	w.MulVec(&v, &utb)

	weights := make([]float64, c)
	for j := 0; j < c; j++ {
		weights[j] = w.AtVec(j)
	}
	return weights, nil
}

// Predict returns X·w + b as an n×1 matrix.
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}

	r, c := X.Dims()
	if c != lr.nFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Predict", lr.nFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := lr.intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * lr.weights[j]
		}
		predictions.Set(i, 0, pred)
	}
	return predictions, nil
}

// NFeatures is the number of input columns seen by Fit.
func (lr *LinearRegression) NFeatures() int {
	return lr.nFeatures
}

// Weights returns a copy of the learned coefficients.
func (lr *LinearRegression) Weights() []float64 {
	if lr.weights == nil {
		return nil
	}
	return append([]float64(nil), lr.weights...)
}

// Intercept returns the learned intercept, or 0 for an unfitted model.
func (lr *LinearRegression) Intercept() float64 {
	if !lr.IsFitted() {
		return 0
	}
	return lr.intercept
}

// Params exports the fitted state for persistence.
func (lr *LinearRegression) Params() (Params, error) {
	if !lr.IsFitted() {
		return Params{}, errors.NewNotFittedError("LinearRegression", "Params")
	}
	return Params{
		Coefficients: lr.Weights(),
		Intercept:    lr.intercept,
		NFeatures:    lr.nFeatures,
	}, nil
}

// Score returns the coefficient of determination R² on (X, y).
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, yPred)
}
