// Package metrics implements regression quality measures reported after a fit.
package metrics

import (
	"math"

	"github.com/YuminosukeSato/delaycast/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MSE computes the mean squared error.
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// MSEMatrix computes MSE on n×1 matrices.
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columnPair("MSEMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return MSE(t, p)
}

// RMSE computes the root mean squared error.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("RMSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	scale := maxAbs(yTrue, yPred)
	if scale == 0 {
		return 0, nil
	}
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i)/scale - yPred.AtVec(i)/scale
		sum += diff * diff
	}
	return scale * math.Sqrt(sum/float64(n)), nil
}

// RMSEMatrix computes RMSE on n×1 matrices.
func RMSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columnPair("RMSEMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return RMSE(t, p)
}

// MAE computes the mean absolute error.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score computes the coefficient of determination.
//
// Sums are taken over values scaled by the largest magnitude, so targets
// near the float64 range do not overflow. When yTrue has no variance the
// ratio is undefined; the score is 1 for an exact fit and 0 otherwise, so
// callers never see NaN.
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	if constant(yTrue) {
		for i := 0; i < n; i++ {
			if yPred.AtVec(i) != yTrue.AtVec(i) {
				return 0, nil
			}
		}
		return 1, nil
	}

	scale := maxAbs(yTrue, yPred)
	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i) / scale
	}
	yMean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		yt := yTrue.AtVec(i) / scale
		d := yt - yPred.AtVec(i)/scale
		tss += (yt - yMean) * (yt - yMean)
		rss += d * d
	}

	if tss == 0 {
		if rss == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 1 - rss/tss, nil
}

// R2ScoreMatrix computes R² on n×1 matrices.
func R2ScoreMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columnPair("R2ScoreMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return R2Score(t, p)
}

func constant(v *mat.VecDense) bool {
	for i := 1; i < v.Len(); i++ {
		if v.AtVec(i) != v.AtVec(0) {
			return false
		}
	}
	return true
}

func maxAbs(vs ...*mat.VecDense) float64 {
	var m float64
	for _, v := range vs {
		for i := 0; i < v.Len(); i++ {
			m = math.Max(m, math.Abs(v.AtVec(i)))
		}
	}
	return m
}

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue.IsEmpty() || yTrue.Len() == 0 {
		return 0, errors.NewModelError(op, "empty vector", errors.ErrEmptyData)
	}
	n := yTrue.Len()
	if yPred.IsEmpty() || yPred.Len() != n {
		got := 0
		if !yPred.IsEmpty() {
			got = yPred.Len()
		}
		return 0, errors.NewDimensionError(op, n, got, 0)
	}
	return n, nil
}

func columnPair(op string, yTrue, yPred mat.Matrix) (*mat.VecDense, *mat.VecDense, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return nil, nil, errors.NewModelError(op, "empty matrix", errors.ErrEmptyData)
	}
	if rTrue != rPred || cTrue != cPred {
		return nil, nil, errors.NewDimensionError(op, rTrue, rPred, 0)
	}
	if cTrue != 1 {
		return nil, nil, errors.NewDimensionError(op, 1, cTrue, 1)
	}

	t := mat.NewVecDense(rTrue, nil)
	p := mat.NewVecDense(rPred, nil)
	for i := 0; i < rTrue; i++ {
		t.SetVec(i, yTrue.At(i, 0))
		p.SetVec(i, yPred.At(i, 0))
	}
	return t, p, nil
}
