package linear

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/delaycast/pkg/errors"
)

func TestLinearRegression_SingleFeature(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{10, 20, 30})

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	assert.True(t, lr.IsFitted())
	assert.Equal(t, 1, lr.NFeatures())
	assert.InDelta(t, 10.0, lr.Weights()[0], 1e-9)
	assert.InDelta(t, 0.0, lr.Intercept(), 1e-9)

	pred, err := lr.Predict(mat.NewDense(1, 1, []float64{4}))
	require.NoError(t, err)
	assert.InDelta(t, 40.0, pred.At(0, 0), 1e-9)
}

func TestLinearRegression_MultiFeature(t *testing.T) {
	// y = 2 + 1.5*x0 - 0.5*x1 + 3*x2
	rows := [][]float64{
		{1, 2, 0},
		{2, 1, 1},
		{3, 5, 2},
		{4, 3, 0},
		{5, 8, 1},
		{6, 2, 3},
	}
	X := mat.NewDense(len(rows), 3, nil)
	y := mat.NewDense(len(rows), 1, nil)
	for i, r := range rows {
		X.SetRow(i, r)
		y.Set(i, 0, 2+1.5*r[0]-0.5*r[1]+3*r[2])
	}

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	w := lr.Weights()
	assert.InDelta(t, 1.5, w[0], 1e-8)
	assert.InDelta(t, -0.5, w[1], 1e-8)
	assert.InDelta(t, 3.0, w[2], 1e-8)
	assert.InDelta(t, 2.0, lr.Intercept(), 1e-8)

	score, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestLinearRegression_DegenerateInputs(t *testing.T) {
	t.Run("constant feature predicts the mean", func(t *testing.T) {
		X := mat.NewDense(3, 1, []float64{6, 6, 6})
		y := mat.NewDense(3, 1, []float64{20, 25, 30})

		lr := NewLinearRegression()
		require.NoError(t, lr.Fit(X, y))
		assert.InDelta(t, 0.0, lr.Weights()[0], 1e-12)

		pred, err := lr.Predict(mat.NewDense(1, 1, []float64{9}))
		require.NoError(t, err)
		assert.InDelta(t, 25.0, pred.At(0, 0), 1e-9)
	})

	t.Run("single sample", func(t *testing.T) {
		lr := NewLinearRegression()
		require.NoError(t, lr.Fit(mat.NewDense(1, 1, []float64{7}), mat.NewDense(1, 1, []float64{31})))

		pred, err := lr.Predict(mat.NewDense(1, 1, []float64{2}))
		require.NoError(t, err)
		assert.InDelta(t, 31.0, pred.At(0, 0), 1e-9)
	})

	t.Run("collinear columns stay finite", func(t *testing.T) {
		X := mat.NewDense(4, 2, []float64{1, 2, 2, 4, 3, 6, 4, 8})
		y := mat.NewDense(4, 1, []float64{5, 10, 15, 20})

		lr := NewLinearRegression()
		require.NoError(t, lr.Fit(X, y))
		for _, w := range lr.Weights() {
			assert.False(t, math.IsNaN(w) || math.IsInf(w, 0))
		}

		pred, err := lr.Predict(mat.NewDense(1, 2, []float64{5, 10}))
		require.NoError(t, err)
		assert.InDelta(t, 25.0, pred.At(0, 0), 1e-8)
	})
}

func TestLinearRegression_Errors(t *testing.T) {
	t.Run("row mismatch", func(t *testing.T) {
		lr := NewLinearRegression()
		err := lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(2, 1, []float64{1, 2}))
		require.Error(t, err)

		var dimErr *errors.DimensionError
		assert.True(t, errors.As(err, &dimErr))
		assert.False(t, lr.IsFitted())
	})

	t.Run("predict before fit", func(t *testing.T) {
		_, err := NewLinearRegression().Predict(mat.NewDense(1, 1, []float64{1}))
		var nf *errors.NotFittedError
		assert.True(t, errors.As(err, &nf))
	})

	t.Run("predict with wrong width", func(t *testing.T) {
		lr := NewLinearRegression()
		require.NoError(t, lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(3, 1, []float64{1, 2, 3})))

		_, err := lr.Predict(mat.NewDense(1, 4, []float64{1, 15, 0, 0}))
		var dimErr *errors.DimensionError
		require.True(t, errors.As(err, &dimErr))
		assert.Equal(t, 1, dimErr.Expected)
		assert.Equal(t, 4, dimErr.Got)
	})

	t.Run("non-finite target", func(t *testing.T) {
		lr := NewLinearRegression()
		err := lr.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{1, math.Inf(1)}))
		assert.Error(t, err)
		assert.False(t, lr.IsFitted())
	})
}

func TestLinearRegression_FailedRefitKeepsState(t *testing.T) {
	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(3, 1, []float64{10, 20, 30})))

	err := lr.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4}), mat.NewDense(1, 1, []float64{1}))
	require.Error(t, err)

	assert.Equal(t, 1, lr.NFeatures())
	pred, err := lr.Predict(mat.NewDense(1, 1, []float64{4}))
	require.NoError(t, err)
	assert.InDelta(t, 40.0, pred.At(0, 0), 1e-9)
}

func TestParamsRoundTrip(t *testing.T) {
	lr := NewLinearRegression()
	_, err := lr.Params()
	require.Error(t, err)

	require.NoError(t, lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(3, 1, []float64{10, 20, 30})))
	p, err := lr.Params()
	require.NoError(t, err)

	restored, err := FromParams(p)
	require.NoError(t, err)
	assert.True(t, restored.IsFitted())
	assert.Equal(t, lr.Weights(), restored.Weights())
	assert.Equal(t, lr.Intercept(), restored.Intercept())

	_, err = FromParams(Params{Coefficients: []float64{1, 2}, NFeatures: 1})
	assert.Error(t, err)
	_, err = FromParams(Params{})
	assert.Error(t, err)
	_, err = FromParams(Params{Coefficients: []float64{math.NaN()}, NFeatures: 1})
	assert.Error(t, err)
}

func TestLinearRegression_LargeTrainingSet(t *testing.T) {
	n := 3 * parallelThreshold
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		month := float64(i%12 + 1)
		day := float64(i%31 + 1)
		X.Set(i, 0, month)
		X.Set(i, 1, day)
		y.Set(i, 0, 3*month-0.5*day+7)
	}

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	w := lr.Weights()
	assert.InDelta(t, 3.0, w[0], 1e-8)
	assert.InDelta(t, -0.5, w[1], 1e-8)
	assert.InDelta(t, 7.0, lr.Intercept(), 1e-8)
}
