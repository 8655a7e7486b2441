package model

import "gonum.org/v1/gonum/mat"

// Fitter is a model that can be trained.
type Fitter interface {
	// Fit trains the model on X (n×features) and y (n×1).
	Fit(X, y mat.Matrix) error
}

// Predictor is a model that produces one estimate per input row.
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Regressor is a fitted regression model as held by the serving layer.
type Regressor interface {
	Fitter
	Predictor

	// IsFitted reports whether the model can Predict.
	IsFitted() bool

	// NFeatures is the number of input dimensions the model was trained with.
	NFeatures() int
}

// Scorer is a model that can report its R² on labelled data.
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}
