// Package model defines the contracts shared by delaycast regressors.
package model

// EstimatorState is the fitted state of a model.
type EstimatorState int

const (
	// NotFitted is the state of a freshly constructed model.
	NotFitted EstimatorState = iota
	// Fitted is the state after a successful Fit or a load from an artifact.
	Fitted
)

// BaseEstimator is embedded by models to track their fitted state.
// It is not safe for concurrent mutation; models are fitted once and then
// treated as immutable by their owner.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether the model has been fitted.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the model as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the model to the NotFitted state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
