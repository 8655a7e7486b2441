package predictor

import (
	"time"

	"github.com/YuminosukeSato/delaycast/core/model"
)

// Query is a single delay prediction request. A zero Day and empty airport
// codes mean the value is absent.
type Query struct {
	Month       int
	Day         int
	Origin      string
	Destination string
}

// Result is a prediction. UsedModel is false when the heuristic produced
// Value, either because no model is held or because the model failed.
type Result struct {
	Value     float64
	UsedModel bool
}

// FitResult reports a completed fit.
type FitResult struct {
	Message      string
	SamplesCount int
	ModelPath    string
	R2           float64
	RMSE         float64
}

// Status describes the active model.
type Status struct {
	ModelLoaded bool
	NFeatures   int
	ModelPath   string
	TrainedAt   time.Time
}

// Store persists the active model. Implementations need not be safe for
// concurrent use; the Predictor serializes every call.
type Store interface {
	// Load returns the persisted model, or false when none is usable.
	Load() (model.Regressor, bool)
	// Save atomically persists m.
	Save(m model.Regressor) error
	Path() string
}

// trainedAtReporter is implemented by stores that record when the
// persisted model was trained.
type trainedAtReporter interface {
	TrainedAt() time.Time
}

// Recorder receives prediction and fit outcomes, typically for metrics.
type Recorder interface {
	ObservePrediction(strategy string)
	ObserveFit(outcome string, elapsed time.Duration)
}

// Fit outcomes passed to Recorder.ObserveFit.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalidInput = "invalid_input"
	OutcomeStorageError = "storage_error"
	OutcomeModelError   = "model_error"
)

type nopRecorder struct{}

func (nopRecorder) ObservePrediction(string)         {}
func (nopRecorder) ObserveFit(string, time.Duration) {}
