// Package predictor owns the active delay model and implements the fit and
// predict protocol around it.
//
// A Predictor is either in heuristic mode (no model) or holds exactly one
// fully fitted model. Predictions never fail: when no model is held, or the
// model cannot answer a query, the heuristic estimate is returned with
// UsedModel set to false. A fit becomes visible to predictions only after
// its artifact has been saved, so a restart always reloads the last
// completed fit.
package predictor

import (
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/delaycast/artifact"
	"github.com/YuminosukeSato/delaycast/core/model"
	"github.com/YuminosukeSato/delaycast/heuristic"
	"github.com/YuminosukeSato/delaycast/linear"
	"github.com/YuminosukeSato/delaycast/metrics"
	"github.com/YuminosukeSato/delaycast/pkg/errors"
	"github.com/YuminosukeSato/delaycast/pkg/log"
)

// Predictor is safe for concurrent use.
type Predictor struct {
	store    Store
	logger   log.Logger
	recorder Recorder
	now      func() time.Time

	// fitMu serializes Fit and Reload so the store and the in-memory model
	// always agree on the last completed mutation.
	fitMu sync.Mutex

	mu        sync.RWMutex
	model     model.Regressor
	trainedAt time.Time
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithLogger sets the logger. The default is log.GetLogger().
func WithLogger(l log.Logger) Option {
	return func(p *Predictor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Predictor) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Predictor) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a Predictor and loads the persisted model from store if one
// is usable. A nil store selects an artifact.FileStore at the default path.
func New(store Store, opts ...Option) *Predictor {
	p := &Predictor{
		logger:   log.GetLogger(),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(log.ComponentKey, "predictor")

	if store == nil {
		store = artifact.NewFileStore("", p.logger)
	}
	p.store = store

	if m, ok := store.Load(); ok {
		p.swap(m, p.storedTrainedAt())
		p.logger.Info("predictor started with persisted model",
			log.OperationKey, log.OperationLoad,
			log.FeaturesKey, m.NFeatures(),
			log.PathKey, store.Path(),
		)
	} else {
		p.logger.Info("predictor started in heuristic mode",
			log.OperationKey, log.OperationLoad,
			log.PathKey, store.Path(),
		)
	}
	return p
}

// Fit trains a month-only linear model on (months, delays), persists it and
// makes it the active model. Invalid input returns an InvalidInputError and
// a failed save returns a StorageError; in both cases the previously active
// model or heuristic mode is retained.
func (p *Predictor) Fit(months []int, delays []float64) (FitResult, error) {
	start := p.now()
	res, err := p.fit(months, delays)
	p.recorder.ObserveFit(fitOutcome(err), p.now().Sub(start))
	return res, err
}

func (p *Predictor) fit(months []int, delays []float64) (FitResult, error) {
	const op = "Predictor.Fit"
	logger := p.logger.With(log.OperationKey, log.OperationFit, log.PhaseKey, log.PhaseTraining)

	if err := validateTrainingSet(months, delays); err != nil {
		logger.Warn("rejected training set", log.ErrorCodeKey, log.ErrorInvalidInput, log.ErrAttrKey, err)
		return FitResult{}, err
	}

	n := len(months)
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := range months {
		X.Set(i, 0, float64(months[i]))
		y.Set(i, 0, delays[i])
	}

	lr := linear.NewLinearRegression()
	if err := errors.SafeExecute(op, func() error { return lr.Fit(X, y) }); err != nil {
		logger.Error("model fit failed", err, log.SamplesKey, n)
		return FitResult{}, err
	}

	r2, rmse, err := trainingScores(lr, X, y)
	if err != nil {
		logger.Error("model evaluation failed", err, log.SamplesKey, n)
		return FitResult{}, err
	}

	p.fitMu.Lock()
	defer p.fitMu.Unlock()

	if err := p.store.Save(lr); err != nil {
		logger.Error("model artifact save failed, keeping previous model", err,
			log.ErrorCodeKey, log.ErrorStorage,
			log.PathKey, p.store.Path(),
		)
		return FitResult{}, err
	}
	p.swap(lr, p.storedTrainedAt())

	path := p.store.Path()
	logger.Info("model trained",
		log.ModelNameKey, "LinearRegression",
		log.SamplesKey, n,
		log.R2ScoreKey, r2,
		log.RMSEKey, rmse,
		log.PathKey, path,
	)

	return FitResult{
		Message:      fmt.Sprintf("model trained with %d samples and saved to %s", n, path),
		SamplesCount: n,
		ModelPath:    path,
		R2:           r2,
		RMSE:         rmse,
	}, nil
}

func validateTrainingSet(months []int, delays []float64) error {
	const op = "Predictor.Fit"

	if len(months) != len(delays) {
		return errors.NewInvalidInputError(op, "months", "length must match delays",
			fmt.Sprintf("%d months, %d delays", len(months), len(delays)))
	}
	if len(months) == 0 {
		return errors.NewInvalidInputError(op, "months", "at least one sample is required", nil)
	}
	for i, m := range months {
		if m < 1 || m > 12 {
			return errors.NewInvalidInputError(op, fmt.Sprintf("months[%d]", i), "must be in [1,12]", m)
		}
	}
	for i, d := range delays {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return errors.NewInvalidInputError(op, fmt.Sprintf("delays[%d]", i), "must be finite", d)
		}
	}
	return nil
}

func trainingScores(lr *linear.LinearRegression, X, y mat.Matrix) (r2, rmse float64, err error) {
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, 0, err
	}
	if r2, err = metrics.R2ScoreMatrix(y, yPred); err != nil {
		return 0, 0, err
	}
	if rmse, err = metrics.RMSEMatrix(y, yPred); err != nil {
		return 0, 0, err
	}
	return finiteOrZero(r2), finiteOrZero(rmse), nil
}

// finiteOrZero keeps fit diagnostics encodable when they overflow.
func finiteOrZero(v float64) float64 {
	if errors.CheckFinite("Predictor.Fit", v) != nil {
		return 0
	}
	return v
}

// Predict returns the delay estimate for q. It never fails.
func (p *Predictor) Predict(q Query) Result {
	p.mu.RLock()
	m := p.model
	p.mu.RUnlock()

	if m == nil {
		p.recorder.ObservePrediction(log.StrategyHeuristic)
		return p.heuristicResult(q)
	}

	v, err := infer(m, q)
	if err != nil {
		p.logger.Warn("model inference failed, falling back to heuristic",
			log.OperationKey, log.OperationPredict,
			log.PhaseKey, log.PhaseInference,
			log.ErrorCodeKey, log.ErrorInference,
			log.FeaturesKey, m.NFeatures(),
			log.ErrAttrKey, err,
		)
		p.recorder.ObservePrediction(log.StrategyHeuristic)
		return p.heuristicResult(q)
	}

	p.recorder.ObservePrediction(log.StrategyModel)
	return Result{Value: v, UsedModel: true}
}

func (p *Predictor) heuristicResult(q Query) Result {
	return Result{Value: heuristic.Estimate(q.Month, q.Day, q.Origin, q.Destination)}
}

// infer runs m on q. Errors, panics and non-finite outputs all surface as
// a ModelInferenceError.
func infer(m model.Regressor, q Query) (float64, error) {
	const op = "Predictor.Predict"

	n := m.NFeatures()
	features := BuildFeatures(q, n)

	v, err := errors.SafeFloat(op, func() (float64, error) {
		out, err := m.Predict(mat.NewDense(1, len(features), features))
		if err != nil {
			return 0, err
		}
		if r, c := out.Dims(); r != 1 || c < 1 {
			return 0, errors.NewDimensionError(op, 1, r, 0)
		}
		v := out.At(0, 0)
		if err := errors.CheckFinite(op, v); err != nil {
			return 0, err
		}
		return v, nil
	})
	if err != nil {
		return 0, errors.NewModelInferenceError(op, n, err)
	}
	return v, nil
}

// Reload replaces the active model with the persisted one. When the store
// holds no usable model the current state is kept and Reload returns false.
func (p *Predictor) Reload() bool {
	p.fitMu.Lock()
	defer p.fitMu.Unlock()

	m, ok := p.store.Load()
	if !ok {
		p.logger.Info("reload found no usable artifact, keeping current model",
			log.OperationKey, log.OperationReload,
			log.PathKey, p.store.Path(),
		)
		return false
	}

	p.swap(m, p.storedTrainedAt())
	p.logger.Info("model reloaded",
		log.OperationKey, log.OperationReload,
		log.FeaturesKey, m.NFeatures(),
		log.PathKey, p.store.Path(),
	)
	return true
}

// Status reports the active model.
func (p *Predictor) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Status{
		ModelPath: p.store.Path(),
		TrainedAt: p.trainedAt,
	}
	if p.model != nil {
		s.ModelLoaded = true
		s.NFeatures = p.model.NFeatures()
	}
	return s
}

func (p *Predictor) swap(m model.Regressor, trainedAt time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model = m
	p.trainedAt = trainedAt
}

func (p *Predictor) storedTrainedAt() time.Time {
	if r, ok := p.store.(trainedAtReporter); ok {
		if t := r.TrainedAt(); !t.IsZero() {
			return t
		}
	}
	return p.now().UTC()
}

func fitOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.IsInvalidInput(err):
		return OutcomeInvalidInput
	case errors.IsStorage(err):
		return OutcomeStorageError
	default:
		return OutcomeModelError
	}
}
