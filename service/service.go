// Package service exposes the process-wide delay model service.
//
// Exactly one Service exists per process. It is created by the first call
// to Default, using the Options passed to Configure beforehand (or the
// zero Options). The underlying Predictor, and with it the initial artifact
// load, is created on first use.
package service

import (
	"context"
	"sync"

	"github.com/YuminosukeSato/delaycast/artifact"
	"github.com/YuminosukeSato/delaycast/pkg/errors"
	"github.com/YuminosukeSato/delaycast/pkg/log"
	"github.com/YuminosukeSato/delaycast/predictor"
)

// ErrAlreadyConfigured is returned by Configure once the service has been
// configured or created.
var ErrAlreadyConfigured = errors.New("delaycast: service already configured")

// Options configures the process-wide Service.
type Options struct {
	// ModelPath is the artifact location. Empty selects artifact.DefaultPath.
	ModelPath string

	// Store overrides the file store built from ModelPath.
	Store predictor.Store

	Logger   log.Logger
	Recorder predictor.Recorder
}

// Service is a context-aware facade over the Predictor.
type Service struct {
	opts   Options
	logger log.Logger

	once sync.Once
	pred *predictor.Predictor
}

var (
	globalMu   sync.Mutex
	globalOpts Options
	configured bool
	global     *Service
)

// Configure sets the options of the process-wide Service. It must be called
// before the first call to Default.
func Configure(opts Options) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if configured || global != nil {
		return ErrAlreadyConfigured
	}
	globalOpts = opts
	configured = true
	return nil
}

// Default returns the process-wide Service, creating it on first call.
func Default() *Service {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		global = newService(globalOpts)
	}
	return global
}

// reset discards the process-wide Service.
func reset() {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = nil
	globalOpts = Options{}
	configured = false
}

func newService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Service{
		opts:   opts,
		logger: logger.With(log.ComponentKey, "service"),
	}
}

func (s *Service) predictor() *predictor.Predictor {
	s.once.Do(func() {
		store := s.opts.Store
		if store == nil {
			store = artifact.NewFileStore(s.opts.ModelPath, s.opts.Logger)
		}
		s.pred = predictor.New(store,
			predictor.WithLogger(s.opts.Logger),
			predictor.WithRecorder(s.opts.Recorder),
		)
	})
	return s.pred
}

// Fit retrains the model. If ctx ends before the fit completes, ctx.Err()
// is returned and the fit still runs to completion in the background.
func (s *Service) Fit(ctx context.Context, months []int, delays []float64) (predictor.FitResult, error) {
	return call(ctx, func() (predictor.FitResult, error) {
		return s.predictor().Fit(months, delays)
	})
}

// Predict returns the delay estimate for q. The only possible error is
// ctx.Err().
func (s *Service) Predict(ctx context.Context, q predictor.Query) (predictor.Result, error) {
	return call(ctx, func() (predictor.Result, error) {
		return s.predictor().Predict(q), nil
	})
}

// Reload re-reads the artifact and reports whether a model was swapped in.
func (s *Service) Reload(ctx context.Context) (bool, error) {
	return call(ctx, func() (bool, error) {
		return s.predictor().Reload(), nil
	})
}

// Status reports the active model.
func (s *Service) Status() predictor.Status {
	return s.predictor().Status()
}

// WatchArtifact reloads the model whenever its artifact is replaced on disk,
// until ctx is done.
func (s *Service) WatchArtifact(ctx context.Context) error {
	p := s.predictor()
	return artifact.Watch(ctx, p.Status().ModelPath, s.opts.Logger, func() {
		if p.Reload() {
			s.logger.Info("model hot-reloaded from artifact", log.OperationKey, log.OperationReload)
		}
	})
}

// call runs fn in its own goroutine and waits for it or for ctx. A context
// that is already done prevents fn from starting.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
