// Package errors provides the error taxonomy used across delaycast.
//
// Every error kind is a small struct carrying the failing operation and
// the structured fields needed to act on it. Constructors attach a stack
// trace through cockroachdb/errors, and each kind can render itself into a
// zerolog event so log lines stay machine readable.
//
// The kinds map onto the serving contract:
//
//   - InvalidInputError: the caller sent unusable training data. Nothing was mutated.
//   - StorageError: the model artifact could not be persisted. The previous model is kept.
//   - ModelInferenceError: the learned model failed on a query. Recovered by the heuristic fallback.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Serving errors
//
// ===========================================================================

// InvalidInputError is returned when fit data violates its preconditions.
type InvalidInputError struct {
	Op     string
	Field  string
	Reason string
	Value  interface{}
}

func (e *InvalidInputError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("delaycast: %s: invalid %s: %s (got: %v)", e.Op, e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("delaycast: %s: invalid %s: %s", e.Op, e.Field, e.Reason)
}

// MarshalZerologObject adds the structured fields to a zerolog event.
func (e *InvalidInputError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("field", e.Field).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "InvalidInputError")
}

// NewInvalidInputError creates an InvalidInputError with a stack trace.
func NewInvalidInputError(op, field, reason string, value interface{}) error {
	return errors.WithStack(&InvalidInputError{Op: op, Field: field, Reason: reason, Value: value})
}

// StorageError is returned when the model artifact cannot be written.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delaycast: %s: storage failure at %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("delaycast: %s: storage failure at %s", e.Op, e.Path)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the structured fields to a zerolog event.
func (e *StorageError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("path", e.Path).
		AnErr("cause", e.Err).
		Str("type", "StorageError")
}

// NewStorageError creates a StorageError with a stack trace.
func NewStorageError(op, path string, err error) error {
	return errors.WithStack(&StorageError{Op: op, Path: path, Err: err})
}

// ModelInferenceError wraps a failure of the learned model on a single query.
type ModelInferenceError struct {
	Op        string
	NFeatures int
	Err       error
}

func (e *ModelInferenceError) Error() string {
	return fmt.Sprintf("delaycast: %s: inference failed on %d-feature model: %v", e.Op, e.NFeatures, e.Err)
}

func (e *ModelInferenceError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the structured fields to a zerolog event.
func (e *ModelInferenceError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("n_features", e.NFeatures).
		AnErr("cause", e.Err).
		Str("type", "ModelInferenceError")
}

// NewModelInferenceError creates a ModelInferenceError with a stack trace.
func NewModelInferenceError(op string, nFeatures int, err error) error {
	return errors.WithStack(&ModelInferenceError{Op: op, NFeatures: nFeatures, Err: err})
}

// ===========================================================================
//
//	Model errors
//
// ===========================================================================

// NotFittedError is returned when Predict is called on an unfitted model.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("delaycast: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the structured fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError is returned when input dimensions differ from the expected ones.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("delaycast: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

// MarshalZerologObject adds the structured fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ModelError is a general failure inside a model operation.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delaycast: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("delaycast: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a ModelError with a stack trace.
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack attaches a stack trace to err.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// IsInvalidInput reports whether err is an InvalidInputError.
func IsInvalidInput(err error) bool {
	var target *InvalidInputError
	return errors.As(err, &target)
}

// IsStorage reports whether err is a StorageError.
func IsStorage(err error) bool {
	var target *StorageError
	return errors.As(err, &target)
}

// ===========================================================================
//
//	Sentinels
//
// ===========================================================================

var (
	// ErrEmptyData is returned when a fit receives no samples.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix is returned when a decomposition cannot be computed.
	ErrSingularMatrix = New("singular matrix")
)
