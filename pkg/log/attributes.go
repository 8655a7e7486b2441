// Standard attribute keys for delaycast log records.
//
// Keys follow a hierarchical naming convention (e.g. "ml.operation",
// "data.samples") so records from the predictor, the artifact store and
// the HTTP layer can be filtered together.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model, e.g. "LinearRegression".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "load", "save", "reload".
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is logging.
	// Examples: "predictor", "artifact", "server"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"

	// StrategyKey records which prediction strategy produced a value.
	StrategyKey = "preds.strategy"
)

// Data Shape
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
)

// Performance Metrics
const (
	DurationMsKey = "perf.duration_ms"
	R2ScoreKey    = "metrics.r2_score"
	RMSEKey       = "metrics.rmse"
)

// Storage and Transport Context
const (
	// PathKey records the artifact location on disk.
	PathKey = "artifact.path"

	// TempFileKey names a temp file beside the artifact.
	TempFileKey = "artifact.temp_file"

	// RequestIDKey carries the X-Request-ID of an HTTP request.
	RequestIDKey = "http.request_id"

	MethodKey = "http.method"
	RouteKey  = "http.route"
	StatusKey = "http.status"
)

// Error Context
const (
	ErrorCodeKey = "error.code"
	ErrorTypeKey = "error.type"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationLoad    = "load"
	OperationSave    = "save"
	OperationReload  = "reload"

	PhaseTraining  = "training"
	PhaseInference = "inference"

	StrategyModel     = "model"
	StrategyHeuristic = "heuristic"

	ErrorInvalidInput   = "INVALID_INPUT"
	ErrorStorage        = "STORAGE_FAILURE"
	ErrorInference      = "INFERENCE_FAILURE"
	ErrorArtifactAbsent = "ARTIFACT_ABSENT"
)
