package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/YuminosukeSato/delaycast/pkg/errors"
	"github.com/YuminosukeSato/delaycast/pkg/log"
	"github.com/YuminosukeSato/delaycast/predictor"
)

type fitRequest struct {
	Months []int     `json:"months"`
	Delays []float64 `json:"delays"`
}

type fitResponse struct {
	Message      string  `json:"message"`
	SamplesCount int     `json:"samples_count"`
	ModelPath    string  `json:"model_path"`
	R2           float64 `json:"r2"`
	RMSE         float64 `json:"rmse"`
}

type predictRequest struct {
	Day           int    `json:"day"`
	Month         int    `json:"month"`
	OriginAirport string `json:"origin_airport"`
	DestAirport   string `json:"dest_airport"`
}

type predictResponse struct {
	Day            int     `json:"day"`
	Month          int     `json:"month"`
	OriginAirport  string  `json:"origin_airport"`
	DestAirport    string  `json:"dest_airport"`
	PredictedDelay float64 `json:"predicted_delay"`
	ModelVersion   string  `json:"model_version"`
	UsedModel      bool    `json:"used_model"`
}

type healthResponse struct {
	Status      string     `json:"status"`
	ModelLoaded bool       `json:"model_loaded"`
	Strategy    string     `json:"strategy"`
	NFeatures   int        `json:"n_features"`
	ModelPath   string     `json:"model_path"`
	TrainedAt   *time.Time `json:"trained_at,omitempty"`
	Endpoints   []string   `json:"endpoints"`
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	var req fitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()

	res, err := s.svc.Fit(ctx, req.Months, req.Delays)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, fitResponse{
		Message:      res.Message,
		SamplesCount: res.SamplesCount,
		ModelPath:    res.ModelPath,
		R2:           res.R2,
		RMSE:         res.RMSE,
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.OriginAirport = strings.TrimSpace(req.OriginAirport)
	req.DestAirport = strings.TrimSpace(req.DestAirport)
	switch {
	case req.Month < 1 || req.Month > 12:
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "month must be between 1 and 12")
		return
	case req.Day < 1 || req.Day > 31:
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "day must be between 1 and 31")
		return
	case req.OriginAirport == "" || req.DestAirport == "":
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "origin_airport and dest_airport are required")
		return
	}

	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()

	res, err := s.svc.Predict(ctx, predictor.Query{
		Month:       req.Month,
		Day:         req.Day,
		Origin:      req.OriginAirport,
		Destination: req.DestAirport,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		Day:            req.Day,
		Month:          req.Month,
		OriginAirport:  req.OriginAirport,
		DestAirport:    req.DestAirport,
		PredictedDelay: res.Value,
		ModelVersion:   s.version,
		UsedModel:      res.UsedModel,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Status()

	resp := healthResponse{
		Status:      "healthy",
		ModelLoaded: st.ModelLoaded,
		Strategy:    log.StrategyHeuristic,
		NFeatures:   st.NFeatures,
		ModelPath:   st.ModelPath,
		Endpoints:   []string{"/api/v1/fit", "/api/v1/predict", "/api/v1/health"},
	}
	if st.ModelLoaded {
		resp.Strategy = log.StrategyModel
	}
	if !st.TrainedAt.IsZero() {
		t := st.TrainedAt
		resp.TrainedAt = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeServiceError maps service errors onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := s.logger.With(log.RequestIDKey, RequestID(r.Context()), log.RouteKey, r.URL.Path)

	switch {
	case errors.IsInvalidInput(err):
		writeErrorJSON(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("request timed out", log.ErrAttrKey, err)
		writeErrorJSON(w, http.StatusGatewayTimeout, "timeout", "operation did not complete in time")
	case errors.Is(err, context.Canceled):
		writeErrorJSON(w, http.StatusServiceUnavailable, "canceled", "request canceled")
	case errors.IsStorage(err):
		logger.Error("request failed", err, log.ErrorCodeKey, log.ErrorStorage)
		writeErrorJSON(w, http.StatusInternalServerError, "storage_failure", "model could not be persisted")
	default:
		logger.Error("request failed", err)
		writeErrorJSON(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
