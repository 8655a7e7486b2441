// Package delaycast is a flight-delay regression serving core.
//
// A single process-wide service trains an ordinary least squares model on
// historical (month, delay) pairs, persists it as a model artifact, and
// answers delay predictions for a (month, day, origin, destination) query.
// When no model is available, or the model fails on a query, a
// deterministic heuristic estimator answers instead, so Predict always
// returns a finite, non-negative value.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/delaycast/predictor"
//	    "github.com/YuminosukeSato/delaycast/service"
//	)
//
//	func main() {
//	    ctx := context.Background()
//	    svc := service.Default()
//
//	    res, err := svc.Fit(ctx, []int{1, 2, 3, 4}, []float64{10, 20, 30, 40})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(res.Message)
//
//	    out, _ := svc.Predict(ctx, predictor.Query{Month: 5, Day: 10, Origin: "JFK", Destination: "LAX"})
//	    fmt.Println(out.Value, out.UsedModel) // 50 true
//	}
//
// # Packages
//
//   - service: the process-wide model service (Configure, Default, Fit, Predict, Reload)
//   - predictor: fit/predict with heuristic fallback and feature encoding
//   - heuristic: the rule-based delay estimator
//   - artifact: gob model artifact store with atomic writes and a file watcher
//   - linear: ordinary least squares regression
//   - metrics: regression metrics (MSE, RMSE, MAE, R²)
//   - core/model: estimator interfaces and fitted-state tracking
//   - core/parallel: row-range parallelism for large training sets
//   - pkg/errors: typed errors built on cockroachdb/errors
//   - pkg/log: structured logging over slog or zerolog
//
// The delayd command serves the HTTP API; delay-train fits a model from
// the Postgres training table.
package delaycast
