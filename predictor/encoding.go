package predictor

import (
	"hash/fnv"
	"strings"

	"github.com/YuminosukeSato/delaycast/heuristic"
)

// airportBuckets is the number of distinct airport encodings.
const airportBuckets = 10

// RouteFeatures is the width of the route feature vector built for
// models that were not trained on month alone.
const RouteFeatures = 4

// EncodeAirport maps an airport code to a stable bucket in [0,10): the
// FNV-1a 32-bit hash of the uppercased code, modulo 10. The empty code
// encodes to 0. The value is identical across processes and platforms.
func EncodeAirport(code string) float64 {
	if code == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToUpper(code)))
	return float64(h.Sum32() % airportBuckets)
}

// BuildFeatures returns the model input for q. A single-feature model
// receives [month]; any other width receives
// [month, day, enc(origin), enc(destination)] with the day normalized.
func BuildFeatures(q Query, nFeatures int) []float64 {
	if nFeatures == 1 {
		return []float64{float64(q.Month)}
	}
	return []float64{
		float64(q.Month),
		float64(heuristic.NormalizeDay(q.Day)),
		EncodeAirport(q.Origin),
		EncodeAirport(q.Destination),
	}
}
