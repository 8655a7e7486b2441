// Package heuristic is the model-free delay estimate served when no trained
// model is available or the trained model cannot answer a query.
package heuristic

import "strings"

const (
	// DefaultDay replaces a day that is absent (0) or outside [1,31].
	DefaultDay = 15

	unknownMonthBase = 15.0
	lateMonthDay     = 20
	perLateDay       = 0.1
	hubPenalty       = 2.0
	airportPenalty   = 0.5
)

// monthlyBase is the average delay in minutes by calendar month.
var monthlyBase = map[int]float64{
	1: 10.5, 2: 12.3, 3: 15.2, 4: 18.1, 5: 20.5, 6: 25.3,
	7: 28.7, 8: 26.2, 9: 22.1, 10: 18.5, 11: 14.2, 12: 11.8,
}

var busyHubs = map[string]struct{}{
	"JFK": {}, "LAX": {}, "SFO": {}, "ORD": {},
	"ATL": {}, "DFW": {}, "CDG": {}, "LHR": {},
}

// Estimate returns the heuristic delay for a route. It never fails and
// never returns a negative value. Empty airport codes contribute nothing.
func Estimate(month, day int, origin, destination string) float64 {
	base, ok := monthlyBase[month]
	if !ok {
		base = unknownMonthBase
	}

	dayAdj := perLateDay * float64(max(0, NormalizeDay(day)-lateMonthDay))

	return max(0.0, base+dayAdj+airportAdjustment(origin)+airportAdjustment(destination))
}

// NormalizeDay maps an absent or out-of-range day to DefaultDay.
func NormalizeDay(day int) int {
	if day < 1 || day > 31 {
		return DefaultDay
	}
	return day
}

// IsBusyHub reports whether code names a high-congestion airport.
func IsBusyHub(code string) bool {
	_, ok := busyHubs[strings.ToUpper(code)]
	return ok
}

func airportAdjustment(code string) float64 {
	switch {
	case code == "":
		return 0
	case IsBusyHub(code):
		return hubPenalty
	default:
		return airportPenalty
	}
}
