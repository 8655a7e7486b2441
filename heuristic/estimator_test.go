package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name        string
		month, day  int
		origin, dst string
		want        float64
	}{
		{"summer hub to hub", 7, 25, "JFK", "LAX", 33.2},
		{"january no adjustments", 1, 0, "", "", 10.5},
		{"lowercase hub", 7, 25, "jfk", "lax", 33.2},
		{"regional airports", 3, 10, "BOS", "PDX", 16.2},
		{"mixed hub and regional", 12, 31, "ORD", "MSP", 11.8 + 1.1 + 2.0 + 0.5},
		{"day out of range uses default", 6, 99, "", "", 25.3},
		{"negative day uses default", 6, -3, "", "", 25.3},
		{"unknown month", 13, 0, "", "", 15.0},
		{"zero month", 0, 21, "", "", 15.1},
		{"origin only", 2, 0, "CDG", "", 14.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Estimate(tt.month, tt.day, tt.origin, tt.dst), 1e-9)
		})
	}
}

func TestEstimateNeverNegative(t *testing.T) {
	airports := []string{"", "JFK", "xyz", "LHR", "A"}
	for month := -2; month <= 14; month++ {
		for day := -5; day <= 100; day++ {
			for _, o := range airports {
				for _, d := range airports {
					got := Estimate(month, day, o, d)
					if got < 0 {
						t.Fatalf("Estimate(%d, %d, %q, %q) = %v", month, day, o, d, got)
					}
				}
			}
		}
	}
}

func TestNormalizeDay(t *testing.T) {
	assert.Equal(t, DefaultDay, NormalizeDay(0))
	assert.Equal(t, DefaultDay, NormalizeDay(32))
	assert.Equal(t, 1, NormalizeDay(1))
	assert.Equal(t, 31, NormalizeDay(31))
}

func TestIsBusyHub(t *testing.T) {
	assert.True(t, IsBusyHub("atl"))
	assert.True(t, IsBusyHub("DFW"))
	assert.False(t, IsBusyHub("SEA"))
	assert.False(t, IsBusyHub(""))
}
