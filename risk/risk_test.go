package risk

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	acct := Context{MarginCallLevel: 100, StopOutLevel: 50}

	tests := []struct {
		name  string
		level float64
		want  Tier
	}{
		{"no margin used", math.Inf(1), TierSafe},
		{"comfortably above safe", 9218, TierSafe},
		{"exactly safe boundary", 200, TierSafe},
		{"just below safe", 199.99, TierWarning},
		{"at margin call", 100, TierWarning},
		{"between stop out and margin call", 80, TierDanger},
		{"at stop out", 50, TierDanger},
		{"below stop out", 40, TierCritical},
		{"zero", 0, TierCritical},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.level, acct))
		})
	}
}

// The tiers must partition [0, inf) totally and without overlap for any
// threshold configuration with stopOut < marginCall < 200.
func TestClassifyPartition(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		marginCall := 10 + rng.Float64()*189 // (10, 199)
		stopOut := rng.Float64() * marginCall * 0.99
		acct := Context{MarginCallLevel: marginCall, StopOutLevel: stopOut}

		for j := 0; j < 100; j++ {
			level := rng.Float64() * 400
			tier := Classify(level, acct)

			var want Tier
			switch {
			case level >= 200:
				want = TierSafe
			case level >= marginCall:
				want = TierWarning
			case level >= stopOut:
				want = TierDanger
			default:
				want = TierCritical
			}
			if tier != want {
				t.Fatalf("level %.4f (call %.4f, stopout %.4f): got %s want %s",
					level, marginCall, stopOut, tier, want)
			}
		}

		// Boundary values classify into exactly the upper tier.
		assert.Equal(t, TierWarning, Classify(marginCall, acct))
		assert.Equal(t, TierDanger, Classify(stopOut, acct))
	}
}

func TestLevel(t *testing.T) {
	t.Parallel()

	assert.True(t, math.IsInf(Level(10000, 0), 1))
	assert.InDelta(t, 9217.6, Level(10025, 108.76), 0.1)
	assert.InDelta(t, 50.0, Level(50, 100), 1e-9)
}

func TestCanOpen(t *testing.T) {
	t.Parallel()

	acct := Context{Balance: 10000, Leverage: 100, MarginCallLevel: 100, StopOutLevel: 50}

	flat := AccountStatus{Equity: 10000, FreeMargin: 10000, MarginLevel: math.Inf(1)}
	assert.True(t, CanOpen(108.76, flat, acct))

	// Margin larger than free margin.
	assert.False(t, CanOpen(10001, flat, acct))

	// Fits free margin but drives the projected level below margin call.
	tight := AccountStatus{Equity: 150, MarginUsed: 100, FreeMargin: 50, MarginLevel: 150}
	assert.False(t, CanOpen(60, tight, acct))

	// Projected level stays above margin call.
	assert.True(t, CanOpen(10, tight, acct))
}
