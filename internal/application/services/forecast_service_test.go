package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErlangCBounds(t *testing.T) {
	// Overloaded system: everyone waits.
	assert.Equal(t, 1.0, erlangC(10, 10))
	assert.Equal(t, 1.0, erlangC(10, 5))

	// A lightly loaded system almost never queues.
	p := erlangC(1, 10)
	assert.Less(t, p, 0.001)

	// Probability of wait shrinks as agents are added.
	assert.Greater(t, erlangC(10, 11), erlangC(10, 15))
}

func TestRequiredAgents(t *testing.T) {
	assert.Equal(t, 0, requiredAgents(0, 240, 0.80, 20))

	// One call in a half hour with a four-minute handle time needs one agent.
	assert.Equal(t, 1, requiredAgents(1, 240, 0.80, 20))

	// 100 calls * 240s / 1800s = 13.3 erlangs. Staffing must exceed the
	// offered load but stay within a sane overhead.
	n := requiredAgents(100, 240, 0.80, 20)
	assert.Greater(t, n, 13)
	assert.Less(t, n, 25)

	// More volume never needs fewer agents.
	assert.GreaterOrEqual(t, requiredAgents(200, 240, 0.80, 20), n)

	// Tighter service level never needs fewer agents.
	assert.GreaterOrEqual(t, requiredAgents(100, 240, 0.95, 20), n)
}

func TestSmoothVolumes(t *testing.T) {
	assert.Equal(t, 0.0, smoothVolumes(nil, forecastAlpha))
	assert.Equal(t, 10.0, smoothVolumes([]float64{10}, forecastAlpha))

	// 0.3*20 + 0.7*10
	assert.InDelta(t, 13.0, smoothVolumes([]float64{10, 20}, 0.3), 1e-9)

	// Recent observations dominate older ones.
	rising := smoothVolumes([]float64{10, 10, 10, 40}, 0.3)
	assert.Greater(t, rising, 10.0)
	assert.Less(t, rising, 40.0)
}

func TestIntervalSlot(t *testing.T) {
	assert.Equal(t, 0, intervalSlot(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, intervalSlot(time.Date(2026, 3, 2, 0, 30, 0, 0, time.UTC)))
	assert.Equal(t, 19, intervalSlot(time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, 47, intervalSlot(time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC)))
}
