package fraud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func eventsAt(start time.Time, count int, gaps ...time.Duration) []time.Time {
	events := make([]time.Time, 0, count)
	current := start
	for i := 0; i < count; i++ {
		events = append(events, current)
		gap := gaps[i%len(gaps)]
		current = current.Add(gap)
	}
	return events
}

func TestBotScoreTooFewEvents(t *testing.T) {
	start := time.Now()
	assert.Equal(t, 0.0, BotScore(nil))
	assert.Equal(t, 0.0, BotScore(eventsAt(start, 9, 5*time.Second)))
}

func TestBotScoreRegularTiming(t *testing.T) {
	// 12 events exactly 5s apart: gap variance is 0, well under the floor.
	events := eventsAt(time.Now(), 12, 5*time.Second)
	assert.Equal(t, 30.0, BotScore(events))
}

func TestBotScoreIrregularTiming(t *testing.T) {
	// Alternating 1s and 30s gaps: variance far above the floor.
	events := eventsAt(time.Now(), 20, time.Second, 30*time.Second)
	assert.Equal(t, 0.0, BotScore(events))
}

func TestBotScoreBurstOnly(t *testing.T) {
	// 60 events with irregular gaps: burst weight applies without the
	// regularity weight.
	events := eventsAt(time.Now(), 60, time.Second, 45*time.Second, 3*time.Second)
	assert.Equal(t, 20.0, BotScore(events))
}

func TestBotScoreRegularBurst(t *testing.T) {
	// 60 machine-regular events: both weights.
	events := eventsAt(time.Now(), 60, 2*time.Second)
	assert.Equal(t, 50.0, BotScore(events))
}

func TestBotScoreBurstBoundary(t *testing.T) {
	// Exactly 50 irregular events is not a burst; 51 is.
	start := time.Now()
	assert.Equal(t, 0.0, BotScore(eventsAt(start, 50, time.Second, 40*time.Second)))
	assert.Equal(t, 20.0, BotScore(eventsAt(start, 51, time.Second, 40*time.Second)))
}

func TestPopulationVariance(t *testing.T) {
	assert.Equal(t, 0.0, populationVariance(nil))
	assert.Equal(t, 0.0, populationVariance([]float64{5, 5, 5}))
	// Mean 3, deviations of 1, 0 and 1: variance 2/3.
	assert.InDelta(t, 2.0/3.0, populationVariance([]float64{2, 3, 4}), 1e-9)
}
