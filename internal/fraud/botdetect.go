package fraud

import "time"

// Bot analyzer parameters. Events come from the trailing one-hour slice of
// the behavior log.
const (
	// botMinEvents is the minimum sample below which there is no signal.
	botMinEvents = 10
	// botVarianceFloor: inter-event gap variance (seconds squared) under this value
	// means machine-regular timing.
	botVarianceFloor = 10.0
	// botBurstCount: more events than this inside the window is a burst on
	// its own, regardless of regularity.
	botBurstCount = 50

	botRegularityWeight = 30.0
	botBurstWeight      = 20.0
)

// BotScore inspects the regularity of a user's event timing and returns a
// sub-score of 0, 20, 30 or 50 for the user scorer. Fewer than botMinEvents
// events yields 0: insufficient data, not an error.
func BotScore(events []time.Time) float64 {
	if len(events) < botMinEvents {
		return 0
	}

	gaps := make([]float64, 0, len(events)-1)
	for i := 1; i < len(events); i++ {
		gaps = append(gaps, events[i].Sub(events[i-1]).Seconds())
	}

	score := 0.0
	if populationVariance(gaps) < botVarianceFloor {
		score += botRegularityWeight
	}
	if len(events) > botBurstCount {
		score += botBurstWeight
	}

	return score
}

// populationVariance is the mean of squared deviations from the mean
func populationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return variance / float64(len(values))
}
