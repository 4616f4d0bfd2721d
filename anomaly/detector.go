// Package anomaly holds the pure detection rules applied to every new
// reading. The rules only look at the new value and the recent history of
// the same meter, so they can be unit tested without a database.
package anomaly

import (
	"fmt"
	"math"

	"github.com/Saurus21/agua-rural-api/models"
)

// Fixed policy thresholds. These values are contractual: alerts raised for
// the same data must not change between releases.
const (
	// HighConsumptionThreshold is the absolute value above which a reading
	// is flagged regardless of history.
	HighConsumptionThreshold = 1000.0
	// ZeroConsumptionMinAverage is the minimum historical average for a
	// zero reading to count as a probable meter failure.
	ZeroConsumptionMinAverage = 10.0
	// SharpVariationMinSamples is the minimum number of prior readings
	// needed before variation against the average is meaningful.
	SharpVariationMinSamples = 3
	// SharpVariationRatio is the relative deviation from the historical
	// average that triggers a sharp variation alert.
	SharpVariationRatio = 0.5
	// HistoryWindow is how many prior readings the detector looks at.
	HistoryWindow = 5
)

// Candidate is a proposed alert. Persistence is the caller's concern.
type Candidate struct {
	Kind    string
	Message string
}

// Detect evaluates the detection rules for a new reading value against the
// values of up to HistoryWindow prior readings of the same meter, most
// recent first. The prior values must not include the new reading itself.
//
// Each rule is evaluated independently: a single reading can raise several
// alerts at once, e.g. both high consumption and sharp variation.
func Detect(value float64, priors []float64) []Candidate {
	if len(priors) > HistoryWindow {
		priors = priors[:HistoryWindow]
	}

	var candidates []Candidate

	// Rule 1: abnormally high consumption, no history needed.
	if value > HighConsumptionThreshold {
		candidates = append(candidates, Candidate{
			Kind:    models.AlertHighConsumption,
			Message: fmt.Sprintf("Abnormally high consumption: %v", value),
		})
	}

	// Rule 2: zero consumption on a meter that normally reports usage,
	// a probable meter failure.
	if value == 0 && len(priors) > 0 {
		if mean(priors) > ZeroConsumptionMinAverage {
			candidates = append(candidates, Candidate{
				Kind:    models.AlertZeroConsumption,
				Message: "Zero consumption detected - possible meter failure",
			})
		}
	}

	// Rule 3: sharp variation against the historical average.
	if len(priors) >= SharpVariationMinSamples {
		avg := mean(priors)
		if avg > 0 {
			variation := math.Abs(value-avg) / avg
			if variation > SharpVariationRatio {
				candidates = append(candidates, Candidate{
					Kind:    models.AlertSharpVariation,
					Message: fmt.Sprintf("Variation of %d%% detected", int(math.Round(variation*100))),
				})
			}
		}
	}

	return candidates
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
