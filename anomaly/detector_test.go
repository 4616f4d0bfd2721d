package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saurus21/agua-rural-api/models"
)

func kinds(candidates []Candidate) []string {
	var out []string
	for _, c := range candidates {
		out = append(out, c.Kind)
	}
	return out
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		priors []float64
		want   []string
	}{
		{
			name:   "normal reading with history",
			value:  105,
			priors: []float64{100, 110, 95},
			want:   nil,
		},
		{
			name:   "first reading of a meter",
			value:  50,
			priors: nil,
			want:   nil,
		},
		{
			name:   "high consumption without history",
			value:  1500,
			priors: nil,
			want:   []string{models.AlertHighConsumption},
		},
		{
			name:   "exactly at the high threshold is not flagged",
			value:  1000,
			priors: nil,
			want:   nil,
		},
		{
			name:   "zero on a meter that normally reports usage",
			value:  0,
			priors: []float64{20, 30},
			want:   []string{models.AlertZeroConsumption},
		},
		{
			name:   "zero on a meter with a low average",
			value:  0,
			priors: []float64{5, 5},
			want:   nil,
		},
		{
			name:   "zero with no history",
			value:  0,
			priors: nil,
			want:   nil,
		},
		{
			name:   "sharp variation upwards",
			value:  200,
			priors: []float64{100, 100, 100},
			want:   []string{models.AlertSharpVariation},
		},
		{
			name:   "variation needs at least three priors",
			value:  200,
			priors: []float64{100, 100},
			want:   nil,
		},
		{
			name:   "variation at exactly fifty percent is not flagged",
			value:  150,
			priors: []float64{100, 100, 100},
			want:   nil,
		},
		{
			name:   "zero average never divides",
			value:  10,
			priors: []float64{0, 0, 0},
			want:   nil,
		},
		{
			name:   "high value also triggers variation",
			value:  1200,
			priors: []float64{100, 100, 100},
			want:   []string{models.AlertHighConsumption, models.AlertSharpVariation},
		},
		{
			name:   "zero and variation together",
			value:  0,
			priors: []float64{50, 50, 50},
			want:   []string{models.AlertZeroConsumption, models.AlertSharpVariation},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.value, tt.priors)
			assert.Equal(t, tt.want, kinds(got))
		})
	}
}

func TestDetectVariationMessage(t *testing.T) {
	// 200 against an average of 100 is a 100% deviation.
	got := Detect(200, []float64{100, 100, 100})
	require.Len(t, got, 1)
	assert.Equal(t, "Variation of 100% detected", got[0].Message)

	// 46 against an average of 100 rounds to 54%.
	got = Detect(46, []float64{100, 100, 100})
	require.Len(t, got, 1)
	assert.Equal(t, "Variation of 54% detected", got[0].Message)
}

func TestDetectHighConsumptionMessage(t *testing.T) {
	got := Detect(1500.5, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Abnormally high consumption: 1500.5", got[0].Message)
}

func TestDetectLimitsHistoryWindow(t *testing.T) {
	// Only the five most recent priors count. The sixth value would drag
	// the average below the zero-consumption threshold if it were used.
	priors := []float64{20, 20, 20, 20, 20, -10000}
	got := Detect(0, priors)
	require.NotEmpty(t, got)
	assert.Equal(t, models.AlertZeroConsumption, got[0].Kind)
}
