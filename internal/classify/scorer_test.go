package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenpulse/oracle/internal/domain"
)

func TestScoreIntensity_StrongBearish(t *testing.T) {
	assert.Equal(t, domain.IntensityStrong, ScoreIntensity("rug pull scam dump now", domain.LabelBearish))
}

func TestScoreIntensity_ModerateBullish(t *testing.T) {
	assert.Equal(t, domain.IntensityModerate, ScoreIntensity("going to the moon soon", domain.LabelBullish))
}

func TestScoreIntensity_WeakWithoutKeywords(t *testing.T) {
	assert.Equal(t, domain.IntensityWeak, ScoreIntensity("looks interesting", domain.LabelBullish))
}

func TestScoreIntensity_NeutralAlwaysWeak(t *testing.T) {
	// Keyword-heavy text still scores weak under a neutral label: there is
	// no neutral keyword set.
	assert.Equal(t, domain.IntensityWeak, ScoreIntensity("moon rocket gem rug scam dump", domain.LabelNeutral))
}

func TestScoreSignal_StrongBearishWorkedExample(t *testing.T) {
	cs := domain.ClassifiedSignal{
		Classification: domain.Classification{Label: domain.LabelBearish},
	}
	// base=25, multiplier=1.2, adjusted=30, final=30*(0.5+0.3)=24
	scored := ScoreSignal(cs, 0.6, domain.IntensityStrong)
	assert.InDelta(t, 24.0, scored.NumericScore, 1e-9)
}

func TestScoreSignal_ZeroCredibilityStillContributes(t *testing.T) {
	cs := domain.ClassifiedSignal{
		Classification: domain.Classification{Label: domain.LabelBullish},
	}
	scored := ScoreSignal(cs, 0, domain.IntensityModerate)
	// 75 * 1.0 * 0.5
	assert.InDelta(t, 37.5, scored.NumericScore, 1e-9)
	assert.Greater(t, scored.NumericScore, 0.0)
}

func TestScoreSignal_AlwaysInRange(t *testing.T) {
	labels := []domain.Label{domain.LabelBullish, domain.LabelNeutral, domain.LabelBearish}
	intensities := []domain.Intensity{domain.IntensityWeak, domain.IntensityModerate, domain.IntensityStrong}
	credibilities := []float64{0, 0.25, 0.5, 0.75, 1}

	for _, label := range labels {
		for _, intensity := range intensities {
			for _, cred := range credibilities {
				cs := domain.ClassifiedSignal{Classification: domain.Classification{Label: label}}
				scored := ScoreSignal(cs, cred, intensity)
				assert.GreaterOrEqual(t, scored.NumericScore, 0.0)
				assert.LessOrEqual(t, scored.NumericScore, 100.0)
			}
		}
	}
}

func TestScore_EndToEndBearish(t *testing.T) {
	raw := domain.RawSignal{
		ID:      "sig-1",
		AssetID: "PEPE",
		Text:    "rug pull scam dump now",
		Author: domain.AuthorMetrics{
			Followers:      60_000,
			EngagementRate: 0.04,
			AccountAgeDays: 200,
		},
	}

	scored, err := Score(NewClassifier(), raw)
	require.NoError(t, err)
	assert.Equal(t, domain.LabelBearish, scored.Label)
	assert.Equal(t, domain.IntensityStrong, scored.Intensity)
	assert.Less(t, scored.NumericScore, 33.0)
}

func TestScore_EmptyTextDropped(t *testing.T) {
	raw := domain.RawSignal{ID: "sig-2", AssetID: "PEPE", Text: "  "}
	_, err := Score(NewClassifier(), raw)
	assert.ErrorIs(t, err, domain.ErrEmptySignal)
}
