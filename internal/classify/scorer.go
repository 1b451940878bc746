package classify

import (
	"github.com/tokenpulse/oracle/internal/domain"
	"github.com/tokenpulse/oracle/internal/stats"
)

var baseScores = map[domain.Label]float64{
	domain.LabelBullish: 75,
	domain.LabelNeutral: 50,
	domain.LabelBearish: 25,
}

var intensityMultipliers = map[domain.Intensity]float64{
	domain.IntensityWeak:     0.8,
	domain.IntensityModerate: 1.0,
	domain.IntensityStrong:   1.2,
}

// ScoreSignal combines a classification, credibility and intensity into one
// numeric score in [0,100]. Credibility is compressed into [0.5, 1.0] of the
// adjusted score so zero-credibility signals still contribute a heavily
// discounted value instead of vanishing.
func ScoreSignal(cs domain.ClassifiedSignal, credibility float64, intensity domain.Intensity) domain.ScoredSignal {
	base := baseScores[cs.Label]
	adjusted := base * intensityMultipliers[intensity]
	final := adjusted * (0.5 + 0.5*credibility)

	return domain.ScoredSignal{
		ClassifiedSignal: cs,
		Credibility:      credibility,
		Intensity:        intensity,
		NumericScore:     stats.Clamp(final, 0, 100),
	}
}

// Score runs the full per-signal pipeline: classification, credibility,
// intensity and the final numeric score. Empty text returns
// domain.ErrEmptySignal.
func Score(c *Classifier, raw domain.RawSignal) (domain.ScoredSignal, error) {
	cls, err := c.Classify(raw.Text)
	if err != nil {
		return domain.ScoredSignal{}, err
	}

	classified := domain.ClassifiedSignal{RawSignal: raw, Classification: cls}
	credibility := ScoreCredibility(raw.Author)
	intensity := ScoreIntensity(raw.Text, cls.Label)

	return ScoreSignal(classified, credibility, intensity), nil
}
