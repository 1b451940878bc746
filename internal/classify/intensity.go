package classify

import (
	"strings"

	"github.com/tokenpulse/oracle/internal/domain"
)

// Intensity keyword sets per label. Neutral has none: neutral text cannot
// be "strongly" neutral.
var intensityKeywords = map[domain.Label][]string{
	domain.LabelBullish: {"moon", "rocket", "based", "gem", "diamond", "hodl", "to the moon", "lambo"},
	domain.LabelBearish: {"rug", "scam", "dump", "exit", "dead", "collapse", "bankrupt"},
}

// ScoreIntensity counts label-specific keyword occurrences in lower-cased
// text: three or more is strong, at least one is moderate, else weak.
func ScoreIntensity(text string, label domain.Label) domain.Intensity {
	lower := strings.ToLower(text)

	count := 0
	for _, kw := range intensityKeywords[label] {
		if strings.Contains(lower, kw) {
			count++
		}
	}

	switch {
	case count >= 3:
		return domain.IntensityStrong
	case count >= 1:
		return domain.IntensityModerate
	default:
		return domain.IntensityWeak
	}
}
