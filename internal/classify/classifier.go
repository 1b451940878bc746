package classify

import (
	"strings"

	"github.com/tokenpulse/oracle/internal/domain"
)

// ModelVersion identifies the lexicon revision. Classification is
// deterministic for identical (text, ModelVersion) pairs.
const ModelVersion = "lexicon-v1"

// Term weights per class. A term may carry weight in more than one class
// (e.g. "pump" reads bullish on its own but bearish next to "dump").
var (
	bullishTerms = map[string]float64{
		"moon": 2, "rocket": 2, "based": 1, "gem": 1.5, "diamond": 1.5,
		"hodl": 1.5, "lambo": 1, "bullish": 2, "pump": 1, "buy": 1,
		"rally": 1.5, "breakout": 1.5, "ath": 1.5, "send": 1, "lfg": 1.5,
	}
	bearishTerms = map[string]float64{
		"rug": 2, "scam": 2, "dump": 2, "exit": 1, "dead": 1.5,
		"collapse": 1.5, "bankrupt": 1.5, "bearish": 2, "sell": 1,
		"crash": 2, "rekt": 1.5, "ponzi": 2, "drain": 1.5, "honeypot": 2,
	}
)

// --- Classifier ---

// Classifier maps raw text to a sentiment label and per-class probability
// vector. It is stateless and safe for concurrent use.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify scores text against the bullish/bearish lexicons and normalizes
// the accumulated evidence into a probability vector. Empty or
// whitespace-only text fails with domain.ErrEmptySignal.
func (c *Classifier) Classify(text string) (domain.Classification, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.Classification{}, domain.ErrEmptySignal
	}

	tokens := tokenize(trimmed)

	var bullish, bearish float64
	for _, tok := range tokens {
		bullish += bullishTerms[tok]
		bearish += bearishTerms[tok]
	}
	// Neutral evidence grows with text that matches neither lexicon, so
	// long unopinionated posts do not get classified off a single term.
	neutral := 1.0 + 0.1*float64(len(tokens))

	total := bullish + bearish + neutral
	cls := domain.Classification{
		ModelVersion: ModelVersion,
		ProbBullish:  bullish / total,
		ProbNeutral:  neutral / total,
		ProbBearish:  bearish / total,
	}

	cls.Label, cls.Confidence = argmax(cls)
	return cls, nil
}

func argmax(cls domain.Classification) (domain.Label, float64) {
	label := domain.LabelNeutral
	best := cls.ProbNeutral
	if cls.ProbBullish > best {
		label = domain.LabelBullish
		best = cls.ProbBullish
	}
	if cls.ProbBearish > best {
		label = domain.LabelBearish
		best = cls.ProbBearish
	}
	return label, best
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		default:
			return true
		}
	})
}
