// Package classify turns raw signal text and author metadata into scored
// signals: sentiment classification, credibility weighting, intensity and
// the final per-signal numeric score.
package classify
