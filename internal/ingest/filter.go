package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tokenpulse/oracle/internal/domain"
)

const (
	minTextLength = 10
	maxReposts    = 10000
)

// Filter reasons, used as metric labels.
const (
	ReasonShortText         = "short_text"
	ReasonSuspiciousReposts = "suspicious_reposts"
	ReasonNoAssetMention    = "no_asset_mention"
	ReasonEmptyText         = "empty_text"
)

// Filter drops spam and off-topic signals before they reach the classifier.
type Filter struct {
	assets []string
}

func NewFilter(trackedAssets []string) *Filter {
	assets := make([]string, len(trackedAssets))
	for i, a := range trackedAssets {
		assets[i] = strings.ToLower(a)
	}
	return &Filter{assets: assets}
}

// Keep reports whether the signal should be classified. When it returns
// false, reason names the first rule that rejected it.
func (f *Filter) Keep(sig domain.RawSignal) (bool, string) {
	text := strings.TrimSpace(sig.Text)
	// Length is measured in runes so non-ASCII posts are not over-counted.
	if utf8.RuneCountInString(text) < minTextLength {
		return false, ReasonShortText
	}
	if sig.Engagement.Reposts > maxReposts {
		return false, ReasonSuspiciousReposts
	}
	if !MentionsAsset(text, sig.AssetID) {
		return false, ReasonNoAssetMention
	}
	return true, ""
}

// MentionsAsset reports whether text refers to the asset, matching the
// bare symbol as a word or its cashtag form ($symbol) case-insensitively.
func MentionsAsset(text, assetID string) bool {
	if assetID == "" {
		return false
	}
	lower := strings.ToLower(text)
	symbol := strings.ToLower(assetID)
	if strings.Contains(lower, "$"+symbol) {
		return true
	}
	for _, tok := range tokens(lower) {
		if tok == symbol {
			return true
		}
	}
	return false
}

// ExtractAssets returns the tracked assets mentioned in text, in the
// filter's configured order.
func (f *Filter) ExtractAssets(text string) []string {
	var found []string
	for _, symbol := range f.assets {
		if MentionsAsset(text, symbol) {
			found = append(found, symbol)
		}
	}
	return found
}

func tokens(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
