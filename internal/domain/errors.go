package domain

import "errors"

var (
	ErrEmptySignal       = errors.New("signal text is empty")
	ErrInvalidSubmission = errors.New("submission score or confidence out of range")
	ErrEpochClosed       = errors.New("epoch no longer accepts submissions")
	ErrUnknownAsset      = errors.New("asset not tracked")
	ErrNotFound          = errors.New("not found")
)
