package srs

import "errors"

var (
	ErrInvalidQuality  = errors.New("srs: quality must be between 0 and 5")
	ErrInvalidItemType = errors.New("srs: invalid item type")
	ErrInvalidStatus   = errors.New("srs: invalid review status")
	ErrInvalidPhase    = errors.New("srs: invalid learning phase")
)
