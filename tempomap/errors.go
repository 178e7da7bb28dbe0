package tempomap

import "errors"

var (
	// ErrEmptyMap is returned by queries on a map with no points. A map
	// built with New always has its anchor; this surfaces misuse of a
	// zero-value Map or a map whose state failed to load.
	ErrEmptyMap = errors.New("tempo map is empty")

	// ErrBadTempoMetricLookup is returned on an attempt to mutate the
	// metric of an implicit point, which is a pure view.
	ErrBadTempoMetricLookup = errors.New("cannot obtain a mutable metric from an implicit map point")

	// ErrBeforeAnchor rejects placements earlier than the immovable entry
	// at position zero.
	ErrBeforeAnchor = errors.New("position precedes the tempo map anchor")

	// ErrClampedPlacement rejects placements coinciding with an explicit
	// point whose clamped tempo forbids change.
	ErrClampedPlacement = errors.New("coincident point's clamped tempo forbids change")
)
