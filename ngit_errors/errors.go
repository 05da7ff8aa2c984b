// Provides common ngit errors definitions.
package ngit_errors

import "errors"

var (
	ErrObjectUnknown = errors.New("ngit: unknown object")
	ErrTypeUnknown   = errors.New("ngit: unknown object type")

	ErrInvalidRefName = errors.New("ngit: ref name is empty or contains NUL")
	ErrAfterFirstLine = errors.New("ngit: advertisement already started")
	ErrSinkClosed     = errors.New("ngit: advertisement stream ended")
	ErrWrongSource    = errors.New("ngit: commit source is not plot-aware")
)
