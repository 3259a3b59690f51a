package composer

import "errors"

var (
	// ErrEmptyFormula is returned when saving or exporting a formula without entries.
	ErrEmptyFormula = errors.New("composer: formula has no ingredients")
	// ErrMissingReference is returned when an ingredient id cannot be resolved.
	ErrMissingReference = errors.New("composer: ingredient not found")
)
