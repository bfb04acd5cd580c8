package model

import "github.com/pkg/errors"

// Validation failures. They are raised while parsing and never reach a store.
var (
	ErrInvalidDocument   = errors.New("invalid document")
	ErrInvalidType       = errors.New("invalid geojson type")
	ErrInvalidGeometry   = errors.New("invalid geometry")
	ErrInvalidProperties = errors.New("invalid properties")
)

// IsValidationError reports whether err came from parsing or validating input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDocument) ||
		errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrInvalidGeometry) ||
		errors.Is(err, ErrInvalidProperties)
}
