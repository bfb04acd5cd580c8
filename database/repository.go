package database

import (
	"context"

	"github.com/earthrise-media/featurestore/model"
	"github.com/pkg/errors"
)

var (
	ErrNotFound         = errors.New("feature not found")
	ErrInvalidId        = errors.New("invalid feature id")
	ErrUpdateConflict   = errors.New("feature changed unexpectedly during update")
	ErrDeleteConflict   = errors.New("unexpected number of features deleted")
	ErrStoreUnavailable = errors.New("feature store unavailable")
	ErrCorruptFeature   = errors.New("stored feature cannot be decoded")
)

// FeatureRepository is the persistence boundary for features. List and
// FindIntersecting report ErrNotFound instead of returning an empty slice.
type FeatureRepository interface {
	Create(ctx context.Context, feature model.Feature) (model.Feature, error)
	List(ctx context.Context) ([]model.Feature, error)
	GetById(ctx context.Context, id string) (model.Feature, error)
	Update(ctx context.Context, id string, update model.UpdateFeature) (model.Feature, error)
	DeleteById(ctx context.Context, id string) error
	FindIntersecting(ctx context.Context, polygon model.Polygon) ([]model.Feature, error)
	Ping(ctx context.Context) error
	Close()
}

// storeError wraps a driver failure so callers can match ErrStoreUnavailable
// without seeing driver types.
func storeError(err error, op string) error {
	return errors.Wrapf(ErrStoreUnavailable, "%s: %v", op, err)
}

// corruptError marks a stored record that no longer decodes.
func corruptError(err error, id string) error {
	return errors.Wrapf(ErrCorruptFeature, "%s: %v", id, err)
}
