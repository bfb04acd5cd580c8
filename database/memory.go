package database

import (
	"context"
	"sync"

	"github.com/earthrise-media/featurestore/model"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryFeatureController keeps features in process. Intersection is planar
// on lon/lat, which matches the geodesic result for small polygons that do
// not cross the antimeridian.
type MemoryFeatureController struct {
	mu       sync.RWMutex
	order    []string
	features map[string]model.Feature
}

func NewMemoryFeatureController() *MemoryFeatureController {
	return &MemoryFeatureController{features: make(map[string]model.Feature)}
}

func (mc *MemoryFeatureController) Create(_ context.Context, feature model.Feature) (model.Feature, error) {
	if err := model.Validate(feature.Geometry); err != nil {
		return model.Feature{}, err
	}
	if feature.Type == "" {
		feature.Type = model.TypeFeature
	}
	feature.ID = primitive.NewObjectID().Hex()
	feature = clone(feature)

	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.features[feature.ID] = feature
	mc.order = append(mc.order, feature.ID)
	return clone(feature), nil
}

func (mc *MemoryFeatureController) List(_ context.Context) ([]model.Feature, error) {
	return mc.filter(func(model.Feature) bool { return true })
}

func (mc *MemoryFeatureController) GetById(_ context.Context, id string) (model.Feature, error) {
	if _, err := parseObjectID(id); err != nil {
		return model.Feature{}, err
	}
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	f, ok := mc.features[id]
	if !ok {
		return model.Feature{}, errors.Wrapf(ErrNotFound, "id %s", id)
	}
	return clone(f), nil
}

func (mc *MemoryFeatureController) Update(_ context.Context, id string, update model.UpdateFeature) (model.Feature, error) {
	if _, err := parseObjectID(id); err != nil {
		return model.Feature{}, err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	f, ok := mc.features[id]
	if !ok {
		return model.Feature{}, errors.Wrapf(ErrNotFound, "id %s", id)
	}
	f = clone(update.Apply(f))
	mc.features[id] = f
	return clone(f), nil
}

func (mc *MemoryFeatureController) DeleteById(_ context.Context, id string) error {
	if _, err := parseObjectID(id); err != nil {
		return err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if _, ok := mc.features[id]; !ok {
		return errors.Wrapf(ErrNotFound, "id %s", id)
	}
	delete(mc.features, id)
	for i, v := range mc.order {
		if v == id {
			mc.order = append(mc.order[:i], mc.order[i+1:]...)
			break
		}
	}
	return nil
}

func (mc *MemoryFeatureController) FindIntersecting(_ context.Context, polygon model.Polygon) ([]model.Feature, error) {
	if err := model.Validate(polygon); err != nil {
		return nil, err
	}
	return mc.filter(func(f model.Feature) bool {
		return intersects(f.Geometry.Orb(), polygon.Coordinates)
	})
}

func (mc *MemoryFeatureController) Ping(context.Context) error { return nil }

func (mc *MemoryFeatureController) Close() {}

func (mc *MemoryFeatureController) filter(keep func(model.Feature) bool) ([]model.Feature, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	var out []model.Feature
	for _, id := range mc.order {
		if f := mc.features[id]; keep(f) {
			out = append(out, clone(f))
		}
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// clone copies the mutable parts of f so callers never share memory with
// the stored feature.
func clone(f model.Feature) model.Feature {
	f = model.UpdateFeature{Properties: nonNil(f.Properties)}.Apply(f)
	switch g := f.Geometry.(type) {
	case model.LineString:
		f.Geometry = model.LineString{Coordinates: g.Coordinates.Clone()}
	case model.Polygon:
		f.Geometry = model.Polygon{Coordinates: g.Coordinates.Clone()}
	}
	return f
}

func nonNil(props map[string]string) map[string]string {
	if props == nil {
		return map[string]string{}
	}
	return props
}
