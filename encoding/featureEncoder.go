package encoding

import (
	"fmt"

	"github.com/earthrise-media/featurestore/model"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FeaturesFromGeoJSON reads a GeoJSON FeatureCollection document that may
// come from any tool. With lenient set, non-string property values are
// formatted as strings and features with unsupported geometries are skipped
// instead of failing the whole document.
func FeaturesFromGeoJSON(data []byte, lenient bool) ([]model.Feature, error) {

	collection, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(model.ErrInvalidDocument, err.Error())
	}

	features := make([]model.Feature, 0, len(collection.Features))
	for i, feat := range collection.Features {
		f, err := featureFromGeoJSON(feat, lenient)
		if err != nil {
			if lenient {
				zap.S().Warnf("ignoring feature %d: %s", i, err.Error())
				continue
			}
			return nil, errors.WithMessagef(err, "features[%d]", i)
		}
		features = append(features, f)
	}
	return features, nil
}

func featureFromGeoJSON(feat *geojson.Feature, lenient bool) (model.Feature, error) {
	g, err := model.FromOrb(feat.Geometry)
	if err != nil {
		return model.Feature{}, err
	}

	props := make(map[string]string, len(feat.Properties))
	for k, v := range feat.Properties {
		if s, ok := v.(string); ok {
			props[k] = s
			continue
		}
		if !lenient {
			return model.Feature{}, errors.Wrapf(model.ErrInvalidProperties, "property %q is not a string", k)
		}
		props[k] = fmt.Sprintf("%v", v)
	}
	return model.NewFeature(g, props), nil
}

// ToGeoJSON converts features to an orb FeatureCollection, keeping store ids
// as feature ids.
func ToGeoJSON(features []model.Feature) *geojson.FeatureCollection {

	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		feat := geojson.NewFeature(f.Geometry.Orb())
		if f.ID != "" {
			feat.ID = f.ID
		}
		for k, v := range f.Properties {
			feat.Properties[k] = v
		}
		fc.Append(feat)
	}
	return fc
}
