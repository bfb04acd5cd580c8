package model

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ParseFeature decodes and validates a GeoJSON Feature. A string "_id" member
// is kept so persisted features survive a round trip.
func ParseFeature(data []byte) (Feature, error) {
	raw, err := decodeObject(data, "feature")
	if err != nil {
		return Feature{}, err
	}

	f := Feature{Type: TypeFeature}
	if rawType, ok := raw[featureWire.Type]; ok {
		if f.Type, err = parseGeoJSONTypeRaw(rawType); err != nil {
			return Feature{}, err
		}
	}

	rawGeometry, ok := raw[featureWire.Geometry]
	if !ok || isNull(rawGeometry) {
		return Feature{}, errors.Wrapf(ErrInvalidGeometry, "feature %q is required", featureWire.Geometry)
	}
	if f.Geometry, err = ParseGeometry(rawGeometry); err != nil {
		return Feature{}, err
	}

	rawProps, ok := raw[featureWire.Properties]
	if !ok {
		return Feature{}, errors.Wrapf(ErrInvalidProperties, "feature %q is required", featureWire.Properties)
	}
	if f.Properties, err = parseProperties(rawProps); err != nil {
		return Feature{}, err
	}

	if rawID, ok := raw[featureWire.ID]; ok {
		var id string
		if json.Unmarshal(rawID, &id) == nil {
			f.ID = id
		}
	}
	return f, nil
}

// ParseUpdateFeature decodes a partial feature. Only members present in data
// are set on the result, each validated like in ParseFeature.
func ParseUpdateFeature(data []byte) (UpdateFeature, error) {
	raw, err := decodeObject(data, "feature update")
	if err != nil {
		return UpdateFeature{}, err
	}

	var u UpdateFeature
	if rawType, ok := raw[featureWire.Type]; ok {
		t, err := parseGeoJSONTypeRaw(rawType)
		if err != nil {
			return UpdateFeature{}, err
		}
		u.Type = &t
	}
	if rawGeometry, ok := raw[featureWire.Geometry]; ok {
		if u.Geometry, err = ParseGeometry(rawGeometry); err != nil {
			return UpdateFeature{}, err
		}
	}
	if rawProps, ok := raw[featureWire.Properties]; ok {
		if u.Properties, err = parseProperties(rawProps); err != nil {
			return UpdateFeature{}, err
		}
	}
	return u, nil
}

// ParseFeatureCollection decodes a FeatureCollection, validating every feature.
func ParseFeatureCollection(data []byte) (FeatureCollection, error) {
	raw, err := decodeObject(data, "feature collection")
	if err != nil {
		return FeatureCollection{}, err
	}

	fc := FeatureCollection{Type: TypeFeatureCollection}
	if rawType, ok := raw[collectionWire.Type]; ok {
		if fc.Type, err = parseGeoJSONTypeRaw(rawType); err != nil {
			return FeatureCollection{}, err
		}
	}

	var rawFeatures []json.RawMessage
	if err := json.Unmarshal(raw[collectionWire.Features], &rawFeatures); err != nil || rawFeatures == nil {
		return FeatureCollection{}, errors.Wrapf(ErrInvalidDocument, "feature collection %q must be a list", collectionWire.Features)
	}
	fc.Features = make([]Feature, 0, len(rawFeatures))
	for i, rf := range rawFeatures {
		f, err := ParseFeature(rf)
		if err != nil {
			return FeatureCollection{}, errors.WithMessagef(err, "features[%d]", i)
		}
		fc.Features = append(fc.Features, f)
	}
	return fc, nil
}

func (f Feature) MarshalJSON() ([]byte, error) {
	if f.Geometry == nil {
		return nil, errors.Wrap(ErrInvalidGeometry, "cannot serialize a feature without geometry")
	}
	t := f.Type
	if t == "" {
		t = TypeFeature
	}
	props := f.Properties
	if props == nil {
		props = map[string]string{}
	}
	fields := []field{
		{featureWire.Type, t},
		{featureWire.Geometry, f.Geometry},
		{featureWire.Properties, props},
	}
	if f.ID != "" {
		fields = append(fields, field{featureWire.ID, f.ID})
	}
	return marshalObject(fields...)
}

func (f *Feature) UnmarshalJSON(data []byte) error {
	parsed, err := ParseFeature(data)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (u *UpdateFeature) UnmarshalJSON(data []byte) error {
	parsed, err := ParseUpdateFeature(data)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

func (fc FeatureCollection) MarshalJSON() ([]byte, error) {
	t := fc.Type
	if t == "" {
		t = TypeFeatureCollection
	}
	features := fc.Features
	if features == nil {
		features = []Feature{}
	}
	return marshalObject(
		field{collectionWire.Type, t},
		field{collectionWire.Features, features},
	)
}

func (fc *FeatureCollection) UnmarshalJSON(data []byte) error {
	parsed, err := ParseFeatureCollection(data)
	if err != nil {
		return err
	}
	*fc = parsed
	return nil
}

func parseGeoJSONTypeRaw(raw json.RawMessage) (GeoJSONType, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errors.Wrap(ErrInvalidType, "type must be a string")
	}
	return ParseGeoJSONType(s)
}

// properties are a flat string to string mapping; null is not an empty map
func parseProperties(raw json.RawMessage) (map[string]string, error) {
	if isNull(raw) {
		return nil, errors.Wrap(ErrInvalidProperties, "properties must be an object")
	}
	var props map[string]string
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, errors.Wrap(ErrInvalidProperties, "properties must map strings to strings")
	}
	if props == nil {
		props = map[string]string{}
	}
	return props, nil
}
