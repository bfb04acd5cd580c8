package model

import (
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// GeoJSONType tags the top level GeoJSON objects this service understands.
type GeoJSONType string

const (
	TypeFeature           GeoJSONType = "Feature"
	TypeFeatureCollection GeoJSONType = "FeatureCollection"
)

// ParseGeoJSONType resolves a wire tag. Unknown tags are never coerced.
func ParseGeoJSONType(s string) (GeoJSONType, error) {
	switch GeoJSONType(s) {
	case TypeFeature, TypeFeatureCollection:
		return GeoJSONType(s), nil
	}
	return "", errors.Wrapf(ErrInvalidType, "unknown geojson type %q", s)
}

// GeometryType tags the geometry variants.
type GeometryType string

const (
	GeometryPoint      GeometryType = "Point"
	GeometryLineString GeometryType = "LineString"
	GeometryPolygon    GeometryType = "Polygon"
)

func ParseGeometryType(s string) (GeometryType, error) {
	switch GeometryType(s) {
	case GeometryPoint, GeometryLineString, GeometryPolygon:
		return GeometryType(s), nil
	}
	return "", errors.Wrapf(ErrInvalidGeometry, "unknown geometry type %q", s)
}

// Geometry is a closed union: only Point, LineString and Polygon implement it.
type Geometry interface {
	GeometryType() GeometryType
	// Orb returns the geometry as an orb value for spatial work and store encoding.
	Orb() orb.Geometry
	MarshalJSON() ([]byte, error)
	isGeometry()
}

type Point struct {
	Coordinates orb.Point
}

type LineString struct {
	Coordinates orb.LineString
}

type Polygon struct {
	Coordinates orb.Polygon
}

func (Point) GeometryType() GeometryType      { return GeometryPoint }
func (LineString) GeometryType() GeometryType { return GeometryLineString }
func (Polygon) GeometryType() GeometryType    { return GeometryPolygon }

func (p Point) Orb() orb.Geometry      { return p.Coordinates }
func (l LineString) Orb() orb.Geometry { return l.Coordinates }
func (p Polygon) Orb() orb.Geometry    { return p.Coordinates }

func (Point) isGeometry()      {}
func (LineString) isGeometry() {}
func (Polygon) isGeometry()    {}

// FromOrb wraps an orb geometry, validating it the same way a parsed one is.
func FromOrb(g orb.Geometry) (Geometry, error) {
	var geom Geometry
	switch v := g.(type) {
	case orb.Point:
		geom = Point{Coordinates: v}
	case orb.LineString:
		geom = LineString{Coordinates: v}
	case orb.Polygon:
		geom = Polygon{Coordinates: v}
	case orb.Ring:
		geom = Polygon{Coordinates: orb.Polygon{v}}
	case orb.Bound:
		geom = Polygon{Coordinates: orb.Polygon{v.ToRing()}}
	default:
		if g == nil {
			return nil, errors.Wrap(ErrInvalidGeometry, "geometry is required")
		}
		return nil, errors.Wrapf(ErrInvalidGeometry, "unsupported geometry type %q", g.GeoJSONType())
	}
	if err := Validate(geom); err != nil {
		return nil, err
	}
	return geom, nil
}

// Feature is a single geometry with string properties. ID is empty until the
// feature has been persisted.
type Feature struct {
	ID         string
	Type       GeoJSONType
	Geometry   Geometry
	Properties map[string]string
}

// NewFeature builds an unpersisted feature with the default type.
func NewFeature(g Geometry, properties map[string]string) Feature {
	if properties == nil {
		properties = map[string]string{}
	}
	return Feature{Type: TypeFeature, Geometry: g, Properties: properties}
}

// FeatureCollection is a bulk transport wrapper; it is never stored as is.
type FeatureCollection struct {
	Type     GeoJSONType
	Features []Feature
}

func NewFeatureCollection(features ...Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: TypeFeatureCollection, Features: features}
}

// UpdateFeature carries the fields of a partial update. A nil field was not
// present in the request and must be left untouched.
type UpdateFeature struct {
	Type       *GeoJSONType
	Geometry   Geometry
	Properties map[string]string
}

// IsEmpty reports whether the update would change nothing.
func (u UpdateFeature) IsEmpty() bool {
	return u.Type == nil && u.Geometry == nil && u.Properties == nil
}

// Apply returns f with the present fields of u replacing the stored ones.
func (u UpdateFeature) Apply(f Feature) Feature {
	if u.Type != nil {
		f.Type = *u.Type
	}
	if u.Geometry != nil {
		f.Geometry = u.Geometry
	}
	if u.Properties != nil {
		props := make(map[string]string, len(u.Properties))
		for k, v := range u.Properties {
			props[k] = v
		}
		f.Properties = props
	}
	return f
}
