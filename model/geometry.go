package model

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

const (
	minLineStringPoints = 2
	minRingPoints       = 4
)

// ParseGeometry decodes a GeoJSON geometry object and checks that the
// coordinate nesting matches the declared type.
func ParseGeometry(data []byte) (Geometry, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, errors.Wrap(ErrInvalidGeometry, "geometry must be a JSON object")
	}

	rawType, ok := raw[geometryWire.Type]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidGeometry, "geometry %q is required", geometryWire.Type)
	}
	var tag string
	if err := json.Unmarshal(rawType, &tag); err != nil {
		return nil, errors.Wrapf(ErrInvalidGeometry, "geometry %q must be a string", geometryWire.Type)
	}
	geometryType, err := ParseGeometryType(tag)
	if err != nil {
		return nil, err
	}

	rawCoords, ok := raw[geometryWire.Coordinates]
	if !ok || isNull(rawCoords) {
		return nil, errors.Wrapf(ErrInvalidGeometry, "geometry %q is required", geometryWire.Coordinates)
	}

	var geom Geometry
	switch geometryType {
	case GeometryPoint:
		var coords []*float64
		if err := json.Unmarshal(rawCoords, &coords); err != nil {
			return nil, errors.Wrap(ErrInvalidGeometry, "Point coordinates must be a pair of numbers")
		}
		p, err := toPosition(coords)
		if err != nil {
			return nil, err
		}
		geom = Point{Coordinates: p}
	case GeometryLineString:
		var coords [][]*float64
		if err := json.Unmarshal(rawCoords, &coords); err != nil {
			return nil, errors.Wrap(ErrInvalidGeometry, "LineString coordinates must be a list of positions")
		}
		ls, err := toPositions(coords)
		if err != nil {
			return nil, err
		}
		geom = LineString{Coordinates: orb.LineString(ls)}
	case GeometryPolygon:
		var coords [][][]*float64
		if err := json.Unmarshal(rawCoords, &coords); err != nil {
			return nil, errors.Wrap(ErrInvalidGeometry, "Polygon coordinates must be a list of rings")
		}
		poly := make(orb.Polygon, 0, len(coords))
		for _, ring := range coords {
			r, err := toPositions(ring)
			if err != nil {
				return nil, err
			}
			poly = append(poly, orb.Ring(r))
		}
		geom = Polygon{Coordinates: poly}
	}

	if err := Validate(geom); err != nil {
		return nil, err
	}
	return geom, nil
}

// ParsePolygon is ParseGeometry restricted to Polygon geometries.
func ParsePolygon(data []byte) (Polygon, error) {
	geom, err := ParseGeometry(data)
	if err != nil {
		return Polygon{}, err
	}
	poly, ok := geom.(Polygon)
	if !ok {
		return Polygon{}, errors.Wrapf(ErrInvalidGeometry, "expected a Polygon, got %s", geom.GeometryType())
	}
	return poly, nil
}

// Validate checks the structural invariants of a geometry: coordinate ranges,
// minimum point counts and ring closure.
func Validate(g Geometry) error {
	switch v := g.(type) {
	case Point:
		return validatePosition(v.Coordinates)
	case LineString:
		if len(v.Coordinates) < minLineStringPoints {
			return errors.Wrapf(ErrInvalidGeometry, "LineString needs at least %d positions, got %d", minLineStringPoints, len(v.Coordinates))
		}
		for _, p := range v.Coordinates {
			if err := validatePosition(p); err != nil {
				return err
			}
		}
		return nil
	case Polygon:
		if len(v.Coordinates) == 0 {
			return errors.Wrap(ErrInvalidGeometry, "Polygon needs at least one ring")
		}
		for i, ring := range v.Coordinates {
			if len(ring) < minRingPoints {
				return errors.Wrapf(ErrInvalidGeometry, "Polygon ring %d needs at least %d positions, got %d", i, minRingPoints, len(ring))
			}
			if !ring.Closed() {
				return errors.Wrapf(ErrInvalidGeometry, "Polygon ring %d is not closed", i)
			}
			for _, p := range ring {
				if err := validatePosition(p); err != nil {
					return err
				}
			}
		}
		return nil
	case nil:
		return errors.Wrap(ErrInvalidGeometry, "geometry is required")
	}
	return errors.Wrapf(ErrInvalidGeometry, "unsupported geometry %T", g)
}

func (p Point) MarshalJSON() ([]byte, error) {
	return marshalGeometry(GeometryPoint, p.Coordinates)
}

func (l LineString) MarshalJSON() ([]byte, error) {
	return marshalGeometry(GeometryLineString, l.Coordinates)
}

func (p Polygon) MarshalJSON() ([]byte, error) {
	return marshalGeometry(GeometryPolygon, p.Coordinates)
}

func marshalGeometry(t GeometryType, coordinates interface{}) ([]byte, error) {
	return marshalObject(
		field{geometryWire.Type, t},
		field{geometryWire.Coordinates, coordinates},
	)
}

// null decodes to a nil pointer rather than 0, so it is caught here
func toPosition(coords []*float64) (orb.Point, error) {
	if len(coords) != 2 {
		return orb.Point{}, errors.Wrapf(ErrInvalidGeometry, "a position must have exactly 2 values, got %d", len(coords))
	}
	if coords[0] == nil || coords[1] == nil {
		return orb.Point{}, errors.Wrap(ErrInvalidGeometry, "a position must not contain null")
	}
	return orb.Point{*coords[0], *coords[1]}, nil
}

func toPositions(coords [][]*float64) ([]orb.Point, error) {
	points := make([]orb.Point, 0, len(coords))
	for _, c := range coords {
		p, err := toPosition(c)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// positions are [lon, lat] in WGS84
func validatePosition(p orb.Point) error {
	if p.Lon() < -180 || p.Lon() > 180 {
		return errors.Wrapf(ErrInvalidGeometry, "longitude %v out of range", p.Lon())
	}
	if p.Lat() < -90 || p.Lat() > 90 {
		return errors.Wrapf(ErrInvalidGeometry, "latitude %v out of range", p.Lat())
	}
	return nil
}
