package encoding

import (
	"strconv"
	"strings"

	"github.com/earthrise-media/featurestore/model"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// ParseBbox reads "minlon,minlat,maxlon,maxlat" into a bound.
func ParseBbox(bbox string) (orb.Bound, error) {

	coords := strings.Split(bbox, ",")
	if len(coords) != 4 {
		return orb.Bound{}, errors.Wrap(model.ErrInvalidGeometry, "bbox does not have 4 elements")
	}

	var values [4]float64
	for i, c := range coords {
		v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return orb.Bound{}, errors.Wrapf(model.ErrInvalidGeometry, "unable to parse bbox element %d", i)
		}
		values[i] = v
	}

	bound := orb.Bound{Min: orb.Point{values[0], values[1]}, Max: orb.Point{values[2], values[3]}}
	if bound.Min.X() > bound.Max.X() || bound.Min.Y() > bound.Max.Y() {
		return orb.Bound{}, errors.Wrap(model.ErrInvalidGeometry, "bbox minimum exceeds maximum")
	}
	return bound, nil
}

// BboxPolygon parses a bbox into the closed polygon covering it.
func BboxPolygon(bbox string) (model.Polygon, error) {
	bound, err := ParseBbox(bbox)
	if err != nil {
		return model.Polygon{}, err
	}
	g, err := model.FromOrb(bound)
	if err != nil {
		return model.Polygon{}, err
	}
	return g.(model.Polygon), nil
}
