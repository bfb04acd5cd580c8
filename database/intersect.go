package database

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// intersects reports whether g shares at least one point with polygon, in
// planar lon/lat space. Boundaries count as shared points.
func intersects(g orb.Geometry, polygon orb.Polygon) bool {
	if !g.Bound().Intersects(polygon.Bound()) {
		return false
	}

	switch v := g.(type) {
	case orb.Point:
		return polygonCovers(polygon, v)
	case orb.LineString:
		for _, p := range v {
			if polygonCovers(polygon, p) {
				return true
			}
		}
		return edgesCross(lineSegments(v), polygonSegments(polygon))
	case orb.Polygon:
		for _, ring := range v {
			for _, p := range ring {
				if polygonCovers(polygon, p) {
					return true
				}
			}
		}
		for _, ring := range polygon {
			for _, p := range ring {
				if polygonCovers(v, p) {
					return true
				}
			}
		}
		return edgesCross(polygonSegments(v), polygonSegments(polygon))
	}
	return false
}

// polygonCovers is PolygonContains with points on any ring counted as inside.
func polygonCovers(polygon orb.Polygon, p orb.Point) bool {
	for _, ring := range polygon {
		for _, s := range lineSegments(orb.LineString(ring)) {
			if onSegment(s[0], s[1], p) {
				return true
			}
		}
	}
	return planar.PolygonContains(polygon, p)
}

type segment [2]orb.Point

func lineSegments(ls orb.LineString) []segment {
	if len(ls) < 2 {
		return nil
	}
	segs := make([]segment, 0, len(ls)-1)
	for i := 1; i < len(ls); i++ {
		segs = append(segs, segment{ls[i-1], ls[i]})
	}
	return segs
}

func polygonSegments(polygon orb.Polygon) []segment {
	var segs []segment
	for _, ring := range polygon {
		segs = append(segs, lineSegments(orb.LineString(ring))...)
	}
	return segs
}

func edgesCross(a, b []segment) bool {
	for _, s := range a {
		for _, t := range b {
			if segmentsIntersect(s[0], s[1], t[0], t[1]) {
				return true
			}
		}
	}
	return false
}

func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := orientation(q1, q2, p1)
	d2 := orientation(q1, q2, p2)
	d3 := orientation(p1, p2, q1)
	d4 := orientation(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

// cross product sign of (b-a) x (c-a)
func orientation(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func onSegment(a, b, p orb.Point) bool {
	if orientation(a, b, p) != 0 {
		return false
	}
	return p[0] >= min(a[0], b[0]) && p[0] <= max(a[0], b[0]) &&
		p[1] >= min(a[1], b[1]) && p[1] <= max(a[1], b[1])
}
