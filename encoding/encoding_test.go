package encoding

import (
	"encoding/json"
	"testing"

	"github.com/earthrise-media/featurestore/model"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

func TestParseBbox(t *testing.T) {

	bound, err := ParseBbox("-10, -5, 10, 5")
	if err != nil {
		t.Fatal(err)
	}
	if bound.Min != (orb.Point{-10, -5}) || bound.Max != (orb.Point{10, 5}) {
		t.Fatalf("unexpected bound %v", bound)
	}

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "10,0,0,10"} {
		if _, err := ParseBbox(bad); !errors.Is(err, model.ErrInvalidGeometry) {
			t.Fatalf("%q: expected ErrInvalidGeometry, got %v", bad, err)
		}
	}
}

func TestBboxPolygon(t *testing.T) {

	poly, err := BboxPolygon("0,0,10,10")
	if err != nil {
		t.Fatal(err)
	}
	ring := poly.Coordinates[0]
	if len(ring) != 5 || ring[0] != ring[4] {
		t.Fatalf("expected a closed ring of 5 points, got %v", ring)
	}
}

const mixedCollection = `{"type":"FeatureCollection","features":[
	{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{"name":"a","count":3}},
	{"type":"Feature","geometry":{"type":"MultiPoint","coordinates":[[1,2]]},"properties":{}},
	{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{"name":"b"}}
]}`

func TestFeaturesFromGeoJSON(t *testing.T) {

	if _, err := FeaturesFromGeoJSON([]byte(mixedCollection), false); !errors.Is(err, model.ErrInvalidProperties) {
		t.Fatalf("strict import should reject numeric properties, got %v", err)
	}

	features, err := FeaturesFromGeoJSON([]byte(mixedCollection), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(features) != 2 {
		t.Fatalf("expected the MultiPoint to be skipped, got %d features", len(features))
	}
	if features[0].Properties["count"] != "3" {
		t.Fatalf("numeric property should be formatted, got %q", features[0].Properties["count"])
	}

	if _, err := FeaturesFromGeoJSON([]byte(`{"type":"Feature"`), true); !errors.Is(err, model.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestToGeoJSON(t *testing.T) {

	f := model.NewFeature(model.Point{Coordinates: orb.Point{1, 2}}, map[string]string{"name": "a"})
	f.ID = "64b7f0c2e13f4a0c9d1e2f3a"

	data, err := json.Marshal(ToGeoJSON([]model.Feature{f}))
	if err != nil {
		t.Fatal(err)
	}
	back, err := FeaturesFromGeoJSON(data, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 1 || back[0].Properties["name"] != "a" || back[0].Geometry != f.Geometry {
		t.Fatalf("unexpected round trip %+v", back)
	}
}
