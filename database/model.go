package database

import (
	"github.com/earthrise-media/featurestore/model"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// featureDocument is the stored shape of a feature in MongoDB. The geometry
// sub-document is plain GeoJSON so the 2dsphere index can read it.
type featureDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Type       string             `bson:"type"`
	Geometry   geometryDocument   `bson:"geometry"`
	Properties map[string]string  `bson:"properties"`
}

type geometryDocument struct {
	Type        string        `bson:"type"`
	Coordinates bson.RawValue `bson:"coordinates"`
}

func toGeometryDocument(g model.Geometry) (geometryDocument, error) {
	if g == nil {
		return geometryDocument{}, errors.Wrap(model.ErrInvalidGeometry, "geometry is required")
	}
	t, data, err := bson.MarshalValue(g.Orb())
	if err != nil {
		return geometryDocument{}, errors.Wrap(err, "encoding coordinates")
	}
	return geometryDocument{
		Type:        string(g.GeometryType()),
		Coordinates: bson.RawValue{Type: t, Value: data},
	}, nil
}

func fromGeometryDocument(doc geometryDocument) (model.Geometry, error) {
	geometryType, err := model.ParseGeometryType(doc.Type)
	if err != nil {
		return nil, err
	}

	var g orb.Geometry
	switch geometryType {
	case model.GeometryPoint:
		var p orb.Point
		err = doc.Coordinates.Unmarshal(&p)
		g = p
	case model.GeometryLineString:
		var ls orb.LineString
		err = doc.Coordinates.Unmarshal(&ls)
		g = ls
	case model.GeometryPolygon:
		var poly orb.Polygon
		err = doc.Coordinates.Unmarshal(&poly)
		g = poly
	}
	if err != nil {
		return nil, errors.Wrapf(model.ErrInvalidGeometry, "decoding %s coordinates: %v", geometryType, err)
	}
	return model.FromOrb(g)
}

func toDocument(f model.Feature) (featureDocument, error) {
	geom, err := toGeometryDocument(f.Geometry)
	if err != nil {
		return featureDocument{}, err
	}
	t := f.Type
	if t == "" {
		t = model.TypeFeature
	}
	props := f.Properties
	if props == nil {
		props = map[string]string{}
	}
	return featureDocument{
		Type:       string(t),
		Geometry:   geom,
		Properties: props,
	}, nil
}

func fromDocument(doc featureDocument) (model.Feature, error) {
	geom, err := fromGeometryDocument(doc.Geometry)
	if err != nil {
		return model.Feature{}, err
	}
	t, err := model.ParseGeoJSONType(doc.Type)
	if err != nil {
		return model.Feature{}, err
	}
	props := doc.Properties
	if props == nil {
		props = map[string]string{}
	}
	return model.Feature{
		ID:         doc.ID.Hex(),
		Type:       t,
		Geometry:   geom,
		Properties: props,
	}, nil
}

// updateDocument lists only the fields present in the update.
func updateDocument(u model.UpdateFeature) (bson.M, error) {
	set := bson.M{}
	if u.Type != nil {
		set["type"] = string(*u.Type)
	}
	if u.Geometry != nil {
		geom, err := toGeometryDocument(u.Geometry)
		if err != nil {
			return nil, err
		}
		set["geometry"] = geom
	}
	if u.Properties != nil {
		set["properties"] = u.Properties
	}
	return set, nil
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, errors.Wrapf(ErrInvalidId, "%q is not a 24 character hex id", id)
	}
	return oid, nil
}
