package database

import (
	"context"
	"testing"

	"github.com/earthrise-media/featurestore/model"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const testNamespace = "feature_store.features"

func pointDocument(id primitive.ObjectID, name string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "type", Value: "Feature"},
		{Key: "geometry", Value: bson.D{
			{Key: "type", Value: "Point"},
			{Key: "coordinates", Value: bson.A{-9.04, 18.08}},
		}},
		{Key: "properties", Value: bson.D{{Key: "name", Value: name}}},
	}
}

func TestMongoFeatureController(t *testing.T) {

	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	ctx := context.Background()

	mt.Run("create assigns an id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		mc := NewMongoFeatureController(mt.Coll)

		f := model.NewFeature(model.LineString{Coordinates: orb.LineString{{-9.04, 18.08}, {-15.09, 14.23}}}, map[string]string{})
		created, err := mc.Create(ctx, f)
		if err != nil {
			mt.Fatal(err)
		}
		if _, err := primitive.ObjectIDFromHex(created.ID); err != nil {
			mt.Fatalf("expected an ObjectID, got %q", created.ID)
		}
		if created.Geometry.GeometryType() != model.GeometryLineString {
			mt.Fatalf("unexpected geometry %s", created.Geometry.GeometryType())
		}
	})

	mt.Run("create surfaces store errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad", Name: "BadValue"}))
		mc := NewMongoFeatureController(mt.Coll)

		_, err := mc.Create(ctx, model.NewFeature(model.Point{Coordinates: orb.Point{1, 2}}, nil))
		if !errors.Is(err, ErrStoreUnavailable) {
			mt.Fatalf("expected ErrStoreUnavailable, got %v", err)
		}
	})

	mt.Run("list decodes documents", func(mt *mtest.T) {
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch,
			pointDocument(a, "a"), pointDocument(b, "b")))
		mc := NewMongoFeatureController(mt.Coll)

		features, err := mc.List(ctx)
		if err != nil {
			mt.Fatal(err)
		}
		if len(features) != 2 || features[0].ID != a.Hex() || features[1].Properties["name"] != "b" {
			mt.Fatalf("unexpected features %+v", features)
		}
		if p, ok := features[0].Geometry.(model.Point); !ok || p.Coordinates != (orb.Point{-9.04, 18.08}) {
			mt.Fatalf("unexpected geometry %+v", features[0].Geometry)
		}
	})

	mt.Run("list of nothing is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch))
		mc := NewMongoFeatureController(mt.Coll)

		if _, err := mc.List(ctx); !errors.Is(err, ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("get by malformed id", func(mt *mtest.T) {
		mc := NewMongoFeatureController(mt.Coll)

		if _, err := mc.GetById(ctx, "abc"); !errors.Is(err, ErrInvalidId) {
			mt.Fatalf("expected ErrInvalidId, got %v", err)
		}
	})

	mt.Run("get by unknown id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch))
		mc := NewMongoFeatureController(mt.Coll)

		if _, err := mc.GetById(ctx, primitive.NewObjectID().Hex()); !errors.Is(err, ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("get by id of an undecodable document", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		doc := pointDocument(id, "a")
		doc[2].Value = bson.D{{Key: "type", Value: "Circle"}, {Key: "coordinates", Value: bson.A{0, 0}}}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch, doc))
		mc := NewMongoFeatureController(mt.Coll)

		_, err := mc.GetById(ctx, id.Hex())
		if !errors.Is(err, ErrCorruptFeature) {
			mt.Fatalf("expected ErrCorruptFeature, got %v", err)
		}
		if model.IsValidationError(err) {
			mt.Fatalf("a stored document must not be reported as invalid input: %v", err)
		}
	})

	mt.Run("update re-reads the document", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch, pointDocument(id, "old")),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch, pointDocument(id, "Updated Feature")),
		)
		mc := NewMongoFeatureController(mt.Coll)

		updated, err := mc.Update(ctx, id.Hex(), model.UpdateFeature{Properties: map[string]string{"name": "Updated Feature"}})
		if err != nil {
			mt.Fatal(err)
		}
		if updated.Properties["name"] != "Updated Feature" {
			mt.Fatalf("unexpected properties %+v", updated.Properties)
		}
	})

	mt.Run("update with a vanished document", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch, pointDocument(id, "old")),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch),
		)
		mc := NewMongoFeatureController(mt.Coll)

		_, err := mc.Update(ctx, id.Hex(), model.UpdateFeature{Properties: map[string]string{}})
		if !errors.Is(err, ErrUpdateConflict) {
			mt.Fatalf("expected ErrUpdateConflict, got %v", err)
		}
	})

	mt.Run("delete", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch, pointDocument(id, "a")),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)
		mc := NewMongoFeatureController(mt.Coll)

		if err := mc.DeleteById(ctx, id.Hex()); err != nil {
			mt.Fatal(err)
		}
	})

	mt.Run("delete affecting no document", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch, pointDocument(id, "a")),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)
		mc := NewMongoFeatureController(mt.Coll)

		if err := mc.DeleteById(ctx, id.Hex()); !errors.Is(err, ErrDeleteConflict) {
			mt.Fatalf("expected ErrDeleteConflict, got %v", err)
		}
	})

	mt.Run("intersects", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch, pointDocument(id, "inside")))
		mc := NewMongoFeatureController(mt.Coll)

		features, err := mc.FindIntersecting(ctx, box(-20, 10, 0, 20))
		if err != nil {
			mt.Fatal(err)
		}
		if len(features) != 1 || features[0].ID != id.Hex() {
			mt.Fatalf("unexpected features %+v", features)
		}
	})
}

func TestDocumentRoundTrip(t *testing.T) {

	f := model.NewFeature(box(0, 0, 1, 1), map[string]string{"name": "box"})
	doc, err := toDocument(f)
	if err != nil {
		t.Fatal(err)
	}
	doc.ID = primitive.NewObjectID()

	data, err := bson.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	var decoded featureDocument
	if err := bson.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	back, err := fromDocument(decoded)
	if err != nil {
		t.Fatal(err)
	}
	if back.ID != doc.ID.Hex() || back.Properties["name"] != "box" {
		t.Fatalf("unexpected feature %+v", back)
	}
	if got := back.Geometry.(model.Polygon).Coordinates; !got.Equal(f.Geometry.(model.Polygon).Coordinates) {
		t.Fatalf("polygon changed: %v", got)
	}

	set, err := updateDocument(model.UpdateFeature{Properties: map[string]string{"a": "b"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := set["geometry"]; ok || len(set) != 1 {
		t.Fatalf("update document should only set properties: %v", set)
	}
}
