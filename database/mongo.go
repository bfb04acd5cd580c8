package database

import (
	"context"
	"time"

	"github.com/earthrise-media/featurestore/model"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// MongoFeatureController stores features as GeoJSON documents in a single
// collection with a 2dsphere index on "geometry".
type MongoFeatureController struct {
	collection *mongo.Collection
	client     *mongo.Client
}

// NewMongoFeatureController wraps an existing collection. The caller keeps
// ownership of the client.
func NewMongoFeatureController(collection *mongo.Collection) *MongoFeatureController {
	return &MongoFeatureController{collection: collection}
}

// ConnectMongo dials uri, pings the primary and returns a controller that
// owns the client.
func ConnectMongo(ctx context.Context, uri, database, collection string) (*MongoFeatureController, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "pinging mongodb")
	}

	return &MongoFeatureController{
		collection: client.Database(database).Collection(collection),
		client:     client,
	}, nil
}

// EnsureIndexes creates the geometry index. Creating an existing index is a no-op.
func (mc *MongoFeatureController) EnsureIndexes(ctx context.Context) error {
	name, err := mc.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "geometry", Value: "2dsphere"}},
	})
	if err != nil {
		return errors.Wrap(err, "creating geometry index")
	}
	zap.L().Info("geometry index ready", zap.String("index", name))
	return nil
}

func (mc *MongoFeatureController) Create(ctx context.Context, feature model.Feature) (model.Feature, error) {
	doc, err := toDocument(feature)
	if err != nil {
		return model.Feature{}, err
	}
	doc.ID = primitive.NewObjectID()

	if _, err := mc.collection.InsertOne(ctx, doc); err != nil {
		return model.Feature{}, storeError(err, "insert")
	}
	return fromDocument(doc)
}

func (mc *MongoFeatureController) List(ctx context.Context) ([]model.Feature, error) {
	return mc.find(ctx, bson.M{})
}

func (mc *MongoFeatureController) GetById(ctx context.Context, id string) (model.Feature, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return model.Feature{}, err
	}
	return mc.findOne(ctx, oid)
}

func (mc *MongoFeatureController) Update(ctx context.Context, id string, update model.UpdateFeature) (model.Feature, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return model.Feature{}, err
	}
	existing, err := mc.findOne(ctx, oid)
	if err != nil {
		return model.Feature{}, err
	}
	if update.IsEmpty() {
		return existing, nil
	}

	set, err := updateDocument(update)
	if err != nil {
		return model.Feature{}, err
	}
	result, err := mc.collection.UpdateByID(ctx, oid, bson.M{"$set": set})
	if err != nil {
		return model.Feature{}, storeError(err, "update")
	}
	if result.MatchedCount != 1 {
		return model.Feature{}, errors.Wrapf(ErrUpdateConflict, "update matched %d features", result.MatchedCount)
	}

	updated, err := mc.findOne(ctx, oid)
	if err != nil {
		return model.Feature{}, errors.Wrapf(ErrUpdateConflict, "re-reading %s: %v", id, err)
	}
	return updated, nil
}

func (mc *MongoFeatureController) DeleteById(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}
	if _, err := mc.findOne(ctx, oid); err != nil {
		return err
	}

	result, err := mc.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return storeError(err, "delete")
	}
	if result.DeletedCount != 1 {
		return errors.Wrapf(ErrDeleteConflict, "deleted %d features for id %s", result.DeletedCount, id)
	}
	return nil
}

func (mc *MongoFeatureController) FindIntersecting(ctx context.Context, polygon model.Polygon) ([]model.Feature, error) {
	geom, err := toGeometryDocument(polygon)
	if err != nil {
		return nil, err
	}
	return mc.find(ctx, bson.M{"geometry": bson.M{"$geoIntersects": bson.M{"$geometry": geom}}})
}

func (mc *MongoFeatureController) Ping(ctx context.Context) error {
	if err := mc.collection.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		return storeError(err, "ping")
	}
	return nil
}

func (mc *MongoFeatureController) Close() {
	if mc.client == nil {
		return
	}
	if err := mc.client.Disconnect(context.Background()); err != nil {
		zap.S().Warnf("error disconnecting from mongodb: %s", err.Error())
	}
}

func (mc *MongoFeatureController) findOne(ctx context.Context, oid primitive.ObjectID) (model.Feature, error) {
	var doc featureDocument
	err := mc.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Feature{}, errors.Wrapf(ErrNotFound, "id %s", oid.Hex())
		}
		return model.Feature{}, storeError(err, "find one")
	}
	f, err := fromDocument(doc)
	if err != nil {
		return model.Feature{}, corruptError(err, oid.Hex())
	}
	return f, nil
}

func (mc *MongoFeatureController) find(ctx context.Context, filter bson.M) ([]model.Feature, error) {
	cur, err := mc.collection.Find(ctx, filter)
	if err != nil {
		return nil, storeError(err, "find")
	}
	var docs []featureDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeError(err, "reading cursor")
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}

	features := make([]model.Feature, 0, len(docs))
	for _, doc := range docs {
		f, err := fromDocument(doc)
		if err != nil {
			zap.S().Warnf("skipping unreadable feature %s: %s", doc.ID.Hex(), err.Error())
			continue
		}
		features = append(features, f)
	}
	if len(features) == 0 {
		return nil, ErrNotFound
	}
	return features, nil
}
