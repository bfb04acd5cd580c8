package database

import (
	"context"
	"strconv"
	"strings"

	"github.com/earthrise-media/featurestore/model"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// PostgisFeatureController keeps features in a PostGIS table. Ids are
// generated ObjectID hex strings so clients see the same id format as with
// MongoDB.
type PostgisFeatureController struct {
	db *pgxpool.Pool
}

func NewPostgisFeatureController(db *pgxpool.Pool) *PostgisFeatureController {
	return &PostgisFeatureController{db: db}
}

const selectFeatures = "SELECT id, type, props, ST_AsBinary(geom) FROM features"

//Create inserts a feature and returns it with its new id
func (pc *PostgisFeatureController) Create(ctx context.Context, feature model.Feature) (model.Feature, error) {
	if err := model.Validate(feature.Geometry); err != nil {
		return model.Feature{}, err
	}
	if feature.Type == "" {
		feature.Type = model.TypeFeature
	}

	sql := "INSERT INTO features(id, type, props, geom) VALUES($1, $2, $3, ST_GeomFromText($4, 4326))"
	id := primitive.NewObjectID().Hex()
	_, err := pc.db.Exec(ctx, sql, id, string(feature.Type), toHstore(feature.Properties), wkt.MarshalString(feature.Geometry.Orb()))
	if err != nil {
		zap.S().Errorf("error adding feature: %s", err.Error())
		return model.Feature{}, storeError(err, "insert")
	}
	feature.ID = id
	if feature.Properties == nil {
		feature.Properties = map[string]string{}
	}
	return feature, nil
}

//List returns every stored feature
func (pc *PostgisFeatureController) List(ctx context.Context) ([]model.Feature, error) {
	rows, err := pc.db.Query(ctx, selectFeatures)
	if err != nil {
		return nil, storeError(err, "select")
	}
	defer rows.Close()
	return scanToFeatures(rows)
}

//GetById returns a single feature based on the feature id
func (pc *PostgisFeatureController) GetById(ctx context.Context, id string) (model.Feature, error) {
	if _, err := parseObjectID(id); err != nil {
		return model.Feature{}, err
	}
	row := pc.db.QueryRow(ctx, selectFeatures+" WHERE id = $1", id)
	return scanToFeature(row, id)
}

//Update applies the present fields of update and re-reads the row
func (pc *PostgisFeatureController) Update(ctx context.Context, id string, update model.UpdateFeature) (model.Feature, error) {
	existing, err := pc.GetById(ctx, id)
	if err != nil {
		return model.Feature{}, err
	}
	if update.IsEmpty() {
		return existing, nil
	}

	sql, args := updateStatement(id, update)
	tag, err := pc.db.Exec(ctx, sql, args...)
	if err != nil {
		return model.Feature{}, storeError(err, "update")
	}
	if tag.RowsAffected() != 1 {
		return model.Feature{}, errors.Wrapf(ErrUpdateConflict, "update affected %d rows", tag.RowsAffected())
	}

	updated, err := pc.GetById(ctx, id)
	if err != nil {
		return model.Feature{}, errors.Wrapf(ErrUpdateConflict, "re-reading %s: %v", id, err)
	}
	return updated, nil
}

//DeleteById deletes a single feature based on id
func (pc *PostgisFeatureController) DeleteById(ctx context.Context, id string) error {
	if _, err := pc.GetById(ctx, id); err != nil {
		return err
	}
	tag, err := pc.db.Exec(ctx, "DELETE FROM features WHERE id = $1", id)
	if err != nil {
		return storeError(err, "delete")
	}
	if tag.RowsAffected() != 1 {
		return errors.Wrapf(ErrDeleteConflict, "deleted %d rows for id %s", tag.RowsAffected(), id)
	}
	zap.S().Infof("deleted feature %s", id)
	return nil
}

//FindIntersecting returns the features sharing at least one point with polygon, on the sphere
func (pc *PostgisFeatureController) FindIntersecting(ctx context.Context, polygon model.Polygon) ([]model.Feature, error) {
	sql := selectFeatures + " WHERE ST_Intersects(geom::geography, ST_GeomFromText($1, 4326)::geography)"
	rows, err := pc.db.Query(ctx, sql, wkt.MarshalString(polygon.Coordinates))
	if err != nil {
		zap.L().Error(err.Error())
		return nil, storeError(err, "intersects")
	}
	defer rows.Close()
	return scanToFeatures(rows)
}

func (pc *PostgisFeatureController) Ping(ctx context.Context) error {
	if err := pc.db.Ping(ctx); err != nil {
		return storeError(err, "ping")
	}
	return nil
}

func (pc *PostgisFeatureController) Close() {
	pc.db.Close()
}

// updateStatement builds an UPDATE touching only the fields present in update.
func updateStatement(id string, update model.UpdateFeature) (string, []interface{}) {
	var sets []string
	var args []interface{}
	next := func(expr string, arg interface{}) {
		args = append(args, arg)
		sets = append(sets, strings.Replace(expr, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if update.Type != nil {
		next("type = ?", string(*update.Type))
	}
	if update.Geometry != nil {
		next("geom = ST_GeomFromText(?, 4326)", wkt.MarshalString(update.Geometry.Orb()))
	}
	if update.Properties != nil {
		next("props = ?", toHstore(update.Properties))
	}

	args = append(args, id)
	sql := "UPDATE features SET " + strings.Join(sets, ", ") + " WHERE id = $" + strconv.Itoa(len(args))
	return sql, args
}

func toHstore(props map[string]string) pgtype.Hstore {
	store := pgtype.Hstore{}
	if props == nil {
		props = map[string]string{}
	}
	store.Set(props)
	return store
}

//scanToFeature scans a single row into a Feature
func scanToFeature(row pgx.Row, id string) (model.Feature, error) {
	f, err := scanFeature(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Feature{}, errors.Wrapf(ErrNotFound, "id %s", id)
		}
		if model.IsValidationError(err) {
			return model.Feature{}, corruptError(err, id)
		}
		return model.Feature{}, storeError(err, "scan")
	}
	return f, nil
}

//scanToFeatures does all the nasty geometry stuff
func scanToFeatures(rows pgx.Rows) ([]model.Feature, error) {

	var features []model.Feature
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			zap.S().Warnf("error scanning row: %s", err.Error())
			continue
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "reading rows")
	}
	if len(features) == 0 {
		return nil, ErrNotFound
	}
	return features, nil
}

func scanFeature(row pgx.Row) (model.Feature, error) {
	var id, featureType string
	var props pgtype.Hstore
	var geom []byte
	if err := row.Scan(&id, &featureType, &props, &geom); err != nil {
		return model.Feature{}, err
	}

	scanner := wkb.Scanner(nil)
	if err := scanner.Scan(geom); err != nil {
		return model.Feature{}, errors.Wrapf(model.ErrInvalidGeometry, "decoding geometry of %s: %v", id, err)
	}
	g, err := model.FromOrb(scanner.Geometry)
	if err != nil {
		return model.Feature{}, err
	}
	t, err := model.ParseGeoJSONType(featureType)
	if err != nil {
		return model.Feature{}, err
	}

	f := model.Feature{
		ID:         strings.TrimSpace(id),
		Type:       t,
		Geometry:   g,
		Properties: make(map[string]string, len(props.Map)),
	}
	for k, v := range props.Map {
		f.Properties[k] = v.String
	}
	return f, nil
}
