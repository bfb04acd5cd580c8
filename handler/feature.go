package handler

import (
	"io"

	"github.com/earthrise-media/featurestore/database"
	"github.com/earthrise-media/featurestore/encoding"
	"github.com/earthrise-media/featurestore/metrics"
	"github.com/earthrise-media/featurestore/model"
	"github.com/kataras/iris/v12"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	noFeaturesFound = "No features found!"

	// rejected before any repository call
	kindValidation = "validation"
)

type FeatureHandler struct {
	Repository database.FeatureRepository
	Metrics    *metrics.Collector
}

// CreateFeature stores a single feature and echoes it back with its new _id
func (fh *FeatureHandler) CreateFeature(ctx iris.Context) {

	body, err := readBody(ctx)
	if err != nil {
		fh.problem(ctx, err, "")
		return
	}
	feature, err := model.ParseFeature(body)
	if err != nil {
		fh.problem(ctx, err, "")
		return
	}

	created, err := fh.Repository.Create(ctx.Request().Context(), feature)
	if err != nil {
		fh.problem(ctx, err, "")
		return
	}
	ctx.JSON(created)
}

// CreateFeatures stores every feature of a FeatureCollection in order
func (fh *FeatureHandler) CreateFeatures(ctx iris.Context) {

	body, err := readBody(ctx)
	if err != nil {
		fh.problem(ctx, err, "")
		return
	}
	fc, err := model.ParseFeatureCollection(body)
	if err != nil {
		fh.problem(ctx, err, "")
		return
	}

	created := make([]model.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		c, err := fh.Repository.Create(ctx.Request().Context(), f)
		if err != nil {
			zap.S().Errorf("bulk insert stopped after %d of %d features", len(created), len(fc.Features))
			fh.problem(ctx, err, "")
			return
		}
		created = append(created, c)
	}
	ctx.JSON(model.NewFeatureCollection(created...))
}

func (fh *FeatureHandler) GetFeatures(ctx iris.Context) {

	features, err := fh.Repository.List(ctx.Request().Context())
	if err != nil {
		fh.problem(ctx, err, "")
		return
	}
	ctx.JSON(features)
}

func (fh *FeatureHandler) GetFeatureById(ctx iris.Context) {

	id := ctx.Params().Get("id")
	feature, err := fh.Repository.GetById(ctx.Request().Context(), id)
	if err != nil {
		fh.problem(ctx, err, id)
		return
	}
	ctx.JSON(feature)
}

// UpdateFeature merges the fields present in the body into the stored feature
func (fh *FeatureHandler) UpdateFeature(ctx iris.Context) {

	id := ctx.Params().Get("id")
	body, err := readBody(ctx)
	if err != nil {
		fh.problem(ctx, err, id)
		return
	}
	update, err := model.ParseUpdateFeature(body)
	if err != nil {
		fh.problem(ctx, err, id)
		return
	}

	feature, err := fh.Repository.Update(ctx.Request().Context(), id, update)
	if err != nil {
		fh.problem(ctx, err, id)
		return
	}
	ctx.JSON(feature)
}

func (fh *FeatureHandler) DeleteFeature(ctx iris.Context) {

	id := ctx.Params().Get("id")
	if err := fh.Repository.DeleteById(ctx.Request().Context(), id); err != nil {
		fh.problem(ctx, err, id)
		return
	}
	ctx.JSON(iris.Map{"message": "Feature id: " + id + " deleted!"})
}

// IntersectFeatures returns every feature whose geometry intersects the posted polygon
func (fh *FeatureHandler) IntersectFeatures(ctx iris.Context) {

	body, err := readBody(ctx)
	if err != nil {
		fh.problem(ctx, err, "")
		return
	}
	polygon, err := model.ParsePolygon(body)
	if err != nil {
		fh.problem(ctx, err, "")
		return
	}
	fh.intersecting(ctx, polygon)
}

// IntersectBbox is IntersectFeatures for a bbox=minlon,minlat,maxlon,maxlat query
func (fh *FeatureHandler) IntersectBbox(ctx iris.Context) {

	polygon, err := encoding.BboxPolygon(ctx.URLParam("bbox"))
	if err != nil {
		fh.problem(ctx, err, "")
		return
	}
	fh.intersecting(ctx, polygon)
}

func (fh *FeatureHandler) intersecting(ctx iris.Context, polygon model.Polygon) {

	features, err := fh.Repository.FindIntersecting(ctx.Request().Context(), polygon)
	if err != nil {
		fh.problem(ctx, err, "")
		return
	}
	ctx.JSON(features)
}

// problem writes the {"detail": ...} response for err. id is the feature the
// request addressed, empty for collection routes.
func (fh *FeatureHandler) problem(ctx iris.Context, err error, id string) {

	status, kind, detail := describe(err, id)
	if kind != kindValidation {
		fh.Metrics.RepositoryError(kind)
	}
	if status >= iris.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Error(err))
	} else {
		zap.L().Debug("request rejected", zap.String("path", ctx.Path()), zap.Error(err))
	}

	ctx.StatusCode(status)
	ctx.JSON(iris.Map{"detail": detail})
}

func describe(err error, id string) (status int, kind, detail string) {

	switch {
	case model.IsValidationError(err):
		return iris.StatusUnprocessableEntity, kindValidation, err.Error()
	case errors.Is(err, database.ErrInvalidId):
		return iris.StatusUnprocessableEntity, "invalid_id", "Invalid feature id: " + id
	case errors.Is(err, database.ErrNotFound):
		if id == "" {
			return iris.StatusNotFound, "not_found", noFeaturesFound
		}
		return iris.StatusNotFound, "not_found", "Feature id: " + id + " not found!"
	case errors.Is(err, database.ErrUpdateConflict):
		return iris.StatusInternalServerError, "update_conflict", "Feature id: " + id + " could not be updated!"
	case errors.Is(err, database.ErrDeleteConflict):
		return iris.StatusInternalServerError, "delete_conflict", "Feature id: " + id + " could not be deleted!"
	case errors.Is(err, database.ErrCorruptFeature):
		return iris.StatusInternalServerError, "corrupt_feature", "Feature id: " + id + " could not be read!"
	case errors.Is(err, database.ErrStoreUnavailable):
		return iris.StatusServiceUnavailable, "store_unavailable", "Feature store unavailable!"
	default:
		return iris.StatusInternalServerError, "internal", "Internal server error"
	}
}

func readBody(ctx iris.Context) ([]byte, error) {
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return nil, errors.Wrap(model.ErrInvalidDocument, err.Error())
	}
	return body, nil
}
