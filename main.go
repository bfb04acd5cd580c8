package main

import (
	"github.com/earthrise-media/featurestore/config"
	"github.com/earthrise-media/featurestore/database"
	"github.com/earthrise-media/featurestore/handler"
	"github.com/earthrise-media/featurestore/metrics"
	"github.com/kataras/iris/v12"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {

	config.Preflight()
	defer config.Store.Close()

	collector, err := metrics.NewCollector(nil)
	if err != nil {
		zap.L().Fatal("unable to register metrics", zap.Error(err))
	}

	app := featureApi(config.Store, collector)
	if err := app.Listen(":" + viper.GetString("PORT")); err != nil {
		zap.L().Error("server stopped", zap.Error(err))
	}
}

func featureApi(store database.FeatureRepository, collector *metrics.Collector) *iris.Application {

	app := iris.New()
	app.UseGlobal(handler.RequestLogger(collector))

	app.Get("/", handler.Welcome)

	//healthcheck endpoint
	hh := handler.HealthHandler{Repository: store}
	app.Get("/healthz", hh.Ok)
	app.Get("/health", hh.Ok)

	app.Get("/metrics", iris.FromStd(collector.Handler()))

	//feature endpoint
	fh := handler.FeatureHandler{Repository: store, Metrics: collector}
	featureEndpoint := app.Party("/features")
	{
		featureEndpoint.Post("/", fh.CreateFeature)
		featureEndpoint.Get("/", fh.GetFeatures)
		featureEndpoint.Post("/bulk", fh.CreateFeatures)
		featureEndpoint.Post("/geospatial/intersects", fh.IntersectFeatures)
		featureEndpoint.Get("/geospatial/intersects", fh.IntersectBbox)
		featureEndpoint.Get("/{id}", fh.GetFeatureById)
		featureEndpoint.Put("/{id}", fh.UpdateFeature)
		featureEndpoint.Delete("/{id}", fh.DeleteFeature)
	}
	return app
}
