package handler

import (
	"context"
	"time"

	"github.com/earthrise-media/featurestore/database"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

const pingTimeout = 2 * time.Second

type HealthHandler struct {
	Repository database.FeatureRepository
}

// Ok is the health check endpoint, it reports 503 when the store cannot be reached
func (hh *HealthHandler) Ok(ctx iris.Context) {

	pingCtx, cancel := context.WithTimeout(ctx.Request().Context(), pingTimeout)
	defer cancel()

	if err := hh.Repository.Ping(pingCtx); err != nil {
		zap.S().Warnf("health check failed: %s", err.Error())
		ctx.StatusCode(iris.StatusServiceUnavailable)
		ctx.JSON(map[string]string{"status": "unavailable"})
		return
	}
	ctx.JSON(map[string]string{"status": "ok"})
}

func Welcome(ctx iris.Context) {

	ctx.JSON(map[string]string{"message": "Welcome to Feature Store!"})
}
