package handler

import (
	"time"

	"github.com/earthrise-media/featurestore/metrics"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// RequestLogger logs every request and records it in the collector
func RequestLogger(collector *metrics.Collector) iris.Handler {

	return func(ctx iris.Context) {
		start := time.Now()
		ctx.Next()
		elapsed := time.Since(start)

		route := ctx.Path()
		if r := ctx.GetCurrentRoute(); r != nil {
			route = r.Path()
		}
		status := ctx.GetStatusCode()

		collector.ObserveRequest(ctx.Method(), route, status, elapsed)
		zap.L().Info("request",
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Int("status", status),
			zap.Duration("duration", elapsed))
	}
}
