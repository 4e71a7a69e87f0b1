package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Health reports liveness with a plain "ok".
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Metrics serves the Prometheus exposition format from the default registry.
var Metrics = echo.WrapHandler(promhttp.Handler())
