package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/anonto42/nano-feed/backend/pkg/response"
	"github.com/labstack/echo/v4"
)

// Pinger reports connectivity per named store. *config.DB implements it.
type Pinger interface {
	Ping(ctx context.Context) map[string]error
}

// HealthHandler reports service and store health.
type HealthHandler struct {
	pinger  Pinger
	service string
}

func NewHealthHandler(pinger Pinger, service string) *HealthHandler {
	return &HealthHandler{pinger: pinger, service: service}
}

func (h *HealthHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	stores := map[string]string{}
	healthy := true
	if h.pinger != nil {
		for name, err := range h.pinger.Ping(ctx) {
			if err != nil {
				stores[name] = "down"
				healthy = false
				continue
			}
			stores[name] = "up"
		}
	}

	data := map[string]any{"service": h.service, "stores": stores}
	if !healthy {
		return response.Error(c, http.StatusServiceUnavailable, "unhealthy", data)
	}
	return response.OK(c, "healthy", data)
}
