package handlers

import (
	"context"
	"events-api/internal/services"
	"events-api/internal/store"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
)

type EventHandler struct {
	resource *services.EventResource
}

func NewEventHandler(resource *services.EventResource) *EventHandler {
	return &EventHandler{resource: resource}
}

// GetEvents - List every stored event
func (h *EventHandler) GetEvents(c echo.Context) error {
	req := c.Request()
	resp := h.resource.List(req.Context(), services.Request{
		Method: req.Method,
		Path:   req.URL.Path,
	})
	return write(c, resp)
}

// PostEvent - Store the event in the request body
func (h *EventHandler) PostEvent(c echo.Context) error {
	req := c.Request()
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, services.ErrorBody{
			Error: err.Error(),
			Code:  "invalid_request_body",
		})
	}

	resp := h.resource.Create(req.Context(), services.Request{
		Method: req.Method,
		Path:   req.URL.Path,
		Body:   body,
	})
	return write(c, resp)
}

func write(c echo.Context, resp services.Response) error {
	if text, ok := resp.Body.(string); ok {
		return c.String(resp.Status, text)
	}
	return c.JSON(resp.Status, resp.Body)
}

type HealthHandler struct {
	backend string
	store   store.EventStore
}

func NewHealthHandler(backend string, eventStore store.EventStore) *HealthHandler {
	return &HealthHandler{backend: backend, store: eventStore}
}

// Health check
func (h *HealthHandler) Health(c echo.Context) error {
	if pinger, ok := h.store.(store.Pinger); ok {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		if err := pinger.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"backend": h.backend,
	})
}
