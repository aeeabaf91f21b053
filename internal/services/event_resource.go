package services

import (
	"bytes"
	"context"
	"encoding/json"
	"events-api/internal/status"
	"events-api/internal/store"
	"events-api/models"
	"log/slog"
	"net/http"
)

const EventCreated = "Event Created!"

const codeInvalidBody = "invalid_request_body"

// Request is the transport-neutral input to the event resource.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

// Response carries a status code and either a string or a JSON-encodable body.
type Response struct {
	Status int
	Body   any
}

// ErrorBody is the JSON shape of every failure response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Notifier announces newly created events.
type Notifier interface {
	EventCreated(ctx context.Context, event models.Event) error
}

type EventResource struct {
	store    store.EventStore
	notifier Notifier
}

// NewEventResource wires the resource to a store. notifier may be nil.
func NewEventResource(eventStore store.EventStore, notifier Notifier) *EventResource {
	return &EventResource{
		store:    eventStore,
		notifier: notifier,
	}
}

// List returns every stored event in insertion order.
func (r *EventResource) List(ctx context.Context, req Request) Response {
	events, err := r.store.List(ctx)
	if err != nil {
		return r.failure(req, err)
	}
	if events == nil {
		events = []models.Event{}
	}
	return Response{Status: http.StatusOK, Body: events}
}

// Create decodes the body as an event and stores it. An empty body is
// treated as an empty object.
func (r *EventResource) Create(ctx context.Context, req Request) Response {
	body := req.Body
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	var event models.Event
	if err := json.Unmarshal(body, &event); err != nil {
		slog.Warn("Invalid event body", "method", req.Method, "path", req.Path, "error", err)
		return Response{
			Status: http.StatusBadRequest,
			Body:   ErrorBody{Error: err.Error(), Code: codeInvalidBody},
		}
	}

	if err := r.store.Create(ctx, event); err != nil {
		return r.failure(req, err)
	}

	if r.notifier != nil {
		if err := r.notifier.EventCreated(ctx, event); err != nil {
			slog.Error("Failed to announce event", "name", event.Name, "error", err)
		}
	}

	return Response{Status: http.StatusCreated, Body: EventCreated}
}

func (r *EventResource) failure(req Request, err error) Response {
	kind := status.KindOf(err)
	slog.Error("Event store call failed",
		"method", req.Method,
		"path", req.Path,
		"kind", kind,
		"error", err,
	)
	return Response{
		Status: http.StatusInternalServerError,
		Body:   ErrorBody{Error: err.Error(), Code: string(kind)},
	}
}
