// Package store holds the EventStore backends behind the events resource.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"events-api/internal/status"
	"events-api/models"
	"fmt"
	"net"
	"strings"

	"github.com/redis/go-redis/v9"
)

// EventStore persists events. Errors returned by implementations wrap
// status.ErrStoreUnavailable or status.ErrQueryFailure.
type EventStore interface {
	List(ctx context.Context) ([]models.Event, error)
	Create(ctx context.Context, event models.Event) error
}

// Pinger is implemented by stores that can report backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, status.ErrStoreUnavailable, err)
}

func queryFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, status.ErrQueryFailure, err)
}

// isConnError reports whether err means the backend could not be reached,
// as opposed to the backend rejecting the operation.
func isConnError(err error) bool {
	var netErr net.Error
	switch {
	case errors.Is(err, sql.ErrConnDone),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, redis.ErrClosed),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return true
	case errors.As(err, &netErr):
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}

func classify(op string, err error) error {
	if isConnError(err) {
		return unavailable(op, err)
	}
	return queryFailure(op, err)
}
