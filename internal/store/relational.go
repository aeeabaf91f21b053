package store

import (
	"context"
	"database/sql"
	"events-api/models"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pocketbase/dbx"
	_ "modernc.org/sqlite"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// The implicit id column only orders rows; it is never returned.
var schemas = map[string]string{
	DialectSQLite: `
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL DEFAULT '',
    "adultsOnly" BOOLEAN NOT NULL DEFAULT 0,
    attendees INTEGER NOT NULL DEFAULT 0,
    description TEXT NOT NULL DEFAULT ''
)`,
	DialectPostgres: `
CREATE TABLE IF NOT EXISTS events (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    "adultsOnly" BOOLEAN NOT NULL DEFAULT FALSE,
    attendees INTEGER NOT NULL DEFAULT 0,
    description TEXT NOT NULL DEFAULT ''
)`,
}

type eventRow struct {
	Name        string `db:"name"`
	AdultsOnly  bool   `db:"adultsOnly"`
	Attendees   int    `db:"attendees"`
	Description string `db:"description"`
}

func (eventRow) TableName() string {
	return "events"
}

// RelationalStore maps events onto the events table with dbx.
type RelationalStore struct {
	db      *dbx.DB
	dialect string
}

// OpenRelationalStore connects to databaseURL. postgres:// and postgresql://
// URLs go through pgx, anything else is handed to the sqlite driver.
func OpenRelationalStore(databaseURL string) (*RelationalStore, error) {
	dialect, driverName := DialectSQLite, "sqlite"
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		dialect, driverName = DialectPostgres, "pgx"
	}

	sqlDB, err := sql.Open(driverName, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	// sqlite allows a single writer; in-memory databases also vanish per connection.
	if dialect == DialectSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	return NewRelationalStore(sqlDB, dialect), nil
}

func NewRelationalStore(sqlDB *sql.DB, dialect string) *RelationalStore {
	return &RelationalStore{
		db:      dbx.NewFromDB(sqlDB, dialect),
		dialect: dialect,
	}
}

// EnsureSchema creates the events table when it does not exist yet.
func (s *RelationalStore) EnsureSchema(ctx context.Context) error {
	schema, ok := schemas[s.dialect]
	if !ok {
		return fmt.Errorf("ensure schema: unsupported dialect %q", s.dialect)
	}

	if _, err := s.db.WithContext(ctx).NewQuery(schema).Execute(); err != nil {
		return classify("ensure schema", err)
	}
	return nil
}

func (s *RelationalStore) List(ctx context.Context) ([]models.Event, error) {
	var rows []eventRow
	err := s.db.WithContext(ctx).
		Select("name", "adultsOnly", "attendees", "description").
		From("events").
		OrderBy("id").
		All(&rows)
	if err != nil {
		return nil, classify("list events", err)
	}

	events := make([]models.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, models.Event{
			Name:        row.Name,
			AdultsOnly:  row.AdultsOnly,
			Attendees:   row.Attendees,
			Description: row.Description,
		})
	}
	return events, nil
}

// Create inserts the four table columns; organizers and any extra fields are
// not part of the table and are dropped.
func (s *RelationalStore) Create(ctx context.Context, event models.Event) error {
	core := event.Core()
	row := eventRow{
		Name:        core.Name,
		AdultsOnly:  core.AdultsOnly,
		Attendees:   core.Attendees,
		Description: core.Description,
	}

	if err := s.db.WithContext(ctx).Model(&row).Insert(); err != nil {
		return classify("create event", err)
	}
	return nil
}

func (s *RelationalStore) Ping(ctx context.Context) error {
	if err := s.db.DB().PingContext(ctx); err != nil {
		return classify("ping relational store", err)
	}
	return nil
}

func (s *RelationalStore) Close() error {
	return s.db.Close()
}
