package store

import (
	"context"
	"database/sql"
	"errors"
	"events-api/models"

	"github.com/pocketbase/pocketbase/core"
)

const EventsCollection = "events"

// NewEventsCollection describes the events collection. The field set is
// closed, so extra request fields are not stored.
func NewEventsCollection() *core.Collection {
	collection := core.NewBaseCollection(EventsCollection)
	collection.Fields.Add(
		&core.TextField{Name: "name"},
		&core.BoolField{Name: "adultsOnly"},
		&core.NumberField{Name: "attendees", OnlyInt: true},
		&core.TextField{Name: "description"},
		&core.TextField{Name: "organizers"},
		&core.AutodateField{Name: "created", OnCreate: true},
	)
	return collection
}

// EnsureEventsCollection saves the events collection unless it already exists.
func EnsureEventsCollection(app core.App) error {
	_, err := app.FindCollectionByNameOrId(EventsCollection)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return classify("find events collection", err)
	}

	if err := app.Save(NewEventsCollection()); err != nil {
		return queryFailure("save events collection", err)
	}
	return nil
}

// CollectionStore keeps events as records of a PocketBase collection.
type CollectionStore struct {
	app core.App
}

// NewCollectionStore expects a bootstrapped app whose system migrations are
// registered (by importing github.com/pocketbase/pocketbase/migrations) and
// applied.
func NewCollectionStore(app core.App) (*CollectionStore, error) {
	if err := EnsureEventsCollection(app); err != nil {
		return nil, err
	}
	return &CollectionStore{app: app}, nil
}

func (s *CollectionStore) List(ctx context.Context) ([]models.Event, error) {
	records := []*core.Record{}
	err := s.app.RecordQuery(EventsCollection).WithContext(ctx).All(&records)
	if err != nil {
		return nil, classify("list events", err)
	}

	events := make([]models.Event, 0, len(records))
	for _, record := range records {
		events = append(events, models.Event{
			Name:        record.GetString("name"),
			AdultsOnly:  record.GetBool("adultsOnly"),
			Attendees:   record.GetInt("attendees"),
			Description: record.GetString("description"),
			Organizers:  record.GetString("organizers"),
		})
	}
	return events, nil
}

func (s *CollectionStore) Create(ctx context.Context, event models.Event) error {
	collection, err := s.app.FindCachedCollectionByNameOrId(EventsCollection)
	if err != nil {
		return classify("find events collection", err)
	}

	record := core.NewRecord(collection)
	record.Set("name", event.Name)
	record.Set("adultsOnly", event.AdultsOnly)
	record.Set("attendees", event.Attendees)
	record.Set("description", event.Description)
	record.Set("organizers", event.Organizers)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return classify("create event", err)
	}
	return nil
}

func (s *CollectionStore) Ping(ctx context.Context) error {
	if _, err := s.app.DB().NewQuery("SELECT 1").WithContext(ctx).Execute(); err != nil {
		return unavailable("ping collection store", err)
	}
	return nil
}
