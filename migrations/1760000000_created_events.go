package migrations

import (
	"events-api/internal/store"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		return store.EnsureEventsCollection(app)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId(store.EventsCollection)
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
