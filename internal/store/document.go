package store

import (
	"context"
	"encoding/json"
	"events-api/models"
	"events-api/utils"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultDocumentDatabase = "database"

// DocumentStore keeps every event as a JSON document in a Redis list, so
// fields outside the Event shape are persisted as sent.
type DocumentStore struct {
	Redis *redis.Client
	key   string
}

func NewDocumentStore(redisClient *redis.Client, database string) *DocumentStore {
	if database == "" {
		database = DefaultDocumentDatabase
	}

	return &DocumentStore{
		Redis: redisClient,
		key:   fmt.Sprintf("%s:events", database),
	}
}

func (s *DocumentStore) List(ctx context.Context) ([]models.Event, error) {
	docs, err := s.Redis.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, classify("list events", err)
	}

	events := make([]models.Event, 0, len(docs))
	for i, doc := range docs {
		var event models.Event
		if err := json.Unmarshal([]byte(doc), &event); err != nil {
			return nil, queryFailure(fmt.Sprintf("decode event %d", i), err)
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *DocumentStore) Create(ctx context.Context, event models.Event) error {
	doc, err := json.Marshal(event)
	if err != nil {
		return queryFailure("encode event", err)
	}

	if err := s.Redis.RPush(ctx, s.key, string(doc)).Err(); err != nil {
		return classify("create event", err)
	}
	return nil
}

func (s *DocumentStore) Ping(ctx context.Context) error {
	if err := utils.RedisHealthCheck(ctx, s.Redis); err != nil {
		return unavailable("ping document store", err)
	}
	return nil
}
