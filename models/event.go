package models

import (
	"encoding/json"
	"fmt"
)

// Event is the only record the API stores. Members of the JSON object that
// are not one of the known fields are kept in Extra so that tolerant
// backends can persist them verbatim.
type Event struct {
	Name        string                     `json:"name"`
	AdultsOnly  bool                       `json:"adultsOnly"`
	Attendees   int                        `json:"attendees"`
	Description string                     `json:"description"`
	Organizers  string                     `json:"organizers,omitempty"`
	Extra       map[string]json.RawMessage `json:"-"`
}

var knownFields = []string{"name", "adultsOnly", "attendees", "description", "organizers"}

func (e Event) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(e.Extra)+len(knownFields))
	for k, v := range e.Extra {
		doc[k] = v
	}

	doc["name"] = e.Name
	doc["adultsOnly"] = e.AdultsOnly
	doc["attendees"] = e.Attendees
	doc["description"] = e.Description
	if e.Organizers != "" {
		doc["organizers"] = e.Organizers
	} else {
		delete(doc, "organizers")
	}

	return json.Marshal(doc)
}

// UnmarshalJSON matches known fields by exact key. Every other member is kept
// as raw JSON, so numbers and nested values survive untouched.
func (e *Event) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	var event Event
	targets := map[string]any{
		"name":        &event.Name,
		"adultsOnly":  &event.AdultsOnly,
		"attendees":   &event.Attendees,
		"description": &event.Description,
		"organizers":  &event.Organizers,
	}
	for key, target := range targets {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return fmt.Errorf("event field %q: %w", key, err)
		}
		delete(doc, key)
	}

	if len(doc) > 0 {
		event.Extra = doc
	}
	*e = event
	return nil
}

// Core returns a copy holding only the four fields every backend stores.
func (e Event) Core() Event {
	return Event{
		Name:        e.Name,
		AdultsOnly:  e.AdultsOnly,
		Attendees:   e.Attendees,
		Description: e.Description,
	}
}
