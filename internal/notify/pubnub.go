// Package notify pushes event announcements to subscribers.
package notify

import (
	"context"
	"events-api/models"
	"fmt"

	pubnub "github.com/pubnub/go"
)

const DefaultChannel = "events"

type PubNubConfig struct {
	PublishKey   string
	SubscribeKey string
	SecretKey    string
	Channel      string
}

// PubNubNotifier publishes an event_created message for every stored event.
type PubNubNotifier struct {
	pubnub  *pubnub.PubNub
	channel string
	publish func(channel string, message any) error
}

func NewPubNubNotifier(cfg PubNubConfig) *PubNubNotifier {
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PublishKey
	pnConfig.SubscribeKey = cfg.SubscribeKey
	pnConfig.SecretKey = cfg.SecretKey

	n := &PubNubNotifier{
		pubnub:  pubnub.NewPubNub(pnConfig),
		channel: cfg.Channel,
	}
	if n.channel == "" {
		n.channel = DefaultChannel
	}
	n.publish = n.execute
	return n
}

func (n *PubNubNotifier) Channel() string {
	return n.channel
}

func (n *PubNubNotifier) EventCreated(ctx context.Context, event models.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.publish(n.channel, createdMessage(event)); err != nil {
		return fmt.Errorf("publish to %s: %w", n.channel, err)
	}
	return nil
}

func (n *PubNubNotifier) execute(channel string, message any) error {
	_, _, err := n.pubnub.Publish().
		Channel(channel).
		Message(message).
		Execute()
	return err
}

func createdMessage(event models.Event) map[string]any {
	message := make(map[string]any, len(event.Extra)+6)
	for k, v := range event.Extra {
		message[k] = v
	}
	message["type"] = "event_created"
	message["name"] = event.Name
	message["adultsOnly"] = event.AdultsOnly
	message["attendees"] = event.Attendees
	message["description"] = event.Description
	if event.Organizers != "" {
		message["organizers"] = event.Organizers
	}
	return message
}
