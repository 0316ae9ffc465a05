package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
)

// Message is one payload received on a channel.
type Message struct {
	Channel string
	Payload string
}

// Decode unmarshals a JSON payload into v.
func (m Message) Decode(v interface{}) error {
	if err := json.Unmarshal([]byte(m.Payload), v); err != nil {
		return fmt.Errorf("decode message on %s: %w", m.Channel, err)
	}
	return nil
}

// Publisher is what the agent needs: fire-and-forget delivery of events.
type Publisher interface {
	Publish(ctx context.Context, channel string, message string) error
	Close() error
}

// Subscriber is what watchers need.
type Subscriber interface {
	// Subscribe delivers messages until ctx is done or Close is called, then
	// closes the returned channel.
	Subscribe(ctx context.Context, channels ...string) (<-chan Message, error)
	Unsubscribe(ctx context.Context, channels ...string) error
	Close() error
}

type PubSub interface {
	Publisher
	Subscriber
}

// DispatchChannel is the channel dispatch events for host are published on.
// Hosts never share a channel, so a watcher sees one VM's runs only.
func DispatchChannel(host string) string {
	return "mcs:dispatch:" + host
}

// PublishJSON marshals v and publishes it on channel.
func PublishJSON(ctx context.Context, p Publisher, channel string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message for %s: %w", channel, err)
	}
	return p.Publish(ctx, channel, string(payload))
}
