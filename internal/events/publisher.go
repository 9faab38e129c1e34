package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher pushes events onto Redis pub/sub channels. Delivery is
// fire-and-forget: a client that is not subscribed misses the event.
type Publisher struct {
	client *redis.Client
	now    func() time.Time
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client, now: time.Now}
}

// Publish sends one event to channel and returns the number of receivers.
func (p *Publisher) Publish(ctx context.Context, channel string, typ Type, data interface{}) (int64, error) {
	payload, err := json.Marshal(Event{Type: typ, Data: data, Timestamp: p.now().UTC()})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal %s event: %w", typ, err)
	}

	n, err := p.client.Publish(ctx, channel, payload).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to publish %s event: %w", typ, err)
	}
	return n, nil
}

func (p *Publisher) ToConnection(ctx context.Context, connID string, typ Type, data interface{}) error {
	_, err := p.Publish(ctx, ConnectionChannel(connID), typ, data)
	return err
}

func (p *Publisher) ToUser(ctx context.Context, userID int64, typ Type, data interface{}) error {
	_, err := p.Publish(ctx, UserChannel(userID), typ, data)
	return err
}
