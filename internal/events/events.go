// Package events publishes account lifecycle events to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/postboard/apiserver/config"
	"github.com/postboard/apiserver/types"
)

// ChannelUserSignedUp carries one UserSignedUpEvent per new account.
const ChannelUserSignedUp = "user.signed_up"

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// UserSignedUpEvent is the payload published on ChannelUserSignedUp.
type UserSignedUpEvent struct {
	UserID     string    `json:"userId"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Events wraps a backend with typed publish helpers.
type Events struct {
	backend Backend
}

// New constructs an Events wrapper for the provided backend.
func New(backend Backend) *Events {
	return &Events{backend: backend}
}

// Open connects the backend selected by cfg.Backend. With no backend
// configured, events are dropped.
func Open(ctx context.Context, cfg config.EventsConfig) (*Events, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return New(nopBackend{}), nil
	case "rabbitmq":
		client, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return New(client), nil
	case "pubsub":
		client, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return New(client), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// UserSignedUp publishes a UserSignedUpEvent for user.
func (e *Events) UserSignedUp(ctx context.Context, user types.User) error {
	data, err := json.Marshal(UserSignedUpEvent{
		UserID:     user.ID,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = e.backend.Publish(ctx, ChannelUserSignedUp, data, map[string]string{
		"content-type": "application/json",
	})
	return err
}

// WatchSignups delivers decoded signup events to fn until ctx is done.
func (e *Events) WatchSignups(ctx context.Context, fn func(UserSignedUpEvent) error) error {
	return e.backend.Subscribe(ctx, ChannelUserSignedUp, func(ctx context.Context, msg Message) error {
		var event UserSignedUpEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			// A malformed payload will never decode; ack it.
			return nil
		}
		return fn(event)
	})
}

// Close closes the underlying backend.
func (e *Events) Close() error {
	return e.backend.Close()
}

type nopBackend struct{}

func (nopBackend) Publish(context.Context, string, []byte, map[string]string) (string, error) {
	return "", nil
}

func (nopBackend) Subscribe(ctx context.Context, _ string, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (nopBackend) Close() error { return nil }
