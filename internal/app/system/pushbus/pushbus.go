// Package pushbus hands new notifications to the push delivery side.
//
// With Redis configured, each notification is published as JSON on the
// channel notify:<userID>. A Web Push gateway and the notification stream
// endpoint both subscribe to that channel. Without Redis the Noop sender
// drops everything.
package pushbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	channelPrefix  = "notify:"
	publishTimeout = 3 * time.Second
)

// Sender delivers a notification to push transports. One attempt, no retry.
type Sender interface {
	Push(ctx context.Context, n models.Notification) error
}

// Subscriber streams payloads published for one user.
type Subscriber interface {
	Subscribe(ctx context.Context, userID primitive.ObjectID) (<-chan []byte, func(), error)
}

// Event is the published payload.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Channel returns the pub/sub channel for a user.
func Channel(userID primitive.ObjectID) string {
	return channelPrefix + userID.Hex()
}

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, addr, password string, db int, log *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("redis connected", zap.String("addr", addr))
	return rdb, nil
}

// Redis publishes and subscribes through a go-redis client.
type Redis struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedis(client *redis.Client, log *zap.Logger) *Redis {
	return &Redis{client: client, log: log}
}

// Push publishes n on the recipient's channel.
func (r *Redis) Push(ctx context.Context, n models.Notification) error {
	body, err := json.Marshal(Event{
		ID:        n.ID.Hex(),
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return r.client.Publish(ctx, Channel(n.Recipient), body).Err()
}

// Subscribe returns a channel of raw payloads for userID and a function
// that ends the subscription. The returned channel closes when ctx ends or
// the stop function is called.
func (r *Redis) Subscribe(ctx context.Context, userID primitive.ObjectID) (<-chan []byte, func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	ps := r.client.Subscribe(ctx, Channel(userID))
	if _, err := ps.Receive(ctx); err != nil {
		cancel()
		_ = ps.Close()
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan []byte, 16)
	go func() {
		defer close(out)
		defer ps.Close()
		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				default:
					r.log.Debug("stream consumer slow, dropping push event",
						zap.String("user_id", userID.Hex()))
				}
			}
		}
	}()
	return out, cancel, nil
}

// Noop discards notifications.
type Noop struct{}

func (Noop) Push(context.Context, models.Notification) error { return nil }
