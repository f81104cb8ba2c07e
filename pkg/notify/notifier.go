package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Notifier delivers fire-and-forget messages to an admin channel. Delivery is
// best effort; callers must not treat a failed notification as fatal.
type Notifier interface {
	Notify(ctx context.Context, channel, message string) error
}

// Message is the payload published to the admin channel.
type Message struct {
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// RedisNotifier publishes admin notifications on a Redis pub/sub channel the
// admin panel subscribes to.
type RedisNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisNotifier constructs a notifier backed by the given client.
func NewRedisNotifier(client *redis.Client, logger *zap.Logger) *RedisNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisNotifier{client: client, logger: logger}
}

// Notify publishes the message. Errors are returned for logging only.
func (n *RedisNotifier) Notify(ctx context.Context, channel, message string) error {
	if n.client == nil {
		return nil
	}
	payload, err := json.Marshal(Message{
		Text:      message,
		Source:    "moderation",
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, channel, payload).Err(); err != nil {
		n.logger.Warn("admin notification publish failed",
			zap.String("channel", channel), zap.Error(err))
		return err
	}
	return nil
}

// Nop is a Notifier that discards everything. Used in tests and when Redis is
// not configured.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, string, string) error { return nil }
