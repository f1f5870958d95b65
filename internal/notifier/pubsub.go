package notifier

import (
	"context"
	"fmt"

	"gocloud.dev/pubsub"
	_ "gocloud.dev/pubsub/awssnssqs"
	_ "gocloud.dev/pubsub/mempubsub"

	"github.com/user/cibulb/internal/config"
	"github.com/user/cibulb/internal/status"
)

// PubSub publishes the aggregate as the literal message body.
type PubSub struct {
	topic *pubsub.Topic
}

// OpenPubSub opens a topic from a gocloud.dev URL such as
// awssns:///arn:aws:sns:eu-west-1:123456789012:cibulb or mem://cibulb.
func OpenPubSub(ctx context.Context, topicURL string) (*PubSub, error) {
	topic, err := pubsub.OpenTopic(ctx, topicURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open topic: %w", err)
	}
	return NewPubSub(topic), nil
}

// NewPubSub wraps an already opened topic.
func NewPubSub(topic *pubsub.Topic) *PubSub {
	return &PubSub{topic: topic}
}

// Name identifies the notifier in logs.
func (n *PubSub) Name() string { return config.NotifierPubSub }

// Notify publishes agg. Topics have no response body.
func (n *PubSub) Notify(ctx context.Context, agg status.Aggregate) (string, error) {
	if err := n.topic.Send(ctx, &pubsub.Message{Body: []byte(agg)}); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	return "", nil
}

// Close flushes and shuts the topic down.
func (n *PubSub) Close(ctx context.Context) error {
	return n.topic.Shutdown(ctx)
}
