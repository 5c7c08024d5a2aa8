package pubsub

import (
	"context"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

// MessagePublisher is the publish half of a topic handle. Printers and the
// outbox relay depend on it instead of the client.
type MessagePublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) PublishResult
}

// PublishResult blocks until the server acknowledges and returns the message id.
// *gcppubsub.PublishResult satisfies it.
type PublishResult interface {
	Get(ctx context.Context) (serverID string, err error)
}

// WrapPublisher returns nil for a nil handle so callers can treat "no topic"
// and "no publisher" the same way.
func WrapPublisher(p *gcppubsub.Publisher) MessagePublisher {
	if p == nil {
		return nil
	}
	return topicPublisher{p}
}

type topicPublisher struct{ p *gcppubsub.Publisher }

func (t topicPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) PublishResult {
	return t.p.Publish(ctx, msg)
}
