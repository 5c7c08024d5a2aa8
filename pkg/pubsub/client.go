package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"go.uber.org/multierr"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

var errNotReady = errors.New("pubsub: client not initialized")

// Client owns the Pub/Sub connection of one process. Publisher handles are
// cached per topic, since each runs its own batching goroutines, and stopped
// on Close.
type Client struct {
	ps      *gcppubsub.Client
	project string
	cfg     config.PubSubConfig

	mu         sync.Mutex
	publishers map[string]*gcppubsub.Publisher
}

// NewClient connects to Pub/Sub. With requireSubscriptions the configured
// subscriptions must already exist; consumers pass true, publishers false.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, requireSubscriptions bool, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, errors.New("pubsub: gcp project id is required")
	}

	ps, err := gcppubsub.NewClient(ctx, project, credentialOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("pubsub: open client: %w", err)
	}
	c := &Client{ps: ps, project: project, cfg: cfg, publishers: map[string]*gcppubsub.Publisher{}}

	if requireSubscriptions {
		if err := c.checkSubscriptions(ctx); err != nil {
			_ = ps.Close()
			return nil, err
		}
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "project", project), "pubsub client ready")
	}
	return c, nil
}

func credentialOptions(gcp config.GCPConfig) []option.ClientOption {
	if raw := strings.TrimSpace(gcp.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

func (c *Client) checkSubscriptions(ctx context.Context) error {
	var errs error
	for _, id := range subscriptionNames(c.cfg) {
		name := c.qualify("subscriptions", id)
		_, err := c.ps.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: name})
		switch {
		case status.Code(err) == codes.NotFound:
			errs = multierr.Append(errs, fmt.Errorf("pubsub: subscription %s does not exist", name))
		case err != nil:
			errs = multierr.Append(errs, fmt.Errorf("pubsub: read subscription %s: %w", name, err))
		}
	}
	return errs
}

// subscriptionNames lists the configured subscriptions a consumer depends on.
func subscriptionNames(cfg config.PubSubConfig) []string {
	var names []string
	if id := strings.TrimSpace(cfg.AnalyticsSubscription); id != "" {
		names = append(names, id)
	}
	return names
}

// Subscription returns a receiver for a subscription id or full resource name.
func (c *Client) Subscription(id string) *gcppubsub.Subscriber {
	if c == nil || c.ps == nil {
		return nil
	}
	name := c.qualify("subscriptions", id)
	if name == "" {
		return nil
	}
	return c.ps.Subscriber(name)
}

// AnalyticsSubscription feeds the sales analytics sink.
func (c *Client) AnalyticsSubscription() *gcppubsub.Subscriber {
	if c == nil {
		return nil
	}
	return c.Subscription(c.cfg.AnalyticsSubscription)
}

// Publisher returns the cached publisher for a topic id or full resource name.
func (c *Client) Publisher(topic string) *gcppubsub.Publisher {
	if c == nil || c.ps == nil {
		return nil
	}
	name := c.qualify("topics", topic)
	if name == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.publishers[name]; ok {
		return p
	}
	p := c.ps.Publisher(name)
	c.publishers[name] = p
	return p
}

// PrintPublisher is nil when no print topic is configured.
func (c *Client) PrintPublisher() *gcppubsub.Publisher {
	if c == nil {
		return nil
	}
	return c.Publisher(c.cfg.PrintTopic)
}

// Ping checks that the configured subscriptions are reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.ps == nil {
		return errNotReady
	}
	return c.checkSubscriptions(ctx)
}

// Close flushes and stops every cached publisher, then closes the connection.
func (c *Client) Close() error {
	if c == nil || c.ps == nil {
		return nil
	}
	c.mu.Lock()
	for name, p := range c.publishers {
		p.Stop()
		delete(c.publishers, name)
	}
	c.mu.Unlock()
	return c.ps.Close()
}

// qualify expands a bare id to projects/<project>/<kind>/<id>. Full resource
// names pass through unchanged.
func (c *Client) qualify(kind, id string) string {
	if c == nil {
		return ""
	}
	id = strings.TrimSpace(id)
	switch {
	case id == "":
		return ""
	case strings.HasPrefix(id, "projects/") && strings.Contains(id, "/"+kind+"/"):
		return id
	case c.project == "":
		return ""
	}
	return "projects/" + c.project + "/" + kind + "/" + id
}
