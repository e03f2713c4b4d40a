package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/veltaedu/velta-backend/pkg/config"
	"github.com/veltaedu/velta-backend/pkg/logger"
)

var errProjectIDRequired = errors.New("gcp project id is required")

// Client wraps the Pub/Sub v2 connection used by the outbox publisher.
type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
}

// NewClient creates a Pub/Sub v2 client and verifies the payout topic exists.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:    psClient,
		projectID: gcp.ProjectID,
		cfg:       cfg,
	}

	if err := c.ensureTopicExists(ctx, cfg.PayoutTopic); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(ctx, "pubsub client initialized")
	}

	return c, nil
}

func (c *Client) ensureTopicExists(ctx context.Context, topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return errors.New("pubsub payout topic is required")
	}
	fullName := fmt.Sprintf("projects/%s/topics/%s", c.projectID, topic)
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: fullName})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("topic %q does not exist", topic)
		}
		return fmt.Errorf("checking topic %q: %w", topic, err)
	}
	return nil
}

// PayoutPublisher returns the publisher for the payout events topic.
func (c *Client) PayoutPublisher() *pubsub.Publisher {
	return c.client.Publisher(c.cfg.PayoutTopic)
}

// ClassSubscriber returns the subscriber for the platform's class and session
// lifecycle events.
func (c *Client) ClassSubscriber() *pubsub.Subscriber {
	if strings.TrimSpace(c.cfg.ClassSubscription) == "" {
		return nil
	}
	return c.client.Subscriber(c.cfg.ClassSubscription)
}

// Ping re-checks the payout topic, used by readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	return c.ensureTopicExists(ctx, c.cfg.PayoutTopic)
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
