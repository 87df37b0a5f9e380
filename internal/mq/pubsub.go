package mq

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/studynotion/apiserver/config"
)

const (
	deadLetterSuffix = ".dead"

	// Pub/Sub accepts dead-letter attempts in this range only.
	minDeliveryAttempts = 5
	maxDeliveryAttempts = 100
)

// PubSubClient carries mail jobs over Google Cloud Pub/Sub. Each channel is a
// topic with one pull subscription; jobs that keep failing are forwarded to
// the channel's dead-letter topic.
type PubSubClient struct {
	client *pubsub.Client
	cfg    config.PubSubConfig

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPubSubClient constructs a Pub/Sub client from config.
func NewPubSubClient(ctx context.Context, cfg config.PubSubConfig) (*PubSubClient, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	return &PubSubClient{
		client: client,
		cfg:    withPubSubDefaults(cfg),
		topics: make(map[string]*pubsub.Topic),
	}, nil
}

// Publish sends a message to the channel's topic and waits for the server
// to acknowledge it.
func (p *PubSubClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("pubsub channel is required")
	}

	topic, err := p.publisher(ctx, channel)
	if err != nil {
		return "", err
	}

	result := topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	return result.Get(ctx)
}

// Subscribe pulls messages from the channel until ctx is done. A handler
// error nacks the message so Pub/Sub redelivers it.
func (p *PubSubClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("pubsub channel is required")
	}

	topic, err := p.ensureTopic(ctx, channel)
	if err != nil {
		return err
	}

	subCfg := pubsub.SubscriptionConfig{
		Topic:       topic,
		AckDeadline: p.cfg.AckDeadline,
	}
	if p.cfg.MaxDeliveryAttempts > 0 {
		deadLetter, err := p.ensureTopic(ctx, channel+deadLetterSuffix)
		if err != nil {
			return err
		}
		subCfg.DeadLetterPolicy = &pubsub.DeadLetterPolicy{
			DeadLetterTopic:     deadLetter.String(),
			MaxDeliveryAttempts: p.cfg.MaxDeliveryAttempts,
		}
	}

	sub, err := p.ensureSubscription(ctx, subscriptionName(channel, p.cfg.SubscriptionSuffix), subCfg)
	if err != nil {
		return err
	}
	sub.ReceiveSettings.MaxOutstandingMessages = p.cfg.MaxOutstanding

	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		message := Message{
			ID:         msg.ID,
			Data:       msg.Data,
			Attributes: msg.Attributes,
		}
		if err := handler(ctx, message); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Close flushes pending publishes and closes the client.
func (p *PubSubClient) Close() error {
	p.mu.Lock()
	for name, topic := range p.topics {
		topic.Stop()
		delete(p.topics, name)
	}
	p.mu.Unlock()
	return p.client.Close()
}

func (p *PubSubClient) publisher(ctx context.Context, channel string) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if topic, ok := p.topics[channel]; ok {
		return topic, nil
	}
	topic, err := p.ensureTopic(ctx, channel)
	if err != nil {
		return nil, err
	}
	p.topics[channel] = topic
	return topic, nil
}

func (p *PubSubClient) ensureTopic(ctx context.Context, name string) (*pubsub.Topic, error) {
	topic := p.client.Topic(name)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return p.client.CreateTopic(ctx, name)
	}
	return topic, nil
}

func (p *PubSubClient) ensureSubscription(ctx context.Context, name string, cfg pubsub.SubscriptionConfig) (*pubsub.Subscription, error) {
	sub := p.client.Subscription(name)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return p.client.CreateSubscription(ctx, name, cfg)
	}
	return sub, nil
}

func subscriptionName(channel, suffix string) string {
	if suffix == "" {
		return channel
	}
	return channel + suffix
}

// withPubSubDefaults fills unset limits. A negative MaxDeliveryAttempts
// disables dead-lettering; positive values are clamped to what Pub/Sub
// accepts.
func withPubSubDefaults(cfg config.PubSubConfig) config.PubSubConfig {
	if cfg.SubscriptionSuffix == "" {
		cfg.SubscriptionSuffix = "-sub"
	}
	if cfg.MaxOutstanding < 1 {
		cfg.MaxOutstanding = 10
	}
	if cfg.AckDeadline < 10*time.Second {
		cfg.AckDeadline = 60 * time.Second
	}
	switch {
	case cfg.MaxDeliveryAttempts < 0:
		cfg.MaxDeliveryAttempts = 0
	case cfg.MaxDeliveryAttempts == 0:
		cfg.MaxDeliveryAttempts = minDeliveryAttempts
	case cfg.MaxDeliveryAttempts < minDeliveryAttempts:
		cfg.MaxDeliveryAttempts = minDeliveryAttempts
	case cfg.MaxDeliveryAttempts > maxDeliveryAttempts:
		cfg.MaxDeliveryAttempts = maxDeliveryAttempts
	}
	return cfg
}
