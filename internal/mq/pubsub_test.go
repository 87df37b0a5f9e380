package mq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/studynotion/apiserver/config"
)

func TestPubSubDefaults(t *testing.T) {
	cfg := withPubSubDefaults(config.PubSubConfig{ProjectID: "p"})
	assert.Equal(t, "-sub", cfg.SubscriptionSuffix)
	assert.Equal(t, 10, cfg.MaxOutstanding)
	assert.Equal(t, 60*time.Second, cfg.AckDeadline)
	assert.Equal(t, minDeliveryAttempts, cfg.MaxDeliveryAttempts)

	for in, want := range map[int]int{-1: 0, 2: minDeliveryAttempts, 7: 7, 500: maxDeliveryAttempts} {
		cfg := withPubSubDefaults(config.PubSubConfig{MaxDeliveryAttempts: in})
		assert.Equal(t, want, cfg.MaxDeliveryAttempts, in)
	}

	kept := withPubSubDefaults(config.PubSubConfig{MaxOutstanding: 3, AckDeadline: 2 * time.Minute})
	assert.Equal(t, 3, kept.MaxOutstanding)
	assert.Equal(t, 2*time.Minute, kept.AckDeadline)
}

func TestSubscriptionName(t *testing.T) {
	assert.Equal(t, "mail.outbound-sub", subscriptionName("mail.outbound", "-sub"))
	assert.Equal(t, "mail.outbound", subscriptionName("mail.outbound", ""))
}
