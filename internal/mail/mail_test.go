package mail

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studynotion/apiserver/config"
	"github.com/studynotion/apiserver/internal/logger"
	"github.com/studynotion/apiserver/internal/mq"
	"github.com/studynotion/apiserver/internal/services"
)

type capture struct {
	mu    sync.Mutex
	sent  []services.Notification
	fails int
	got   chan struct{}
}

func newCapture(fails int) *capture {
	return &capture{fails: fails, got: make(chan struct{}, 8)}
}

func (c *capture) Send(ctx context.Context, n services.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fails > 0 {
		c.fails--
		return errors.New("relay down")
	}
	c.sent = append(c.sent, n)
	c.got <- struct{}{}
	return nil
}

func TestQueueRoundTrip(t *testing.T) {
	backend := mq.NewMemory(8)
	defer backend.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := newCapture(1)
	worker := NewWorker(backend, "mail.test", sink, logger.Nop())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	sender := NewQueueSender(backend, "mail.test")
	n := services.Notification{To: "a@x.com", Subject: "Hi", HTML: "<p>hi</p>"}
	require.NoError(t, sender.Send(ctx, n))

	select {
	case <-sink.got:
	case <-time.After(2 * time.Second):
		t.Fatal("mail was not delivered")
	}

	sink.mu.Lock()
	assert.Equal(t, []services.Notification{n}, sink.sent)
	sink.mu.Unlock()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWorkerDropsMalformedMessages(t *testing.T) {
	sink := newCapture(0)
	worker := NewWorker(mq.NewMemory(1), "mail.test", sink, logger.Nop())

	err := worker.handle(context.Background(), mq.Message{ID: "1", Data: []byte("not json")})
	assert.NoError(t, err)
	assert.Empty(t, sink.sent)
}

func TestSMTPMessage(t *testing.T) {
	sender := NewSMTPSender(config.MailConfig{FromEmail: "no-reply@studynotion.dev", FromName: "StudyNotion"})
	msg := sender.message(services.Notification{To: "a@x.com", Subject: "OTP Verification Email", HTML: "<b>482913</b>"})

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "To: a@x.com")
	assert.Contains(t, raw, "Subject: OTP Verification Email")
	assert.Contains(t, raw, "StudyNotion")
	assert.Contains(t, raw, "text/html")
}

func TestNewSelectsBackend(t *testing.T) {
	n, err := New(config.MailConfig{Backend: "log"}, nil, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, n)

	_, err = New(config.MailConfig{Backend: "queue"}, nil, logger.Nop())
	assert.Error(t, err)

	_, err = New(config.MailConfig{Backend: "carrier-pigeon"}, nil, logger.Nop())
	assert.Error(t, err)
}
