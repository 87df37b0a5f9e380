package mail

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/studynotion/apiserver/internal/logger"
	"github.com/studynotion/apiserver/internal/mq"
	"github.com/studynotion/apiserver/internal/services"
)

const jsonContentType = "application/json"

// QueueSender publishes mail to a queue for the mailer worker to deliver.
type QueueSender struct {
	backend mq.Backend
	queue   string
}

func NewQueueSender(backend mq.Backend, queue string) *QueueSender {
	return &QueueSender{backend: backend, queue: queue}
}

func (s *QueueSender) Send(ctx context.Context, n services.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	attrs := map[string]string{mq.ContentTypeAttr: jsonContentType}
	if _, err := s.backend.Publish(ctx, s.queue, data, attrs); err != nil {
		return fmt.Errorf("publish mail to %s: %w", s.queue, err)
	}
	return nil
}

// Worker consumes queued mail and hands it to a delivering sender.
type Worker struct {
	backend mq.Backend
	queue   string
	sender  services.Notifier
	log     *logger.Logger
}

func NewWorker(backend mq.Backend, queue string, sender services.Notifier, log *logger.Logger) *Worker {
	return &Worker{backend: backend, queue: queue, sender: sender, log: log}
}

// Run delivers messages until ctx is cancelled. Undecodable messages are
// dropped; delivery failures are requeued.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("mailer consuming", "queue", w.queue)
	return w.backend.Subscribe(ctx, w.queue, w.handle)
}

func (w *Worker) handle(ctx context.Context, msg mq.Message) error {
	var n services.Notification
	if err := json.Unmarshal(msg.Data, &n); err != nil || n.To == "" {
		w.log.Error("dropping malformed mail message", "message_id", msg.ID, "error", err)
		return nil
	}
	if err := w.sender.Send(ctx, n); err != nil {
		w.log.Warn("mail delivery failed", "message_id", msg.ID, "to", n.To, "error", err)
		return err
	}
	w.log.Info("mail delivered", "message_id", msg.ID, "to", n.To, "subject", n.Subject)
	return nil
}
