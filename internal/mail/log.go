package mail

import (
	"context"

	"github.com/studynotion/apiserver/internal/logger"
	"github.com/studynotion/apiserver/internal/services"
)

// LogSender writes mail to the log instead of delivering it.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, n services.Notification) error {
	s.log.Info("mail not delivered, log backend", "to", n.To, "subject", n.Subject, "html", n.HTML)
	return nil
}
