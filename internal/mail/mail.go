// Package mail delivers transactional mail over SMTP, through the mail
// queue, or to the log.
package mail

import (
	"fmt"
	"strings"

	"github.com/studynotion/apiserver/config"
	"github.com/studynotion/apiserver/internal/logger"
	"github.com/studynotion/apiserver/internal/mq"
	"github.com/studynotion/apiserver/internal/services"
)

// New returns the sender selected by cfg.Backend. The queue backend needs
// an open mq backend.
func New(cfg config.MailConfig, queue mq.Backend, log *logger.Logger) (services.Notifier, error) {
	switch strings.ToLower(cfg.Backend) {
	case "smtp":
		return NewSMTPSender(cfg), nil
	case "queue":
		if queue == nil {
			return nil, fmt.Errorf("mail backend %q needs an mq backend", cfg.Backend)
		}
		return NewQueueSender(queue, cfg.Queue), nil
	case "log":
		return NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unknown mail backend %q", cfg.Backend)
	}
}
