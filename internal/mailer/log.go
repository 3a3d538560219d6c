package mailer

import (
	"context"

	"github.com/charmbracelet/log"
)

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	log *log.Logger
}

func NewLogSender(logger *log.Logger) *LogSender {
	return &LogSender{log: logger}
}

// SendEmailWithTemplate implements Sender.
func (s *LogSender) SendEmailWithTemplate(_ context.Context, msg Message) error {
	s.log.Info("email", "to", msg.ToAddress, "template", msg.Template, "variables", msg.Variables)
	return nil
}
