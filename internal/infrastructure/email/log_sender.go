package email

import (
	"context"

	"go.uber.org/zap"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
)

// LogSender renders emails and logs them instead of delivering.
// Used in development and when no SMTP relay is configured.
type LogSender struct {
	templates *TemplateSet
	logger    *zap.Logger
}

var _ appinv.EmailSender = (*LogSender)(nil)

// NewLogSender creates a LogSender
func NewLogSender(templates *TemplateSet, logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{templates: templates, logger: logger}
}

// Send renders the message so template errors still surface, then logs it
func (s *LogSender) Send(ctx context.Context, msg appinv.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bodies, err := s.templates.Render(msg.Template, msg.TemplateData)
	if err != nil {
		return err
	}
	s.logger.Info("Email captured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("template", msg.Template),
		zap.Int("attachments", len(msg.Attachments)),
		zap.Int("body_bytes", len(bodies.Text)+len(bodies.HTML)),
	)
	s.logger.Debug("Email body", zap.String("to", msg.To), zap.String("text", bodies.Text))
	return nil
}
