// Package email renders and delivers the transactional emails sent for invoices, reminders, quotes and receipts.
package email

import (
	"fmt"

	"go.uber.org/zap"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/config"
)

// Mail drivers
const (
	DriverSMTP = "smtp"
	DriverLog  = "log"
)

// New builds the sender selected by cfg.Driver
func New(cfg config.MailConfig, logger *zap.Logger) (appinv.EmailSender, error) {
	templates, err := NewTemplateSet()
	if err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case DriverSMTP:
		return NewSMTPSender(cfg, templates, logger)
	case DriverLog, "":
		return NewLogSender(templates, logger), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}
