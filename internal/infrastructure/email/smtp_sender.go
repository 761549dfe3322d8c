package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/config"
)

// mailClient is the part of *mail.Client the sender needs
type mailClient interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPSender delivers templated emails over SMTP
type SMTPSender struct {
	client    mailClient
	templates *TemplateSet
	fromName  string
	fromAddr  string
	logger    *zap.Logger
}

var _ appinv.EmailSender = (*SMTPSender)(nil)

// NewSMTPSender creates a sender from the mail configuration
func NewSMTPSender(cfg config.MailConfig, templates *TemplateSet, logger *zap.Logger) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("mail host is required for the smtp driver")
	}
	policy, err := tlsPolicy(cfg.TLSPolicy)
	if err != nil {
		return nil, err
	}
	opts := []mail.Option{mail.WithTLSPolicy(policy)}
	if cfg.Port > 0 {
		opts = append(opts, mail.WithPort(cfg.Port))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return newSMTPSender(client, templates, cfg.FromName, cfg.FromAddress, logger)
}

func newSMTPSender(client mailClient, templates *TemplateSet, fromName, fromAddr string, logger *zap.Logger) (*SMTPSender, error) {
	if strings.TrimSpace(fromAddr) == "" {
		return nil, errors.New("mail from address is required")
	}
	if templates == nil {
		return nil, errors.New("email templates are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPSender{
		client:    client,
		templates: templates,
		fromName:  fromName,
		fromAddr:  fromAddr,
		logger:    logger,
	}, nil
}

func tlsPolicy(name string) (mail.TLSPolicy, error) {
	switch strings.ToLower(name) {
	case "", "mandatory":
		return mail.TLSMandatory, nil
	case "opportunistic":
		return mail.TLSOpportunistic, nil
	case "none":
		return mail.NoTLS, nil
	default:
		return mail.NoTLS, fmt.Errorf("unknown mail TLS policy %q", name)
	}
}

// Send renders the template and delivers the message
func (s *SMTPSender) Send(ctx context.Context, msg appinv.EmailMessage) error {
	m, err := s.buildMessage(msg)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	s.logger.Info("Email sent",
		zap.String("template", msg.Template),
		zap.String("to", msg.To),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return nil
}

func (s *SMTPSender) buildMessage(msg appinv.EmailMessage) (*mail.Msg, error) {
	bodies, err := s.templates.Render(msg.Template, msg.TemplateData)
	if err != nil {
		return nil, err
	}

	m := mail.NewMsg()
	if s.fromName != "" {
		err = m.FromFormat(s.fromName, s.fromAddr)
	} else {
		err = m.From(s.fromAddr)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(mail.TypeTextPlain, bodies.Text)
	m.AddAlternativeString(mail.TypeTextHTML, bodies.HTML)

	for _, a := range msg.Attachments {
		var fileOpts []mail.FileOption
		if a.ContentType != "" {
			fileOpts = append(fileOpts, mail.WithFileContentType(mail.ContentType(a.ContentType)))
		}
		if err := m.AttachReader(a.Filename, bytes.NewReader(a.Data), fileOpts...); err != nil {
			return nil, fmt.Errorf("failed to attach %s: %w", a.Filename, err)
		}
	}
	return m, nil
}
