package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/config"
)

type mockMailClient struct {
	mock.Mock
}

func (m *mockMailClient) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	return m.Called(ctx, messages).Error(0)
}

func invoiceData() map[string]any {
	due := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	return map[string]any{
		"OrgName":       "Acme <Studio>",
		"CustomerName":  "Globex",
		"InvoiceNumber": "INV-2026-000042",
		"Currency":      "EUR",
		"TotalCents":    int64(123456),
		"DueCents":      int64(23456),
		"DueDate":       &due,
		"Link":          "https://pay.example.test/public/invoices/tok",
	}
}

func TestTemplateSet_Render(t *testing.T) {
	set, err := NewTemplateSet()
	require.NoError(t, err)

	t.Run("invoice", func(t *testing.T) {
		out, err := set.Render(appinv.EmailTemplateInvoice, invoiceData())
		require.NoError(t, err)
		assert.Contains(t, out.Text, "Acme <Studio> has sent you invoice INV-2026-000042 for EUR 1,234.56.")
		assert.Contains(t, out.Text, "Payment is due by 2026-04-30.")
		assert.Contains(t, out.HTML, "Acme &lt;Studio&gt;")
		assert.Contains(t, out.HTML, `href="https://pay.example.test/public/invoices/tok"`)
	})

	t.Run("reminder without due date", func(t *testing.T) {
		data := invoiceData()
		data["DueDate"] = (*time.Time)(nil)
		out, err := set.Render(appinv.EmailTemplateReminder, data)
		require.NoError(t, err)
		assert.Contains(t, out.Text, "still has EUR 234.56 outstanding.")
		assert.NotContains(t, out.Text, "was due on")
	})

	t.Run("quote without expiry", func(t *testing.T) {
		out, err := set.Render(appinv.EmailTemplateQuote, map[string]any{
			"OrgName":      "Acme",
			"CustomerName": "Globex",
			"QuoteNumber":  "QUO-2026-000007",
			"Currency":     "USD",
			"TotalCents":   int64(5000),
		})
		require.NoError(t, err)
		assert.Contains(t, out.Text, "quote QUO-2026-000007 for USD 50.00.")
		assert.NotContains(t, out.Text, "valid until")
	})

	t.Run("receipt", func(t *testing.T) {
		out, err := set.Render(appinv.EmailTemplateReceipt, map[string]any{
			"OrgName":       "Acme",
			"CustomerName":  "Globex",
			"ReceiptNumber": "RCT-2026-0A1B2C",
			"InvoiceNumber": "INV-2026-000042",
			"Currency":      "EUR",
			"PaidCents":     int64(40649),
			"TotalCents":    int64(40649),
		})
		require.NoError(t, err)
		assert.Contains(t, out.Text, "payment of EUR 406.49 for invoice INV-2026-000042")
		assert.Contains(t, out.HTML, "RCT-2026-0A1B2C")
	})

	t.Run("unknown template", func(t *testing.T) {
		_, err := set.Render("statement", nil)
		assert.Error(t, err)
	})
}

func TestTLSPolicy(t *testing.T) {
	p, err := tlsPolicy("")
	require.NoError(t, err)
	assert.Equal(t, mail.TLSMandatory, p)

	p, err = tlsPolicy("Opportunistic")
	require.NoError(t, err)
	assert.Equal(t, mail.TLSOpportunistic, p)

	p, err = tlsPolicy("none")
	require.NoError(t, err)
	assert.Equal(t, mail.NoTLS, p)

	_, err = tlsPolicy("starttls-maybe")
	assert.Error(t, err)
}

func TestSMTPSender_Send(t *testing.T) {
	set, err := NewTemplateSet()
	require.NoError(t, err)
	client := &mockMailClient{}
	sender, err := newSMTPSender(client, set, "Acme Billing", "billing@acme.test", nil)
	require.NoError(t, err)

	var sent *mail.Msg
	client.On("DialAndSendWithContext", mock.Anything, mock.MatchedBy(func(msgs []*mail.Msg) bool {
		if len(msgs) != 1 {
			return false
		}
		sent = msgs[0]
		return true
	})).Return(nil).Once()

	err = sender.Send(context.Background(), appinv.EmailMessage{
		To:           "billing@globex.test",
		Subject:      "Invoice INV-2026-000042",
		Template:     appinv.EmailTemplateInvoice,
		TemplateData: invoiceData(),
		Attachments: []appinv.Attachment{{
			Filename:    "INV-2026-000042.pdf",
			ContentType: "application/pdf",
			Data:        []byte("%PDF-1.4"),
		}},
	})
	require.NoError(t, err)
	client.AssertExpectations(t)
	require.NotNil(t, sent)

	rcpts, err := sent.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"billing@globex.test"}, rcpts)
	assert.Equal(t, []string{"Invoice INV-2026-000042"}, sent.GetGenHeader(mail.HeaderSubject))

	var raw bytes.Buffer
	_, err = sent.WriteTo(&raw)
	require.NoError(t, err)
	body := raw.String()
	assert.Contains(t, body, "Acme Billing")
	assert.Contains(t, body, "<billing@acme.test>")
	assert.Contains(t, body, "text/plain")
	assert.Contains(t, body, "text/html")
	assert.Contains(t, body, "INV-2026-000042.pdf")
}

func TestSMTPSender_Errors(t *testing.T) {
	set, err := NewTemplateSet()
	require.NoError(t, err)

	_, err = newSMTPSender(&mockMailClient{}, set, "", " ", nil)
	assert.Error(t, err)
	_, err = newSMTPSender(&mockMailClient{}, nil, "", "billing@acme.test", nil)
	assert.Error(t, err)

	client := &mockMailClient{}
	sender, err := newSMTPSender(client, set, "", "billing@acme.test", nil)
	require.NoError(t, err)

	err = sender.Send(context.Background(), appinv.EmailMessage{To: "not an address", Template: appinv.EmailTemplateInvoice, TemplateData: invoiceData()})
	assert.Error(t, err)

	err = sender.Send(context.Background(), appinv.EmailMessage{To: "a@b.test", Template: "statement"})
	assert.Error(t, err)

	relayDown := errors.New("connection refused")
	client.On("DialAndSendWithContext", mock.Anything, mock.Anything).Return(relayDown).Once()
	err = sender.Send(context.Background(), appinv.EmailMessage{To: "a@b.test", Template: appinv.EmailTemplateInvoice, TemplateData: invoiceData()})
	assert.ErrorIs(t, err, relayDown)
	client.AssertNumberOfCalls(t, "DialAndSendWithContext", 1)
}

func TestNewSMTPSender_Config(t *testing.T) {
	set, err := NewTemplateSet()
	require.NoError(t, err)

	_, err = NewSMTPSender(config.MailConfig{FromAddress: "billing@acme.test"}, set, nil)
	assert.Error(t, err, "host is required")

	_, err = NewSMTPSender(config.MailConfig{Host: "smtp.acme.test", FromAddress: "billing@acme.test", TLSPolicy: "bogus"}, set, nil)
	assert.Error(t, err)

	s, err := NewSMTPSender(config.MailConfig{
		Host:        "smtp.acme.test",
		Port:        2525,
		Username:    "relay",
		Password:    "secret",
		FromAddress: "billing@acme.test",
		FromName:    "Acme",
		TLSPolicy:   "opportunistic",
		Timeout:     5 * time.Second,
	}, set, nil)
	require.NoError(t, err)
	assert.IsType(t, &mail.Client{}, s.client)
}

func TestLogSender(t *testing.T) {
	set, err := NewTemplateSet()
	require.NoError(t, err)
	core, logs := observer.New(zapcore.InfoLevel)
	sender := NewLogSender(set, zap.New(core))

	err = sender.Send(context.Background(), appinv.EmailMessage{
		To:           "billing@globex.test",
		Subject:      "Reminder",
		Template:     appinv.EmailTemplateReminder,
		TemplateData: invoiceData(),
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("Email captured").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "billing@globex.test", fields["to"])
	assert.Equal(t, "reminder", fields["template"])

	assert.Error(t, sender.Send(context.Background(), appinv.EmailMessage{Template: "statement"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sender.Send(ctx, appinv.EmailMessage{Template: appinv.EmailTemplateInvoice}), context.Canceled)
}

func TestNew(t *testing.T) {
	s, err := New(config.MailConfig{Driver: "log"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	s, err = New(config.MailConfig{Driver: "smtp", Host: "localhost", Port: 1025, FromAddress: "a@b.test", TLSPolicy: "none"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	_, err = New(config.MailConfig{Driver: "carrier-pigeon"}, nil)
	assert.True(t, err != nil && strings.Contains(err.Error(), "carrier-pigeon"))
}
