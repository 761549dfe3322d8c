package email

import (
	"bytes"
	"fmt"
	texttemplate "text/template"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/printing"
)

// Bodies is a rendered email in both formats
type Bodies struct {
	Text string
	HTML string
}

// TemplateSet renders the transactional emails. HTML bodies go through html/template,
// plain text alternatives through text/template with the same helpers.
type TemplateSet struct {
	html *printing.TemplateEngine
	text map[string]*texttemplate.Template
}

// NewTemplateSet parses the built-in templates
func NewTemplateSet() (*TemplateSet, error) {
	set := &TemplateSet{
		html: printing.NewTemplateEngine(),
		text: make(map[string]*texttemplate.Template, len(builtinTemplates)),
	}
	funcs := texttemplate.FuncMap(set.html.FuncMap())
	for name, tpl := range builtinTemplates {
		if err := set.html.Parse(name, tpl.html); err != nil {
			return nil, err
		}
		parsed, err := texttemplate.New(name).Funcs(funcs).Parse(tpl.text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse text template %s: %w", name, err)
		}
		set.text[name] = parsed
	}
	return set, nil
}

// Render produces both bodies of a template
func (s *TemplateSet) Render(name string, data map[string]any) (Bodies, error) {
	textTpl, ok := s.text[name]
	if !ok {
		return Bodies{}, fmt.Errorf("unknown email template %q", name)
	}
	var text bytes.Buffer
	if err := textTpl.Execute(&text, data); err != nil {
		return Bodies{}, fmt.Errorf("failed to render email template %s: %w", name, err)
	}
	html, err := s.html.Execute(name, data)
	if err != nil {
		return Bodies{}, err
	}
	return Bodies{Text: text.String(), HTML: html}, nil
}

type emailTemplate struct {
	text string
	html string
}

const htmlLayoutStart = `<!DOCTYPE html><html><body style="font-family:Arial,sans-serif;font-size:14px;color:#222;">`
const htmlLayoutEnd = `<p style="color:#777;font-size:12px;">{{.OrgName}}</p></body></html>`

var builtinTemplates = map[string]emailTemplate{
	appinv.EmailTemplateInvoice: {
		text: `Hello {{.CustomerName}},

{{.OrgName}} has sent you invoice {{.InvoiceNumber}} for {{formatCents .TotalCents .Currency}}.
{{- with formatDate .DueDate}}
Payment is due by {{.}}.{{end}}

View and pay the invoice online: {{.Link}}
`,
		html: htmlLayoutStart + `<p>Hello {{.CustomerName}},</p>
<p>{{.OrgName}} has sent you invoice <strong>{{.InvoiceNumber}}</strong> for <strong>{{formatCents .TotalCents .Currency}}</strong>.
{{- with formatDate .DueDate}} Payment is due by {{.}}.{{end}}</p>
<p><a href="{{.Link}}">View invoice {{.InvoiceNumber}}</a></p>` + htmlLayoutEnd,
	},
	appinv.EmailTemplateReminder: {
		text: `Hello {{.CustomerName}},

This is a reminder that invoice {{.InvoiceNumber}} from {{.OrgName}} still has {{formatCents .DueCents .Currency}} outstanding.
{{- with formatDate .DueDate}}
It was due on {{.}}.{{end}}

View and pay the invoice online: {{.Link}}
`,
		html: htmlLayoutStart + `<p>Hello {{.CustomerName}},</p>
<p>This is a reminder that invoice <strong>{{.InvoiceNumber}}</strong> still has <strong>{{formatCents .DueCents .Currency}}</strong> outstanding.
{{- with formatDate .DueDate}} It was due on {{.}}.{{end}}</p>
<p><a href="{{.Link}}">View invoice {{.InvoiceNumber}}</a></p>` + htmlLayoutEnd,
	},
	appinv.EmailTemplateReceipt: {
		text: `Hello {{.CustomerName}},

Thank you for your payment of {{formatCents .PaidCents .Currency}} for invoice {{.InvoiceNumber}}.
Your receipt {{.ReceiptNumber}} is attached when available.
`,
		html: htmlLayoutStart + `<p>Hello {{.CustomerName}},</p>
<p>Thank you for your payment of <strong>{{formatCents .PaidCents .Currency}}</strong> for invoice {{.InvoiceNumber}}.</p>
<p>Your receipt {{.ReceiptNumber}} is attached when available.</p>` + htmlLayoutEnd,
	},
	appinv.EmailTemplateQuote: {
		text: `Hello {{.CustomerName}},

{{.OrgName}} has sent you quote {{.QuoteNumber}} for {{formatCents .TotalCents .Currency}}.
{{- with formatDate .ExpiryDate}}
The quote is valid until {{.}}.{{end}}
`,
		html: htmlLayoutStart + `<p>Hello {{.CustomerName}},</p>
<p>{{.OrgName}} has sent you quote <strong>{{.QuoteNumber}}</strong> for <strong>{{formatCents .TotalCents .Currency}}</strong>.
{{- with formatDate .ExpiryDate}} The quote is valid until {{.}}.{{end}}</p>` + htmlLayoutEnd,
	},
}
