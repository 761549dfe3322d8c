package printing

import (
	"bytes"
	"html/template"
	"maps"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// TemplateEngine renders html/template documents with billing formatting helpers.
// Parsed templates are cached by name.
type TemplateEngine struct {
	funcMap template.FuncMap

	mu    sync.RWMutex
	cache map[string]*template.Template
}

// NewTemplateEngine creates a new template engine
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{cache: make(map[string]*template.Template)}
	e.funcMap = template.FuncMap{
		"formatCents":   FormatCents,
		"formatDate":    FormatDate,
		"formatPercent": formatPercent,
		"title":         titleCase,
		"upper":         strings.ToUpper,
		"default":       defaultString,
		"nl2br":         nl2br,
	}
	return e
}

// FuncMap returns a copy of the template function map
func (e *TemplateEngine) FuncMap() template.FuncMap {
	out := make(template.FuncMap, len(e.funcMap))
	maps.Copy(out, e.funcMap)
	return out
}

// Parse compiles content under name and caches it. Re-parsing a name replaces the cache entry.
func (e *TemplateEngine) Parse(name, content string) error {
	if strings.TrimSpace(content) == "" {
		return NewRenderError(ErrCodeInvalidHTML, "template content is empty", nil)
	}
	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(content)
	if err != nil {
		return NewRenderError(ErrCodeInvalidHTML, "failed to parse template "+name, err)
	}
	e.mu.Lock()
	e.cache[name] = tmpl
	e.mu.Unlock()
	return nil
}

// Execute renders a cached template
func (e *TemplateEngine) Execute(name string, data any) (string, error) {
	e.mu.RLock()
	tmpl, ok := e.cache[name]
	e.mu.RUnlock()
	if !ok {
		return "", NewRenderError(ErrCodeInvalidHTML, "unknown template "+name, nil)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template "+name, err)
	}
	return buf.String(), nil
}

// RenderString parses and renders content in one go without caching
func (e *TemplateEngine) RenderString(name, content string, data any) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", NewRenderError(ErrCodeInvalidHTML, "template content is empty", nil)
	}
	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(content)
	if err != nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "failed to parse template "+name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template "+name, err)
	}
	return buf.String(), nil
}

// FormatCents renders an amount in minor units with its ISO 4217 code, e.g. "EUR 1,234.56".
// The number of decimals follows the currency (JPY has none).
func FormatCents(cents int64, code string) string {
	scale := 2
	code = strings.ToUpper(strings.TrimSpace(code))
	if unit, err := currency.ParseISO(code); err == nil {
		s, _ := currency.Standard.Rounding(unit)
		scale = s
	}

	amount := decimal.New(cents, -int32(scale))
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	fixed := amount.StringFixed(int32(scale))
	intPart, frac, _ := strings.Cut(fixed, ".")
	out := sign + groupThousands(intPart)
	if frac != "" {
		out += "." + frac
	}
	if code == "" {
		return out
	}
	return code + " " + out
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatDate prints a time.Time or *time.Time as a UTC calendar date; nil and zero print empty
func FormatDate(v any) string {
	var t time.Time
	switch val := v.(type) {
	case time.Time:
		t = val
	case *time.Time:
		if val == nil {
			return ""
		}
		t = *val
	default:
		return ""
	}
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func formatPercent(p int) string {
	return strconv.Itoa(p) + "%"
}

// cases.Caser keeps state, so each call gets its own
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.ReplaceAll(s, "_", " ")))
}

func defaultString(def, v string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func nl2br(s string) template.HTML {
	escaped := template.HTMLEscapeString(s)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}
