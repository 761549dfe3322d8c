package telemetry

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profile label keys
const (
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
	ProfilingLabelTenantID  = "tenant_id"
	ProfilingLabelOperation = "operation"
)

// maxLabelValueLength caps label values to keep series cardinality bounded.
const maxLabelValueLength = 128

// Identifiers that must never become profile labels; every distinct value
// would create a new series.
var highCardinalityLabels = map[string]bool{
	"user_id":     true,
	"request_id":  true,
	"invoice_id":  true,
	"quote_id":    true,
	"payment_id":  true,
	"customer_id": true,
	"token":       true,
	"trace_id":    true,
	"span_id":     true,
}

// WithProfilingLabels runs fn with the given pprof labels attached so CPU and
// allocation samples taken inside it can be filtered in Pyroscope.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// sanitizeLabels returns key/value pairs ordered by sanitized key, with empty,
// high-cardinality and malformed entries dropped and long values truncated.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	clean := make(map[string]string, len(labels))
	for key, value := range labels {
		k := sanitizeLabelKey(key)
		if k == "" || value == "" || highCardinalityLabels[k] {
			continue
		}
		if len(value) > maxLabelValueLength {
			value = value[:maxLabelValueLength]
		}
		clean[k] = value
	}

	keys := slices.Sorted(maps.Keys(clean))
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, clean[k])
	}
	return pairs
}

func sanitizeLabelKey(key string) string {
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(key))
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// HTTPRequestLabels builds the labels attached to an HTTP request.
func HTTPRequestLabels(route, method, tenantID string) map[string]string {
	labels := make(map[string]string, 3)
	if route != "" {
		labels[ProfilingLabelRoute] = route
	}
	if method != "" {
		labels[ProfilingLabelMethod] = method
	}
	if tenantID != "" {
		labels[ProfilingLabelTenantID] = tenantID
	}
	return labels
}

// OperationLabels builds labels for a background operation such as a sweep.
func OperationLabels(operation string) map[string]string {
	return map[string]string{ProfilingLabelOperation: operation}
}
