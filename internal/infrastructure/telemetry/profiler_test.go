package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProfilerConfig
		want string
	}{
		{"missing server", ProfilerConfig{Enabled: true, ApplicationName: "invoicer"}, "server address"},
		{"missing application", ProfilerConfig{Enabled: true, ServerAddress: "http://pyroscope:4040"}, "application name"},
		{"unknown type", ProfilerConfig{
			Enabled: true, ServerAddress: "http://pyroscope:4040", ApplicationName: "invoicer",
			ProfileTypes: []string{"cpu", "heap"},
		}, `unknown profile type "heap"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProfiler(tt.cfg, zap.NewNop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseProfileTypes(t *testing.T) {
	types, err := parseProfileTypes(nil)
	require.NoError(t, err)
	assert.Equal(t, []pyroscope.ProfileType{
		pyroscope.ProfileCPU, pyroscope.ProfileAllocSpace, pyroscope.ProfileInuseSpace,
	}, types)

	types, err = parseProfileTypes([]string{" Mutex ", "goroutines"})
	require.NoError(t, err)
	assert.Equal(t, []pyroscope.ProfileType{
		pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration, pyroscope.ProfileGoroutines,
	}, types)
}

func TestSanitizeLabels(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		"Route":      "/api/v1/invoices/:id",
		"tenant-id":  "9f1c",
		"invoice_id": "should be dropped",
		"user_id":    "should be dropped",
		"empty":      "",
		"!!!":        "no usable key",
		"operation":  strings.Repeat("x", 200),
	})

	assert.Equal(t, []string{
		"operation", strings.Repeat("x", maxLabelValueLength),
		"route", "/api/v1/invoices/:id",
		"tenant_id", "9f1c",
	}, pairs)
	assert.Nil(t, sanitizeLabels(nil))
}

func TestWithProfilingLabels(t *testing.T) {
	called := false
	WithProfilingLabels(context.Background(), HTTPRequestLabels("/api/v1/invoices", "POST", "t1"), func(ctx context.Context) {
		called = true
		route, ok := pprof.Label(ctx, ProfilingLabelRoute)
		assert.True(t, ok)
		assert.Equal(t, "/api/v1/invoices", route)
		tenant, _ := pprof.Label(ctx, ProfilingLabelTenantID)
		assert.Equal(t, "t1", tenant)
	})
	assert.True(t, called)

	WithProfilingLabels(context.Background(), nil, func(ctx context.Context) {
		_, ok := pprof.Label(ctx, ProfilingLabelRoute)
		assert.False(t, ok)
	})
}

func TestLabelBuilders(t *testing.T) {
	assert.Equal(t, map[string]string{"method": "GET"}, HTTPRequestLabels("", "GET", ""))
	assert.Equal(t, map[string]string{"operation": "overdue_sweep"}, OperationLabels("overdue_sweep"))
}
