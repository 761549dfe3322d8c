package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for query tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bound variables in db.statement
	SlowQueryThresh time.Duration
	DBName          string
}

// DefaultDBTracingConfig returns tracing disabled with variables hidden.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBName:          "invoicer",
	}
}

// gormCallbackPoints lists gorm's processors and the builtin callback each
// hook is placed around. gorm does not export the processor type, hence the
// switch in registerAround.
var gormCallbackPoints = []struct {
	name    string
	builtin string
}{
	{"create", "gorm:create"},
	{"query", "gorm:query"},
	{"update", "gorm:update"},
	{"delete", "gorm:delete"},
	{"row", "gorm:row"},
	{"raw", "gorm:raw"},
}

// registerAround installs before/after hooks on every gorm processor under the
// given prefix.
func registerAround(db *gorm.DB, prefix string, before, after func(*gorm.DB)) error {
	cb := db.Callback()
	for _, p := range gormCallbackPoints {
		var err error
		switch p.name {
		case "create":
			if err = cb.Create().Before(p.builtin).Register(prefix+":before_create", before); err == nil {
				err = cb.Create().After(p.builtin).Register(prefix+":after_create", after)
			}
		case "query":
			if err = cb.Query().Before(p.builtin).Register(prefix+":before_query", before); err == nil {
				err = cb.Query().After(p.builtin).Register(prefix+":after_query", after)
			}
		case "update":
			if err = cb.Update().Before(p.builtin).Register(prefix+":before_update", before); err == nil {
				err = cb.Update().After(p.builtin).Register(prefix+":after_update", after)
			}
		case "delete":
			if err = cb.Delete().Before(p.builtin).Register(prefix+":before_delete", before); err == nil {
				err = cb.Delete().After(p.builtin).Register(prefix+":after_delete", after)
			}
		case "row":
			if err = cb.Row().Before(p.builtin).Register(prefix+":before_row", before); err == nil {
				err = cb.Row().After(p.builtin).Register(prefix+":after_row", after)
			}
		case "raw":
			if err = cb.Raw().Before(p.builtin).Register(prefix+":before_raw", before); err == nil {
				err = cb.Raw().After(p.builtin).Register(prefix+":after_raw", after)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type queryStartKey struct{ prefix string }

func markStart(prefix string) func(*gorm.DB) {
	key := queryStartKey{prefix}
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		db.Statement.Context = context.WithValue(ctx, key, time.Now())
	}
}

func elapsedSince(db *gorm.DB, prefix string) (time.Duration, bool) {
	if db.Statement.Context == nil {
		return 0, false
	}
	start, ok := db.Statement.Context.Value(queryStartKey{prefix}).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}

// DBTracing registers otelgorm plus a hook that annotates each query span with
// its table, row count and a slow_query flag.
type DBTracing struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracing creates the tracing registrar.
func NewDBTracing(cfg DBTracingConfig, logger *zap.Logger) *DBTracing {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBTracing{config: cfg, logger: logger}
}

// Register installs the tracing hooks. It is a no-op when disabled.
func (t *DBTracing) Register(db *gorm.DB) error {
	if !t.config.Enabled {
		t.logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(t.config.DBName)}
	if !t.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := registerAround(db, "otel_timing", markStart("otel_timing"), t.annotate); err != nil {
		return err
	}

	t.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", t.config.LogFullSQL),
		zap.Duration("slow_query_threshold", t.config.SlowQueryThresh),
	)
	return nil
}

func (t *DBTracing) annotate(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	elapsed, ok := elapsedSince(db, "otel_timing")
	if ok && elapsed > t.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("threshold_ms", t.config.SlowQueryThresh.Milliseconds()),
		))
	}
}
