package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_Trace(t *testing.T) {
	sql := func() (string, int64) { return "SELECT * FROM invoices", 1 }

	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		elapsed   time.Duration
		err       error
		wantMsg   string
		wantLevel zapcore.Level
	}{
		{name: "error", level: gormlogger.Warn, err: errors.New("connection reset"), wantMsg: "SQL error", wantLevel: zapcore.ErrorLevel},
		{name: "not found is quiet", level: gormlogger.Warn, err: gormlogger.ErrRecordNotFound},
		{name: "slow", level: gormlogger.Warn, elapsed: time.Second, wantMsg: "Slow SQL", wantLevel: zapcore.WarnLevel},
		{name: "fast at warn is quiet", level: gormlogger.Warn},
		{name: "info logs every query", level: gormlogger.Info, wantMsg: "SQL query", wantLevel: zapcore.DebugLevel},
		{name: "silent", level: gormlogger.Silent, err: errors.New("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			l := NewGormLogger(zap.New(core), tt.level, 200*time.Millisecond)
			ctx := WithRequestID(context.Background(), "req-7")

			l.Trace(ctx, time.Now().Add(-tt.elapsed), sql, tt.err)

			if tt.wantMsg == "" {
				assert.Zero(t, recorded.Len())
				return
			}
			entries := recorded.All()
			if assert.Len(t, entries, 1) {
				assert.Equal(t, tt.wantMsg, entries[0].Message)
				assert.Equal(t, tt.wantLevel, entries[0].Level)
				assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
			}
		})
	}
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	l := NewGormLogger(zap.NewNop(), gormlogger.Warn, 0)
	quiet := l.LogMode(gormlogger.Silent).(*GormLogger)
	assert.Equal(t, gormlogger.Silent, quiet.logLevel)
	assert.Equal(t, gormlogger.Warn, l.logLevel)
}
