package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func newObservedGorm(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func query(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		opts    []GormLoggerOption
		begin   time.Duration
		err     error
		message string
		lvl     zapcore.Level
	}{
		{"error", gormlogger.Error, nil, 0, errors.New("duplicate key"), "SQL Error", zapcore.ErrorLevel},
		{"slow", gormlogger.Warn, []GormLoggerOption{WithSlowThreshold(10 * time.Millisecond)}, time.Second, nil, "Slow SQL", zapcore.WarnLevel},
		{"normal", gormlogger.Info, nil, 0, nil, "SQL Query", zapcore.DebugLevel},
		{"not found logged when enabled", gormlogger.Error, []GormLoggerOption{WithRecordNotFoundLogging()}, 0, gormlogger.ErrRecordNotFound, "SQL Error", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl, recorded := newObservedGorm(tt.level, tt.opts...)
			gl.Trace(context.Background(), time.Now().Add(-tt.begin), query("SELECT 1", 1), tt.err)

			logs := recorded.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.message, logs[0].Message)
			assert.Equal(t, tt.lvl, logs[0].Level)
			assert.Equal(t, "SELECT 1", logs[0].ContextMap()["sql"])
		})
	}
}

func TestGormLogger_Trace_Suppressed(t *testing.T) {
	t.Run("record not found ignored by default", func(t *testing.T) {
		gl, recorded := newObservedGorm(gormlogger.Error)
		gl.Trace(context.Background(), time.Now(), query("SELECT", 0), gormlogger.ErrRecordNotFound)
		assert.Zero(t, recorded.Len())
	})

	t.Run("silent", func(t *testing.T) {
		gl, recorded := newObservedGorm(gormlogger.Silent)
		gl.Trace(context.Background(), time.Now(), query("SELECT", 0), errors.New("boom"))
		assert.Zero(t, recorded.Len())
	})

	t.Run("zero threshold disables slow reporting", func(t *testing.T) {
		gl, recorded := newObservedGorm(gormlogger.Warn, WithSlowThreshold(0))
		gl.Trace(context.Background(), time.Now().Add(-time.Hour), query("SELECT", 0), nil)
		assert.Zero(t, recorded.Len())
	})
}

func TestGormLogger_CarriesRequestFields(t *testing.T) {
	gl, recorded := newObservedGorm(gormlogger.Info)
	ctx := WithTable(WithRequestID(context.Background(), "req-7"), "funds-grid")

	gl.Trace(ctx, time.Now(), query("UPDATE table_settings", 1), nil)
	gl.Warn(ctx, "pool exhausted: %d", 25)

	logs := recorded.All()
	require.Len(t, logs, 2)
	for _, entry := range logs {
		assert.Equal(t, "req-7", entry.ContextMap()["request_id"])
		assert.Equal(t, "funds-grid", entry.ContextMap()["table_identifier"])
	}
	assert.Equal(t, "pool exhausted: 25", logs[1].Message)
}

func TestGormLogger_LogMode(t *testing.T) {
	gl, recorded := newObservedGorm(gormlogger.Warn)
	quiet := gl.LogMode(gormlogger.Silent)

	quiet.Error(context.Background(), "hidden")
	gl.Info(context.Background(), "below warn")
	gl.Error(context.Background(), "shown")

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "shown", logs[0].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}
