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

func newGormObserver(t *testing.T, level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func orderQuery() (string, int64) {
	return "SELECT * FROM orders WHERE synced_to_crm = false", 3
}

func TestNewGormLoggerDefaults(t *testing.T) {
	gormLog, _ := newGormObserver(t, gormlogger.Info)

	assert.Equal(t, gormlogger.Info, gormLog.level)
	assert.Equal(t, 200*time.Millisecond, gormLog.slow)
	assert.True(t, gormLog.skipNotFound)
}

func TestGormLoggerOptions(t *testing.T) {
	gormLog, _ := newGormObserver(t, gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, 500*time.Millisecond, gormLog.slow)
	assert.False(t, gormLog.skipNotFound)
}

func TestGormLogger_LogMode(t *testing.T) {
	gormLog, _ := newGormObserver(t, gormlogger.Info)
	changed := gormLog.LogMode(gormlogger.Warn)

	// original is untouched, the copy carries the new level
	assert.Equal(t, gormlogger.Info, gormLog.level)
	clone, ok := changed.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, clone.level)
}

func TestGormLogger_Levels(t *testing.T) {
	gormLog, recorded := newGormObserver(t, gormlogger.Info)

	gormLog.Info(context.Background(), "migrating %s", "orders")
	gormLog.Warn(context.Background(), "retrying %d", 2)
	gormLog.Error(context.Background(), "connection lost")

	logs := recorded.All()
	require.Len(t, logs, 3)
	assert.Equal(t, "migrating orders", logs[0].Message)
	assert.Equal(t, zapcore.WarnLevel, logs[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs[2].Level)
}

func TestGormLogger_SilentSuppressesEverything(t *testing.T) {
	gormLog, recorded := newGormObserver(t, gormlogger.Silent)

	gormLog.Info(context.Background(), "ignored")
	gormLog.Trace(context.Background(), time.Now(), orderQuery, nil)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_TraceError(t *testing.T) {
	gormLog, recorded := newGormObserver(t, gormlogger.Error)

	gormLog.Trace(context.Background(), time.Now(), orderQuery, errors.New("bad connection"))

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "SQL Error")
}

func TestGormLogger_TraceSkipsRecordNotFound(t *testing.T) {
	gormLog, recorded := newGormObserver(t, gormlogger.Error)

	gormLog.Trace(context.Background(), time.Now(), orderQuery, gormlogger.ErrRecordNotFound)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_TraceSlowQuery(t *testing.T) {
	gormLog, recorded := newGormObserver(t, gormlogger.Warn, WithSlowThreshold(time.Nanosecond))

	gormLog.Trace(context.Background(), time.Now().Add(-time.Second), orderQuery, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "SLOW SQL")
}

func TestGormLogger_TraceNormalQuery(t *testing.T) {
	gormLog, recorded := newGormObserver(t, gormlogger.Info)

	gormLog.Trace(context.Background(), time.Now(), orderQuery, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "SQL Query")
	assert.Equal(t, zapcore.DebugLevel, logs[0].Level)
}

func TestGormLogger_TraceCarriesRequestID(t *testing.T) {
	gormLog, recorded := newGormObserver(t, gormlogger.Info)

	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-42")
	gormLog.Trace(ctx, time.Now(), orderQuery, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	found := false
	for _, field := range logs[0].Context {
		if field.Key == "request_id" {
			found = true
			assert.Equal(t, "req-42", field.String)
		}
	}
	assert.True(t, found)
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, MapGormLogLevel(tt.level), tt.level)
	}
}
