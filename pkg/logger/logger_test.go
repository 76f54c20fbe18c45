package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := L()
	Set(zap.New(core))
	t.Cleanup(func() { Set(prev) })
	return logs
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestID(ctx))

	assert.Empty(t, RequestID(context.Background()))

	wrongType := context.WithValue(context.Background(), requestIDKey, 42)
	assert.Empty(t, RequestID(wrongType))
}

func TestInfo_InjectsRequestID(t *testing.T) {
	logs := observe(t)

	Info(WithRequestID(context.Background(), "abc"), "loan created", zap.String("loan_id", "l1"))

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "loan created", entries[0].Message)
		assert.Equal(t, "abc", fields["request_id"])
		assert.Equal(t, "l1", fields["loan_id"])
	}
}

func TestWarn_NoRequestID(t *testing.T) {
	logs := observe(t)

	Warn(context.Background(), "mirror failed")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		_, ok := entries[0].ContextMap()["request_id"]
		assert.False(t, ok)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	}
}

func TestError_AttachesError(t *testing.T) {
	logs := observe(t)

	Error(context.Background(), "storage failure", errors.New("disk full"))

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "disk full", entries[0].ContextMap()["error"])
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}
