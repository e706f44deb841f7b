package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("whatever"))
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	l := FromContext(context.Background())
	assert.NotNil(t, l)
}

func TestWithRequest(t *testing.T) {
	ctx := WithRequest(context.Background(), zap.NewNop(), "req-1", "user-9")

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "user-9", UserID(ctx))
	assert.NotNil(t, FromContext(ctx))
}

func TestWithUser_KeepsRequestID(t *testing.T) {
	ctx := WithRequest(context.Background(), zap.NewNop(), "req-1", "")
	ctx = WithUser(ctx, "user-9")

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "user-9", UserID(ctx))
}
