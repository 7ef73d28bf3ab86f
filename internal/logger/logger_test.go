package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitWritesToFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "logs", "fairbot.log")
	l := Init(Config{Level: "debug", Path: p, MaxSizeMB: 1})
	l.Infow("hello", "k", "v")
	_ = Sync()

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestGetPrefersContextLogger(t *testing.T) {
	ctxLogger := zap.NewExample().Sugar()
	ctx := WithContext(context.Background(), ctxLogger)
	assert.Same(t, ctxLogger, Get(ctx))
	assert.NotNil(t, Get(nil))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}
