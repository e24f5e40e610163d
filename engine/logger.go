package engine

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/enginecore/config"
	"github.com/wippyai/enginecore/lifecycle"
	"github.com/wippyai/enginecore/memory"
)

var logger atomic.Pointer[zap.Logger]

// Logger returns the engine's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	logger.CompareAndSwap(nil, zap.NewNop())
	return logger.Load()
}

// SetLogger configures the engine logger and the loggers of the packages it
// owns. A nil logger restores the no-op default. This must be called before
// New.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
	config.SetLogger(l.Named("config"))
	lifecycle.SetLogger(l.Named("lifecycle"))
	memory.SetLogger(l.Named("memory"))
}
