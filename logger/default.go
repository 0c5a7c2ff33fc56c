package logger

import "sync/atomic"

var defLogger atomic.Pointer[Logger]

func init() {
	SetDefault(NewSlog(InfoLevel, false))
}

// GetLogger returns the process default logger. Components fall back to it when
// no logger is injected.
func GetLogger() Logger {
	return *defLogger.Load()
}

// SetDefault replaces the process default logger. A nil logger is ignored.
func SetDefault(l Logger) {
	if l != nil {
		defLogger.Store(&l)
	}
}
