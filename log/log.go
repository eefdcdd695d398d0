// Package log is a small structured-logging façade, in the shape the rest
// of this module expects (Logger, Helper, level filtering), backed by
// go-kit/log.
package log

import (
	"fmt"
	"io"
	"os"
	"time"

	kitlog "github.com/go-kit/log"
)

// Level is a logging severity.
type Level int

// Severity levels, most to least verbose filtering threshold.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Logger logs a keyval pair list, mirroring kitlog.Logger.
type Logger interface {
	Log(keyvals ...interface{}) error
}

// NewStdLogger returns a Logger that writes logfmt lines to w, timestamped.
func NewStdLogger(w io.Writer) Logger {
	base := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	return kitlog.With(base, "ts", kitlog.TimestampFormat(time.Now, time.RFC3339))
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger {
	return kitlog.NewNopLogger()
}

type filter struct {
	next      Logger
	threshold Level
}

// FilterOption configures NewFilter.
type FilterOption func(*filter)

// FilterLevel sets the minimum level that passes through the filter.
func FilterLevel(l Level) FilterOption {
	return func(f *filter) { f.threshold = l }
}

// NewFilter wraps a Logger, dropping any record below the configured level.
// The level is carried as the "level" keyval, the same convention the
// Helper below writes.
func NewFilter(next Logger, opts ...FilterOption) Logger {
	f := &filter{next: next, threshold: LevelInfo}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *filter) Log(keyvals ...interface{}) error {
	lvl := LevelInfo
	for i := 0; i+1 < len(keyvals); i += 2 {
		if keyvals[i] == "level" {
			if s, ok := keyvals[i+1].(string); ok {
				switch s {
				case "debug":
					lvl = LevelDebug
				case "warn":
					lvl = LevelWarn
				case "error":
					lvl = LevelError
				default:
					lvl = LevelInfo
				}
			}
		}
	}
	if lvl < f.threshold {
		return nil
	}
	return f.next.Log(keyvals...)
}

// Helper adds level-tagged printf-style convenience methods over a Logger,
// mirroring the Helper type the rest of this module's CLI and Catalog
// parser expect (Infof/Warnf/Errorf/Debugf).
type Helper struct {
	logger Logger
}

// NewHelper wraps logger.
func NewHelper(logger Logger) *Helper {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Helper{logger: logger}
}

func (h *Helper) log(level Level, format string, args ...interface{}) {
	_ = h.logger.Log("level", level.String(), "msg", fmt.Sprintf(format, args...))
}

// Debugf logs at debug level.
func (h *Helper) Debugf(format string, args ...interface{}) { h.log(LevelDebug, format, args...) }

// Infof logs at info level.
func (h *Helper) Infof(format string, args ...interface{}) { h.log(LevelInfo, format, args...) }

// Warnf logs at warn level.
func (h *Helper) Warnf(format string, args ...interface{}) { h.log(LevelWarn, format, args...) }

// Errorf logs at error level.
func (h *Helper) Errorf(format string, args ...interface{}) { h.log(LevelError, format, args...) }

// DefaultHelper is used wherever a caller passes a nil *Options.Logger.
func DefaultHelper() *Helper {
	logger := NewFilter(NewStdLogger(os.Stderr), FilterLevel(LevelWarn))
	return NewHelper(logger)
}
