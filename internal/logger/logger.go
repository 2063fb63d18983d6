package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultService  = "tractorhub"
	timestampFormat = "2006-01-02T15:04:05.000Z07:00"
)

// open rotated log files, closed by Sync
var (
	rotated   []io.Closer
	rotatedMu sync.Mutex
)

// Logger wraps logrus.Entry to provide structured logging with context support.
type Logger struct {
	*logrus.Entry
}

// Config holds logger configuration.
type Config struct {
	Level       string    // debug, info, warn, error
	Format      string    // json, text
	Output      io.Writer // overrides stdout and File when set
	ServiceName string

	// File adds a size-rotated log file. With FileOnly the console is dropped.
	File       string
	FileOnly   bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultConfig is the console logger used before configuration is loaded.
func DefaultConfig() *Config {
	return &Config{Level: "info", Format: "text", Output: os.Stdout, ServiceName: defaultService}
}

// New creates a Logger.
// Parameters:
//   - cfg: logger configuration; nil uses DefaultConfig. Unknown levels fall back to info.
//
// Returns:
//   - *Logger: logger tagged with the service name.
func New(cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	base := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)
	base.SetReportCaller(true)
	base.SetFormatter(formatterFor(cfg.Format))
	base.SetOutput(outputFor(cfg))

	service := cfg.ServiceName
	if service == "" {
		service = defaultService
	}
	return &Logger{Entry: base.WithField("service", service)}
}

func formatterFor(format string) logrus.Formatter {
	if strings.EqualFold(format, "json") {
		return &logrus.JSONFormatter{
			TimestampFormat:  timestampFormat,
			CallerPrettyfier: shortCaller,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		}
	}
	return &logrus.TextFormatter{
		FullTimestamp:    true,
		TimestampFormat:  timestampFormat,
		CallerPrettyfier: shortCaller,
	}
}

// outputFor combines the console and the rotated file. If the log
// directory cannot be created the console is kept even with FileOnly.
func outputFor(cfg *Config) io.Writer {
	if cfg.Output != nil {
		return cfg.Output
	}
	if cfg.File == "" {
		return os.Stdout
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return os.Stdout
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	rotatedMu.Lock()
	rotated = append(rotated, file)
	rotatedMu.Unlock()

	if cfg.FileOnly {
		return file
	}
	return io.MultiWriter(os.Stdout, file)
}

// Sync closes every rotated log file opened by New. Call it before exit.
func Sync() error {
	rotatedMu.Lock()
	defer rotatedMu.Unlock()

	var first error
	for _, c := range rotated {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	rotated = nil
	return first
}

// SetVerbose switches the logger to debug level.
func (l *Logger) SetVerbose(verbose bool) {
	if verbose {
		l.Logger.SetLevel(logrus.DebugLevel)
	}
}

func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{Entry: l.Entry.WithFields(logrus.Fields(fields))}
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{Entry: l.Entry.WithField(key, value)}
}

func (l *Logger) WithError(err error) *Logger {
	return &Logger{Entry: l.Entry.WithError(err)}
}

// shortCaller reports callers as pkg.Func and file.go:line.
func shortCaller(frame *runtime.Frame) (string, string) {
	fn := frame.Function
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		fn = fn[i+1:]
	}
	return fn, filepath.Base(frame.File) + ":" + strconv.Itoa(frame.Line)
}

// CtxDebug logs at debug level with the context logger.
func CtxDebug(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Debugf(format, args...)
}

// CtxWarn logs at warn level with the context logger.
func CtxWarn(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Warnf(format, args...)
}
