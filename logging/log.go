package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the process-wide logger
type Options struct {
	Level string // debug, info, warn, error
	File  string // write here instead of stderr (needed while the TUI owns the terminal)
	Dev   bool   // human-friendly console output with caller info
}

var (
	mu       sync.Mutex
	base     = zap.NewNop()
	file     *os.File
	counters = make(map[string]int)
)

// Init replaces the global logger. Safe to call more than once.
func Init(opts Options) error {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		l, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		level = l
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encCfg)

	var sink zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	var f *os.File
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return err
		}
		var err error
		f, err = os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		sink = zapcore.AddSync(f)
	}

	var zopts []zap.Option
	if opts.Dev {
		zopts = append(zopts, zap.AddCaller(), zap.Development())
	}
	logger := zap.New(zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(level)), zopts...)

	mu.Lock()
	defer mu.Unlock()
	_ = base.Sync()
	if file != nil {
		file.Close()
	}
	base = logger
	file = f
	base.Named("log").Debug("=== logging started ===")
	return nil
}

// Sync flushes buffered entries and closes the log file
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	_ = base.Sync()
	if file != nil {
		file.Close()
		file = nil
		base = zap.NewNop()
	}
}

// For returns a logger named after category
func For(category string) *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return base.Named(category).Sugar()
}

// Log writes a debug-level message under category
func Log(category, format string, args ...any) {
	For(category).Debugf(format, args...)
}

// Every logs only every n-th call with the same category and format
// (use for high-frequency events)
func Every(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
