// Package runlog writes the per-run event stream: one JSON object per line,
// flushed and fsynced on every write so the decision trail survives crashes.
package runlog

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured event sink for one run.
type Logger struct {
	zl   *zap.Logger
	file *os.File
	path string
}

// syncWriter fsyncs after every write; crash forensics beat throughput here.
type syncWriter struct {
	f *os.File
}

func (w syncWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err == nil {
		err = w.f.Sync()
	}
	return n, err
}

func (w syncWriter) Sync() error { return w.f.Sync() }

// New opens a timestamped JSONL log under dir.
func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, time.Now().Format("2006-01-02_15-04-05")+"_agent.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	encCfg := zapcore.EncoderConfig{
		MessageKey: "event",
		TimeKey:    "ts",
		EncodeTime: zapcore.ISO8601TimeEncoder,
		LineEnding: zapcore.DefaultLineEnding,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), syncWriter{f: f}, zapcore.InfoLevel)
	return &Logger{zl: zap.New(core), file: f, path: path}, nil
}

// Event appends one structured event line.
func (l *Logger) Event(name string, fields ...zap.Field) {
	if l == nil || l.zl == nil {
		return
	}
	l.zl.Info(name, fields...)
}

// Report adapts Event to the sanitizer's map-based callback.
func (l *Logger) Report(event string, fields map[string]any) {
	zfields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zfields = append(zfields, zap.Any(k, v))
	}
	l.Event(event, zfields...)
}

func (l *Logger) Path() string { return l.path }

func (l *Logger) Close() {
	if l == nil {
		return
	}
	_ = l.zl.Sync()
	_ = l.file.Close()
}
