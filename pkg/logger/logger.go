package logger

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	zl   zerolog.Logger
	base []Field
	slot *collectorSlot
}

// collectorSlot is shared by a logger and the children derived with With.
type collectorSlot struct {
	mu        sync.RWMutex
	collector *LogCollector
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		output = file
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: timeFormat}
	}

	zl := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(4).
		Logger()
	return &Logger{zl: zl, slot: &collectorSlot{}}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop(), slot: &collectorSlot{}}
}

// With returns a child logger that adds fields to every entry. The child shares the
// parent's collector.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = f.addToContext(ctx)
	}
	base := make([]Field, 0, len(l.base)+len(fields))
	base = append(append(base, l.base...), fields...)
	return &Logger{zl: ctx.Logger(), base: base, slot: l.slot}
}

// Component is shorthand for With(String("component", name)).
func (l *Logger) Component(name string) *Logger {
	return l.With(String("component", name))
}

func (l *Logger) Debug(msg string, fields ...Field) { l.write(l.zl.Debug(), msg, fields) }

func (l *Logger) Info(msg string, fields ...Field) { l.write(l.zl.Info(), msg, fields) }

// Warn logs and hands the entry to the collector. Provider failures that end in a
// fallback are warnings, so they are worth aggregating.
func (l *Logger) Warn(msg string, fields ...Field) {
	l.write(l.zl.Warn(), msg, fields)
	l.collect("warn", msg, fields)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.write(l.zl.Error(), msg, fields)
	l.collect("error", msg, fields)
}

func (l *Logger) write(e *zerolog.Event, msg string, fields []Field) {
	if e == nil {
		return
	}
	for _, f := range fields {
		if f.add != nil {
			f.add(e)
		}
	}
	e.Msg(msg)
}

func (l *Logger) collect(level, msg string, fields []Field) {
	if l.slot == nil {
		return
	}
	l.slot.mu.RLock()
	c := l.slot.collector
	l.slot.mu.RUnlock()
	if c == nil {
		return
	}

	values := make(map[string]interface{}, len(l.base)+len(fields))
	for _, f := range l.base {
		values[f.Key] = f.Value
	}
	for _, f := range fields {
		values[f.Key] = f.Value
	}
	c.AddLog(level, msg, values, caller(3))
}

// caller reports the file (last two path elements) and line skip frames up.
func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	dir, name := filepath.Split(file)
	return fmt.Sprintf("%s/%s:%d", filepath.Base(dir), name, line)
}

// AddCollector starts aggregating warnings and errors, replacing any previous collector.
func (l *Logger) AddCollector(config *CollectionConfig) {
	l.slot.mu.Lock()
	defer l.slot.mu.Unlock()
	if l.slot.collector != nil {
		l.slot.collector.Close()
	}
	l.slot.collector = NewLogCollector(config)
}

// RemoveCollector flushes and detaches the collector.
func (l *Logger) RemoveCollector() {
	l.slot.mu.Lock()
	c := l.slot.collector
	l.slot.collector = nil
	l.slot.mu.Unlock()
	if c != nil {
		c.Close()
	}
}

// Field is one structured key/value of a log entry.
type Field struct {
	Key   string
	Value interface{}
	add   func(e *zerolog.Event)
	ctx   func(c zerolog.Context) zerolog.Context
}

func (f Field) addToContext(c zerolog.Context) zerolog.Context {
	if f.ctx != nil {
		return f.ctx(c)
	}
	return c.Interface(f.Key, f.Value)
}

func String(key, value string) Field {
	return Field{
		Key: key, Value: value,
		add: func(e *zerolog.Event) { e.Str(key, value) },
		ctx: func(c zerolog.Context) zerolog.Context { return c.Str(key, value) },
	}
}

func Int(key string, value int) Field {
	return Field{
		Key: key, Value: value,
		add: func(e *zerolog.Event) { e.Int(key, value) },
		ctx: func(c zerolog.Context) zerolog.Context { return c.Int(key, value) },
	}
}

func Int64(key string, value int64) Field {
	return Field{
		Key: key, Value: value,
		add: func(e *zerolog.Event) { e.Int64(key, value) },
		ctx: func(c zerolog.Context) zerolog.Context { return c.Int64(key, value) },
	}
}

// Float64 logs non-finite values as null; JSON has no NaN.
func Float64(key string, value float64) Field {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Field{
			Key: key, Value: nil,
			add: func(e *zerolog.Event) { e.Interface(key, nil) },
		}
	}
	return Field{
		Key: key, Value: value,
		add: func(e *zerolog.Event) { e.Float64(key, value) },
		ctx: func(c zerolog.Context) zerolog.Context { return c.Float64(key, value) },
	}
}

func Bool(key string, value bool) Field {
	return Field{
		Key: key, Value: value,
		add: func(e *zerolog.Event) { e.Bool(key, value) },
		ctx: func(c zerolog.Context) zerolog.Context { return c.Bool(key, value) },
	}
}

// Error logs err under "error". A nil error is omitted.
func Error(err error) Field {
	if err == nil {
		return Field{
			Key: "error",
			add: func(*zerolog.Event) {},
			ctx: func(c zerolog.Context) zerolog.Context { return c },
		}
	}
	msg := err.Error()
	return Field{
		Key: "error", Value: msg,
		add: func(e *zerolog.Event) { e.Str("error", msg) },
	}
}

func Any(key string, value interface{}) Field {
	return Field{
		Key: key, Value: value,
		add: func(e *zerolog.Event) { e.Interface(key, value) },
	}
}

// Duration logs whole milliseconds.
func Duration(key string, value time.Duration) Field {
	return Int64(key, value.Milliseconds())
}

func Strings(key string, value []string) Field {
	return String(key, strings.Join(value, ", "))
}

// Time logs the UTC date when value is midnight, RFC3339 otherwise.
func Time(key string, value time.Time) Field {
	u := value.UTC()
	if u.Equal(u.Truncate(24 * time.Hour)) {
		return String(key, u.Format("2006-01-02"))
	}
	return String(key, u.Format(time.RFC3339))
}
