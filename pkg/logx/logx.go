// Package logx is relnotify's structured logger.
//
// It is a thin value-type wrapper over zerolog: console output stays readable
// for people running the tool by hand, and format "json" keeps each line
// machine-parseable for schedulers that collect stdout.
package logx

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Field mutates a zerolog event. Fields are applied in order.
type Field func(e *zerolog.Event)

func String(k, v string) Field  { return func(e *zerolog.Event) { e.Str(k, v) } }
func Int(k string, v int) Field { return func(e *zerolog.Event) { e.Int(k, v) } }
func Bool(k string, v bool) Field {
	return func(e *zerolog.Event) { e.Bool(k, v) }
}
func Duration(k string, v time.Duration) Field {
	return func(e *zerolog.Event) { e.Dur(k, v) }
}
func Any(k string, v any) Field { return func(e *zerolog.Event) { e.Interface(k, v) } }
func Err(err error) Field {
	return func(e *zerolog.Event) {
		if err != nil {
			e.Err(err)
		}
	}
}

// Logger is a structured logger. The zero value discards everything.
type Logger struct {
	zl     zerolog.Logger
	set    bool
	fields []Field
}

// New writes to w at the given level. Format "json" emits JSON lines,
// anything else a human-readable console layout.
func New(w io.Writer, level, format string) Logger {
	zerolog.ErrorFieldName = "err"
	zerolog.TimeFieldFormat = consoleTimeFormat

	if w == nil {
		w = os.Stdout
	}
	if !strings.EqualFold(strings.TrimSpace(format), "json") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
	}
	zl := zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
	return Logger{zl: zl, set: true}
}

// Nop returns a logger that never writes anything.
func Nop() Logger {
	return Logger{zl: zerolog.Nop(), set: true}
}

// ParseLevel maps a level name to zerolog, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// With returns a derived logger carrying fixed fields.
func (l Logger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	cp := l
	cp.fields = append(append([]Field(nil), l.fields...), fields...)
	return cp
}

func (l Logger) Debug(msg string, fields ...Field) { l.log(zerolog.DebugLevel, msg, fields) }
func (l Logger) Info(msg string, fields ...Field)  { l.log(zerolog.InfoLevel, msg, fields) }
func (l Logger) Warn(msg string, fields ...Field)  { l.log(zerolog.WarnLevel, msg, fields) }
func (l Logger) Error(msg string, fields ...Field) { l.log(zerolog.ErrorLevel, msg, fields) }

func (l Logger) log(level zerolog.Level, msg string, fields []Field) {
	if !l.set {
		return
	}
	e := l.zl.WithLevel(level)
	if e == nil {
		return
	}
	for _, f := range l.fields {
		if f != nil {
			f(e)
		}
	}
	for _, f := range fields {
		if f != nil {
			f(e)
		}
	}
	e.Msg(msg)
}

// CronLogger adapts a Logger to robfig/cron's logging interface.
type CronLogger struct {
	Log Logger
}

func (c CronLogger) Info(msg string, keysAndValues ...any) {
	c.Log.Debug(msg, pairs(keysAndValues)...)
}

func (c CronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.Log.Error(msg, append(pairs(keysAndValues), Err(err))...)
}

func pairs(kv []any) []Field {
	var out []Field
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		out = append(out, Any(k, kv[i+1]))
	}
	return out
}
