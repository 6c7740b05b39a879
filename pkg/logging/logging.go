package logging

import (
	"context"
	"fmt"
	"io"
	"path"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

type Options struct {
	Level zerolog.Level
	// JSON disables the console writer
	JSON      bool
	WithColor bool
	// TimeFormat defaults to millisecond precision without a timezone
	TimeFormat string
	Caller     bool
}

// New builds the root logger writing to w.
func New(w io.Writer, opts Options) zerolog.Logger {
	var out io.Writer = w
	if !opts.JSON {
		out = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    !opts.WithColor,
			PartsOrder: []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, "caller", zerolog.MessageFieldName},
			FieldsExclude: []string{
				"caller",
			},
		}
	}

	logger := zerolog.New(out).Level(opts.Level).Hook(timeHook{format: opts.TimeFormat})
	if opts.Caller {
		logger = logger.Hook(callerHook{colorize: opts.WithColor})
	}
	return logger
}

// WithContext attaches a new root logger to ctx.
func WithContext(ctx context.Context, w io.Writer, opts Options) context.Context {
	logger := New(w, opts)
	return logger.WithContext(ctx)
}

// skipFrames reads the unexported skip count of e so the caller hook reports the
// frame that logged, not a wrapper around it.
func skipFrames(e *zerolog.Event) int {
	field := reflect.ValueOf(e).Elem().FieldByName("skipFrame")
	if field.IsValid() && field.CanAddr() {
		return int(field.Int())
	}
	return 0
}

type timeHook struct {
	format string
}

func (me timeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	format := me.format
	if format == "" {
		format = "2006-01-02T15:04:05.0000Z"
	}
	e.Str("time", time.Now().Format(format))
}

type callerHook struct {
	colorize bool
}

func (me callerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	pc, file, line, ok := runtime.Caller(skipFrames(e) + 3)
	if !ok {
		return
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return
	}
	e.Str("caller", FormatCaller(packageOf(fn.Name()), file, line, me.colorize))
}

// packageOf returns the import path of a fully qualified function name such as
// "example.com/pkg.(*T).Method".
func packageOf(funcName string) string {
	slash := max(strings.LastIndexByte(funcName, '/'), 0)
	dot := strings.IndexByte(funcName[slash:], '.')
	if dot < 0 {
		return funcName
	}
	return funcName[:slash+dot]
}

// FormatCaller renders pkg:file.go:line, with the file and line highlighted when
// colorize is set.
func FormatCaller(pkg, file string, line int, colorize bool) string {
	name := path.Base(file)
	if !colorize {
		return fmt.Sprintf("%s:%s:%d", pkg, name, line)
	}
	sep := color.New(color.Faint).Sprint(":")
	return pkg + sep + color.New(color.Bold).Sprint(name) + sep + color.New(color.FgHiRed, color.Bold).Sprintf("%d", line)
}
