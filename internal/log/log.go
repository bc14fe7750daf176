// Package log configures the process-wide logrus logger.
package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

// Fields is an alias so callers don't import logrus for structured fields.
type Fields = logrus.Fields

// Options configures the logger on first use.
type Options struct {
	// Level is a logrus level name; empty means info.
	Level string
	// File enables a rotating file sink when non-empty.
	File     string
	NoColors bool
	// Output replaces stderr as the console writer.
	Output io.Writer
}

// Init configures the logger. Only the first call has any effect.
func Init(opts Options) *logrus.Logger {
	once.Do(func() {
		logger = newLogger(opts)
	})
	return logger
}

// L returns the logger, initializing it with defaults if needed.
func L() *logrus.Logger {
	return Init(Options{})
}

func newLogger(opts Options) *logrus.Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	l.SetFormatter(&formatter.Formatter{
		NoColors:        opts.NoColors,
		TimestampFormat: "02 Jan 06 - 15:04:05",
		HideKeys:        false,
		CallerFirst:     true,
		FieldsOrder:     []string{"component", "session"},
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" \x1b[%dm[%s:%d][%s()]", 34, path.Base(f.File), f.Line, funcName)
		},
	})

	console := opts.Output
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{console}

	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    50,
			MaxAge:     7,
			MaxBackups: 3,
		})
	}

	l.SetOutput(io.MultiWriter(writers...))
	l.SetReportCaller(level >= logrus.DebugLevel)
	return l
}

// WithComponent returns an entry tagged with the component name.
func WithComponent(name string) *logrus.Entry {
	return L().WithField("component", name)
}

func Debug(fields Fields, msg string) {
	L().WithFields(orEmpty(fields)).Debug(msg)
}

func Info(fields Fields, msg string) {
	L().WithFields(orEmpty(fields)).Info(msg)
}

func Warn(fields Fields, msg string) {
	L().WithFields(orEmpty(fields)).Warn(msg)
}

func Error(fields Fields, msg string) {
	L().WithFields(orEmpty(fields)).Error(msg)
}

func Fatal(fields Fields, msg string) {
	L().WithFields(orEmpty(fields)).Fatal(msg)
}

func orEmpty(fields Fields) Fields {
	if fields == nil {
		return Fields{}
	}
	return fields
}
