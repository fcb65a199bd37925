package log

import (
	"io"

	"gopkg.in/Sirupsen/logrus.v0"
)

type Level uint32

// Levels mirror logrus ones, lower is more severe.
const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

var disabled bool

// Disable turns off all logging, whatever the level or the module.
func Disable() {
	disabled = true
	logrus.SetOutput(io.Discard)
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

func emit(entry *logrus.Entry, lvl Level, msg string) {
	switch lvl {
	case PanicLevel:
		entry.Panic(msg)
	case FatalLevel:
		entry.Fatal(msg)
	case ErrorLevel:
		entry.Error(msg)
	case WarnLevel:
		entry.Warn(msg)
	case InfoLevel:
		entry.Info(msg)
	default:
		entry.Debug(msg)
	}
}

func init() {
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
}
