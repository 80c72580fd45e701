package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. format "json" (default in release) or "text".
func New(level, format, mode string) *logrus.Logger {
	return newLogger(os.Stdout, level, format, mode)
}

func newLogger(out io.Writer, level, format, mode string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)

	switch {
	case format == "text", format == "" && mode == "dev":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	lv, err := logrus.ParseLevel(level)
	if err != nil {
		lv = logrus.InfoLevel
	}
	l.SetLevel(lv)
	return l
}

// LogError: module / func / context 付きでエラーを出す
func LogError(l *logrus.Logger, module, funcName, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   module,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	l.WithFields(fields).Error(err.Error())
}
