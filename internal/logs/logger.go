package logs

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
)

// Logger logger interface
type Logger interface {
	Debug(ctx context.Context, msg string, args ...interface{})
	Info(ctx context.Context, msg string, args ...interface{})
	Warn(ctx context.Context, msg string, args ...interface{})
	Error(ctx context.Context, msg string, args ...interface{})
}

// LogLevel log level
type LogLevel int

const (
	//Debug enable debug or above log output
	Debug LogLevel = 0
	//Info enable info or above log output
	Info LogLevel = 1
	//Warn enable warn or above log output
	Warn LogLevel = 2
	//Error enable error or above log output
	Error LogLevel = 3
)

func (ll LogLevel) logrusLevel() logrus.Level {
	switch ll {
	case Debug:
		return logrus.DebugLevel
	case Info:
		return logrus.InfoLevel
	case Warn:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}

type defaultLogger struct {
	log *logrus.Logger
}

//NewLogger init Logger instance backed by logrus
func NewLogger(writer io.Writer, logLevel LogLevel) *defaultLogger {
	log := logrus.New()
	log.SetOutput(writer)
	log.SetLevel(logLevel.logrusLevel())
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &defaultLogger{log: log}
}

//NewJSONLogger init Logger instance emitting one JSON object per line
func NewJSONLogger(writer io.Writer, logLevel LogLevel) *defaultLogger {
	l := NewLogger(writer, logLevel)
	l.log.SetFormatter(&logrus.JSONFormatter{})
	return l
}

func (l *defaultLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.log.Debugf(msg, args...)
}

func (l *defaultLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.log.Infof(msg, args...)
}

func (l *defaultLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.log.Warnf(msg, args...)
}

func (l *defaultLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.log.Errorf(msg, args...)
}
