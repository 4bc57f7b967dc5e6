package log

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/AMD-AGI/voyant/pkg/logger/conf"
)

type Fields map[string]interface{}

var globalLogger *logrus.Logger
var ErrorLoggerNotInitialize = fmt.Errorf("Logger not initialized")

func init() {
	_ = InitGlobalLogger(conf.DefaultConfig())
}

func InitGlobalLogger(cfg *conf.LogConfig) error {
	l := logrus.New()
	l.SetLevel(toLogrusLevel(cfg.Level))
	switch cfg.Formatter {
	case conf.JSONFormater:
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if cfg.File != nil && cfg.File.Path != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		}
		l.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}
	globalLogger = l
	return nil
}

func GlobalLogger() *logrus.Logger {
	if globalLogger == nil {
		panic(ErrorLoggerNotInitialize)
	}
	return globalLogger
}

func SetGlobalLogger(logger *logrus.Logger) {
	globalLogger = logger
}

func WithFields(fields Fields) *logrus.Entry {
	return GlobalLogger().WithFields(logrus.Fields(fields))
}

func toLogrusLevel(level conf.Level) logrus.Level {
	switch level {
	case conf.FatalLevel:
		return logrus.FatalLevel
	case conf.ErrorLevel:
		return logrus.ErrorLevel
	case conf.WarnLevel:
		return logrus.WarnLevel
	case conf.DebugLevel:
		return logrus.DebugLevel
	case conf.TraceLevel:
		return logrus.TraceLevel
	default:
		return logrus.InfoLevel
	}
}

func Info(args ...interface{}) {
	GlobalLogger().Info(args...)
}

func Infof(template string, args ...interface{}) {
	GlobalLogger().Infof(template, args...)
}

func Trace(args ...interface{}) {
	GlobalLogger().Trace(args...)
}

func Tracef(template string, args ...interface{}) {
	GlobalLogger().Tracef(template, args...)
}

func Debug(args ...interface{}) {
	GlobalLogger().Debug(args...)
}

func Debugf(template string, args ...interface{}) {
	GlobalLogger().Debugf(template, args...)
}

func Warn(args ...interface{}) {
	GlobalLogger().Warn(args...)
}

func Warnf(template string, args ...interface{}) {
	GlobalLogger().Warnf(template, args...)
}

func Error(args ...interface{}) {
	GlobalLogger().Error(args...)
}

func Errorf(template string, args ...interface{}) {
	GlobalLogger().Errorf(template, args...)
}

func Fatal(args ...interface{}) {
	GlobalLogger().Fatal(args...)
}

func Fatalf(template string, args ...interface{}) {
	GlobalLogger().Fatalf(template, args...)
}
