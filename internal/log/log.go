// Package log provides the batch-wide zap logger.
package log

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.SugaredLogger
var baseLogger *zap.Logger

// Init initializes the package-level logger. Debug output uses zap's
// development config; otherwise JSON production logging at info level.
func Init(debug bool) error {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapLogger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %v", err)
	}

	baseLogger = zapLogger
	log = zapLogger.Sugar()
	return nil
}

// GetZapLogger returns the base zap logger for cases where it's needed (like GORM)
func GetZapLogger() *zap.Logger {
	if baseLogger == nil {
		fallback()
	}
	return baseLogger
}

// GetSugaredLogger returns the sugared logger without the wrapper caller skip,
// for handing to components
func GetSugaredLogger() *zap.SugaredLogger {
	return sugar().WithOptions(zap.AddCallerSkip(-1))
}

func sugar() *zap.SugaredLogger {
	if log == nil {
		fallback()
	}
	return log
}

func fallback() {
	baseLogger, _ = zap.NewProduction(zap.AddCallerSkip(1))
	log = baseLogger.Sugar()
}

// Sync flushes any buffered log entries
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

func Debugf(template string, args ...interface{}) {
	sugar().Debugf(template, args...)
}

func Info(args ...interface{}) {
	sugar().Info(args...)
}

func Infof(template string, args ...interface{}) {
	sugar().Infof(template, args...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	sugar().Infow(msg, keysAndValues...)
}

func Warnf(template string, args ...interface{}) {
	sugar().Warnf(template, args...)
}

func Errorf(template string, args ...interface{}) {
	sugar().Errorf(template, args...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	sugar().Errorw(msg, keysAndValues...)
}
