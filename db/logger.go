package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	dbLogger "gorm.io/gorm/logger"
)

var _ dbLogger.Interface = (*logger)(nil)

const slowQueryThreshold = 500 * time.Millisecond

var levels = map[dbLogger.LogLevel]zapcore.Level{
	dbLogger.Silent: zapcore.FatalLevel,
	dbLogger.Error:  zapcore.ErrorLevel,
	dbLogger.Warn:   zapcore.WarnLevel,
	dbLogger.Info:   zapcore.InfoLevel,
}

// logger routes gorm output through zap. It keeps its own level so LogMode on
// a session does not change the application log level.
type logger struct {
	logger *zap.Logger
	level  zapcore.Level
}

func (l logger) LogMode(level dbLogger.LogLevel) dbLogger.Interface {
	if zapLevel, ok := levels[level]; ok {
		l.level = zapLevel
	}

	return l
}

func (l logger) Info(ctx context.Context, s string, i ...interface{}) {
	if l.enabled(zapcore.InfoLevel) {
		l.logger.Info(fmt.Sprintf(s, i...))
	}
}

func (l logger) Warn(ctx context.Context, s string, i ...interface{}) {
	if l.enabled(zapcore.WarnLevel) {
		l.logger.Warn(fmt.Sprintf(s, i...))
	}
}

func (l logger) Error(ctx context.Context, s string, i ...interface{}) {
	if l.enabled(zapcore.ErrorLevel) {
		l.logger.Error(fmt.Sprintf(s, i...))
	}
}

func (l logger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.enabled(zapcore.ErrorLevel):
		sql, rowsAffected := fc()
		l.logger.Error("query failed", zap.String("sql", sql), zap.Int64("rows_affected", rowsAffected), zap.Duration("elapsed", elapsed), zap.Error(err))
	case elapsed > slowQueryThreshold && l.enabled(zapcore.WarnLevel):
		sql, rowsAffected := fc()
		l.logger.Warn("slow query", zap.String("sql", sql), zap.Int64("rows_affected", rowsAffected), zap.Duration("elapsed", elapsed))
	case l.enabled(zapcore.DebugLevel):
		sql, rowsAffected := fc()
		l.logger.Debug("trace", zap.String("sql", sql), zap.Int64("rows_affected", rowsAffected), zap.Duration("elapsed", elapsed))
	}
}

func (l logger) enabled(level zapcore.Level) bool {
	return level >= l.level && l.logger.Core().Enabled(level)
}

func newLogger(zlog *zap.Logger, zlogLevel *zap.AtomicLevel) *logger {
	return &logger{logger: zlog.Named("gorm"), level: zlogLevel.Level()}
}
