package gormdb

import (
	"context"
	"time"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQuery = 500 * time.Millisecond

//Logger forwards gorm events into the app logger
type Logger struct {
	log   *logrus.Logger
	level logger.LogLevel
}

//NewLogger creates logger over cmdapp.Log
func NewLogger() *Logger {
	return &Logger{log: cmdapp.Log, level: logger.Info}
}

//LogMode returns logger with a new level
func (l *Logger) LogMode(level logger.LogLevel) logger.Interface {
	res := *l
	res.level = level
	return &res
}

//Info logs info event
func (l *Logger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		l.log.Infof("db: "+msg, args...)
	}
}

//Warn logs warning event
func (l *Logger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		l.log.Warnf("db: "+msg, args...)
	}
}

//Error logs error event
func (l *Logger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		l.log.Errorf("db: "+msg, args...)
	}
}

//Trace logs executed statement
func (l *Logger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		sql, rows := fc()
		l.log.Errorf("db: %v [%s] rows: %d, %s", err, elapsed, rows, sql)
	case elapsed > slowQuery && l.level >= logger.Warn:
		sql, rows := fc()
		l.log.Warnf("db: slow query [%s] rows: %d, %s", elapsed, rows, sql)
	case l.log.IsLevelEnabled(logrus.TraceLevel):
		sql, rows := fc()
		l.log.Tracef("db: [%s] rows: %d, %s", elapsed, rows, sql)
	}
}

// gorm's processor type is unexported, so each entry registers on its own processor.
var errorCallbacks = []struct {
	name     string
	register func(db *gorm.DB, after, name string, fn func(*gorm.DB)) error
}{
	{"gorm:create", func(db *gorm.DB, after, name string, fn func(*gorm.DB)) error {
		return db.Callback().Create().After(after).Register(name, fn)
	}},
	{"gorm:query", func(db *gorm.DB, after, name string, fn func(*gorm.DB)) error {
		return db.Callback().Query().After(after).Register(name, fn)
	}},
	{"gorm:update", func(db *gorm.DB, after, name string, fn func(*gorm.DB)) error {
		return db.Callback().Update().After(after).Register(name, fn)
	}},
	{"gorm:delete", func(db *gorm.DB, after, name string, fn func(*gorm.DB)) error {
		return db.Callback().Delete().After(after).Register(name, fn)
	}},
}

func registerErrorCallbacks(db *gorm.DB) error {
	for _, c := range errorCallbacks {
		if err := c.register(db, c.name, "maiebridge:error:"+c.name, onError); err != nil {
			return errors.Wrapf(err, "Can't register callback after %s", c.name)
		}
	}
	return nil
}

func onError(db *gorm.DB) {
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		errorCounter.Inc()
		cmdapp.Log.Warnf("db error on %s: %v", db.Statement.Table, db.Error)
	}
}
