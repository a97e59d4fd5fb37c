package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func observed() (*Gorm, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGorm(zap.New(core)), logs
}

func TestGorm_Trace(t *testing.T) {
	sql := func() (string, int64) { return "SELECT 1", 0 }
	ctx := context.Background()

	g, logs := observed()
	g.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Zero(t, logs.Len(), "not found is an expected outcome")

	g.Trace(ctx, time.Now(), sql, errors.New("disk I/O error"))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "SELECT 1", entry.ContextMap()["sql"])

	g.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	assert.Equal(t, 1, logs.FilterMessage("slow query").Len())

	g.Trace(ctx, time.Now(), sql, nil)
	assert.Equal(t, 2, logs.Len(), "fast queries stay quiet at warn level")
}

func TestGorm_LogMode(t *testing.T) {
	g, logs := observed()
	silent := g.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), func() (string, int64) { return "", 0 }, errors.New("boom"))
	silent.Error(context.Background(), "boom %d", 1)
	assert.Zero(t, logs.Len())

	verbose := g.LogMode(gormlogger.Info)
	verbose.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 2", 1 }, nil)
	verbose.Info(context.Background(), "migrated %s", "orders")
	assert.Equal(t, 1, logs.FilterMessage("query").Len())
	assert.Equal(t, 1, logs.FilterMessage("migrated orders").Len())
}

func TestGorm_MissingRowIsQuiet(t *testing.T) {
	g, logs := observed()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{Logger: g})
	require.NoError(t, err)

	type row struct{ ID int }
	require.NoError(t, db.AutoMigrate(&row{}))
	var r row
	assert.ErrorIs(t, db.First(&r, 42).Error, gorm.ErrRecordNotFound)
	assert.Zero(t, logs.Len())
}
