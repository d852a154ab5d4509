package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   uint
	Name string
}

func TestNewSQLiteAndMigrate(t *testing.T) {
	db, err := New(&Config{Driver: "sqlite", FilePath: "file::memory:", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, AutoMigrate(db, &widget{}))
	require.NoError(t, Ping(context.Background(), db))
	require.NoError(t, db.Create(&widget{Name: "a"}).Error)

	var n int64
	require.NoError(t, db.Model(&widget{}).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(&Config{Driver: "oracle"})
	require.ErrorContains(t, err, "unsupported database driver")
}
