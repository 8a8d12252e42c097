package clickhouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOptions(t *testing.T) {
	t.Run("native", func(t *testing.T) {
		o := buildOptions(ClientConfig{Host: "ch", Port: 9000, Database: "trackbets", User: "default"})
		assert.Equal(t, []string{"ch:9000"}, o.Addr)
		assert.Equal(t, clickhouse.Native, o.Protocol)
		assert.Equal(t, "trackbets", o.Auth.Database)
		assert.Empty(t, o.Settings)
	})

	t.Run("http with limits", func(t *testing.T) {
		o := buildOptions(ClientConfig{
			Host: "ch", Port: 8123, User: "u", Password: "p",
			UseHTTP: true, DialTimeout: 5 * time.Second, MaxExecTime: 30 * time.Second,
		})
		assert.Equal(t, clickhouse.HTTP, o.Protocol)
		assert.Equal(t, 5*time.Second, o.DialTimeout)
		assert.Equal(t, clickhouse.Settings{"max_execution_time": 30}, o.Settings)
	})

	t.Run("async insert", func(t *testing.T) {
		o := buildOptions(ClientConfig{Host: "ch", Port: 9000, AsyncInsert: true, WaitForAsync: true})
		assert.Equal(t, clickhouse.Settings{"async_insert": 1, "wait_for_async_insert": 1}, o.Settings)
	})
}

func TestNewClient_RequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.ErrorIs(t, err, ErrNoHost)
}

func TestInitSchema_StopsAtFirstFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	c := NewClientFromDB(db)
	defer c.Close()

	mock.ExpectExec("CREATE DATABASE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("syntax error"))

	err = c.InitSchema(context.Background(), []string{
		"CREATE DATABASE IF NOT EXISTS trackbets",
		"CREATE TABLE broken",
		"CREATE TABLE never_run",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}
