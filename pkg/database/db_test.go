package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/tenantcms/pkg/config"
)

func TestNewPoolPings(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	pool, err := newPool(context.Background(), db, config.DatabaseConfig{}, nil)
	require.NoError(t, err)
	assert.Same(t, db, pool.GetDB())

	mock.ExpectPing()
	assert.NoError(t, pool.Health(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPoolGivesUpOnRejectedCredentials(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(&pq.Error{Code: "28P01", Message: "password authentication failed"})
	_, err = newPool(context.Background(), db, config.DatabaseConfig{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password authentication failed")
	assert.NoError(t, mock.ExpectationsWereMet(), "only one ping is attempted")
}

func TestFatalPingError(t *testing.T) {
	assert.True(t, fatalPingError(&pq.Error{Code: "3D000"}))
	assert.False(t, fatalPingError(&pq.Error{Code: "57P03"}))
	assert.False(t, fatalPingError(errors.New("connection refused")))
	assert.False(t, fatalPingError(nil))
}
