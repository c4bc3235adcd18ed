package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolConfigAppliesOptions(t *testing.T) {
	cfg, err := poolConfig("postgres://ledger@localhost:5432/ledger", PoolOptions{MaxConns: 3, ConnMaxLifetime: time.Minute})
	require.NoError(t, err)
	require.Equal(t, int32(3), cfg.MaxConns)
	require.Equal(t, time.Minute, cfg.MaxConnLifetime)
	require.Equal(t, "on", cfg.ConnConfig.RuntimeParams["default_transaction_read_only"])
	require.Equal(t, "ledger-archive", cfg.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfigKeepsDefaults(t *testing.T) {
	def, err := poolConfig("postgres://ledger@localhost:5432/ledger", PoolOptions{})
	require.NoError(t, err)
	require.Positive(t, def.MaxConns)

	_, err = poolConfig("::not a dsn", PoolOptions{})
	require.Error(t, err)
}
