package app

import (
	"context"
	"path/filepath"
	"testing"

	"ratelock/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestOpenStores_Bolt(t *testing.T) {
	cfg := &config.AppConfig{Storage: config.Storage{
		Driver:   config.StorageDriverBolt,
		BoltPath: filepath.Join(t.TempDir(), "ratelock.db"),
	}}

	st, err := openStores(context.Background(), cfg)
	require.NoError(t, err)
	defer st.close()

	require.NotNil(t, st.snapshots)
	require.NotNil(t, st.audits)
	require.NotNil(t, st.purger)

	snapshots, err := st.snapshots.Scan(context.Background())
	require.NoError(t, err)
	require.Empty(t, snapshots)
}

func TestOpenStores_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.AppConfig{Storage: config.Storage{
		Driver: config.StorageDriverRedis,
		Redis:  config.Redis{Addr: mr.Addr(), KeyPrefix: "test:"},
	}}

	st, err := openStores(context.Background(), cfg)
	require.NoError(t, err)
	defer st.close()

	require.Nil(t, st.purger, "redis expires snapshots natively")
	require.NotNil(t, st.snapshots)
	require.NotNil(t, st.audits)
}

func TestOpenStores_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := &config.AppConfig{Storage: config.Storage{
		Driver: config.StorageDriverRedis,
		Redis:  config.Redis{Addr: addr},
	}}

	_, err := openStores(context.Background(), cfg)
	require.Error(t, err)
}

func TestOpenStores_UnknownDriver(t *testing.T) {
	_, err := openStores(context.Background(), &config.AppConfig{Storage: config.Storage{Driver: "sqlite"}})
	require.ErrorContains(t, err, "unknown storage driver")
}
