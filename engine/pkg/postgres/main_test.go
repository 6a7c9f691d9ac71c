package postgres

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	metatesting "github.com/malbeclabs/metabonding/utils/pkg/testing"
)

var (
	sharedDBOnce sync.Once
	sharedDB     *metatesting.PostgresDB
	sharedDBErr  error
	dbCounter    atomic.Int64
)

// newTestPool creates a fresh, migrated database in the shared container.
func newTestPool(t *testing.T) (*pgxpool.Pool, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}
	sharedDBOnce.Do(func() {
		sharedDB, sharedDBErr = metatesting.NewPostgresDB(context.Background(), metatesting.NewLogger(), nil)
	})
	require.NoError(t, sharedDBErr)

	log := metatesting.NewLogger()
	admin, err := ConnectURL(t.Context(), log, sharedDB.ConnStr(), 2, 1)
	require.NoError(t, err)
	defer admin.Close()

	name := fmt.Sprintf("metabonding_test_%d", dbCounter.Add(1))
	_, err = admin.Exec(t.Context(), "CREATE DATABASE "+name)
	require.NoError(t, err)

	u, err := url.Parse(sharedDB.ConnStr())
	require.NoError(t, err)
	u.Path = "/" + name
	connStr := u.String()

	require.NoError(t, MigrateUp(t.Context(), log, connStr))

	pool, err := ConnectURL(t.Context(), log, connStr, 4, 1)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool, connStr
}
