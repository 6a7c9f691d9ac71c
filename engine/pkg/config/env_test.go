package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetabonding_Config_ParseEnv(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		e, err := ParseEnvFrom(map[string]string{})
		require.NoError(t, err)
		require.Equal(t, "localhost", e.PostgresHost)
		require.Equal(t, ":8080", e.ListenAddr)
		require.Equal(t, 10*time.Second, e.ShutdownTimeout)
		require.Equal(t, []string{"*"}, e.CORSOrigins)
		require.False(t, e.IndexActiveWeeks)
		require.False(t, e.AuditEnabled())
		require.ErrorContains(t, e.RequireGenesis(), "METABONDING_GENESIS")
	})

	t.Run("overrides", func(t *testing.T) {
		t.Parallel()
		e, err := ParseEnvFrom(map[string]string{
			"POSTGRES_DB":          "metabonding",
			"POSTGRES_USER":        "engine",
			"POSTGRES_MAX_CONNS":   "4",
			"CLICKHOUSE_ADDR":      "ch:9000",
			"METABONDING_GENESIS":  "2022-03-07T00:00:00Z",
			"CORS_ALLOWED_ORIGINS": "https://a.example,https://b.example",
		})
		require.NoError(t, err)
		require.NoError(t, e.RequireGenesis())
		require.Equal(t, time.Date(2022, 3, 7, 0, 0, 0, 0, time.UTC), e.Genesis.UTC())
		require.Equal(t, []string{"https://a.example", "https://b.example"}, e.CORSOrigins)

		pg := e.Postgres()
		require.NoError(t, pg.Validate())
		require.EqualValues(t, 4, pg.MaxConns)

		require.True(t, e.AuditEnabled())
		require.Equal(t, "ch:9000", e.ClickHouse().Addr)
	})

	t.Run("invalid values fail", func(t *testing.T) {
		t.Parallel()
		_, err := ParseEnvFrom(map[string]string{"SHUTDOWN_TIMEOUT": "soon"})
		require.ErrorContains(t, err, "parse env")
	})
}
