package metatesting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tcch "github.com/testcontainers/testcontainers-go/modules/clickhouse"
)

// ClickHouseDB is a ClickHouse test container.
type ClickHouseDB struct {
	log       *slog.Logger
	Addr      string
	Database  string
	Username  string
	Password  string
	container *tcch.ClickHouseContainer
}

func (db *ClickHouseDB) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.container.Terminate(ctx); err != nil {
		db.log.Error("failed to terminate ClickHouse container", "error", err)
	}
}

// NewClickHouseDB starts a ClickHouse container and returns its native protocol address.
func NewClickHouseDB(ctx context.Context, log *slog.Logger) (*ClickHouseDB, error) {
	const (
		database = "test"
		username = "default"
		password = "password"
	)

	var (
		container *tcch.ClickHouseContainer
		lastErr   error
	)
	for attempt := 1; attempt <= 3; attempt++ {
		var err error
		container, err = tcch.Run(ctx,
			"clickhouse/clickhouse-server:latest",
			tcch.WithDatabase(database),
			tcch.WithUsername(username),
			tcch.WithPassword(password),
		)
		if err == nil {
			break
		}
		lastErr = err
		if !isRetryableContainerStartErr(err) || attempt == 3 {
			return nil, fmt.Errorf("failed to start ClickHouse container: %w", lastErr)
		}
		time.Sleep(time.Duration(attempt) * 750 * time.Millisecond)
	}

	addr, err := container.ConnectionHost(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get ClickHouse address: %w", err)
	}

	return &ClickHouseDB{
		log:       log,
		Addr:      addr,
		Database:  database,
		Username:  username,
		Password:  password,
		container: container,
	}, nil
}
