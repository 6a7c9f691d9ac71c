package audit

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/malbeclabs/metabonding/engine/pkg/project"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
	"github.com/malbeclabs/metabonding/utils/pkg/retry"
)

const DefaultTable = "metabonding_audit_events"

// tableName matches a plain or database-qualified identifier.
var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Conn is the subset of a ClickHouse connection the recorder uses.
type Conn interface {
	Exec(ctx context.Context, query string, args ...any) error
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
	PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error)
	Ping(ctx context.Context) error
	Close() error
}

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Secure   bool
}

func (cfg *ClickHouseConfig) Validate() error {
	if cfg.Addr == "" {
		return errors.New("clickhouse addr is required")
	}
	if cfg.Database == "" {
		cfg.Database = "default"
	}
	if cfg.Username == "" {
		cfg.Username = "default"
	}
	return nil
}

// OpenClickHouse connects to ClickHouse, retrying transient failures.
func OpenClickHouse(ctx context.Context, log *slog.Logger, cfg ClickHouseConfig) (Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
	}
	if cfg.Secure {
		options.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open ClickHouse connection: %w", err)
	}

	if err := retry.Do(ctx, retry.DefaultConfig(), func() error {
		return conn.Ping(ctx)
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	log.Info("audit: clickhouse connected", "addr", cfg.Addr, "database", cfg.Database, "secure", cfg.Secure)
	return conn, nil
}

type ClickHouseRecorderConfig struct {
	Logger *slog.Logger
	Conn   Conn
	Table  string
}

func (cfg *ClickHouseRecorderConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Conn == nil {
		return errors.New("clickhouse connection is required")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if !tableName.MatchString(cfg.Table) {
		return fmt.Errorf("invalid audit table name %q", cfg.Table)
	}
	return nil
}

// ClickHouseRecorder appends events to a MergeTree table ordered by recording time.
type ClickHouseRecorder struct {
	log *slog.Logger
	cfg ClickHouseRecorderConfig
}

func NewClickHouseRecorder(cfg ClickHouseRecorderConfig) (*ClickHouseRecorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ClickHouseRecorder{log: cfg.Logger, cfg: cfg}, nil
}

// EnsureSchema creates the event table if it does not exist.
func (r *ClickHouseRecorder) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID,
			event_type LowCardinality(String),
			week UInt64,
			project_id String,
			token String,
			amount String,
			total_delegation_supply String,
			total_lkmex_staked String,
			recorded_at DateTime64(3, 'UTC')
		)
		ENGINE = MergeTree
		ORDER BY (recorded_at, id)
	`, r.cfg.Table)
	if err := r.cfg.Conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create audit table: %w", err)
	}
	return nil
}

func (r *ClickHouseRecorder) Record(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := r.cfg.Conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", r.cfg.Table))
	if err != nil {
		return fmt.Errorf("failed to prepare audit batch: %w", err)
	}
	for _, e := range events {
		if err := batch.Append(
			e.ID,
			string(e.Type),
			uint64(e.Week),
			string(e.ProjectID),
			e.Token,
			e.Amount,
			e.TotalDelegationSupply,
			e.TotalLKMEXStaked,
			e.RecordedAt,
		); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("failed to append audit event: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send audit batch: %w", err)
	}

	r.log.Debug("audit: recorded events", "count", len(events))
	return nil
}

// Events reads back events of one type in recording order.
func (r *ClickHouseRecorder) Events(ctx context.Context, eventType EventType) ([]Event, error) {
	rows, err := r.cfg.Conn.Query(ctx, fmt.Sprintf(`
		SELECT id, event_type, week, project_id, token, amount,
		       total_delegation_supply, total_lkmex_staked, recorded_at
		FROM %s
		WHERE event_type = ?
		ORDER BY recorded_at, id
	`, r.cfg.Table), string(eventType))
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e         Event
			typ       string
			w         uint64
			projectID string
		)
		if err := rows.Scan(&e.ID, &typ, &w, &projectID, &e.Token, &e.Amount,
			&e.TotalDelegationSupply, &e.TotalLKMEXStaked, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.Type = EventType(typ)
		e.Week = week.Week(w)
		e.ProjectID = project.ID(projectID)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}
	return out, nil
}
