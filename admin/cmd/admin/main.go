package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/malbeclabs/metabonding/admin/internal/admin"
	"github.com/malbeclabs/metabonding/engine/pkg/audit"
	"github.com/malbeclabs/metabonding/engine/pkg/bootstrap"
	"github.com/malbeclabs/metabonding/engine/pkg/config"
	"github.com/malbeclabs/metabonding/utils/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	envFileFlag := flag.String("env-file", ".env", "optional dotenv file loaded before reading the environment")

	// Commands
	migrateFlag := flag.Bool("migrate", false, "Run PostgreSQL migrations using goose")
	migrateStatusFlag := flag.Bool("migrate-status", false, "Show PostgreSQL migration status")
	importProjectsFlag := flag.String("import-projects", "", "Register the projects in a JSON file (existing ids are rejected)")
	addCheckpointFlag := flag.Bool("add-checkpoint", false, "Append the checkpoint for --week")
	depositFlag := flag.Bool("deposit", false, "Deposit the reward pool of --project")
	rewardsFlag := flag.Bool("rewards", false, "Print the rewards of a stake for --week")
	claimedFlag := flag.Bool("claimed", false, "Print the claimed flag of --user for --week")
	auditEventsFlag := flag.String("audit-events", "", "Print recorded audit events of a type (checkpoint_appended, rewards_deposited)")

	// Command options
	weekFlag := flag.String("week", "", "Week number")
	totalDelegationFlag := flag.String("total-delegation", "", "Total delegation supply for --add-checkpoint")
	totalLKMEXFlag := flag.String("total-lkmex", "", "Total lkmex staked for --add-checkpoint")
	projectFlag := flag.String("project", "", "Project id for --deposit")
	tokenFlag := flag.String("token", "", "Payment token for --deposit")
	amountFlag := flag.String("amount", "", "Payment amount for --deposit")
	delegationFlag := flag.String("delegation", "0", "User delegation for --rewards")
	lkmexFlag := flag.String("lkmex", "0", "User lkmex staked for --rewards")
	userFlag := flag.String("user", "", "User address for --claimed")

	flag.Parse()

	log := logger.New(*verboseFlag)

	if err := godotenv.Load(*envFileFlag); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", *envFileFlag, err)
	}
	env, err := config.ParseEnv()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *migrateFlag {
		return admin.PgMigrateUp(ctx, log, env.Postgres())
	}

	if *migrateStatusFlag {
		return admin.PgMigrateStatus(ctx, log, env.Postgres())
	}

	if !*addCheckpointFlag && !*depositFlag && !*rewardsFlag && !*claimedFlag &&
		*importProjectsFlag == "" && *auditEventsFlag == "" {
		flag.Usage()
		return nil
	}

	deps, err := bootstrap.Open(ctx, log, env)
	if err != nil {
		return err
	}
	defer deps.Close()

	switch {
	case *importProjectsFlag != "":
		return admin.ImportProjects(ctx, log, deps.Registry, *importProjectsFlag)

	case *addCheckpointFlag:
		return admin.AddCheckpoint(ctx, log, deps.Engine, admin.AddCheckpointConfig{
			Week:                  *weekFlag,
			TotalDelegationSupply: *totalDelegationFlag,
			TotalLKMEXStaked:      *totalLKMEXFlag,
		})

	case *depositFlag:
		return admin.Deposit(ctx, log, deps.Engine, admin.DepositConfig{
			ProjectID: *projectFlag,
			Token:     *tokenFlag,
			Amount:    *amountFlag,
		})

	case *rewardsFlag:
		return admin.Rewards(ctx, os.Stdout, deps.Engine, admin.RewardsConfig{
			Week:       *weekFlag,
			Delegation: *delegationFlag,
			LKMEX:      *lkmexFlag,
		})

	case *claimedFlag:
		return admin.Claimed(ctx, os.Stdout, deps.Engine, *userFlag, *weekFlag)

	case *auditEventsFlag != "":
		reader, ok := deps.Audit.(*audit.ClickHouseRecorder)
		if !ok {
			return fmt.Errorf("CLICKHOUSE_ADDR is required for --audit-events")
		}
		return admin.AuditEvents(ctx, os.Stdout, reader, *auditEventsFlag)
	}
	return nil
}
