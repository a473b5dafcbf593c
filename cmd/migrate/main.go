// Command migrate applies, inspects or rolls back the schema migrations of
// the configured database.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/accounts/internal/flagx"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/config"
	"github.com/dmitrijs2005/accounts/internal/server/migrations"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/repomanager"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	command := fs.String("command", "up", "migrate command (up|status|down)")
	timeout := fs.Duration("timeout", time.Minute, "command timeout")
	target := fs.Int64("target", -1, "target version for down command (optional)")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-command", "-timeout", "-target"})); err != nil {
		fmt.Fprintln(out, err)
		return 2
	}

	cfg, err := config.Load(args, os.LookupEnv)
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	log := logging.New(out, cfg.LogLevel, cfg.LogFormat).With("module", "migrate")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := repomanager.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "failed to connect to database", "error", err)
		return 1
	}
	defer db.Close()

	runner, err := migrations.NewRunner(db, cfg.DatabaseDriver)
	if err != nil {
		log.Error(ctx, "failed to configure migration runner", "error", err)
		return 1
	}

	if err := execute(ctx, runner, *command, *target, log); err != nil {
		log.Error(ctx, "migration command failed", "command", *command, "error", err)
		return 1
	}

	log.Info(ctx, "migration command completed", "command", *command)
	return 0
}

type migrator interface {
	Up(ctx context.Context) ([]int64, error)
	Down(ctx context.Context) (int64, error)
	DownTo(ctx context.Context, version int64) ([]int64, error)
	Status(ctx context.Context) ([]migrations.Status, error)
}

func execute(ctx context.Context, r migrator, command string, target int64, log logging.Logger) error {
	switch command {
	case "up":
		applied, err := r.Up(ctx)
		if err != nil {
			return err
		}
		log.Info(ctx, "migrations applied", "versions", applied)
	case "status":
		statuses, err := r.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			log.Info(ctx, "migration", "version", s.Version, "path", s.Path, "applied", s.Applied)
		}
	case "down":
		if target >= 0 {
			versions, err := r.DownTo(ctx, target)
			if err != nil {
				return err
			}
			log.Info(ctx, "migrations rolled back", "versions", versions)
			return nil
		}
		v, err := r.Down(ctx)
		if err != nil {
			return err
		}
		log.Info(ctx, "migration rolled back", "version", v)
	default:
		return fmt.Errorf("unsupported command %q", command)
	}
	return nil
}
