package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	migration "github.com/gobkc/pgmigrations"
	"github.com/gobkc/pgmigrations/config"
)

const usage = `Usage: pgmigrate [flags] <command>

Commands:
  migrate     apply pending migration scripts
  create-db   create the configured database if it does not exist
  status      list applied migrations

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "pgmigrate:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("pgmigrate", pflag.ContinueOnError)
	cfgPath := fs.StringP("config", "c", "", "YAML config file")
	envFile := fs.String("env-file", ".env", "dotenv file loaded before reading the environment")
	config.Flags(fs)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one command")
	}

	if err := godotenv.Load(*envFile); err != nil {
		if fs.Changed("env-file") || !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", *envFile, err)
		}
	}

	file, err := config.Load(*cfgPath, fs)
	if err != nil {
		return err
	}
	log, err := file.Logger()
	if err != nil {
		return err
	}

	switch cmd := fs.Arg(0); cmd {
	case "migrate":
		ran, err := migration.Migrate(ctx, file.Connection, file.Run.Dir, file.MigrationConfig(log))
		if err != nil {
			return err
		}
		if len(ran) == 0 {
			fmt.Fprintln(stdout, "no migrations applied")
		}
		for _, name := range ran {
			fmt.Fprintln(stdout, name)
		}
		return nil

	case "create-db":
		return migration.CreateDatabase(ctx, file.Connection.Database, file.Connection, log)

	case "status":
		return status(ctx, file, log, stdout)

	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func status(ctx context.Context, file *config.File, log logrus.FieldLogger, stdout io.Writer) error {
	records, err := migration.History(ctx, file.Connection, file.Run.Schema, log)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tHASH\tRUN ON")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ID, r.Name, r.Hash, r.RunOn.Format(time.RFC3339))
	}
	return w.Flush()
}
