package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/mdouchement/todokernel/internal/backup"
	"github.com/mdouchement/todokernel/internal/config"
	"github.com/mdouchement/todokernel/internal/database"
	"github.com/mdouchement/todokernel/internal/inbox"
	"github.com/mdouchement/todokernel/internal/kernel"
	"github.com/mdouchement/todokernel/internal/logger"
	"github.com/mdouchement/todokernel/internal/store"
	"github.com/mdouchement/todokernel/pkg/libtodo"
	"github.com/muesli/coral"
	"github.com/pkg/errors"
	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	cfg string
)

func main() {
	c := &coral.Command{
		Use:     "todokernel",
		Short:   "Encrypted todo kernel draining an inbox of user messages",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    coral.ExactArgs(0),
	}
	c.PersistentFlags().StringVarP(&cfg, "config", "c", "", "Configuration file")

	c.AddCommand(runCmd)
	c.AddCommand(encodeCmd)
	c.AddCommand(readCmd)
	c.AddCommand(backupCmd)
	c.AddCommand(restoreCmd)

	if err := c.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

// environment is what every command needs to reach the records.
type environment struct {
	config config.Config
	log    *logrus.Logger
	db     database.KeyValueStore
	store  *store.Store
}

func setup(ctx context.Context) (*environment, error) {
	konf, err := config.Load(cfg)
	if err != nil {
		return nil, err
	}

	l, err := logger.New(konf.Log)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, konf.Database)
	if err != nil {
		return nil, errors.Wrap(err, "could not open database")
	}

	return &environment{
		config: konf,
		log:    l,
		db:     db,
		store:  store.New(db, konf.Namespace),
	}, nil
}

func (env *environment) Close() error {
	return env.db.Close()
}

func (env *environment) engine() *kernel.Engine {
	return kernel.NewEngine(env.store)
}

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

var (
	runCmd = &coral.Command{
		Use:   "run",
		Short: "Drain the configured inbox",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			ctx, cancel := interruptible()
			defer cancel()

			env, err := setup(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			source, err := inbox.Open(env.config.Inbox)
			if err != nil {
				return errors.Wrap(err, "could not open inbox")
			}
			defer source.Close()

			k := kernel.New(source, env.engine(),
				kernel.WithLogger(env.log),
				kernel.WithMaxMessageSize(env.config.MaxMessageSize),
			)

			stats, err := k.Run(ctx)
			env.log.WithFields(logrus.Fields{
				"messages":  stats.Messages,
				"kernel":    stats.Kernel,
				"applied":   stats.Applied,
				"failed":    stats.Failed,
				"discarded": stats.Discarded,
			}).Info("inbox drained")
			return err
		},
	}

	//
	//
	readUser string
	readCmd  = &coral.Command{
		Use:   "read ID",
		Short: "Read and print one record",
		Args:  coral.ExactArgs(1),
		RunE: func(_ *coral.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.Wrap(err, "invalid id")
			}

			ctx := context.Background()
			env, err := setup(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			outcome, err := env.engine().Apply(ctx, libtodo.ActionRequest{
				ID:     id,
				Action: libtodo.Read,
				User:   readUser,
			})
			if err != nil {
				return err
			}

			fmt.Println(outcome.Path)
			fmt.Println(litter.Sdump(*outcome.Record))
			fmt.Println("Overdue:", outcome.Record.IsOverdue(time.Now().Unix()))
			return nil
		},
	}

	//
	//
	backupOutput string
	backupFormat string
	backupCmd    = &coral.Command{
		Use:   "backup",
		Short: "Dump the sealed records of the namespace",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			ctx, cancel := interruptible()
			defer cancel()

			env, err := setup(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			walker, ok := env.db.(database.Walker)
			if !ok {
				return errors.Errorf("backend %s cannot be walked", env.config.Database.Backend)
			}

			w := os.Stdout
			if backupOutput != "" && backupOutput != "-" {
				w, err = os.Create(backupOutput)
				if err != nil {
					return errors.Wrap(err, "could not create backup file")
				}
				defer w.Close()
			}

			archive, err := backup.Dump(ctx, w, walker, env.store.Namespace(), backupFormat)
			if err != nil {
				return err
			}

			env.log.WithField("entries", len(archive.Entries)).Info("backup done")
			return nil
		},
	}

	//
	//
	restoreFormat string
	restoreCmd    = &coral.Command{
		Use:   "restore FILENAME",
		Short: "Restore sealed records from a backup",
		Args:  coral.ExactArgs(1),
		RunE: func(_ *coral.Command, args []string) error {
			ctx, cancel := interruptible()
			defer cancel()

			env, err := setup(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "could not open backup file")
			}
			defer f.Close()

			archive, err := backup.Load(ctx, f, env.db, env.store.Namespace(), restoreFormat)
			if err != nil {
				return err
			}

			env.log.WithFields(logrus.Fields{
				"namespace": archive.Namespace,
				"entries":   len(archive.Entries),
			}).Info("restore done")
			return nil
		},
	}
)

func init() {
	readCmd.Flags().StringVarP(&readUser, "user", "u", "", "User opening the record")

	backupCmd.Flags().StringVarP(&backupOutput, "output", "o", "", "Backup file (default stdout)")
	backupCmd.Flags().StringVarP(&backupFormat, "format", "f", backup.CBOR, "Archive format (cbor or binc)")

	restoreCmd.Flags().StringVarP(&restoreFormat, "format", "f", backup.CBOR, "Archive format (cbor or binc)")
}
