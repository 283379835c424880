package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/mdouchement/todokernel/internal/config"
	"github.com/mdouchement/todokernel/internal/database"
	"github.com/mdouchement/todokernel/internal/kernel"
	"github.com/mdouchement/todokernel/internal/logger"
	"github.com/mdouchement/todokernel/internal/store"
	"github.com/mdouchement/todokernel/pkg/libtodo"
	"github.com/pkg/errors"
	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"
)

// go run tools/console/main.go todokernel.db --user alice

const usage = `Commands:
  user NAME            switch the requesting user
  create ID TITLE...   create a record
  read ID              read a record
  delete ID            delete a record
  complete ID          mark a record as completed
  hex MESSAGE          send a raw hex encoded inbox message
  quit`

func main() {
	var user, level string

	c := &cobra.Command{
		Use:   "console DATABASE",
		Short: "Interactive console feeding user messages to a kernel",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			l, err := logger.New(config.Log{Level: level})
			if err != nil {
				return err
			}

			fmt.Println("Opening", args[0])
			db, err := database.StormOpen(args[0])
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			engine := kernel.NewEngine(store.New(db, store.DefaultNamespace))
			k := kernel.New(nil, engine, kernel.WithLogger(l))

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          prompt(user),
				InterruptPrompt: "^C",
				EOFPrompt:       "quit",
			})
			if err != nil {
				return err
			}
			defer rl.Close()

			fmt.Println(usage)
			for {
				line, err := rl.Readline()
				if err == readline.ErrInterrupt || err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}

				fields := strings.Fields(line)
				if len(fields) == 0 {
					continue
				}

				switch fields[0] {
				case "quit", "exit":
					return nil
				case "help":
					fmt.Println(usage)
					continue
				case "user":
					if len(fields) != 2 {
						fmt.Println("usage: user NAME")
						continue
					}
					user = fields[1]
					rl.SetPrompt(prompt(user))
					continue
				}

				message, err := parse(fields, user)
				if err != nil {
					fmt.Println(err)
					continue
				}

				outcome, err := k.Handle(context.Background(), message)
				if err != nil {
					fmt.Printf("%s: %v\n", outcome.Kind, err)
					continue
				}
				fmt.Println(outcome.Kind, outcome.Action, outcome.Path)
				if outcome.Record != nil {
					fmt.Println(litter.Sdump(*outcome.Record))
				}
			}
		},
	}
	c.Flags().StringVarP(&user, "user", "u", "", "Requesting user")
	c.Flags().StringVarP(&level, "level", "l", "warn", "Log level")

	if err := c.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func prompt(user string) string {
	if user == "" {
		return "(nobody)> "
	}
	return user + "> "
}

// parse turns a console command into an inbox message.
func parse(fields []string, user string) ([]byte, error) {
	if fields[0] == "hex" {
		if len(fields) != 2 {
			return nil, errors.New("usage: hex MESSAGE")
		}
		return hex.DecodeString(fields[1])
	}

	action, err := libtodo.ParseAction(fields[0])
	if err != nil {
		return nil, errors.Errorf("unknown command %q, type help", fields[0])
	}

	if len(fields) < 2 {
		return nil, errors.Errorf("usage: %s ID", fields[0])
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "invalid id")
	}

	req := libtodo.ActionRequest{
		ID:     id,
		Action: action,
		User:   user,
	}
	if action == libtodo.Create {
		req.Record = libtodo.Record{
			Title:       strings.Join(fields[2:], " "),
			CreatedTime: time.Now().Unix(),
		}
	}

	return libtodo.UserMessage(req), nil
}
