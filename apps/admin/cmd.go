package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/chuoapp/chuo/core"
	"github.com/chuoapp/chuo/core/assignment"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db        *sqlx.DB
	conf      *core.Config
	assignSvc assignment.ServiceInterface
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run database migrations (up, down, status, ...)")
	fmt.Println("  resync - re-register reminder notifications for all open assignments")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	resyncCmd := flag.NewFlagSet("resync", flag.ExitOnError)

	switch args[1] {
	case "migrate":
		if err := migrateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if migrateCmd.NArg() == 0 {
			migrateCmd.Usage()
			return errHelp
		}
		return cli.migrate(migrateCmd.Args())
	case "resync":
		if err := resyncCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.resync()
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) resync() error {
	count, warn, err := cli.assignSvc.ResyncAll()
	if err != nil {
		return err
	}
	fmt.Printf("resynced reminders for %d assignments\n", count)
	if warn != nil {
		fmt.Printf("warning: only %d/%d reminders scheduled\n", warn.Scheduled, warn.Requested)
		for _, e := range warn.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	return nil
}
