package main

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chuoapp/chuo/core"
	"github.com/chuoapp/chuo/core/assignment"
	logsvc "github.com/chuoapp/chuo/services/logger"
	dummynotif "github.com/chuoapp/chuo/services/notification/dummy"
	dummydb "github.com/chuoapp/chuo/storage/database/dummy"
	testutil "github.com/chuoapp/chuo/tests"
)

var (
	repo     assignment.Repository
	notifSvc *dummynotif.Service
)

func setup(t *testing.T) *commandLine {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo = dummydb.NewAssignmentRepository(db)
	notifSvc = dummynotif.NewService()
	now := time.Date(2025, time.January, 19, 8, 0, 0, 0, time.Local)
	svc := assignment.NewServiceMock(repo, notifSvc, logsvc.NewNopLogger(), func() time.Time { return now })

	return &commandLine{
		db:        &sqlx.DB{},
		conf:      &core.Config{Database: core.DatabaseConfig{Engine: "sqlite3"}},
		assignSvc: svc,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version", "fix": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a VERSION argument", command)
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a VERSION argument"},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_resync(t *testing.T) {
	cli := setup(t)

	open := testutil.CreateAssignment(t, repo, "std1", "Algebra problem set", "Mathematics", "2025-01-20", "23:59", assignment.StatusPending, nil)
	testutil.CreateAssignment(t, repo, "std1", "Finished essay", "History", "2025-01-10", "09:00", assignment.StatusCompleted, nil)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "resync", args: []string{"resync"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr == nil || err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			// enabled default reminders re-registered for the open assignment only
			if got := len(notifSvc.Live()); got != 3 {
				t.Errorf("live handles = %d, want 3", got)
			}
			stored, err := repo.GetAssignmentByID(open.ID)
			if err != nil {
				t.Fatalf("GetAssignmentByID() failed: %v", err)
			}
			if len(stored.NotificationHandles) != 3 {
				t.Errorf("stored handles = %d, want 3", len(stored.NotificationHandles))
			}
		})
	}
}
