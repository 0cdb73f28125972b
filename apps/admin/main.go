package main

import (
	"log"
	"os"

	"github.com/chuoapp/chuo/core"
	"github.com/chuoapp/chuo/core/assignment"
	logsvc "github.com/chuoapp/chuo/services/logger"
	notifsvc "github.com/chuoapp/chuo/services/notification"
	"github.com/chuoapp/chuo/storage/database"
	sqlxrepos "github.com/chuoapp/chuo/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	// resync talks to a fresh local engine; fired output is discarded
	notifEngine := notifsvc.NewLocalService(conf.Notifications.BufferSize)
	notifEngine.Start()
	defer notifEngine.Stop()

	svcLogger := logsvc.NewConsoleLogger(logger)
	assignSvc := assignment.NewService(sqlxrepos.NewAssignmentRepository(db), notifEngine, svcLogger)

	// start CLI
	cli := commandLine{
		db:        db,
		conf:      conf,
		assignSvc: assignSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
