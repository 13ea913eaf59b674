package main

import (
	"fmt"
	"os"

	"github.com/trezcool/juror/core"
	"github.com/trezcool/juror/core/user"
	logsvc "github.com/trezcool/juror/services/logger"
	"github.com/trezcool/juror/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger("ADMIN", conf), conf)

	// set up DB
	store, err := database.OpenStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s database: %v", conf.Database.Engine, err), err)
	}

	validate, _ := core.NewValidator()
	cli := commandLine{
		store: store,
		users: user.NewService(store.Users, validate, core.SystemClock),
		now:   core.SystemClock,
		in:    os.Stdin,
		out:   os.Stdout,
	}
	err = cli.run(os.Args)
	if cErr := store.Close(); cErr != nil {
		logger.Error(fmt.Sprintf("closing database: %v", cErr), cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
