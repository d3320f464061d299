package main

import (
	"os"

	"github.com/trezcool/cohortgen/core"
	"github.com/trezcool/cohortgen/services/logger"
	"github.com/trezcool/cohortgen/storage/database"
)

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()
	std, logFile, err := logsvc.NewStdLogger(os.Stdout, conf)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logFile.Close() }()

	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug && !conf.TestMode)

	// start CLI
	cli := commandLine{
		conf:   conf,
		logger: logger,
		out:    os.Stdout,
		openDB: database.Open,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		_ = logFile.Close()
		os.Exit(1)
	}
}
