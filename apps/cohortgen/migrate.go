package main

import (
	"github.com/trezcool/goose"

	"github.com/trezcool/cohortgen/storage/database"
)

var gooseRunFunc = goose.RunFS // mockable

func (cli *commandLine) migrate(args []string) error {
	if err := database.CreateIfNotExist(cli.conf); err != nil {
		return err
	}
	db, err := cli.openDB(cli.conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err = goose.SetDialect(database.Dialect(cli.conf.Database.Engine)); err != nil {
		return err
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], db.DB, database.MigrationsFS, database.MigrationsDir, arguments...)
}
