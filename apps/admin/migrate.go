package main

import (
	"errors"

	"github.com/trezcool/eleve/storage/database"
)

var (
	gooseRunFunc = database.RunMigrations // mockable

	errNoSQLDatabase = errors.New("migrations need the postgres database engine")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoSQLDatabase
	}
	return gooseRunFunc(cli.db, args[0], args[1:]...)
}
