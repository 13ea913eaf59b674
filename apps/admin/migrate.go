package main

import "errors"

var errNoSQLDatabase = errors.New("migrations only apply to the sqlite and postgres engines")

func (cli *commandLine) migrate(args []string) error {
	if cli.store.SQL == nil {
		return errNoSQLDatabase
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(cli.store.SQL, args[0], arguments...)
}
