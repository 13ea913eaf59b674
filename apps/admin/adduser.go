package main

import (
	"context"
	"fmt"

	"github.com/trezcool/juror/core/user"
)

// addUser registers a user.User
func (cli *commandLine) addUser(uname, email string, role user.Role) error {
	usr, err := cli.users.Register(context.Background(), user.NewUser{Username: uname, Email: email, Role: role})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s %q created (id: %s)\n", usr.Role, usr.Username, usr.ID)
	return nil
}
