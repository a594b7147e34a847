package main

import (
	"context"
	"fmt"

	"github.com/trezcool/eleve/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	nu := user.NewUser{
		Username: uname,
		Email:    email,
		Password: pwd,
		Role:     user.RoleTeacher,
	}
	if isAdmin {
		nu.Role = user.RoleAdmin
	}
	if err := nu.Validate(cli.validate); err != nil {
		return cli.describe(err)
	}

	usr, created, err := cli.usrSvc.UpdateOrCreate(context.Background(), nu)
	if err != nil {
		return cli.describe(err)
	}
	if created {
		_, _ = fmt.Fprintf(cli.out, "user %q created (%s)\n", usr.Username, usr.Role)
	} else {
		_, _ = fmt.Fprintf(cli.out, "user %q updated (%s)\n", usr.Username, usr.Role)
	}
	return nil
}

func (cli *commandLine) resetPassword(uname, pwd string) error {
	return cli.usrSvc.ResetPassword(context.Background(), uname, pwd)
}

// default accounts created by `seed`
var seedUsers = []user.NewUser{
	{Username: "admin", Email: "admin@example.com", Role: user.RoleAdmin},
	{Username: "teacher", Email: "teacher@example.com", Role: user.RoleTeacher},
}

// seed creates the default accounts that do not exist yet; existing ones are left untouched.
func (cli *commandLine) seed(pwd string) error {
	ctx := context.Background()
	for _, nu := range seedUsers {
		nu.Password = pwd
		if err := nu.Validate(cli.validate); err != nil {
			return cli.describe(err)
		}
		if _, err := cli.usrSvc.GetByUsername(ctx, nu.Username); err == nil {
			_, _ = fmt.Fprintf(cli.out, "user %q already exists\n", nu.Username)
			continue
		} else if err != user.ErrNotFound {
			return err
		}
		if _, err := cli.usrSvc.Register(ctx, nu); err != nil {
			return cli.describe(err)
		}
		_, _ = fmt.Fprintf(cli.out, "user %q created (%s)\n", nu.Username, nu.Role)
	}
	return nil
}
