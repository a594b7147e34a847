package main

import (
	"context"
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/eleve/core/school"
)

func (cli *commandLine) addSchool(name, campus string) error {
	ns := school.NewSchool{
		Name:   name,
		Campus: null.NewString(campus, campus != ""),
	}
	if err := ns.Validate(cli.validate); err != nil {
		return cli.describe(err)
	}
	sch, err := cli.schoolSvc.Create(context.Background(), ns)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "school %d created: %s\n", sch.ID, sch)
	return nil
}

func (cli *commandLine) deleteSchool(id int) error {
	if err := cli.schoolSvc.Delete(context.Background(), id); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "school %d deleted\n", id)
	return nil
}

func (cli *commandLine) listSchools() error {
	schools, err := cli.schoolSvc.QueryAll(context.Background())
	if err != nil {
		return err
	}
	for _, sch := range schools {
		_, _ = fmt.Fprintf(cli.out, "%d\t%s\n", sch.ID, sch)
	}
	return nil
}
