package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/eleve/core"
	"github.com/trezcool/eleve/core/student"
	"github.com/trezcool/eleve/services/roster"
)

func (cli *commandLine) addGrade(studentID int, date, subject, score string) error {
	d, err := core.ParseDate(date)
	if err != nil {
		return errors.Wrap(err, "date")
	}
	sc, err := strconv.ParseFloat(score, 64)
	if err != nil {
		return errors.Errorf("score: %q is not a number", score)
	}

	ng := student.NewGrade{
		StudentID: studentID,
		Date:      d,
		Subject:   subject,
		Score:     null.Float64From(sc),
	}
	if err = ng.Validate(cli.validate); err != nil {
		return cli.describe(err)
	}
	g, err := cli.studentSvc.AddGrade(context.Background(), ng)
	if err != nil {
		return cli.describe(err)
	}
	_, _ = fmt.Fprintf(cli.out, "grade %d recorded\n", g.ID)
	return nil
}

func (cli *commandLine) addFollowUp(studentID int, date, data string) error {
	d := time.Now().UTC()
	if date != "" {
		var err error
		if d, err = time.Parse(time.RFC3339, date); err != nil {
			return errors.Errorf("date: %q is not a RFC3339 timestamp", date)
		}
	}

	nf := student.NewFollowUp{
		StudentID: studentID,
		Date:      d,
		Data:      types.JSON(data),
	}
	if err := nf.Validate(cli.validate); err != nil {
		return cli.describe(err)
	}
	f, err := cli.studentSvc.AddFollowUp(context.Background(), nf)
	if err != nil {
		return cli.describe(err)
	}
	_, _ = fmt.Fprintf(cli.out, "follow-up %d recorded\n", f.ID)
	return nil
}

// importStudents creates a student per valid roster row; invalid rows are reported and skipped.
func (cli *commandLine) importStudents(path string, schoolID int) error {
	ctx := context.Background()
	if schoolID > 0 {
		if _, err := cli.schoolSvc.GetByID(ctx, schoolID); err != nil {
			return err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	rows, err := roster.Import(f)
	if err != nil {
		return err
	}

	var imported, failed int
	for _, row := range rows {
		err := row.Err
		if err == nil {
			in := row.Input
			if schoolID > 0 {
				in.SchoolID = null.IntFrom(schoolID)
			}
			if err = in.Validate(cli.validate); err == nil {
				_, err = cli.studentSvc.Create(ctx, in)
			}
		}
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(cli.out, "row %d: %v\n", row.Line, cli.describe(err))
			continue
		}
		imported++
	}
	_, _ = fmt.Fprintf(cli.out, "%d students imported, %d rows skipped\n", imported, failed)
	return nil
}

func (cli *commandLine) exportStudents(path string) error {
	students, err := cli.studentSvc.QueryAll(context.Background(), nil)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = roster.Export(f, students); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "%d students exported to %s\n", len(students), path)
	return nil
}
