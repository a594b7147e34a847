package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/eleve/core"
	"github.com/trezcool/eleve/core/school"
	"github.com/trezcool/eleve/core/student"
	"github.com/trezcool/eleve/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sql.DB // nil with the memory engine
	usrSvc     *user.Service
	schoolSvc  *school.Service
	studentSvc *student.Service
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix)")
	_, _ = fmt.Fprintln(cli.out, "  adduser -username USERNAME [-email EMAIL] [-admin] - create or update a user; the password is prompted")
	_, _ = fmt.Fprintln(cli.out, "  resetpassword -username USERNAME - reset user's password")
	_, _ = fmt.Fprintln(cli.out, "  seed - create the default admin & teacher accounts")
	_, _ = fmt.Fprintln(cli.out, "  addschool -name NAME [-campus CAMPUS] - create a school")
	_, _ = fmt.Fprintln(cli.out, "  listschools - list schools with their IDs")
	_, _ = fmt.Fprintln(cli.out, "  deleteschool -id ID - delete a school; its students are kept")
	_, _ = fmt.Fprintln(cli.out, "  addgrade -student ID -date YYYY-MM-DD -subject SUBJECT -score SCORE - record a grade")
	_, _ = fmt.Fprintln(cli.out, "  addfollowup -student ID [-date RFC3339] -data JSON - record a follow-up")
	_, _ = fmt.Fprintln(cli.out, "  importstudents -file FILE.xlsx [-school ID] - import a student roster")
	_, _ = fmt.Fprintln(cli.out, "  exportstudents -file FILE.xlsx - export all students")
}

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword(label string) (string, error) {
	_, _ = fmt.Fprint(cli.out, label)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// describe renders validation errors as "field: message" lines.
func (cli *commandLine) describe(err error) error {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		msgs := make([]string, 0, len(vErrs))
		for _, vErr := range vErrs {
			msgs = append(msgs, vErr.Field()+": "+vErr.Translate(cli.translator))
		}
		sort.Strings(msgs)
		return errors.New(strings.Join(msgs, "; "))
	}
	var valErr *core.ValidationError
	if errors.As(err, &valErr) && len(valErr.Fields) > 0 {
		return errors.New(core.ValidationError{Fields: valErr.Fields}.Error())
	}
	return err
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		cmd := flag.NewFlagSet("adduser", flag.ExitOnError)
		uname := cmd.String("username", "", "The user's username. The password will be prompted next.")
		email := cmd.String("email", "", "The user's email.")
		isAdmin := cmd.Bool("admin", false, "Give the user the Admin role.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *uname == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.addUser(*uname, *email, pwd, *isAdmin)

	case "resetpassword":
		cmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
		uname := cmd.String("username", "", "The user's username. The password will be prompted next.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *uname == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*uname, pwd)

	case "seed":
		pwd, err := cli.promptPassword("Enter password for the default accounts:")
		if err != nil {
			return err
		}
		if pwd == "" {
			cli.printUsage()
			return errHelp
		}
		return cli.seed(pwd)

	case "addschool":
		cmd := flag.NewFlagSet("addschool", flag.ExitOnError)
		name := cmd.String("name", "", "The school's name.")
		campus := cmd.String("campus", "", "The school's campus.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *name == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.addSchool(*name, *campus)

	case "listschools":
		return cli.listSchools()

	case "deleteschool":
		cmd := flag.NewFlagSet("deleteschool", flag.ExitOnError)
		id := cmd.Int("id", 0, "The school's ID.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *id <= 0 {
			cmd.Usage()
			return errHelp
		}
		return cli.deleteSchool(*id)

	case "addgrade":
		cmd := flag.NewFlagSet("addgrade", flag.ExitOnError)
		studentID := cmd.Int("student", 0, "The student's ID.")
		date := cmd.String("date", "", "The grade's date (YYYY-MM-DD).")
		subject := cmd.String("subject", "", "The subject.")
		score := cmd.String("score", "", "The score.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *studentID <= 0 || *date == "" || *subject == "" || *score == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.addGrade(*studentID, *date, *subject, *score)

	case "addfollowup":
		cmd := flag.NewFlagSet("addfollowup", flag.ExitOnError)
		studentID := cmd.Int("student", 0, "The student's ID.")
		date := cmd.String("date", "", "The follow-up's date (RFC3339); defaults to now.")
		data := cmd.String("data", "", "The follow-up's JSON document.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *studentID <= 0 || *data == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.addFollowUp(*studentID, *date, *data)

	case "importstudents":
		cmd := flag.NewFlagSet("importstudents", flag.ExitOnError)
		file := cmd.String("file", "", "The xlsx roster to import.")
		schoolID := cmd.Int("school", 0, "Attach the imported students to this school ID.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *file == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.importStudents(*file, *schoolID)

	case "exportstudents":
		cmd := flag.NewFlagSet("exportstudents", flag.ExitOnError)
		file := cmd.String("file", "", "The xlsx file to write.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *file == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.exportStudents(*file)

	default:
		cli.printUsage()
		return errHelp
	}
}
