package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/eleve/core"
	"github.com/trezcool/eleve/core/school"
	"github.com/trezcool/eleve/core/student"
	"github.com/trezcool/eleve/core/user"
	emailsvc "github.com/trezcool/eleve/services/email"
	logsvc "github.com/trezcool/eleve/services/logger"
	"github.com/trezcool/eleve/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	repos, err := database.Setup(conf, false /* migrate */)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		usrSvc:     user.NewService(repos.Users, emailsvc.NewService(conf, logger)),
		schoolSvc:  school.NewService(repos.Schools),
		studentSvc: student.NewService(repos.Students, repos.Schools),
		validate:   validate,
		translator: translator,
		out:        os.Stdout,
	}
	if repos.DB != nil {
		cli.db = repos.DB.DB
	}

	err = cli.run(os.Args)
	_ = repos.Close()
	if err != nil && err != errHelp {
		logger.Error(fmt.Sprintf("error: %s", err))
	}
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}
