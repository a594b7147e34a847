// Package testutil holds fixtures shared by the package tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/eleve/core"
	"github.com/trezcool/eleve/core/school"
	"github.com/trezcool/eleve/core/student"
	"github.com/trezcool/eleve/core/user"
	"github.com/trezcool/eleve/storage/database"
)

// TestDatabaseURLEnv names the env var holding the postgres URL used by the sqlx repository tests.
const TestDatabaseURLEnv = "TEST_DATABASE_URL"

func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	return validate, translator
}

// TranslateErrors maps the field names of validator.ValidationErrors to their translated messages.
func TranslateErrors(t *testing.T, err error, translator ut.Translator) map[string]string {
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		t.Fatalf("TranslateErrors() got %v, want validator.ValidationErrors", err)
	}
	msgs := make(map[string]string, len(vErrs))
	for _, vErr := range vErrs {
		msgs[vErr.Field()] = vErr.Translate(translator)
	}
	return msgs
}

// PrepareDB opens the test database, migrates it and empties its tables.
// The test is skipped when TEST_DATABASE_URL is not set.
func PrepareDB(t *testing.T) *sqlx.DB {
	dbURL := os.Getenv(TestDatabaseURLEnv)
	if dbURL == "" {
		t.Skipf("%s not set", TestDatabaseURLEnv)
	}
	db, err := database.OpenURL(dbURL)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if err = database.Migrate(db.DB); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if _, err = db.Exec("TRUNCATE follow_up, grade, student, school, auth_token, users RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func CreateUser(t *testing.T, repo user.Repository, uname, email, pwd, role string, isActive bool) user.User {
	usr := user.User{
		Username:   uname,
		Email:      email,
		Role:       role,
		IsActive:   isActive,
		DateJoined: time.Now().UTC(),
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSchool(t *testing.T, repo school.Repository, name, campus string) school.School {
	sch, err := repo.CreateSchool(context.Background(), school.School{
		Name:   name,
		Campus: null.NewString(campus, campus != ""),
	})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sch
}

// CreateStudent stores a student born on 2005-05-12; sch may be nil.
func CreateStudent(t *testing.T, repo student.Repository, studentID, givenName, familyName, sex string, sch *school.School) student.Student {
	s := student.Student{
		StudentID:  studentID,
		GivenName:  givenName,
		FamilyName: familyName,
		Sex:        sex,
		DOB:        core.NewDate(2005, time.May, 12),
	}
	if sch != nil {
		s.SchoolID = null.IntFrom(sch.ID)
	}
	ctx := context.Background()
	s, err := repo.CreateStudent(ctx, s)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	s, err = repo.GetStudent(ctx, s.ID)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func CreateGrade(t *testing.T, repo student.Repository, studentID int, subject string, score float64) student.Grade {
	g, err := repo.CreateGrade(context.Background(), student.Grade{
		StudentID: studentID,
		Date:      core.NewDate(2024, time.March, 1),
		Subject:   subject,
		Score:     score,
	})
	if err != nil {
		t.Fatalf("CreateGrade() failed: %v", err)
	}
	return g
}

func CreateFollowUp(t *testing.T, repo student.Repository, studentID int, data string) student.FollowUp {
	f, err := repo.CreateFollowUp(context.Background(), student.FollowUp{
		StudentID: studentID,
		Date:      time.Date(2024, time.March, 2, 10, 30, 0, 0, time.UTC),
		Data:      types.JSON(data),
	})
	if err != nil {
		t.Fatalf("CreateFollowUp() failed: %v", err)
	}
	return f
}
