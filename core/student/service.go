package student

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/eleve/core"
	"github.com/trezcool/eleve/core/school"
)

var (
	// errors
	ErrNotFound        = errors.New("student not found")
	ErrStudentIDExists = errors.New("student with this student id already exists")
)

// DefaultOrdering is the order students are listed in.
var DefaultOrdering = []core.DBOrdering{
	{Field: "family_name", Ascending: true},
	{Field: "given_name", Ascending: true},
	{Field: "id", Ascending: true},
}

type (
	Repository interface {
		// CreateStudent fails with ErrStudentIDExists when the student ID is taken.
		CreateStudent(ctx context.Context, s Student) (Student, error)
		// QueryStudents returns students with their school, grades & follow-ups loaded.
		QueryStudents(ctx context.Context, ordering []core.DBOrdering) ([]Student, error)
		GetStudent(ctx context.Context, id int) (Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		// DeleteStudent also deletes the student's grades & follow-ups.
		DeleteStudent(ctx context.Context, id int) error
		// CreateGrade fails with ErrNotFound when the student does not exist.
		CreateGrade(ctx context.Context, g Grade) (Grade, error)
		// CreateFollowUp fails with ErrNotFound when the student does not exist.
		CreateFollowUp(ctx context.Context, f FollowUp) (FollowUp, error)
	}

	Service struct {
		repo    Repository
		schools school.Repository
	}
)

func NewService(repo Repository, schools school.Repository) *Service {
	return &Service{repo: repo, schools: schools}
}

// QueryAll lists students in the given order, DefaultOrdering if none.
func (svc *Service) QueryAll(ctx context.Context, ordering []core.DBOrdering) ([]Student, error) {
	if len(ordering) == 0 {
		ordering = DefaultOrdering
	}
	students, err := svc.repo.QueryStudents(ctx, ordering)
	return students, errors.Wrap(err, "querying students")
}

func (svc *Service) GetByID(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

// Create stores a new Student from validated input.
func (svc *Service) Create(ctx context.Context, in Input) (Student, error) {
	if err := svc.checkSchool(ctx, in); err != nil {
		return Student{}, err
	}
	var s Student
	in.apply(&s)
	s, err := svc.repo.CreateStudent(ctx, s)
	if err != nil {
		return Student{}, svc.mapWriteErr(err, "creating student")
	}
	return svc.repo.GetStudent(ctx, s.ID)
}

// Update replaces the writable fields of the Student with validated input.
func (svc *Service) Update(ctx context.Context, id int, in Input) (Student, error) {
	s, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if err = svc.checkSchool(ctx, in); err != nil {
		return Student{}, err
	}
	in.apply(&s)
	if _, err = svc.repo.UpdateStudent(ctx, s); err != nil {
		return Student{}, svc.mapWriteErr(err, "updating student")
	}
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteStudent(ctx, id)
}

func (svc *Service) AddGrade(ctx context.Context, ng NewGrade) (Grade, error) {
	g, err := svc.repo.CreateGrade(ctx, Grade{
		StudentID: ng.StudentID,
		Date:      ng.Date,
		Subject:   ng.Subject,
		Score:     ng.Score.Float64,
	})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Grade{}, invalidPK("student", ng.StudentID)
		}
		return Grade{}, errors.Wrap(err, "creating grade")
	}
	return g, nil
}

func (svc *Service) AddFollowUp(ctx context.Context, nf NewFollowUp) (FollowUp, error) {
	f, err := svc.repo.CreateFollowUp(ctx, FollowUp{
		StudentID: nf.StudentID,
		Date:      nf.Date.UTC(),
		Data:      nf.Data,
	})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return FollowUp{}, invalidPK("student", nf.StudentID)
		}
		return FollowUp{}, errors.Wrap(err, "creating follow-up")
	}
	return f, nil
}

func (svc *Service) checkSchool(ctx context.Context, in Input) error {
	if !in.SchoolID.Valid {
		return nil
	}
	if _, err := svc.schools.GetSchool(ctx, in.SchoolID.Int); err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return invalidPK("school_id", in.SchoolID.Int)
		}
		return errors.Wrap(err, "finding school")
	}
	return nil
}

func (svc *Service) mapWriteErr(err error, msg string) error {
	switch errors.Cause(err) {
	case ErrStudentIDExists:
		return core.NewValidationError(err, core.FieldError{Field: "student_id", Error: ErrStudentIDExists.Error() + "."})
	case school.ErrNotFound:
		return core.NewValidationError(err, core.FieldError{Field: "school_id", Error: "the selected school does not exist"})
	}
	return errors.Wrap(err, msg)
}

func invalidPK(field string, id int) error {
	return core.NewValidationError(nil, core.FieldError{
		Field: field,
		Error: fmt.Sprintf(`invalid pk "%d" - object does not exist`, id),
	})
}
