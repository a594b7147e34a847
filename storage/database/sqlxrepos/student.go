package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/eleve/core"
	"github.com/trezcool/eleve/core/school"
	"github.com/trezcool/eleve/core/student"
)

const studentColumns = `id, student_id, given_name, family_name, sex, dob, grade, major, comments,
	enrollment_date, location, photo_url, academic_status, school_id`

// orderable student columns
var studentOrderFields = map[string]bool{
	"id": true, "student_id": true, "given_name": true, "family_name": true, "dob": true, "enrollment_date": true,
}

type studentRow struct {
	ID             int         `db:"id"`
	StudentID      string      `db:"student_id"`
	GivenName      string      `db:"given_name"`
	FamilyName     string      `db:"family_name"`
	Sex            string      `db:"sex"`
	DOB            core.Date   `db:"dob"`
	Grade          null.String `db:"grade"`
	Major          null.String `db:"major"`
	Comments       null.String `db:"comments"`
	EnrollmentDate core.Date   `db:"enrollment_date"`
	Location       null.String `db:"location"`
	PhotoURL       null.String `db:"photo_url"`
	AcademicStatus null.String `db:"academic_status"`
	SchoolID       null.Int    `db:"school_id"`
}

type gradeRow struct {
	ID        int       `db:"id"`
	StudentID int       `db:"student_id"`
	Date      core.Date `db:"date"`
	Subject   string    `db:"subject"`
	Score     float64   `db:"score"`
}

type followUpRow struct {
	ID        int        `db:"id"`
	StudentID int        `db:"student_id"`
	Date      time.Time  `db:"date"`
	JSONData  types.JSON `db:"json_data"`
}

type studentRepository struct {
	exec sqlx.ExtContext
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec sqlx.ExtContext) *studentRepository {
	return &studentRepository{exec: exec}
}

func (repo studentRepository) toRow(s student.Student) studentRow {
	return studentRow{
		ID:             s.ID,
		StudentID:      s.StudentID,
		GivenName:      s.GivenName,
		FamilyName:     s.FamilyName,
		Sex:            s.Sex,
		DOB:            s.DOB,
		Grade:          s.Grade,
		Major:          s.Major,
		Comments:       s.Comments,
		EnrollmentDate: s.EnrollmentDate,
		Location:       s.Location,
		PhotoURL:       s.PhotoURL,
		AcademicStatus: s.AcademicStatus,
		SchoolID:       s.SchoolID,
	}
}

func (repo studentRepository) toModel(r studentRow) student.Student {
	return student.Student{
		ID:             r.ID,
		StudentID:      r.StudentID,
		GivenName:      r.GivenName,
		FamilyName:     r.FamilyName,
		Sex:            r.Sex,
		DOB:            r.DOB,
		Grade:          r.Grade,
		Major:          r.Major,
		Comments:       r.Comments,
		EnrollmentDate: r.EnrollmentDate,
		Location:       r.Location,
		PhotoURL:       r.PhotoURL,
		AcademicStatus: r.AcademicStatus,
		SchoolID:       r.SchoolID,
		Grades:         []student.Grade{},
		FollowUps:      []student.FollowUp{},
	}
}

func (repo studentRepository) trapWriteErr(err error, msg string) error {
	switch {
	case pqErr(err, uniqueViolation, "student_id"):
		return student.ErrStudentIDExists
	case pqErr(err, foreignKeyViolation, "school"):
		return school.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	r := repo.toRow(s)
	const q = `INSERT INTO student (student_id, given_name, family_name, sex, dob, grade, major, comments,
			enrollment_date, location, photo_url, academic_status, school_id)
		VALUES (:student_id, :given_name, :family_name, :sex, :dob, :grade, :major, :comments,
			:enrollment_date, :location, :photo_url, :academic_status, :school_id)
		RETURNING id`
	query, args, err := sqlx.Named(q, r)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "binding student")
	}
	if err = sqlx.GetContext(ctx, repo.exec, &r.ID, repo.exec.Rebind(query), args...); err != nil {
		return student.Student{}, repo.trapWriteErr(err, "inserting student")
	}
	return repo.toModel(r), nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, ordering []core.DBOrdering) ([]student.Student, error) {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if studentOrderFields[ord.Field] {
			orderList = append(orderList, ord.String())
		}
	}

	var rows []studentRow
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, `SELECT `+studentColumns+` FROM student`+orderBy(orderList)); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, repo.toModel(r))
	}
	if err := repo.loadRelations(ctx, students); err != nil {
		return nil, err
	}
	return students, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id int) (student.Student, error) {
	var r studentRow
	if err := sqlx.GetContext(ctx, repo.exec, &r, `SELECT `+studentColumns+` FROM student WHERE id = $1`, id); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "finding student")
	}
	students := []student.Student{repo.toModel(r)}
	if err := repo.loadRelations(ctx, students); err != nil {
		return student.Student{}, err
	}
	return students[0], nil
}

// loadRelations fetches the school, grades & follow-ups of the given students in one query each.
func (repo studentRepository) loadRelations(ctx context.Context, students []student.Student) error {
	if len(students) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(students))
	schoolIDs := make([]int64, 0)
	index := make(map[int]int, len(students))
	for i, s := range students {
		ids = append(ids, int64(s.ID))
		index[s.ID] = i
		if s.SchoolID.Valid {
			schoolIDs = append(schoolIDs, int64(s.SchoolID.Int))
		}
	}

	if len(schoolIDs) > 0 {
		var schools []school.School
		if err := sqlx.SelectContext(ctx, repo.exec, &schools,
			`SELECT id, name, campus FROM school WHERE id = ANY($1)`, pq.Int64Array(schoolIDs)); err != nil {
			return errors.Wrap(err, "loading schools")
		}
		byID := make(map[int]school.School, len(schools))
		for _, sch := range schools {
			byID[sch.ID] = sch
		}
		for i := range students {
			if sch, ok := byID[students[i].SchoolID.Int]; ok && students[i].SchoolID.Valid {
				sch := sch
				students[i].School = &sch
			}
		}
	}

	var grades []gradeRow
	if err := sqlx.SelectContext(ctx, repo.exec, &grades,
		`SELECT id, student_id, date, subject, score FROM grade WHERE student_id = ANY($1) ORDER BY date, id`,
		pq.Int64Array(ids)); err != nil {
		return errors.Wrap(err, "loading grades")
	}
	for _, g := range grades {
		i := index[g.StudentID]
		students[i].Grades = append(students[i].Grades, student.Grade(g))
	}

	var followUps []followUpRow
	if err := sqlx.SelectContext(ctx, repo.exec, &followUps,
		`SELECT id, student_id, date, json_data FROM follow_up WHERE student_id = ANY($1) ORDER BY date, id`,
		pq.Int64Array(ids)); err != nil {
		return errors.Wrap(err, "loading follow-ups")
	}
	for _, f := range followUps {
		i := index[f.StudentID]
		students[i].FollowUps = append(students[i].FollowUps, student.FollowUp{
			ID:        f.ID,
			StudentID: f.StudentID,
			Date:      f.Date.UTC(),
			Data:      f.JSONData,
		})
	}
	return nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	r := repo.toRow(s)
	const q = `UPDATE student SET student_id = :student_id, given_name = :given_name, family_name = :family_name,
			sex = :sex, dob = :dob, grade = :grade, major = :major, comments = :comments,
			enrollment_date = :enrollment_date, location = :location, photo_url = :photo_url,
			academic_status = :academic_status, school_id = :school_id
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, r)
	if err != nil {
		return student.Student{}, repo.trapWriteErr(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return s, nil
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id int) error {
	res, err := repo.exec.ExecContext(ctx, `DELETE FROM student WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo studentRepository) CreateGrade(ctx context.Context, g student.Grade) (student.Grade, error) {
	const q = `INSERT INTO grade (student_id, date, subject, score) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := sqlx.GetContext(ctx, repo.exec, &g.ID, q, g.StudentID, g.Date, g.Subject, g.Score); err != nil {
		if pqErr(err, foreignKeyViolation, "student") {
			return student.Grade{}, student.ErrNotFound
		}
		return student.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return g, nil
}

func (repo studentRepository) CreateFollowUp(ctx context.Context, f student.FollowUp) (student.FollowUp, error) {
	const q = `INSERT INTO follow_up (student_id, date, json_data) VALUES ($1, $2, $3) RETURNING id`
	if err := sqlx.GetContext(ctx, repo.exec, &f.ID, q, f.StudentID, f.Date.UTC(), f.Data); err != nil {
		if pqErr(err, foreignKeyViolation, "student") {
			return student.FollowUp{}, student.ErrNotFound
		}
		return student.FollowUp{}, errors.Wrap(err, "inserting follow-up")
	}
	return f, nil
}
