package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/eleve/core"
	"github.com/trezcool/eleve/core/school"
	"github.com/trezcool/eleve/core/student"
)

// comparators of orderable student columns
var studentComparators = map[string]func(a, b *student.Student) int{
	"id":              func(a, b *student.Student) int { return a.ID - b.ID },
	"student_id":      func(a, b *student.Student) int { return strings.Compare(a.StudentID, b.StudentID) },
	"given_name":      func(a, b *student.Student) int { return strings.Compare(a.GivenName, b.GivenName) },
	"family_name":     func(a, b *student.Student) int { return strings.Compare(a.FamilyName, b.FamilyName) },
	"dob":             func(a, b *student.Student) int { return compareDates(a.DOB, b.DOB) },
	"enrollment_date": func(a, b *student.Student) int { return compareDates(a.EnrollmentDate, b.EnrollmentDate) },
}

func compareDates(a, b core.Date) int {
	switch {
	case a.Before(b.Time):
		return -1
	case a.After(b.Time):
		return 1
	}
	return 0
}

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

// check enforces the unique & foreign key constraints; must be called with the lock held.
func (repo *studentRepository) check(s student.Student) error {
	for _, other := range repo.db.students {
		if other.StudentID == s.StudentID && other.ID != s.ID {
			return student.ErrStudentIDExists
		}
	}
	if s.SchoolID.Valid {
		if _, ok := repo.db.schools[s.SchoolID.Int]; !ok {
			return school.ErrNotFound
		}
	}
	return nil
}

// strip returns the stored columns of s, without its relations.
func strip(s student.Student) *student.Student {
	s.School = nil
	s.Grades = nil
	s.FollowUps = nil
	return &s
}

// load returns a copy of the stored student with its relations; must be called with the lock held.
func (repo *studentRepository) load(s *student.Student) student.Student {
	res := *s
	if res.SchoolID.Valid {
		if sch, ok := repo.db.schools[res.SchoolID.Int]; ok {
			schCopy := *sch
			res.School = &schCopy
		}
	}

	res.Grades = make([]student.Grade, 0)
	for _, g := range repo.db.grades {
		if g.StudentID == s.ID {
			res.Grades = append(res.Grades, *g)
		}
	}
	sort.Slice(res.Grades, func(i, j int) bool {
		if c := compareDates(res.Grades[i].Date, res.Grades[j].Date); c != 0 {
			return c < 0
		}
		return res.Grades[i].ID < res.Grades[j].ID
	})

	res.FollowUps = make([]student.FollowUp, 0)
	for _, f := range repo.db.followUps {
		if f.StudentID == s.ID {
			res.FollowUps = append(res.FollowUps, *f)
		}
	}
	sort.Slice(res.FollowUps, func(i, j int) bool {
		if !res.FollowUps[i].Date.Equal(res.FollowUps[j].Date) {
			return res.FollowUps[i].Date.Before(res.FollowUps[j].Date)
		}
		return res.FollowUps[i].ID < res.FollowUps[j].ID
	})
	return res
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s.ID = 0
	if err := repo.check(s); err != nil {
		return student.Student{}, err
	}
	s.ID = repo.db.nextID("student")
	repo.db.students[s.ID] = strip(s)
	return repo.load(repo.db.students[s.ID]), nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rows := make([]*student.Student, 0, len(repo.db.students))
	for _, s := range repo.db.students {
		rows = append(rows, s)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ordering {
			cmp, ok := studentComparators[ord.Field]
			if !ok {
				continue
			}
			if c := cmp(rows[i], rows[j]); c != 0 {
				if ord.Ascending {
					return c < 0
				}
				return c > 0
			}
		}
		return rows[i].ID < rows[j].ID
	})

	students := make([]student.Student, 0, len(rows))
	for _, s := range rows {
		students = append(students, repo.load(s))
	}
	return students, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id int) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return repo.load(s), nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[s.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	if err := repo.check(s); err != nil {
		return student.Student{}, err
	}
	repo.db.students[s.ID] = strip(s)
	return repo.load(repo.db.students[s.ID]), nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.students, id)
	// ON DELETE CASCADE
	for gid, g := range repo.db.grades {
		if g.StudentID == id {
			delete(repo.db.grades, gid)
		}
	}
	for fid, f := range repo.db.followUps {
		if f.StudentID == id {
			delete(repo.db.followUps, fid)
		}
	}
	return nil
}

func (repo *studentRepository) CreateGrade(_ context.Context, g student.Grade) (student.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[g.StudentID]; !ok {
		return student.Grade{}, student.ErrNotFound
	}
	g.ID = repo.db.nextID("grade")
	repo.db.grades[g.ID] = &g
	return g, nil
}

func (repo *studentRepository) CreateFollowUp(_ context.Context, f student.FollowUp) (student.FollowUp, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[f.StudentID]; !ok {
		return student.FollowUp{}, student.ErrNotFound
	}
	f.ID = repo.db.nextID("follow_up")
	f.Date = f.Date.UTC()
	repo.db.followUps[f.ID] = &f
	return f, nil
}
