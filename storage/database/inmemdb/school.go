package inmemdb

import (
	"context"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/eleve/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSchool(_ context.Context, sch school.School) (school.School, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sch.ID = repo.db.nextID("school")
	repo.db.schools[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) QuerySchools(_ context.Context) ([]school.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	schools := make([]school.School, 0, len(repo.db.schools))
	for _, sch := range repo.db.schools {
		schools = append(schools, *sch)
	}
	sort.Slice(schools, func(i, j int) bool {
		if schools[i].Name != schools[j].Name {
			return schools[i].Name < schools[j].Name
		}
		return schools[i].ID < schools[j].ID
	})
	return schools, nil
}

func (repo *schoolRepository) GetSchool(_ context.Context, id int) (school.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sch, ok := repo.db.schools[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) DeleteSchool(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.schools[id]; !ok {
		return school.ErrNotFound
	}
	delete(repo.db.schools, id)
	// ON DELETE SET NULL
	for _, s := range repo.db.students {
		if s.SchoolID.Valid && s.SchoolID.Int == id {
			s.SchoolID = null.Int{}
		}
	}
	return nil
}
