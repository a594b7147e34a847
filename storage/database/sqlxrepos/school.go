package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/eleve/core/school"
)

type schoolRepository struct {
	exec sqlx.ExtContext
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(exec sqlx.ExtContext) *schoolRepository {
	return &schoolRepository{exec: exec}
}

func (repo schoolRepository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	const q = `INSERT INTO school (name, campus) VALUES ($1, $2) RETURNING id`
	if err := sqlx.GetContext(ctx, repo.exec, &sch.ID, q, sch.Name, sch.Campus); err != nil {
		return school.School{}, errors.Wrap(err, "inserting school")
	}
	return sch, nil
}

func (repo schoolRepository) QuerySchools(ctx context.Context) ([]school.School, error) {
	schools := make([]school.School, 0)
	if err := sqlx.SelectContext(ctx, repo.exec, &schools, `SELECT id, name, campus FROM school ORDER BY name, id`); err != nil {
		return nil, errors.Wrap(err, "querying schools")
	}
	return schools, nil
}

func (repo schoolRepository) GetSchool(ctx context.Context, id int) (school.School, error) {
	var sch school.School
	if err := sqlx.GetContext(ctx, repo.exec, &sch, `SELECT id, name, campus FROM school WHERE id = $1`, id); err != nil {
		return school.School{}, trapNoRowsErr(err, school.ErrNotFound, "finding school")
	}
	return sch, nil
}

func (repo schoolRepository) DeleteSchool(ctx context.Context, id int) error {
	res, err := repo.exec.ExecContext(ctx, `DELETE FROM school WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting school")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.ErrNotFound
	}
	return nil
}
