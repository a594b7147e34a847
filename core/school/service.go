package school

import (
	"context"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("school not found")

type (
	Repository interface {
		CreateSchool(ctx context.Context, sch School) (School, error)
		QuerySchools(ctx context.Context) ([]School, error)
		GetSchool(ctx context.Context, id int) (School, error)
		// DeleteSchool clears the school reference of its students; they are not deleted.
		DeleteSchool(ctx context.Context, id int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ns NewSchool) (School, error) {
	sch, err := svc.repo.CreateSchool(ctx, School{Name: ns.Name, Campus: ns.Campus})
	return sch, errors.Wrap(err, "creating school")
}

func (svc *Service) QueryAll(ctx context.Context) ([]School, error) {
	return svc.repo.QuerySchools(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (School, error) {
	return svc.repo.GetSchool(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteSchool(ctx, id)
}
