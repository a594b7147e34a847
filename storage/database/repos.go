package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/eleve/core"
	"github.com/trezcool/eleve/core/school"
	"github.com/trezcool/eleve/core/student"
	"github.com/trezcool/eleve/core/user"
	"github.com/trezcool/eleve/storage/database/inmemdb"
	"github.com/trezcool/eleve/storage/database/sqlxrepos"
)

const (
	EnginePostgres = "postgres"
	EngineMemory   = "memory"
)

// Repositories groups the repositories of one storage engine.
type Repositories struct {
	DB       *sqlx.DB // nil with the memory engine
	Users    user.Repository
	Schools  school.Repository
	Students student.Repository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		DB:       db,
		Users:    sqlxrepos.NewUserRepository(db),
		Schools:  sqlxrepos.NewSchoolRepository(db),
		Students: sqlxrepos.NewStudentRepository(db),
	}
}

func NewMemRepositories(mem *inmemdb.DB) *Repositories {
	return &Repositories{
		Users:    inmemdb.NewUserRepository(mem),
		Schools:  inmemdb.NewSchoolRepository(mem),
		Students: inmemdb.NewStudentRepository(mem),
	}
}

// Setup returns the repositories of the configured engine. With postgres, the database is created
// if needed and, when migrate is set, brought up to date.
func Setup(conf *core.Config, migrate bool) (*Repositories, error) {
	switch conf.Database.Engine {
	case EngineMemory:
		return NewMemRepositories(inmemdb.NewDB()), nil
	case EnginePostgres:
	default:
		return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}

	if migrate {
		if err := CreateIfNotExist(conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
	}
	db, err := Open(conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = Ping(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	if migrate {
		if err = Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return NewRepositories(db), nil
}

func (r *Repositories) Close() error {
	if r.DB == nil {
		return nil
	}
	return r.DB.Close()
}
