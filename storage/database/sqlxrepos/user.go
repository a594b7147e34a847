package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/eleve/core/user"
)

type userRow struct {
	ID           int       `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"password_hash"`
	Role         string    `db:"role"`
	IsActive     bool      `db:"is_active"`
	DateJoined   time.Time `db:"date_joined"`
}

type tokenRow struct {
	Key     string    `db:"key"`
	UserID  int       `db:"user_id"`
	Created time.Time `db:"created"`
}

type userRepository struct {
	exec sqlx.ExtContext
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec sqlx.ExtContext) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) toRow(usr user.User) userRow {
	if usr.DateJoined.IsZero() {
		usr.DateJoined = time.Now()
	}
	return userRow{
		ID:           usr.ID,
		Username:     usr.Username,
		Email:        usr.Email,
		PasswordHash: usr.PasswordHash,
		Role:         usr.Role,
		IsActive:     usr.IsActive,
		DateJoined:   usr.DateJoined.UTC(),
	}
}

func (repo userRepository) toModel(r userRow) user.User {
	return user.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		IsActive:     r.IsActive,
		DateJoined:   r.DateJoined.UTC(),
	}
}

// trapNoRowsErr maps psql "no rows" err to the given not found error
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	r := repo.toRow(usr)
	const q = `INSERT INTO users (username, email, password_hash, role, is_active, date_joined)
		VALUES (:username, :email, :password_hash, :role, :is_active, :date_joined) RETURNING id`
	query, args, err := sqlx.Named(q, r)
	if err != nil {
		return user.User{}, errors.Wrap(err, "binding user")
	}
	if err = sqlx.GetContext(ctx, repo.exec, &r.ID, repo.exec.Rebind(query), args...); err != nil {
		if pqErr(err, uniqueViolation, "username") {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.toModel(r), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var r userRow
	var err error
	const cols = `SELECT id, username, email, password_hash, role, is_active, date_joined FROM users`

	switch {
	case filter.ID != 0:
		err = sqlx.GetContext(ctx, repo.exec, &r, cols+` WHERE id = $1`, filter.ID)
	case filter.Username != "":
		err = sqlx.GetContext(ctx, repo.exec, &r, cols+` WHERE username = $1`, filter.Username)
	default:
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return repo.toModel(r), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	r := repo.toRow(usr)
	const q = `UPDATE users SET username = :username, email = :email, password_hash = :password_hash,
		role = :role, is_active = :is_active WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, r)
	if err != nil {
		if pqErr(err, uniqueViolation, "username") {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
}

func (repo userRepository) GetOrCreateToken(ctx context.Context, token user.Token) (user.Token, error) {
	var r tokenRow
	err := sqlx.GetContext(ctx, repo.exec, &r, `SELECT key, user_id, created FROM auth_token WHERE user_id = $1`, token.UserID)
	if err == nil {
		return user.Token{Key: r.Key, UserID: r.UserID, Created: r.Created.UTC()}, nil
	}
	if err != sql.ErrNoRows {
		return user.Token{}, errors.Wrap(err, "finding token")
	}

	if token.Created.IsZero() {
		token.Created = time.Now().UTC()
	}
	const q = `INSERT INTO auth_token (key, user_id, created) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id RETURNING key, user_id, created`
	if err = sqlx.GetContext(ctx, repo.exec, &r, q, token.Key, token.UserID, token.Created); err != nil {
		if pqErr(err, foreignKeyViolation, "") {
			return user.Token{}, user.ErrNotFound
		}
		return user.Token{}, errors.Wrap(err, "inserting token")
	}
	return user.Token{Key: r.Key, UserID: r.UserID, Created: r.Created.UTC()}, nil
}

func (repo userRepository) GetToken(ctx context.Context, key string) (user.Token, error) {
	var r tokenRow
	if err := sqlx.GetContext(ctx, repo.exec, &r, `SELECT key, user_id, created FROM auth_token WHERE key = $1`, key); err != nil {
		return user.Token{}, trapNoRowsErr(err, user.ErrTokenNotFound, "finding token")
	}
	return user.Token{Key: r.Key, UserID: r.UserID, Created: r.Created.UTC()}, nil
}
