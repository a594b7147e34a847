package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/eleve/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) usernameTaken(username string, excludedID int) bool {
	for _, usr := range repo.db.users {
		if usr.Username == username && usr.ID != excludedID {
			return true
		}
	}
	return false
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.usernameTaken(usr.Username, 0) {
		return user.User{}, user.ErrUsernameExists
	}
	usr.ID = repo.db.nextID("users")
	if usr.DateJoined.IsZero() {
		usr.DateJoined = time.Now().UTC()
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != 0 {
		if usr, ok := repo.db.users[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Username != "" {
		for _, usr := range repo.db.users {
			if usr.Username == filter.Username {
				return *usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if repo.usernameTaken(usr.Username, usr.ID) {
		return user.User{}, user.ErrUsernameExists
	}
	usr.DateJoined = orig.DateJoined
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetOrCreateToken(_ context.Context, token user.Token) (user.Token, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[token.UserID]; !ok {
		return user.Token{}, user.ErrNotFound
	}
	for _, tok := range repo.db.tokens {
		if tok.UserID == token.UserID {
			return *tok, nil
		}
	}
	if token.Created.IsZero() {
		token.Created = time.Now().UTC()
	}
	repo.db.tokens[token.Key] = &token
	return token, nil
}

func (repo *userRepository) GetToken(_ context.Context, key string) (user.Token, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tok, ok := repo.db.tokens[key]; ok {
		return *tok, nil
	}
	return user.Token{}, user.ErrTokenNotFound
}
