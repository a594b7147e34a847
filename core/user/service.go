package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/eleve/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrUsernameExists     = errors.New("a user with that username already exists")
	ErrTokenNotFound      = errors.New("token not found")
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type (
	Repository interface {
		// CreateUser fails with ErrUsernameExists when the username is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		// GetOrCreateToken returns the User's existing Token, or stores and returns the given one.
		GetOrCreateToken(ctx context.Context, token Token) (Token, error)
		GetToken(ctx context.Context, key string) (Token, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

// Register creates a new User from validated input; the password is stored hashed.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	role := nu.Role
	if role == "" {
		role = RoleTeacher
	}
	usr := User{
		Username:   nu.Username,
		Email:      nu.Email,
		Role:       role,
		IsActive:   true,
		DateJoined: time.Now().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Cause(err) == ErrUsernameExists {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		}
		return User{}, errors.Wrap(err, "creating user")
	}

	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *Service) sendWelcomeMail(usr User) {
	if svc.mailSvc == nil || usr.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Username, Address: usr.Email}},
		Subject:      "Your account has been created",
		TemplateName: "welcome",
		TemplateData: usr,
	})
}

// Login checks the credentials and returns the User's Token, creating it on first login.
func (svc *Service) Login(ctx context.Context, uname, pwd string) (Token, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Username: core.CleanString(uname)})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, errors.Wrap(err, "finding user by username")
	}
	if err = usr.CheckPassword(pwd); err != nil || !usr.IsActive {
		return Token{}, ErrInvalidCredentials
	}

	token, err := NewToken(usr)
	if err != nil {
		return Token{}, errors.Wrap(err, "generating token")
	}
	token, err = svc.repo.GetOrCreateToken(ctx, token)
	return token, errors.Wrap(err, "storing token")
}

// Authenticate returns the active User owning the given token key.
func (svc *Service) Authenticate(ctx context.Context, key string) (User, error) {
	if key == "" {
		return User{}, ErrInvalidToken
	}
	token, err := svc.repo.GetToken(ctx, key)
	if err != nil {
		if errors.Cause(err) == ErrTokenNotFound {
			return User{}, ErrInvalidToken
		}
		return User{}, errors.Wrap(err, "finding token")
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: token.UserID})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidToken
		}
		return User{}, errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return User{}, ErrInvalidToken
	}
	return usr, nil
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Username: core.CleanString(uname)})
}

// UpdateOrCreate saves a User with the given credentials, overwriting the password & role if the
// username is taken. It reports whether the User was created.
func (svc *Service) UpdateOrCreate(ctx context.Context, nu NewUser) (User, bool, error) {
	usr, err := svc.GetByUsername(ctx, nu.Username)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return User{}, false, errors.Wrap(err, "finding user by username")
		}
		usr, err = svc.Register(ctx, nu)
		return usr, err == nil, err
	}

	if nu.Email != "" {
		usr.Email = nu.Email
	}
	if nu.Role != "" {
		usr.Role = nu.Role
	}
	usr.IsActive = true
	if err = usr.SetPassword(nu.Password); err != nil {
		return User{}, false, errors.Wrap(err, "hashing password")
	}
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, false, errors.Wrap(err, "updating user")
}

// ResetPassword sets a new password for the User with the given username.
func (svc *Service) ResetPassword(ctx context.Context, uname, pwd string) error {
	usr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	_, err = svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "updating user")
}
