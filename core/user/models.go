package user

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/eleve/core"
)

// Roles
const (
	RoleAdmin   = "Admin"
	RoleTeacher = "Teacher"
)

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash []byte    `json:"-"`
	IsActive     bool      `json:"-"`
	DateJoined   time.Time `json:"-"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Email    string `json:"email" validate:"omitempty,max=254,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=Admin Teacher"`
}

// Validate cleans the input, defaults the role to Teacher and validates it.
func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Username = core.CleanString(nu.Username)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role)
	if nu.Role == "" {
		nu.Role = RoleTeacher
	}
	return validate.Struct(nu)
}

type GetFilter struct {
	ID       int
	Username string
}

// Token is the opaque bearer credential returned on login. One per User, no expiry.
type Token struct {
	Key     string    `json:"token"`
	UserID  int       `json:"-"`
	Created time.Time `json:"-"` // UTC
}

const tokenKeyLen = 20 // bytes; 40 hex chars

// NewToken generates a fresh random Token for the given User.
func NewToken(usr User) (Token, error) {
	buf := make([]byte, tokenKeyLen)
	if _, err := rand.Read(buf); err != nil {
		return Token{}, err
	}
	return Token{
		Key:     hex.EncodeToString(buf),
		UserID:  usr.ID,
		Created: time.Now().UTC(),
	}, nil
}
