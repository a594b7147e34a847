package user_test

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/eleve/core"
	"github.com/trezcool/eleve/core/user"
	"github.com/trezcool/eleve/services/email"
	"github.com/trezcool/eleve/storage/database/inmemdb"
	"github.com/trezcool/eleve/tests"
)

func setup(t *testing.T) (*user.Service, user.Repository, *emailsvc.ConsoleServiceMock) {
	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	mailSvc := emailsvc.NewConsoleServiceMock(core.NewTestConfig())
	return user.NewService(repo, mailSvc), repo, mailSvc
}

func TestService_Register(t *testing.T) {
	svc, _, mailSvc := setup(t)
	ctx := context.Background()

	usr, err := svc.Register(ctx, user.NewUser{Username: "awe", Email: "awe@test.cd", Password: "Tr3ss-Secret"})
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	assert.Equal(t, 1, usr.ID)
	assert.Equal(t, user.RoleTeacher, usr.Role)
	assert.True(t, usr.IsActive)
	assert.NotEqual(t, "Tr3ss-Secret", string(usr.PasswordHash))
	assert.NoError(t, usr.CheckPassword("Tr3ss-Secret"))

	if sent := mailSvc.Sent(); assert.Len(t, sent, 1) {
		assert.Equal(t, "awe@test.cd", sent[0].To[0].Address)
		assert.Equal(t, "welcome", sent[0].TemplateName)
	}

	// no email, no welcome message
	if _, err = svc.Register(ctx, user.NewUser{Username: "boss", Password: "Tr3ss-Secret", Role: user.RoleAdmin}); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	assert.Len(t, mailSvc.Sent(), 1)

	_, err = svc.Register(ctx, user.NewUser{Username: "awe", Password: "Tr3ss-Secret"})
	var valErr *core.ValidationError
	if assert.True(t, errors.As(err, &valErr)) {
		assert.Equal(t, []core.FieldError{{Field: "username", Error: user.ErrUsernameExists.Error()}}, valErr.Fields)
	}
}

func TestService_Login(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()
	pwd := "Tr3ss-Secret"
	usr := testutil.CreateUser(t, repo, "awe", "", pwd, user.RoleTeacher, true)
	testutil.CreateUser(t, repo, "lazy", "", pwd, user.RoleTeacher, false)

	tests := []struct {
		name    string
		uname   string
		pwd     string
		wantErr error
	}{
		{name: "unknown user", uname: "lol", pwd: pwd, wantErr: user.ErrInvalidCredentials},
		{name: "wrong password", uname: "awe", pwd: "lol", wantErr: user.ErrInvalidCredentials},
		{name: "inactive user", uname: "lazy", pwd: pwd, wantErr: user.ErrInvalidCredentials},
		{name: "valid", uname: "awe", pwd: pwd},
		{name: "untrimmed username", uname: " awe ", pwd: pwd},
	}
	var keys []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := svc.Login(ctx, tt.uname, tt.pwd)
			if err != tt.wantErr {
				t.Fatalf("Login() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				_, hexErr := hex.DecodeString(token.Key)
				assert.NoError(t, hexErr)
				assert.Len(t, token.Key, 40)
				assert.Equal(t, usr.ID, token.UserID)
				keys = append(keys, token.Key)
			}
		})
	}
	if assert.Len(t, keys, 2) {
		assert.Equal(t, keys[0], keys[1], "one token per user")
	}
}

func TestService_Authenticate(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()
	pwd := "Tr3ss-Secret"
	usr := testutil.CreateUser(t, repo, "awe", "", pwd, user.RoleTeacher, true)

	token, err := svc.Login(ctx, "awe", pwd)
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}

	got, err := svc.Authenticate(ctx, token.Key)
	if assert.NoError(t, err) {
		assert.Equal(t, usr.ID, got.ID)
	}

	for _, key := range []string{"", "lol"} {
		_, err = svc.Authenticate(ctx, key)
		assert.Equal(t, user.ErrInvalidToken, err)
	}

	// deactivated users lose access
	usr.IsActive = false
	if _, err = repo.UpdateUser(ctx, usr); err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}
	_, err = svc.Authenticate(ctx, token.Key)
	assert.Equal(t, user.ErrInvalidToken, err)
}

func TestService_UpdateOrCreate(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	usr, created, err := svc.UpdateOrCreate(ctx, user.NewUser{Username: "awe", Password: "Tr3ss-Secret", Role: user.RoleTeacher})
	if err != nil {
		t.Fatalf("UpdateOrCreate() failed: %v", err)
	}
	assert.True(t, created)

	updated, created, err := svc.UpdateOrCreate(ctx, user.NewUser{Username: "awe", Email: "awe@test.cd", Password: "N3w-Secret", Role: user.RoleAdmin})
	if err != nil {
		t.Fatalf("UpdateOrCreate() failed: %v", err)
	}
	assert.False(t, created)
	assert.Equal(t, usr.ID, updated.ID)
	assert.Equal(t, user.RoleAdmin, updated.Role)
	assert.Equal(t, "awe@test.cd", updated.Email)
	assert.NoError(t, updated.CheckPassword("N3w-Secret"))

	assert.Equal(t, user.ErrNotFound, svc.ResetPassword(ctx, "lol", "N3w-Secret"))
}

func TestNewUser_Validate(t *testing.T) {
	validate, translator := testutil.NewValidator()

	tests := []struct {
		name string
		nu   user.NewUser
		want map[string]string
	}{
		{name: "empty", want: map[string]string{"username": "this field is required", "password": "this field is required"}},
		{
			name: "too similar to email", nu: user.NewUser{Username: "awe", Email: "jeanclaude@test.cd", Password: "jeanclaude@test"},
			want: map[string]string{"password": "password is too similar to the username or email"},
		},
		{name: "valid", nu: user.NewUser{Username: " awe ", Email: " AWE@Test.cd ", Password: "Tr3ss-Secret"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(validate)
			if tt.want == nil {
				if assert.NoError(t, err) {
					assert.Equal(t, "awe", tt.nu.Username)
					assert.Equal(t, "awe@test.cd", tt.nu.Email)
					assert.Equal(t, user.RoleTeacher, tt.nu.Role)
				}
				return
			}
			assert.Equal(t, tt.want, testutil.TranslateErrors(t, err, translator))
		})
	}
}
