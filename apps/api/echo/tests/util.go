package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	. "github.com/trezcool/eleve/apps/api/echo"
	"github.com/trezcool/eleve/core"
	"github.com/trezcool/eleve/core/student"
	"github.com/trezcool/eleve/core/user"
	"github.com/trezcool/eleve/services/email"
	"github.com/trezcool/eleve/storage/database"
	"github.com/trezcool/eleve/storage/database/inmemdb"
	"github.com/trezcool/eleve/tests"
)

type testEnv struct {
	app     Server
	repos   *database.Repositories
	mailSvc *emailsvc.ConsoleServiceMock
	usrSvc  *user.Service
}

// setup returns a server backed by a fresh in-memory database.
func setup(t *testing.T, requireAuth bool, corsOrigins ...string) testEnv {
	conf := core.NewTestConfig()
	conf.Server.RequireAuth = requireAuth
	conf.Server.CORSOrigins = corsOrigins

	// set up DB & repos
	repos := database.NewMemRepositories(inmemdb.NewDB())

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(repos.Users, mailSvc)
	studentSvc := student.NewService(repos.Students, repos.Schools)
	validate, translator := testutil.NewValidator()

	// set up server
	app := NewServer(
		"",  /* addr */
		nil, /* shutdown */
		&Deps{
			Conf:       conf,
			Logger:     nopLogger{},
			UserSvc:    usrSvc,
			StudentSvc: studentSvc,
			Validate:   validate,
			Translator: translator,
		},
	)
	return testEnv{app: app, repos: repos, mailSvc: mailSvc, usrSvc: usrSvc}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
