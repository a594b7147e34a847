package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	echoapi "github.com/trezcool/eleve/apps/api/echo"
	"github.com/trezcool/eleve/core/school"
	"github.com/trezcool/eleve/core/student"
	"github.com/trezcool/eleve/core/user"
	"github.com/trezcool/eleve/tests"
)

func getStudent(t *testing.T, env testEnv, id int) student.Student {
	s, err := env.repos.Students.GetStudent(context.Background(), id)
	if err != nil {
		t.Fatalf("GetStudent() failed: %v", err)
	}
	return s
}

func studentPath(id int) string {
	return "/students/" + strconv.Itoa(id) + "/"
}

var errNotFound = httpErr{Error: "not found"}

func Test_studentApi_query(t *testing.T) {
	env := setup(t, false)

	t.Run("empty", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/students/")
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}, rec)
	})

	sch := testutil.CreateSchool(t, env.repos.Schools, "Lycee Wima", "Gombe")
	zed := testutil.CreateStudent(t, env.repos.Students, "S-001", "Amy", "Zed", student.SexFemale, &sch)
	amyBob := testutil.CreateStudent(t, env.repos.Students, "S-002", "Bob", "Amy", student.SexMale, nil)
	amyAnn := testutil.CreateStudent(t, env.repos.Students, "S-003", "Ann", "Amy", student.SexFemale, nil)
	testutil.CreateGrade(t, env.repos.Students, zed.ID, "Maths", 15.5)
	testutil.CreateFollowUp(t, env.repos.Students, zed.ID, `{"mood": "happy"}`)
	zed = getStudent(t, env, zed.ID)

	tests := []httpTest{
		{name: "default ordering", path: "/students/", wantCode: http.StatusOK, wantData: marchallList(t, amyAnn, amyBob, zed)},
		{name: "no trailing slash", path: "/students", wantCode: http.StatusOK, wantData: marchallList(t, amyAnn, amyBob, zed)},
		{name: "order by -id", path: "/students/?ordering=-id", wantCode: http.StatusOK, wantData: marchallList(t, amyAnn, amyBob, zed)},
		{name: "order by student_id", path: "/students/?ordering=student_id", wantCode: http.StatusOK, wantData: marchallList(t, zed, amyBob, amyAnn)},
		{name: "unknown ordering field", path: "/students/?ordering=lol", wantCode: http.StatusOK, wantData: marchallList(t, zed, amyBob, amyAnn)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("nested relations", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/students/")
		env.app.ServeHTTP(rec, req)

		var resp []map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if assert.Len(t, resp, 3) {
			last := resp[2]
			assert.Equal(t, "S-001", last["student_id"])
			assert.Equal(t, "2005-05-12", last["dob"])
			assert.Nil(t, last["enrollment_date"])
			assert.Equal(t, map[string]interface{}{"id": float64(sch.ID), "name": "Lycee Wima", "campus": "Gombe"}, last["school"])
			assert.Len(t, last["grades"], 1)
			assert.Len(t, last["follow_ups"], 1)
			assert.NotContains(t, last, "school_id")
			assert.Nil(t, resp[0]["school"])
			assert.Equal(t, []interface{}{}, resp[0]["grades"])
		}
	})
}

type studentBody struct {
	StudentID      string      `json:"student_id,omitempty"`
	GivenName      string      `json:"given_name,omitempty"`
	FamilyName     string      `json:"family_name,omitempty"`
	Sex            string      `json:"sex,omitempty"`
	DOB            string      `json:"dob,omitempty"`
	Grade          string      `json:"grade,omitempty"`
	Major          string      `json:"major,omitempty"`
	EnrollmentDate string      `json:"enrollment_date,omitempty"`
	PhotoURL       string      `json:"photo_url,omitempty"`
	SchoolID       interface{} `json:"school_id,omitempty"`
}

func Test_studentApi_create(t *testing.T) {
	env := setup(t, false)
	sch := testutil.CreateSchool(t, env.repos.Schools, "Lycee Wima", "")
	existing := testutil.CreateStudent(t, env.repos.Students, "S-001", "Amy", "Zed", student.SexFemale, nil)

	valid := studentBody{StudentID: "S-002", GivenName: "Bob", FamilyName: "Amy", Sex: "M", DOB: "2006-01-02"}
	withSchool := valid
	withSchool.SchoolID = sch.ID
	withSchool.Grade = "6eme"
	withSchool.EnrollmentDate = "2020-09-01"
	duplicate := valid
	duplicate.StudentID = existing.StudentID
	unknownSchool := valid
	unknownSchool.StudentID = "S-003"
	unknownSchool.SchoolID = 99
	invalid := valid
	invalid.Sex = "X"
	invalid.PhotoURL = "lol"
	badDate := valid
	badDate.DOB = "12/05/2005"

	tests := []httpTest{
		{
			name: "empty body", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"student_id":  "this field is required",
				"given_name":  "this field is required",
				"family_name": "this field is required",
				"sex":         "this field is required",
				"dob":         "this field is required",
			}),
		},
		{
			name: "invalid choices", body: marchallObj(t, invalid), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"sex": "not a valid choice", "photo_url": "enter a valid URL"}),
		},
		{
			name: "invalid date", body: marchallObj(t, badDate), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"dob": "date has wrong format, use YYYY-MM-DD"}),
		},
		{
			name: "wrong school_id type", body: []byte(`{"student_id": "S-010", "school_id": "x"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"school_id": "a valid integer is required"}),
		},
		{
			name: "wrong given_name type", body: []byte(`{"given_name": 12}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"given_name": "not a valid string"}),
		},
		{name: "malformed json", body: []byte(`{"student_id": `), wantCode: http.StatusBadRequest},
		{
			name: "duplicate student_id", body: marchallObj(t, duplicate), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"student_id": "student with this student id already exists."}),
		},
		{
			name: "unknown school", body: marchallObj(t, unknownSchool), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"school_id": `invalid pk "99" - object does not exist`}),
		},
		{name: "valid", body: marchallObj(t, valid), wantCode: http.StatusCreated, extra: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/students/", tt.body)
			env.app.ServeHTTP(rec, req)
			if id, ok := tt.extra.(int); ok {
				tt.wantData = marchallObj(t, getStudent(t, env, id))
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("with school", func(t *testing.T) {
		withSchool.StudentID = "S-004"
		req, rec := newRequest(http.MethodPost, "/students", marchallObj(t, withSchool))
		env.app.ServeHTTP(rec, req)

		var s student.Student
		if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		assert.Equal(t, http.StatusCreated, rec.Code)
		if assert.NotNil(t, s.School) {
			assert.Equal(t, sch, *s.School)
		}
		assert.Equal(t, "6eme", s.Grade.String)
		assert.Equal(t, "2020-09-01", s.EnrollmentDate.String())
		assert.Equal(t, getStudent(t, env, s.ID).SchoolID.Int, sch.ID)
	})
}

func Test_studentApi_retrieve(t *testing.T) {
	env := setup(t, false)
	s := testutil.CreateStudent(t, env.repos.Students, "S-001", "Amy", "Zed", student.SexFemale, nil)
	testutil.CreateGrade(t, env.repos.Students, s.ID, "Maths", 12)
	s = getStudent(t, env, s.ID)

	tests := []httpTest{
		{name: "found", path: studentPath(s.ID), wantCode: http.StatusOK, wantData: marchallObj(t, s)},
		{name: "no trailing slash", path: "/students/" + strconv.Itoa(s.ID), wantCode: http.StatusOK, wantData: marchallObj(t, s)},
		{name: "unknown id", path: studentPath(99), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "non-numeric id", path: "/students/lol/", wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_update(t *testing.T) {
	env := setup(t, false)
	sch := testutil.CreateSchool(t, env.repos.Schools, "Lycee Wima", "Gombe")
	s := testutil.CreateStudent(t, env.repos.Students, "S-001", "Amy", "Zed", student.SexFemale, &sch)
	other := testutil.CreateStudent(t, env.repos.Students, "S-002", "Bob", "Amy", student.SexMale, nil)
	testutil.CreateGrade(t, env.repos.Students, s.ID, "Maths", 12)

	// seed optional fields to check that PUT keeps the omitted ones
	patch := []byte(`{"major": "Sciences", "grade": "6eme"}`)
	req, rec := newRequest(http.MethodPatch, studentPath(s.ID), patch)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("seeding optional fields failed: %s", rec.Body.String())
	}

	t.Run("missing required fields", func(t *testing.T) {
		req, rec := newRequest(http.MethodPut, studentPath(s.ID), []byte(`{"given_name": "Amelie"}`))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"student_id":  "this field is required",
				"family_name": "this field is required",
				"sex":         "this field is required",
				"dob":         "this field is required",
			}),
		}, rec)
	})

	t.Run("duplicate student_id", func(t *testing.T) {
		body := studentBody{StudentID: other.StudentID, GivenName: "Amy", FamilyName: "Zed", Sex: "F", DOB: "2005-05-12"}
		req, rec := newRequest(http.MethodPut, studentPath(s.ID), marchallObj(t, body))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"student_id": "student with this student id already exists."}),
		}, rec)
	})

	t.Run("unknown student", func(t *testing.T) {
		body := studentBody{StudentID: "S-009", GivenName: "Amy", FamilyName: "Zed", Sex: "F", DOB: "2005-05-12"}
		req, rec := newRequest(http.MethodPut, studentPath(99), marchallObj(t, body))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)
	})

	t.Run("full update", func(t *testing.T) {
		body := studentBody{StudentID: "S-001", GivenName: "Amelie", FamilyName: "Zed", Sex: "F", DOB: "2005-06-12", Major: "Lettres"}
		req, rec := newRequest(http.MethodPut, studentPath(s.ID), marchallObj(t, body))
		env.app.ServeHTTP(rec, req)

		updated := getStudent(t, env, s.ID)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, updated)}, rec)
		assert.Equal(t, "Amelie", updated.GivenName)
		assert.Equal(t, "2005-06-12", updated.DOB.String())
		assert.Equal(t, "Lettres", updated.Major.String)
		assert.Equal(t, "6eme", updated.Grade.String) // omitted: kept
		if assert.NotNil(t, updated.School) {
			assert.Equal(t, sch.ID, updated.School.ID)
		}
		assert.Len(t, updated.Grades, 1) // nested records are untouched
	})

	t.Run("representation sent back keeps the school", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, studentPath(s.ID))
		env.app.ServeHTTP(rec, req)
		var repr map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &repr); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		repr["given_name"] = "Ameline"

		req, rec = newRequest(http.MethodPut, studentPath(s.ID), marchallObj(t, repr))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		updated := getStudent(t, env, s.ID)
		assert.Equal(t, "Ameline", updated.GivenName)
		assert.Equal(t, null.IntFrom(sch.ID), updated.SchoolID)
		assert.Len(t, updated.Grades, 1)
	})

	t.Run("explicit nulls", func(t *testing.T) {
		body := []byte(`{"student_id": "S-001", "given_name": "Amy", "family_name": "Zed", "sex": "F", "dob": "2005-06-12", "grade": null, "school_id": null}`)
		req, rec := newRequest(http.MethodPut, studentPath(s.ID), body)
		env.app.ServeHTTP(rec, req)

		updated := getStudent(t, env, s.ID)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, updated)}, rec)
		assert.False(t, updated.Grade.Valid)
		assert.False(t, updated.SchoolID.Valid)
		assert.Nil(t, updated.School)
		assert.Equal(t, "Lettres", updated.Major.String)
	})
}

func Test_studentApi_partialUpdate(t *testing.T) {
	env := setup(t, false)
	sch := testutil.CreateSchool(t, env.repos.Schools, "Lycee Wima", "Gombe")
	s := testutil.CreateStudent(t, env.repos.Students, "S-001", "Amy", "Zed", student.SexFemale, &sch)

	tests := []httpTest{
		{name: "invalid sex", body: []byte(`{"sex": "X"}`), wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"sex": "not a valid choice"})},
		{name: "invalid date", body: []byte(`{"dob": "2005-13-01"}`), wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"dob": "date has wrong format, use YYYY-MM-DD"})},
		{name: "blank required field", body: []byte(`{"given_name": "  "}`), wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"given_name": "this field is required"})},
		{name: "set major", body: []byte(`{"major": "Sciences", "location": "Kinshasa"}`), wantCode: http.StatusOK},
		{name: "clear major", body: []byte(`{"major": null}`), wantCode: http.StatusOK},
		{name: "rename", body: []byte(`{"given_name": "Amelie"}`), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPatch, studentPath(s.ID), tt.body)
			env.app.ServeHTTP(rec, req)
			if tt.wantData == nil {
				tt.wantData = marchallObj(t, getStudent(t, env, s.ID))
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	updated := getStudent(t, env, s.ID)
	assert.Equal(t, "Amelie", updated.GivenName)
	assert.Equal(t, "Zed", updated.FamilyName)
	assert.Equal(t, student.SexFemale, updated.Sex)
	assert.False(t, updated.Major.Valid)
	assert.Equal(t, "Kinshasa", updated.Location.String)
	if assert.NotNil(t, updated.School) {
		assert.Equal(t, sch.ID, updated.School.ID)
	}
}

func Test_studentApi_destroy(t *testing.T) {
	env := setup(t, false)
	s := testutil.CreateStudent(t, env.repos.Students, "S-001", "Amy", "Zed", student.SexFemale, nil)
	other := testutil.CreateStudent(t, env.repos.Students, "S-002", "Bob", "Amy", student.SexMale, nil)
	testutil.CreateGrade(t, env.repos.Students, s.ID, "Maths", 12)
	testutil.CreateFollowUp(t, env.repos.Students, s.ID, `{"note": "absent"}`)
	testutil.CreateGrade(t, env.repos.Students, other.ID, "Maths", 14)

	t.Run("unknown id", func(t *testing.T) {
		req, rec := newRequest(http.MethodDelete, studentPath(99))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newRequest(http.MethodDelete, studentPath(s.ID))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("gone", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, studentPath(s.ID))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)

		_, err := env.repos.Students.CreateGrade(context.Background(), student.Grade{StudentID: s.ID, Subject: "Maths"})
		assert.Equal(t, student.ErrNotFound, err)
		assert.Len(t, getStudent(t, env, other.ID).Grades, 1)
	})
}

func Test_studentApi_schoolDeleted(t *testing.T) {
	env := setup(t, false)
	sch := testutil.CreateSchool(t, env.repos.Schools, "Lycee Wima", "Gombe")
	s := testutil.CreateStudent(t, env.repos.Students, "S-001", "Amy", "Zed", student.SexFemale, &sch)

	if err := env.repos.Schools.DeleteSchool(context.Background(), sch.ID); err != nil {
		t.Fatalf("DeleteSchool() failed: %v", err)
	}

	req, rec := newRequest(http.MethodGet, studentPath(s.ID))
	env.app.ServeHTTP(rec, req)

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, resp["school"])
	assert.Equal(t, "S-001", resp["student_id"])

	_, err := env.repos.Schools.GetSchool(context.Background(), sch.ID)
	assert.Equal(t, school.ErrNotFound, err)
}

func Test_studentApi_tokenAuth(t *testing.T) {
	env := setup(t, true)
	pwd := "Tr3ss-Secret"
	testutil.CreateUser(t, env.repos.Users, "awe", "awe@test.cd", pwd, user.RoleTeacher, true)
	s := testutil.CreateStudent(t, env.repos.Students, "S-001", "Amy", "Zed", student.SexFemale, nil)

	token, err := env.usrSvc.Login(context.Background(), "awe", pwd)
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}

	tests := []httpTest{
		{
			name: "no token", path: "/students/", wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "authentication credentials were not provided"}),
		},
		{
			name: "invalid token", path: "/students/", token: "lol", wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "detail without token", path: studentPath(s.ID), wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "authentication credentials were not provided"}),
		},
		{name: "valid token", path: "/students/", token: token.Key, wantCode: http.StatusOK, wantData: marchallList(t, s)},
		{name: "detail with valid token", path: studentPath(s.ID), token: token.Key, wantCode: http.StatusOK, wantData: marchallObj(t, s)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("bearer scheme", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/students/")
		req.Header.Set("Authorization", "Bearer "+token.Key)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("register & login stay open", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/login/", []byte(`{"username": "awe", "password": "Tr3ss-Secret"}`))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.LoginResponse{Token: token.Key})}, rec)
	})
}
