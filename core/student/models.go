package student

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/eleve/core"
	"github.com/trezcool/eleve/core/school"
)

const (
	SexMale   = "M"
	SexFemale = "F"
)

type Student struct {
	ID             int            `json:"id"`
	School         *school.School `json:"school"`
	Grades         []Grade        `json:"grades"`
	FollowUps      []FollowUp     `json:"follow_ups"`
	StudentID      string         `json:"student_id"`
	GivenName      string         `json:"given_name"`
	FamilyName     string         `json:"family_name"`
	Sex            string         `json:"sex"`
	DOB            core.Date      `json:"dob"`
	Grade          null.String    `json:"grade"`
	Major          null.String    `json:"major"`
	Comments       null.String    `json:"comments"`
	EnrollmentDate core.Date      `json:"enrollment_date"`
	Location       null.String    `json:"location"`
	PhotoURL       null.String    `json:"photo_url"`
	AcademicStatus null.String    `json:"academic_status"`
	SchoolID       null.Int       `json:"-"`
}

func (s Student) String() string {
	return s.GivenName + " " + s.FamilyName
}

// Grade is a score obtained by a Student in a subject; deleted with its Student.
type Grade struct {
	ID        int       `json:"id"`
	StudentID int       `json:"student"`
	Date      core.Date `json:"date"`
	Subject   string    `json:"subject"`
	Score     float64   `json:"score"`
}

// FollowUp is a free-form wellbeing note about a Student; deleted with its Student.
type FollowUp struct {
	ID        int        `json:"id"`
	StudentID int        `json:"student"`
	Date      time.Time  `json:"date"`
	Data      types.JSON `json:"json_data"`
}

// Input is the writable representation of a Student.
// Nested school, grades and follow-ups are read-only; SchoolID attaches an existing School.
type Input struct {
	StudentID      string      `json:"student_id" validate:"required,max=100"`
	GivenName      string      `json:"given_name" validate:"required,max=100"`
	FamilyName     string      `json:"family_name" validate:"required,max=100"`
	Sex            string      `json:"sex" validate:"required,oneof=M F"`
	DOB            core.Date   `json:"dob" validate:"required"`
	Grade          null.String `json:"grade" validate:"omitempty,max=50"`
	Major          null.String `json:"major" validate:"omitempty,max=100"`
	Comments       null.String `json:"comments"`
	EnrollmentDate core.Date   `json:"enrollment_date"`
	Location       null.String `json:"location" validate:"omitempty,max=100"`
	PhotoURL       null.String `json:"photo_url" validate:"omitempty,url,max=200"`
	AcademicStatus null.String `json:"academic_status" validate:"omitempty,max=50"`
	SchoolID       null.Int    `json:"school_id"`
}

// InputFrom returns the writable fields of s; used to merge partial updates.
func InputFrom(s Student) Input {
	return Input{
		StudentID:      s.StudentID,
		GivenName:      s.GivenName,
		FamilyName:     s.FamilyName,
		Sex:            s.Sex,
		DOB:            s.DOB,
		Grade:          s.Grade,
		Major:          s.Major,
		Comments:       s.Comments,
		EnrollmentDate: s.EnrollmentDate,
		Location:       s.Location,
		PhotoURL:       s.PhotoURL,
		AcademicStatus: s.AcademicStatus,
		SchoolID:       s.SchoolID,
	}
}

// ReplacementFrom returns the Input a full update binds onto: required fields must be sent again,
// omitted optional fields and school_id keep their stored values.
func ReplacementFrom(s Student) Input {
	in := InputFrom(s)
	in.StudentID, in.GivenName, in.FamilyName, in.Sex = "", "", "", ""
	in.DOB = core.Date{}
	return in
}

func (in *Input) Validate(validate *validator.Validate) error {
	in.StudentID = core.CleanString(in.StudentID)
	in.GivenName = core.CleanString(in.GivenName)
	in.FamilyName = core.CleanString(in.FamilyName)
	in.Sex = core.CleanString(in.Sex)
	return validate.Struct(in)
}

func (in Input) apply(s *Student) {
	s.StudentID = in.StudentID
	s.GivenName = in.GivenName
	s.FamilyName = in.FamilyName
	s.Sex = in.Sex
	s.DOB = in.DOB
	s.Grade = in.Grade
	s.Major = in.Major
	s.Comments = in.Comments
	s.EnrollmentDate = in.EnrollmentDate
	s.Location = in.Location
	s.PhotoURL = in.PhotoURL
	s.AcademicStatus = in.AcademicStatus
	s.SchoolID = in.SchoolID
}

// NewGrade contains information needed to record a Grade.
type NewGrade struct {
	StudentID int          `json:"student" validate:"required"`
	Date      core.Date    `json:"date" validate:"required"`
	Subject   string       `json:"subject" validate:"required,max=100"`
	Score     null.Float64 `json:"score"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.Subject = core.CleanString(ng.Subject)
	if err := validate.Struct(ng); err != nil {
		return err
	}
	if !ng.Score.Valid {
		return core.NewValidationError(nil, core.FieldError{Field: "score", Error: "this field is required"})
	}
	return nil
}

// NewFollowUp contains information needed to record a FollowUp.
type NewFollowUp struct {
	StudentID int        `json:"student" validate:"required"`
	Date      time.Time  `json:"date" validate:"required"`
	Data      types.JSON `json:"json_data" validate:"required"`
}

func (nf *NewFollowUp) Validate(validate *validator.Validate) error {
	if err := validate.Struct(nf); err != nil {
		return err
	}
	if !json.Valid(nf.Data) || string(nf.Data) == "null" {
		return core.NewValidationError(nil, core.FieldError{Field: "json_data", Error: "value must be valid JSON"})
	}
	return nil
}
