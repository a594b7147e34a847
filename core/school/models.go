package school

import (
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/eleve/core"
)

type School struct {
	ID     int         `json:"id"`
	Name   string      `json:"name"`
	Campus null.String `json:"campus"`
}

func (s School) String() string {
	if s.Campus.Valid && s.Campus.String != "" {
		return s.Name + " (" + s.Campus.String + ")"
	}
	return s.Name
}

// NewSchool contains information needed to create a new School.
type NewSchool struct {
	Name   string      `json:"name" validate:"required,notblank,max=100"`
	Campus null.String `json:"campus" validate:"omitempty,max=100"`
}

func (ns *NewSchool) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	if ns.Campus.Valid {
		ns.Campus = null.NewString(core.CleanString(ns.Campus.String), core.CleanString(ns.Campus.String) != "")
	}
	return validate.Struct(ns)
}
