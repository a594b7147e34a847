package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"
)

func TestInitValidators(t *testing.T) {
	validate, translator := NewValidator()

	type form struct {
		Name     string      `json:"name" validate:"required,notblank"`
		Username string      `json:"username" validate:"omitempty,username"`
		Kind     string      `json:"kind" validate:"omitempty,oneof=A B"`
		Website  null.String `json:"website" validate:"omitempty,url"`
		Day      Date        `json:"day" validate:"required"`
		Count    null.Int    `json:"count" validate:"required"`
		Hidden   string      `json:"-" validate:"omitempty,max=1"`
	}

	tests := []struct {
		name string
		form form
		want map[string]string
	}{
		{
			name: "empty",
			want: map[string]string{"name": "this field is required", "day": "this field is required", "count": "this field is required"},
		},
		{
			name: "invalid values",
			form: form{Name: "  ", Username: "no spaces", Kind: "C", Website: null.StringFrom("lol"), Day: NewDate(2020, 1, 1), Count: null.IntFrom(2)},
			want: map[string]string{
				"name":     "this field may not be blank",
				"username": "enter a valid username: letters, digits and @/./+/-/_ only",
				"kind":     "not a valid choice",
				"website":  "enter a valid URL",
			},
		},
		{
			name: "valid",
			form: form{Name: "Eleve", Username: "awe.b", Kind: "A", Website: null.StringFrom("https://eleve.cd"), Day: NewDate(2020, 1, 1), Count: null.IntFrom(1)},
		},
		{
			// required sees the unwrapped value, so a valid zero counts as missing
			name: "valid zero fails required",
			form: form{Name: "Eleve", Day: NewDate(2020, 1, 1), Count: null.IntFrom(0)},
			want: map[string]string{"count": "this field is required"},
		},
		{
			name: "null optional values",
			form: form{Name: "Eleve", Website: null.String{}, Day: NewDate(2020, 1, 1), Count: null.IntFrom(3)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.form)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			if !ok {
				t.Fatalf("validate.Struct() error = %v, want validator.ValidationErrors", err)
			}
			got := make(map[string]string, len(vErrs))
			for _, vErr := range vErrs {
				got[vErr.Field()] = vErr.Translate(translator)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := NewValidationError(nil, FieldError{Field: "school_id", Error: "invalid"})
	assert.Equal(t, "school_id: invalid", err.Error())

	err = NewValidationError(nil, FieldError{Field: "dob", Error: "required"}, FieldError{Field: "sex", Error: "invalid"})
	assert.Equal(t, "dob: required; sex: invalid", err.Error())
	assert.Equal(t, map[string]string{"dob": "required", "sex": "invalid"}, err.(*ValidationError).FieldErrors())

	err = NewValidationError(ErrInvalidDate)
	assert.Equal(t, ErrInvalidDate.Error(), err.Error())
	assert.True(t, errors.Is(err, ErrInvalidDate))
	assert.Nil(t, err.(*ValidationError).FieldErrors())
}

func TestIsShutdown(t *testing.T) {
	err := NewShutdownError("student object not found")
	assert.True(t, IsShutdown(err))
	assert.True(t, IsShutdown(errors.Wrap(err, "retrieving student")))
	assert.False(t, IsShutdown(ErrInvalidDate))
}
