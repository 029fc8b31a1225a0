package model

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

const studentEmailTag = "student_email"

var (
	studentEmailRegex = regexp.MustCompile(
		"^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@" +
			`[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?` +
			`(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`,
	)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation(studentEmailTag, func(fl validator.FieldLevel) bool {
		return studentEmailRegex.MatchString(fl.Field().String())
	})
	return v
}

// Student is a single roster entry.
type Student struct {
	Name  string `mapstructure:"name" yaml:"name"`
	Email string `mapstructure:"email" yaml:"email" validate:"student_email"`
}

// Validate checks the student's email address.
func (s Student) Validate() error {
	if err := validate.Struct(s); err != nil {
		return invalid("stu_config", "Invalid email format for student: %s", s.Name)
	}
	return nil
}

func (s Student) String() string {
	return fmt.Sprintf("%s <%s>", s.Name, s.Email)
}
