// Package forms binds submitted form values to blog entities and describes
// how each field should be rendered.
package forms

import (
	"errors"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rpupo63/blogicum/errs"
	"github.com/rpupo63/blogicum/models"
)

// Widget names understood by the field templates.
const (
	WidgetText     = "text"
	WidgetTextarea = "textarea"
	WidgetDate     = "date"
	WidgetFile     = "file"
	WidgetSelect   = "select"
	WidgetEmail    = "email"
	WidgetPassword = "password"
)

// Choice is one option of a select widget.
type Choice struct {
	Value string
	Label string
}

// Field carries the rendering hints, current value and errors of one input.
type Field struct {
	Name     string
	Label    string
	Widget   string
	Value    string
	Required bool
	HelpText string
	Attrs    map[string]string
	Choices  []Choice
	Errors   []string

	raw string
}

// Form is an ordered set of fields plus errors not tied to a single field.
type Form struct {
	Fields         []*Field
	NonFieldErrors []string

	problems []error
}

// validate checks the tagged input structs of every form. Field names in
// errors come from the form tag so they match the submitted names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return models.ValidUsername(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Field returns the named field, or nil.
func (f *Form) Field(name string) *Field {
	for _, field := range f.Fields {
		if field.Name == name {
			return field
		}
	}
	return nil
}

func (f *Form) AddError(name, message string) {
	f.problems = append(f.problems, errs.NewInvalidFieldError(name, message))
	f.addMessage(name, message)
}

// Err joins the recorded problems as field errors, or returns nil.
func (f *Form) Err() error {
	return errors.Join(f.problems...)
}

func (f *Form) addMessage(name, message string) {
	if field := f.Field(name); field != nil {
		field.Errors = append(field.Errors, message)
		return
	}
	f.NonFieldErrors = append(f.NonFieldErrors, message)
}

// Valid reports whether no errors were recorded.
func (f *Form) Valid() bool {
	if len(f.NonFieldErrors) > 0 {
		return false
	}
	for _, field := range f.Fields {
		if len(field.Errors) > 0 {
			return false
		}
	}
	return true
}

// Multipart reports whether the form needs multipart encoding.
func (f *Form) Multipart() bool {
	for _, field := range f.Fields {
		if field.Widget == WidgetFile {
			return true
		}
	}
	return false
}

// bind copies submitted values into every non-file field. Values are
// trimmed except for passwords, which are never echoed back.
func (f *Form) bind(values url.Values) {
	for _, field := range f.Fields {
		if field.Widget == WidgetFile {
			continue
		}
		value := values.Get(field.Name)
		if field.Widget != WidgetPassword {
			value = strings.TrimSpace(value)
			field.Value = value
		}
		field.raw = value
	}
}

// check runs the struct tags of input and records one message per failing
// field.
func (f *Form) check(input any) {
	var failures validator.ValidationErrors
	if !errors.As(validate.Struct(input), &failures) {
		return
	}
	for _, fe := range failures {
		message := fieldMessage(fe, f.Field(fe.Field()))
		if fe.Tag() == "required" {
			f.problems = append(f.problems, errs.NewMissingRequiredFieldError(fe.Field()))
		} else {
			f.problems = append(f.problems, errs.NewInvalidFieldError(fe.Field(), message))
		}
		f.addMessage(fe.Field(), message)
	}
}

func fieldMessage(fe validator.FieldError, field *Field) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	case "min":
		if field != nil && field.Widget == WidgetPassword {
			return "This password is too short. It must contain at least " + fe.Param() + " characters."
		}
		return "Ensure this value has at least " + fe.Param() + " characters."
	case "email":
		return "Enter a valid email address."
	case "eqfield":
		return "The two password fields didn't match."
	case "number":
		return "Select a valid choice. That choice is not one of the available choices."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return "Enter a valid value."
	}
}

// cleaned returns the submitted value of a field.
func (f *Form) cleaned(name string) string {
	if field := f.Field(name); field != nil {
		return field.raw
	}
	return ""
}

// hasErrors reports whether the named field already failed a check.
func (f *Form) hasErrors(name string) bool {
	field := f.Field(name)
	return field != nil && len(field.Errors) > 0
}
