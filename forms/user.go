package forms

import (
	"net/url"

	"github.com/rpupo63/blogicum/models"
)

const usernameHelp = "Required. 150 characters or fewer. Letters, digits and @/./+/-/_ only."

type profileInput struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"omitempty,max=254,email"`
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
}

type registrationInput struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

type loginInput struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// ProfileForm edits the public profile of the signed-in user.
type ProfileForm struct {
	Form
}

func NewProfileForm(user *models.User) *ProfileForm {
	f := &ProfileForm{Form: Form{Fields: []*Field{
		{Name: "username", Label: "Username", Widget: WidgetText, Required: true, HelpText: usernameHelp},
		{Name: "email", Label: "Email address", Widget: WidgetEmail},
		{Name: "first_name", Label: "First name", Widget: WidgetText},
		{Name: "last_name", Label: "Last name", Widget: WidgetText},
	}}}
	if user != nil {
		f.Field("username").Value = user.Username
		f.Field("email").Value = user.Email
		f.Field("first_name").Value = user.FirstName
		f.Field("last_name").Value = user.LastName
	}
	return f
}

// Bind validates format only; username uniqueness is checked by the caller
// through AddError.
func (f *ProfileForm) Bind(values url.Values) bool {
	f.bind(values)
	f.check(profileInput{
		Username:  f.cleaned("username"),
		Email:     f.cleaned("email"),
		FirstName: f.cleaned("first_name"),
		LastName:  f.cleaned("last_name"),
	})
	return f.Valid()
}

func (f *ProfileForm) Username() string {
	return f.cleaned("username")
}

func (f *ProfileForm) Apply(user *models.User) {
	user.Username = f.cleaned("username")
	user.Email = f.cleaned("email")
	user.FirstName = f.cleaned("first_name")
	user.LastName = f.cleaned("last_name")
}

// RegistrationForm signs up a new account.
type RegistrationForm struct {
	Form
}

func NewRegistrationForm() *RegistrationForm {
	return &RegistrationForm{Form: Form{Fields: []*Field{
		{Name: "username", Label: "Username", Widget: WidgetText, Required: true, HelpText: usernameHelp},
		{Name: "password1", Label: "Password", Widget: WidgetPassword, Required: true, HelpText: "At least 8 characters."},
		{Name: "password2", Label: "Password confirmation", Widget: WidgetPassword, Required: true},
	}}}
}

func (f *RegistrationForm) Bind(values url.Values) bool {
	f.bind(values)
	f.check(registrationInput{
		Username:  f.cleaned("username"),
		Password1: f.cleaned("password1"),
		Password2: f.cleaned("password2"),
	})
	return f.Valid()
}

func (f *RegistrationForm) Username() string {
	return f.cleaned("username")
}

func (f *RegistrationForm) Password() string {
	return f.cleaned("password1")
}

// LoginForm collects credentials; checking them is up to the caller.
type LoginForm struct {
	Form
}

func NewLoginForm() *LoginForm {
	return &LoginForm{Form: Form{Fields: []*Field{
		{Name: "username", Label: "Username", Widget: WidgetText, Required: true},
		{Name: "password", Label: "Password", Widget: WidgetPassword, Required: true},
	}}}
}

func (f *LoginForm) Bind(values url.Values) bool {
	f.bind(values)
	f.check(loginInput{Username: f.cleaned("username"), Password: f.cleaned("password")})
	return f.Valid()
}

func (f *LoginForm) Username() string {
	return f.cleaned("username")
}

func (f *LoginForm) Password() string {
	return f.cleaned("password")
}
