package forms

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/blogicum/errs"
	"github.com/rpupo63/blogicum/models"
)

func testChoices() ([]*models.Category, []*models.Location) {
	categories := []*models.Category{{ID: 1, Title: "Travel"}, {ID: 2, Title: "Food"}}
	locations := []*models.Location{{ID: 7, Name: "Planet Earth"}}
	return categories, locations
}

func TestPostForm(t *testing.T) {
	categories, locations := testChoices()

	t.Run("valid", func(t *testing.T) {
		f := NewPostForm(categories, locations, nil, nil)
		ok := f.Bind(url.Values{
			"title":    {"  Hello  "},
			"text":     {"\n  Body\n\n"},
			"pub_date": {"2024-05-01"},
			"category": {"2"},
			"location": {"7"},
		})
		require.True(t, ok, "form errors: %+v", f.Fields)

		var post models.Post
		f.Apply(&post)
		assert.Equal(t, "Hello", post.Title)
		assert.Equal(t, "Body", post.Text)
		assert.NoError(t, f.Err())
		assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), post.PubDate)
		require.NotNil(t, post.CategoryID)
		assert.Equal(t, uint(2), *post.CategoryID)
		require.NotNil(t, post.LocationID)
		assert.Equal(t, uint(7), *post.LocationID)
	})

	t.Run("datetime layouts", func(t *testing.T) {
		for _, raw := range []string{"2024-05-01T10:30", "2024-05-01 10:30", "2024-05-01 10:30:00"} {
			f := NewPostForm(categories, locations, nil, nil)
			require.True(t, f.Bind(url.Values{"title": {"t"}, "text": {"x"}, "pub_date": {raw}, "category": {"1"}}), raw)
			assert.Equal(t, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), f.PubDate, raw)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		long := make([]byte, 257)
		for i := range long {
			long[i] = 'a'
		}
		f := NewPostForm(categories, locations, nil, nil)
		ok := f.Bind(url.Values{
			"title":    {string(long)},
			"pub_date": {"yesterday"},
			"category": {"99"},
			"location": {"abc"},
		})
		assert.False(t, ok)
		assert.Equal(t, []string{"Ensure this value has at most 256 characters."}, f.Field("title").Errors)
		assert.Equal(t, []string{"This field is required."}, f.Field("text").Errors)
		assert.Equal(t, []string{"Enter a valid date."}, f.Field("pub_date").Errors)
		assert.Equal(t, []string{"Select a valid choice. That choice is not one of the available choices."}, f.Field("category").Errors)
		assert.Equal(t, []string{"Select a valid choice. That choice is not one of the available choices."}, f.Field("location").Errors)

		err := f.Err()
		assert.True(t, errs.IsMissingRequiredFieldError(err))
		assert.True(t, errs.IsInvalidFieldError(err))
	})

	t.Run("title length counts characters", func(t *testing.T) {
		title := ""
		for i := 0; i < 256; i++ {
			title += "é"
		}
		f := NewPostForm(categories, locations, nil, nil)
		assert.True(t, f.Bind(url.Values{"title": {title}, "text": {"x"}, "pub_date": {"2024-05-01"}, "category": {"1"}}))
	})

	t.Run("prefill", func(t *testing.T) {
		cat := uint(1)
		post := &models.Post{Title: "T", Text: "X", PubDate: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC), CategoryID: &cat}
		f := NewPostForm(categories, locations, post, nil)
		assert.Equal(t, "T", f.Field("title").Value)
		assert.Equal(t, "2024-01-02", f.Field("pub_date").Value)
		assert.Equal(t, "1", f.Field("category").Value)
		assert.Equal(t, "", f.Field("location").Value)
		assert.True(t, f.Multipart())
	})
}

func TestCommentForm(t *testing.T) {
	f := NewCommentForm(nil)
	assert.False(t, f.Bind(url.Values{"text": {"   "}}))
	assert.Equal(t, []string{"This field is required."}, f.Field("text").Errors)
	assert.True(t, errs.IsMissingRequiredFieldError(f.Err()))

	f = NewCommentForm(nil)
	require.True(t, f.Bind(url.Values{"text": {"\n  Nice post\n"}}))
	var c models.Comment
	f.Apply(&c)
	assert.Equal(t, "Nice post", c.Text)
	assert.Equal(t, "3", f.Field("text").Attrs["rows"])
}

func TestProfileForm(t *testing.T) {
	user := &models.User{Username: "ann", Email: "ann@example.com"}
	f := NewProfileForm(user)
	assert.Equal(t, "ann", f.Field("username").Value)

	ok := f.Bind(url.Values{"username": {"bad name"}, "email": {"not-an-email"}})
	assert.False(t, ok)
	assert.NotEmpty(t, f.Field("username").Errors)
	assert.Equal(t, []string{"Enter a valid email address."}, f.Field("email").Errors)

	f = NewProfileForm(user)
	require.True(t, f.Bind(url.Values{"username": {"ann.b"}, "first_name": {"Ann"}}))
	f.Apply(user)
	assert.Equal(t, "ann.b", user.Username)
	assert.Equal(t, "", user.Email)
	assert.Equal(t, "Ann", user.FirstName)

	f.AddError("username", "A user with that username already exists.")
	assert.False(t, f.Valid())
	assert.True(t, errs.IsInvalidFieldError(f.Err()))

	f = NewProfileForm(user)
	assert.False(t, f.Bind(url.Values{"username": {"ann"}, "email": {"ann@example.com>"}}))
	assert.Equal(t, []string{"Enter a valid email address."}, f.Field("email").Errors)
}

func TestRegistrationForm(t *testing.T) {
	tests := []struct {
		name      string
		values    url.Values
		valid     bool
		errorName string
		message   string
	}{
		{"ok", url.Values{"username": {"ann"}, "password1": {"s3cret-pass"}, "password2": {"s3cret-pass"}}, true, "", ""},
		{"mismatch", url.Values{"username": {"ann"}, "password1": {"s3cret-pass"}, "password2": {"other-pass"}}, false, "password2", "The two password fields didn't match."},
		{"short", url.Values{"username": {"ann"}, "password1": {"short"}, "password2": {"short"}}, false, "password1", "This password is too short. It must contain at least 8 characters."},
		{"missing username", url.Values{"password1": {"s3cret-pass"}, "password2": {"s3cret-pass"}}, false, "username", "This field is required."},
		{"bad username", url.Values{"username": {"ann smith"}, "password1": {"s3cret-pass"}, "password2": {"s3cret-pass"}}, false, "username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewRegistrationForm()
			assert.Equal(t, tt.valid, f.Bind(tt.values))
			if tt.errorName != "" {
				assert.Equal(t, []string{tt.message}, f.Field(tt.errorName).Errors)
			}
			assert.Empty(t, f.Field("password1").Value)
		})
	}
}

func TestLoginForm(t *testing.T) {
	f := NewLoginForm()
	require.True(t, f.Bind(url.Values{"username": {" ann "}, "password": {" pw "}}))
	assert.Equal(t, "ann", f.Username())
	assert.Equal(t, " pw ", f.Password())

	f = NewLoginForm()
	f.AddError("", "Please enter a correct username and password.")
	assert.Equal(t, []string{"Please enter a correct username and password."}, f.NonFieldErrors)
}
