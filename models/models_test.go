package models

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func uintPtr(v uint) *uint { return &v }

func TestPostVisibleAt(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	published := &Category{ID: 1, Publishable: Publishable{IsPublished: true}}
	hidden := &Category{ID: 2}

	tests := []struct {
		name string
		post Post
		want bool
	}{
		{
			name: "published past post without category",
			post: Post{PubDate: now.Add(-time.Hour), Publishable: Publishable{IsPublished: true}},
			want: true,
		},
		{
			name: "publication date exactly now",
			post: Post{PubDate: now, Publishable: Publishable{IsPublished: true}},
			want: true,
		},
		{
			name: "future post",
			post: Post{PubDate: now.Add(time.Minute), Publishable: Publishable{IsPublished: true}},
			want: false,
		},
		{
			name: "unpublished post",
			post: Post{PubDate: now.Add(-time.Hour)},
			want: false,
		},
		{
			name: "published category",
			post: Post{PubDate: now.Add(-time.Hour), CategoryID: uintPtr(1), Category: published, Publishable: Publishable{IsPublished: true}},
			want: true,
		},
		{
			name: "hidden category",
			post: Post{PubDate: now.Add(-time.Hour), CategoryID: uintPtr(2), Category: hidden, Publishable: Publishable{IsPublished: true}},
			want: false,
		},
		{
			name: "category reference not loaded",
			post: Post{PubDate: now.Add(-time.Hour), CategoryID: uintPtr(1), Publishable: Publishable{IsPublished: true}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.post.VisibleAt(now))
		})
	}
}

func TestIsAuthoredBy(t *testing.T) {
	post := Post{AuthorID: 7}
	comment := Comment{AuthorID: 7}

	assert.True(t, post.IsAuthoredBy(&User{ID: 7}))
	assert.False(t, post.IsAuthoredBy(&User{ID: 8}))
	assert.False(t, post.IsAuthoredBy(nil))
	assert.True(t, comment.IsAuthoredBy(&User{ID: 7}))
	assert.False(t, comment.IsAuthoredBy(nil))
}

func TestUserPassword(t *testing.T) {
	var u User
	require.NoError(t, u.SetPassword("correct horse"))
	assert.NotEqual(t, "correct horse", u.PasswordHash)
	assert.NoError(t, u.CheckPassword("correct horse"))
	assert.ErrorIs(t, u.CheckPassword("battery staple"), ErrPasswordMismatch)
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", User{Username: "ada", FirstName: "Ada", LastName: "Lovelace"}.FullName())
	assert.Equal(t, "ada", User{Username: "ada"}.FullName())
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidSlug("travel_2024-notes"))
	assert.False(t, ValidSlug("has space"))
	assert.False(t, ValidSlug(""))

	assert.True(t, ValidUsername("jane.doe+blog@site"))
	assert.False(t, ValidUsername("jane doe"))
	assert.False(t, ValidUsername(""))
}

func TestColumnReport(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	var out bytes.Buffer
	missing, err := ColumnReport(db, &out)
	require.NoError(t, err)
	assert.Zero(t, missing)
	assert.Contains(t, out.String(), "Table does not exist yet")

	require.NoError(t, db.AutoMigrate(All()...))
	require.NoError(t, db.Exec("ALTER TABLE posts ADD COLUMN legacy_slug TEXT").Error)

	out.Reset()
	missing, err = ColumnReport(db, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, missing)
	assert.Contains(t, out.String(), "  - legacy_slug")
	assert.Contains(t, out.String(), "Total mismatched columns across all tables: 1")
}
