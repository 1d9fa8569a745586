// Package dbtest opens throwaway SQLite databases for tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/blogicum/database"
	"github.com/rpupo63/blogicum/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// New returns a migrated in-memory database private to the calling test.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := database.SQLiteDSN("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        database.UTCNow,
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// a single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Fixtures creates rows with sensible defaults and fails the test on error.
type Fixtures struct {
	t  testing.TB
	db *gorm.DB
}

func NewFixtures(t testing.TB, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db}
}

func (f *Fixtures) create(v any) {
	f.t.Helper()
	if err := f.db.Omit(clause.Associations).Create(v).Error; err != nil {
		f.t.Fatalf("create %T: %v", v, err)
	}
}

func (f *Fixtures) User(username string) *models.User {
	f.t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com"}
	if err := u.SetPassword("password-" + username); err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	f.create(u)
	return u
}

func (f *Fixtures) Category(slug string, published bool) *models.Category {
	f.t.Helper()
	c := &models.Category{
		Title:       "Category " + slug,
		Slug:        slug,
		Description: "About " + slug,
		Publishable: models.Publishable{IsPublished: published},
	}
	f.create(c)
	return c
}

func (f *Fixtures) Location(name string) *models.Location {
	f.t.Helper()
	l := &models.Location{Name: name, Publishable: models.Publishable{IsPublished: true}}
	f.create(l)
	return l
}

// Post creates a published post. Adjust the returned value through opts
// before it is inserted.
func (f *Fixtures) Post(author *models.User, category *models.Category, opts ...func(*models.Post)) *models.Post {
	f.t.Helper()
	p := &models.Post{
		Title:       "Post by " + author.Username,
		Text:        "Body",
		PubDate:     database.UTCNow().Add(-24 * time.Hour),
		AuthorID:    author.ID,
		Publishable: models.Publishable{IsPublished: true},
	}
	if category != nil {
		p.CategoryID = &category.ID
	}
	for _, opt := range opts {
		opt(p)
	}
	p.PubDate = p.PubDate.UTC()
	f.create(p)
	return p
}

func (f *Fixtures) Comment(post *models.Post, author *models.User, text string) *models.Comment {
	f.t.Helper()
	c := &models.Comment{Text: text, PostID: post.ID, AuthorID: author.ID}
	f.create(c)
	return c
}
