package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpupo63/blogicum/database"
	"github.com/rpupo63/blogicum/database/dbtest"
	"github.com/rpupo63/blogicum/errs"
	"github.com/rpupo63/blogicum/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (database.Database, *dbtest.Fixtures, *gorm.DB) {
	t.Helper()
	db := dbtest.New(t)
	return database.New(db), dbtest.NewFixtures(t, db), db
}

func titles(page *database.Page) []string {
	out := make([]string, 0, len(page.Posts))
	for _, p := range page.Posts {
		out = append(out, p.Title)
	}
	return out
}

func titled(title string) func(*models.Post) {
	return func(p *models.Post) { p.Title = title }
}

func TestPublicListingHidesFutureUnpublishedAndHiddenCategory(t *testing.T) {
	d, fx, _ := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()

	author := fx.User("author")
	open := fx.Category("open", true)
	hidden := fx.Category("hidden", false)

	fx.Post(author, open, titled("visible"))
	fx.Post(author, nil, titled("no category"))
	fx.Post(author, open, titled("future"), func(p *models.Post) { p.PubDate = now.Add(time.Hour) })
	fx.Post(author, open, titled("draft"), func(p *models.Post) { p.IsPublished = false })
	fx.Post(author, hidden, titled("hidden category"))

	page, err := d.PostRepo().List(ctx, database.PostFilter{Now: now, PublicOnly: true}, 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"visible", "no category"}, titles(page))
	assert.EqualValues(t, 2, page.Total)

	own, err := d.PostRepo().List(ctx, database.PostFilter{Now: now, AuthorID: author.ID}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, own.Posts, 5)
}

func TestListOrderingPaginationAndCommentCount(t *testing.T) {
	d, fx, _ := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()

	author := fx.User("writer")
	reader := fx.User("reader")
	var posts []*models.Post
	for i := 0; i < 12; i++ {
		offset := time.Duration(i+1) * time.Hour
		posts = append(posts, fx.Post(author, nil, func(p *models.Post) {
			p.PubDate = now.Add(-offset)
		}))
	}
	fx.Comment(posts[0], reader, "first")
	fx.Comment(posts[0], author, "second")
	fx.Comment(posts[1], reader, "only")

	first, err := d.PostRepo().List(ctx, database.PostFilter{Now: now, PublicOnly: true}, 1, 10)
	require.NoError(t, err)
	require.Len(t, first.Posts, 10)
	assert.Equal(t, 2, first.NumPages)
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())
	assert.Equal(t, posts[0].ID, first.Posts[0].ID, "newest publication date first")
	assert.EqualValues(t, 2, first.Posts[0].CommentCount)
	assert.EqualValues(t, 1, first.Posts[1].CommentCount)
	assert.EqualValues(t, 0, first.Posts[2].CommentCount)
	assert.Equal(t, "writer", first.Posts[0].Author.Username)

	last, err := d.PostRepo().List(ctx, database.PostFilter{Now: now, PublicOnly: true}, database.LastPage, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, last.Number)
	assert.Len(t, last.Posts, 2)
	assert.Equal(t, 1, last.PreviousNumber())

	_, err = d.PostRepo().List(ctx, database.PostFilter{Now: now, PublicOnly: true}, 3, 10)
	assert.True(t, errs.IsNotFound(err))

	_, err = d.PostRepo().List(ctx, database.PostFilter{Now: now, PublicOnly: true}, 0, 10)
	assert.True(t, errs.IsNotFound(err))
}

func TestEmptyListingHasOnePage(t *testing.T) {
	d, _, _ := setup(t)
	page, err := d.PostRepo().List(context.Background(), database.PostFilter{Now: time.Now(), PublicOnly: true}, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 1, page.NumPages)
}

func TestCategoryFilter(t *testing.T) {
	d, fx, _ := setup(t)
	author := fx.User("author")
	travel := fx.Category("travel", true)
	food := fx.Category("food", true)
	fx.Post(author, travel, titled("trip"))
	fx.Post(author, food, titled("soup"))

	page, err := d.PostRepo().List(context.Background(), database.PostFilter{
		Now: time.Now(), PublicOnly: true, CategorySlug: travel.Slug,
	}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"trip"}, titles(page))
	require.NotNil(t, page.Posts[0].Category)
	assert.Equal(t, "travel", page.Posts[0].Category.Slug)
}

func TestFindVisible(t *testing.T) {
	d, fx, _ := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()

	author := fx.User("author")
	other := fx.User("other")
	future := fx.Post(author, nil, func(p *models.Post) { p.PubDate = now.Add(24 * time.Hour) })
	public := fx.Post(author, nil)

	_, err := d.PostRepo().FindVisible(ctx, future.ID, now, 0)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = d.PostRepo().FindVisible(ctx, future.ID, now, other.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got, err := d.PostRepo().FindVisible(ctx, future.ID, now, author.ID)
	require.NoError(t, err)
	assert.Equal(t, future.ID, got.ID)

	got, err = d.PostRepo().FindVisible(ctx, public.ID, now, 0)
	require.NoError(t, err)
	assert.Equal(t, "author", got.Author.Username)
}

func TestFindOwned(t *testing.T) {
	d, fx, _ := setup(t)
	ctx := context.Background()
	author := fx.User("author")
	other := fx.User("other")
	post := fx.Post(author, nil)
	comment := fx.Comment(post, author, "mine")

	_, err := d.PostRepo().FindOwned(ctx, post.ID, other.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = d.PostRepo().FindOwned(ctx, post.ID, author.ID)
	assert.NoError(t, err)

	_, err = d.CommentRepo().FindOwned(ctx, post.ID, comment.ID, other.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = d.CommentRepo().FindOwned(ctx, post.ID+1, comment.ID, author.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	got, err := d.CommentRepo().FindOwned(ctx, post.ID, comment.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Text)
}

func TestDeletePostCascadesToComments(t *testing.T) {
	d, fx, db := setup(t)
	ctx := context.Background()
	author := fx.User("author")
	post := fx.Post(author, nil)
	keep := fx.Post(author, nil)
	fx.Comment(post, author, "a")
	fx.Comment(post, author, "b")
	fx.Comment(keep, author, "c")

	require.NoError(t, d.PostRepo().Delete(ctx, post.ID))

	var remaining int64
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
	require.NoError(t, db.Model(&models.Comment{}).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)

	assert.ErrorIs(t, d.PostRepo().Delete(ctx, post.ID), gorm.ErrRecordNotFound)
}

func TestDeleteCategoryAndLocationKeepPosts(t *testing.T) {
	d, fx, _ := setup(t)
	ctx := context.Background()
	author := fx.User("author")
	category := fx.Category("travel", true)
	location := fx.Location("Lisbon")
	post := fx.Post(author, category, func(p *models.Post) { p.LocationID = &location.ID })

	require.NoError(t, d.CategoryRepo().Delete(ctx, category.ID))
	require.NoError(t, d.LocationRepo().Delete(ctx, location.ID))

	got, err := d.PostRepo().FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.Category)
	assert.Nil(t, got.LocationID)
}

func TestDeleteUserCascades(t *testing.T) {
	d, fx, db := setup(t)
	ctx := context.Background()
	author := fx.User("author")
	reader := fx.User("reader")
	post := fx.Post(author, nil)
	fx.Comment(post, reader, "on author post")
	readerPost := fx.Post(reader, nil)
	fx.Comment(readerPost, author, "by author")
	fx.Comment(readerPost, reader, "by reader")

	require.NoError(t, d.UserRepo().Delete(ctx, author.ID))

	var posts, comments int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	assert.EqualValues(t, 1, posts)
	assert.EqualValues(t, 1, comments)
}

func TestCommentsOldestFirst(t *testing.T) {
	d, fx, db := setup(t)
	ctx := context.Background()
	author := fx.User("author")
	post := fx.Post(author, nil)
	late := fx.Comment(post, author, "late")
	early := fx.Comment(post, author, "early")
	require.NoError(t, db.Model(early).Update("created_at", time.Now().UTC().Add(-time.Hour)).Error)

	comments, err := d.CommentRepo().ListForPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, early.ID, comments[0].ID)
	assert.Equal(t, late.ID, comments[1].ID)
	assert.Equal(t, "author", comments[0].Author.Username)
}

func TestPostUpdate(t *testing.T) {
	d, fx, _ := setup(t)
	ctx := context.Background()
	author := fx.User("author")
	category := fx.Category("travel", true)
	post := fx.Post(author, category)

	post.Title = "Renamed"
	post.CategoryID = nil
	require.NoError(t, d.PostRepo().Update(ctx, post))

	got, err := d.PostRepo().FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Nil(t, got.CategoryID)
	assert.True(t, got.IsPublished)
}

func TestCategoryLookups(t *testing.T) {
	d, fx, _ := setup(t)
	ctx := context.Background()
	fx.Category("open", true)
	fx.Category("hidden", false)

	_, err := d.CategoryRepo().FindPublishedBySlug(ctx, "hidden")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	got, err := d.CategoryRepo().FindBySlug(ctx, "hidden")
	require.NoError(t, err)
	assert.False(t, got.IsPublished)

	require.NoError(t, d.CategoryRepo().SetPublished(ctx, "hidden", true))
	_, err = d.CategoryRepo().FindPublishedBySlug(ctx, "hidden")
	assert.NoError(t, err)

	assert.ErrorIs(t, d.CategoryRepo().SetPublished(ctx, "missing", true), gorm.ErrRecordNotFound)

	all, err := d.CategoryRepo().FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPostAndLocationSetPublished(t *testing.T) {
	d, fx, _ := setup(t)
	ctx := context.Background()
	author := fx.User("author")
	location := fx.Location("Lisbon")
	post := fx.Post(author, nil, titled("trip"))

	require.NoError(t, d.PostRepo().SetPublished(ctx, post.ID, false))
	page, err := d.PostRepo().List(ctx, database.PostFilter{Now: time.Now(), PublicOnly: true}, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)

	got, err := d.PostRepo().FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPublished)
	assert.Equal(t, "trip", got.Title)

	require.NoError(t, d.PostRepo().SetPublished(ctx, post.ID, true))
	page, err = d.PostRepo().List(ctx, database.PostFilter{Now: time.Now(), PublicOnly: true}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"trip"}, titles(page))

	assert.ErrorIs(t, d.PostRepo().SetPublished(ctx, post.ID+100, true), gorm.ErrRecordNotFound)

	require.NoError(t, d.LocationRepo().SetPublished(ctx, location.ID, false))
	loc, err := d.LocationRepo().FindByID(ctx, location.ID)
	require.NoError(t, err)
	assert.False(t, loc.IsPublished)
	assert.ErrorIs(t, d.LocationRepo().SetPublished(ctx, location.ID+100, true), gorm.ErrRecordNotFound)
}

func TestUsers(t *testing.T) {
	d, fx, _ := setup(t)
	ctx := context.Background()
	alice := fx.User("alice")
	fx.User("bob")

	taken, err := d.UserRepo().UsernameTaken(ctx, "bob", alice.ID)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = d.UserRepo().UsernameTaken(ctx, "alice", alice.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	alice.FirstName = "Alice"
	alice.Username = "alice2"
	require.NoError(t, d.UserRepo().UpdateProfile(ctx, alice))
	got, err := d.UserRepo().FindByUsername(ctx, "alice2")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.FirstName)
	assert.NotEmpty(t, got.PasswordHash)

	dup := &models.User{Username: "bob", PasswordHash: "x"}
	err = d.UserRepo().Add(ctx, dup)
	require.Error(t, err)
	assert.True(t, errs.IsAlreadyExists(errs.NewDatabaseError("create", "user", err)))
}

func TestPing(t *testing.T) {
	d, _, _ := setup(t)
	require.NoError(t, d.Ping(context.Background()))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := database.Open(map[string]string{"DB_TYPE": "oracle"})
	assert.ErrorContains(t, err, `unsupported DB_TYPE "oracle"`)
}

func TestDSNs(t *testing.T) {
	assert.Equal(t, "blog.db?_foreign_keys=on", database.SQLiteDSN("blog.db"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on", database.SQLiteDSN("file:x?mode=memory"))

	assert.Equal(t, "postgres://u:p@h/db", database.PostgresDSN(map[string]string{"DATABASE_URL": "postgres://u:p@h/db"}))
	assert.Equal(t,
		"host=db user=blog password=secret dbname=blogicum port=5433 sslmode=disable",
		database.PostgresDSN(map[string]string{"DB_HOST": "db", "DB_USER": "blog", "DB_PASSWORD": "secret", "DB_PORT": "5433"}),
	)
}
