package database

import (
	"context"
	"time"

	"github.com/rpupo63/blogicum/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	visibleCondition = "posts.is_published = ? AND posts.pub_date <= ? AND (posts.category_id IS NULL OR categories.is_published = ?)"
	commentCountSQL  = "posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count"
)

// PostFilter narrows a post listing.
type PostFilter struct {
	// Now is the reference instant for the publication date check.
	Now time.Time
	// PublicOnly restricts the listing to publicly visible posts.
	PublicOnly bool
	AuthorID   uint
	// CategorySlug matches through the joined category row.
	CategorySlug string
}

type PostRepo struct {
	db *gorm.DB
}

func NewPostRepo(db *gorm.DB) *PostRepo {
	return &PostRepo{db}
}

// joined adds the category join the visibility check relies on.
func (r *PostRepo) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Joins("LEFT JOIN categories ON categories.id = posts.category_id")
}

// withRelations also preloads the relations every page renders.
func (r *PostRepo) withRelations(ctx context.Context) *gorm.DB {
	return r.joined(ctx).
		Preload("Author").
		Preload("Category").
		Preload("Location")
}

func applyFilter(q *gorm.DB, f PostFilter) *gorm.DB {
	if f.PublicOnly {
		q = q.Where(visibleCondition, true, f.Now.UTC(), true)
	}
	if f.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", f.AuthorID)
	}
	if f.CategorySlug != "" {
		q = q.Where("categories.slug = ?", f.CategorySlug)
	}
	return q
}

// List returns one page of posts, newest publication date first, each
// annotated with its comment count.
func (r *PostRepo) List(ctx context.Context, f PostFilter, number, perPage int) (*Page, error) {
	var total int64
	if err := applyFilter(r.joined(ctx), f).Count(&total).Error; err != nil {
		return nil, err
	}

	number, numPages, offset, err := resolvePage(number, total, perPage)
	if err != nil {
		return nil, err
	}

	var posts []*models.Post
	err = applyFilter(r.withRelations(ctx), f).
		Select(commentCountSQL).
		Order("posts.pub_date DESC, posts.id DESC").
		Offset(offset).
		Limit(perPage).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	return &Page{
		Posts:    posts,
		Number:   number,
		NumPages: numPages,
		Total:    total,
		PerPage:  perPage,
	}, nil
}

// FindByID returns a post by its ID with no visibility restriction
func (r *PostRepo) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.withRelations(ctx).Where("posts.id = ?", id).Select("posts.*").First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// FindVisible returns the post if it is publicly visible at now, or if
// viewerID (non-zero) is its author.
func (r *PostRepo) FindVisible(ctx context.Context, id uint, now time.Time, viewerID uint) (*models.Post, error) {
	q := r.withRelations(ctx).Select("posts.*").Where("posts.id = ?", id)
	if viewerID != 0 {
		q = q.Where("("+visibleCondition+") OR posts.author_id = ?", true, now.UTC(), true, viewerID)
	} else {
		q = q.Where(visibleCondition, true, now.UTC(), true)
	}

	var post models.Post
	if err := q.First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// FindOwned returns the post only when authorID wrote it
func (r *PostRepo) FindOwned(ctx context.Context, id, authorID uint) (*models.Post, error) {
	var post models.Post
	err := r.withRelations(ctx).
		Select("posts.*").
		Where("posts.id = ? AND posts.author_id = ?", id, authorID).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Add inserts a new post into the database
func (r *PostRepo) Add(ctx context.Context, post *models.Post) error {
	post.PubDate = post.PubDate.UTC()
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

// Update saves the editable columns of an existing post
func (r *PostRepo) Update(ctx context.Context, post *models.Post) error {
	post.PubDate = post.PubDate.UTC()
	return r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Select("title", "text", "image", "pub_date", "category_id", "location_id", "is_published").
		Omit(clause.Associations).
		Updates(post).Error
}

// SetPublished hides or restores a post without touching its other columns
func (r *PostRepo) SetPublished(ctx context.Context, id uint, published bool) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		Update("is_published", published)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a post and all of its comments
func (r *PostRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
