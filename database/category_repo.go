package database

import (
	"context"

	"github.com/rpupo63/blogicum/models"
	"gorm.io/gorm"
)

type CategoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) *CategoryRepo {
	return &CategoryRepo{db}
}

// FindAll returns every category ordered by title
func (r *CategoryRepo) FindAll(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	err := r.db.WithContext(ctx).Order("title, id").Find(&categories).Error
	return categories, err
}

// FindBySlug returns a category regardless of its published flag
func (r *CategoryRepo) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindPublishedBySlug returns the category only while it is published
func (r *CategoryRepo) FindPublishedBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("slug = ? AND is_published = ?", slug, true).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Add inserts a new category into the database
func (r *CategoryRepo) Add(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// SetPublished flips the published flag of the category with the given slug
func (r *CategoryRepo) SetPublished(ctx context.Context, slug string, published bool) error {
	res := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("slug = ?", slug).
		Update("is_published", published)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a category. Posts that referenced it keep existing with no category.
func (r *CategoryRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
