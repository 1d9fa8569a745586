package database

import (
	"context"

	"github.com/rpupo63/blogicum/models"
	"gorm.io/gorm"
)

type LocationRepo struct {
	db *gorm.DB
}

func NewLocationRepo(db *gorm.DB) *LocationRepo {
	return &LocationRepo{db}
}

// FindAll returns every location ordered by name
func (r *LocationRepo) FindAll(ctx context.Context) ([]*models.Location, error) {
	var locations []*models.Location
	err := r.db.WithContext(ctx).Order("name, id").Find(&locations).Error
	return locations, err
}

// FindByID returns a location by its ID
func (r *LocationRepo) FindByID(ctx context.Context, id uint) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).First(&location, id).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// Add inserts a new location into the database
func (r *LocationRepo) Add(ctx context.Context, location *models.Location) error {
	return r.db.WithContext(ctx).Create(location).Error
}

func (r *LocationRepo) SetPublished(ctx context.Context, id uint, published bool) error {
	res := r.db.WithContext(ctx).Model(&models.Location{}).
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

// Delete removes a location and clears it from the posts that used it
func (r *LocationRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("location_id = ?", id).
			Update("location_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Location{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
