package database

import (
	"context"

	"github.com/rpupo63/blogicum/models"
	"gorm.io/gorm"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db}
}

// FindByID returns a user by its ID
func (r *UserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername returns a user by its unique username
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UsernameTaken reports whether another user already holds username
func (r *UserRepo) UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? AND id <> ?", username, exceptID).
		Count(&count).Error
	return count > 0, err
}

// Add inserts a new user into the database
func (r *UserRepo) Add(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// UpdateProfile saves the editable profile fields of a user
func (r *UserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Model(user).
		Select("username", "email", "first_name", "last_name").
		Updates(user).Error
}

// Delete removes a user together with their posts and comments
func (r *UserRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ownPosts := tx.Model(&models.Post{}).Select("id").Where("author_id = ?", id)
		if err := tx.Where("author_id = ? OR post_id IN (?)", id, ownPosts).
			Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
