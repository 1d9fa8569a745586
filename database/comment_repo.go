package database

import (
	"context"

	"github.com/rpupo63/blogicum/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepo struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) *CommentRepo {
	return &CommentRepo{db}
}

// ListForPost returns the comments of a post, oldest first
func (r *CommentRepo) ListForPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at, id").
		Find(&comments).Error
	return comments, err
}

// FindOwned returns the comment only when it belongs to postID and was
// written by authorID.
func (r *CommentRepo) FindOwned(ctx context.Context, postID, commentID, authorID uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND post_id = ? AND author_id = ?", commentID, postID, authorID).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Add inserts a new comment into the database
func (r *CommentRepo) Add(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

// UpdateText saves a new comment body
func (r *CommentRepo) UpdateText(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).
		Model(&models.Comment{ID: comment.ID}).
		Update("text", comment.Text).Error
}

// Delete removes a comment by id
func (r *CommentRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Comment{}, id).Error
}
