package models

// Comment is a reply attached to a post. Comments are listed oldest first.
type Comment struct {
	ID       uint   `json:"id" db:"id" gorm:"primaryKey"`
	Text     string `json:"text" db:"text" gorm:"type:text;not null"`
	PostID   uint   `json:"postId" db:"post_id" gorm:"not null;index:idx_comment_post_id"`
	Post     *Post  `json:"post,omitempty" gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE"`
	AuthorID uint   `json:"authorId" db:"author_id" gorm:"not null;index:idx_comment_author_id"`
	Author   User   `json:"author" gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:CASCADE"`
	Timestamped
}

// IsAuthoredBy reports whether u wrote the comment.
func (c *Comment) IsAuthoredBy(u *User) bool {
	return u != nil && u.ID == c.AuthorID
}
