package models

import "time"

// Post is a blog entry. It becomes publicly visible once PubDate has passed,
// provided both the post and its category are published.
type Post struct {
	ID         uint      `json:"id" db:"id" gorm:"primaryKey"`
	Title      string    `json:"title" db:"title" gorm:"size:256;not null"`
	Text       string    `json:"text" db:"text" gorm:"type:text;not null"`
	Image      string    `json:"image,omitempty" db:"image" gorm:"size:512;not null;default:''"`
	PubDate    time.Time `json:"pubDate" db:"pub_date" gorm:"not null;index:idx_post_pub_date"`
	AuthorID   uint      `json:"authorId" db:"author_id" gorm:"not null;index:idx_post_author_id"`
	Author     User      `json:"author" gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:CASCADE"`
	CategoryID *uint     `json:"categoryId,omitempty" db:"category_id" gorm:"index:idx_post_category_id"`
	Category   *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;references:ID;constraint:OnDelete:SET NULL"`
	LocationID *uint     `json:"locationId,omitempty" db:"location_id" gorm:"index:idx_post_location_id"`
	Location   *Location `json:"location,omitempty" gorm:"foreignKey:LocationID;references:ID;constraint:OnDelete:SET NULL"`
	Publishable
	Timestamped

	// CommentCount is filled in by list queries only.
	CommentCount int64 `json:"commentCount" db:"comment_count" gorm:"->;-:migration"`
}

// VisibleAt reports whether the post is publicly visible at the given instant.
// Category must be loaded for posts that reference one.
func (p *Post) VisibleAt(now time.Time) bool {
	if !p.IsPublished || p.PubDate.After(now) {
		return false
	}
	if p.CategoryID != nil && (p.Category == nil || !p.Category.IsPublished) {
		return false
	}
	return true
}

// IsAuthoredBy reports whether u wrote the post. A nil user never matches.
func (p *Post) IsAuthoredBy(u *User) bool {
	return u != nil && u.ID == p.AuthorID
}
