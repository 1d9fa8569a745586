package models

import "regexp"

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Category is a thematic grouping of posts, addressed by its slug.
type Category struct {
	ID          uint   `json:"id" db:"id" gorm:"primaryKey"`
	Title       string `json:"title" db:"title" gorm:"size:256;not null"`
	Slug        string `json:"slug" db:"slug" gorm:"size:64;not null;uniqueIndex:idx_category_slug"`
	Description string `json:"description" db:"description" gorm:"type:text;not null"`
	Publishable
	Timestamped
}

func (c Category) String() string {
	return c.Title
}

// ValidSlug reports whether s may be used as a category slug in URLs.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}
