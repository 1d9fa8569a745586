package models

import "time"

// Timestamped records when a row was added.
type Timestamped struct {
	CreatedAt time.Time `json:"createdAt" db:"created_at" gorm:"not null;autoCreateTime"`
}

// Publishable gates public visibility of a row. New rows are published
// unless the caller says otherwise.
type Publishable struct {
	IsPublished bool `json:"isPublished" db:"is_published" gorm:"not null"`
}
