package models

// Location is a geographic tag attached to posts.
type Location struct {
	ID   uint   `json:"id" db:"id" gorm:"primaryKey"`
	Name string `json:"name" db:"name" gorm:"size:256;not null"`
	Publishable
	Timestamped
}

func (l Location) String() string {
	return l.Name
}
