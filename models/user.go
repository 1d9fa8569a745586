package models

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// ErrPasswordMismatch is returned by CheckPassword for a wrong password.
var ErrPasswordMismatch = errors.New("password does not match")

// User is an account that can author posts and comments.
type User struct {
	ID           uint      `json:"id" db:"id" gorm:"primaryKey"`
	Username     string    `json:"username" db:"username" gorm:"size:150;not null;uniqueIndex:idx_user_username"`
	Email        string    `json:"email" db:"email" gorm:"size:254;not null;default:''"`
	FirstName    string    `json:"firstName" db:"first_name" gorm:"size:150;not null;default:''"`
	LastName     string    `json:"lastName" db:"last_name" gorm:"size:150;not null;default:''"`
	PasswordHash string    `json:"-" db:"password_hash" gorm:"size:255;not null"`
	IsStaff      bool      `json:"isStaff" db:"is_staff" gorm:"not null"`
	DateJoined   time.Time `json:"dateJoined" db:"date_joined" gorm:"not null;autoCreateTime"`
}

// FullName joins first and last name, falling back to the username.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// SetPassword stores a bcrypt hash of password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

// ValidUsername reports whether s is an acceptable username.
func ValidUsername(s string) bool {
	return len(s) <= 150 && usernamePattern.MatchString(s)
}

// All lists every model that takes part in schema migration, in dependency order.
func All() []any {
	return []any{&User{}, &Category{}, &Location{}, &Post{}, &Comment{}}
}
