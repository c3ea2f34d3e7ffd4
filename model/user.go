package model

import "gorm.io/gorm"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	// RoleAssistant marks the designated AI identity. Exactly one user
	// carries it; the hub resolves its id once at startup.
	RoleAssistant = "assistant"
)

// User struct
type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Avatar   string `json:"avatar"`
	Role     string `json:"role"`

	Otp_enabled bool   `gorm:"default:false;" json:"-"`
	Otp_secret  string `json:"-"`
}
