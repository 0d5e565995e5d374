package model

import (
	"time"

	"gorm.io/gorm"
)

// User mirrors an LMS account. Rows are created on first authenticated request.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Username     string         `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	Name         string         `json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'student'" json:"role"` // student, admin
	TokenVersion int            `gorm:"default:0" json:"-"`                             // Increment to invalidate all user tokens

	// Relationships
	Orders             []ProgramOrder      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ProgramEnrollments []ProgramEnrollment `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CourseEnrollments  []CourseEnrollment  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsAdmin reports whether the user may use the back-office.
func (u *User) IsAdmin() bool {
	return u.Role == "admin" || u.Role == "super_admin"
}

// DisplayName falls back to the username when no full name is known.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
