package model

import "time"

// ProgramEnrollment is a user's membership in a program.
type ProgramEnrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_program_enrollment_user_program" json:"user_id"`
	ProgramID uint      `gorm:"not null;uniqueIndex:idx_program_enrollment_user_program" json:"program_id"`
	IsActive  bool      `gorm:"not null;default:false" json:"is_active"`

	User    User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Program Program `gorm:"foreignKey:ProgramID;constraint:OnDelete:CASCADE" json:"program,omitempty"`
}

// TableName specifies the table name for ProgramEnrollment
func (ProgramEnrollment) TableName() string {
	return "program_enrollments"
}
