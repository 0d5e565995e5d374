package model

import (
	"time"

	"gorm.io/gorm"
)

// Course is a catalog entry for an LMS course that can be bundled into programs.
type Course struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CourseKey string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"course_key"` // e.g. "course-v1:Org+CS101+2024"
	Name      string         `gorm:"type:varchar(200);not null" json:"name"`

	Programs []Program `gorm:"many2many:program_courses;" json:"-"`
}

// TableName specifies the table name for Course
func (Course) TableName() string {
	return "courses"
}

// CourseEnrollment records a user's seat in a single course.
type CourseEnrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_course_enrollment_user_course" json:"user_id"`
	CourseKey string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_course_enrollment_user_course" json:"course_key"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for CourseEnrollment
func (CourseEnrollment) TableName() string {
	return "course_enrollments"
}
