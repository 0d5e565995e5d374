package model

import "time"

// Subject groups programs for browsing; popular subjects are featured.
type Subject struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Name          string    `gorm:"type:varchar(200);uniqueIndex;not null" json:"name"`
	MarkAsPopular bool      `gorm:"not null;default:false" json:"mark_as_popular"`
}

// TableName specifies the table name for Subject
func (Subject) TableName() string {
	return "program_subjects"
}

// Language is a teaching or transcript language.
type Language struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"type:varchar(200);uniqueIndex;not null" json:"name"`
	Code      string    `gorm:"type:varchar(20)" json:"code"` // e.g. "en", "pt-BR"
}

// TableName specifies the table name for Language
func (Language) TableName() string {
	return "program_languages"
}

// Institution is a partner that offers programs and employs instructors.
type Institution struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Name       string    `gorm:"type:varchar(200);uniqueIndex;not null" json:"name"`
	WebsiteURL string    `gorm:"type:varchar(255)" json:"website_url"`
	LogoURL    string    `gorm:"type:text" json:"logo_url"`
}

// TableName specifies the table name for Institution
func (Institution) TableName() string {
	return "program_institutions"
}

// Instructor teaches one or more programs.
type Instructor struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Name            string    `gorm:"type:varchar(200);not null" json:"name"`
	Designation     string    `gorm:"type:varchar(200)" json:"designation"`
	ProfileImageURL string    `gorm:"type:text" json:"profile_image_url"`
	InstitutionID   *uint     `gorm:"index" json:"institution_id"`

	Institution *Institution `gorm:"foreignKey:InstitutionID;constraint:OnDelete:SET NULL" json:"institution,omitempty"`
}

// TableName specifies the table name for Instructor
func (Instructor) TableName() string {
	return "program_instructors"
}
