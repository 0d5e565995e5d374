package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Program bundles several courses that are sold and enrolled as one item.
type Program struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
	Name             string          `gorm:"type:varchar(200);uniqueIndex;not null" json:"name"`
	Start            *time.Time      `gorm:"type:date" json:"start"`
	End              *time.Time      `gorm:"type:date" json:"end"`
	ShortDescription string          `gorm:"type:text" json:"short_description"`
	Price            decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	AverageLength    string          `gorm:"type:varchar(40)" json:"average_length"` // e.g. "6-7 weeks per course"
	Effort           string          `gorm:"type:varchar(40)" json:"effort"`         // e.g. "8-10 hours per week, per course"
	Overview         string          `gorm:"type:text" json:"overview"`
	BannerImageURL   string          `gorm:"type:text" json:"banner_image_url"`
	IntroVideoURL    string          `gorm:"type:text" json:"introductory_video_url"`

	SubjectID            *uint `gorm:"index" json:"subject_id"`
	LanguageID           *uint `gorm:"index" json:"language_id"`
	TranscriptLanguageID *uint `gorm:"index" json:"video_transcripts_id"`
	InstitutionID        *uint `gorm:"index" json:"institution_id"`

	// Relationships
	Subject            *Subject                      `gorm:"foreignKey:SubjectID;constraint:OnDelete:SET NULL" json:"subject,omitempty"`
	Language           *Language                     `gorm:"foreignKey:LanguageID;constraint:OnDelete:SET NULL" json:"language,omitempty"`
	TranscriptLanguage *Language                     `gorm:"foreignKey:TranscriptLanguageID;constraint:OnDelete:SET NULL" json:"video_transcripts,omitempty"`
	Institution        *Institution                  `gorm:"foreignKey:InstitutionID;constraint:OnDelete:SET NULL" json:"institution,omitempty"`
	Instructors        []Instructor                  `gorm:"many2many:program_instructor_links;constraint:OnDelete:CASCADE" json:"instructors,omitempty"`
	Courses            []Course                      `gorm:"many2many:program_courses;" json:"courses,omitempty"`
	Signatories        []ProgramCertificateSignatory `gorm:"foreignKey:ProgramID;constraint:OnDelete:CASCADE" json:"signatories,omitempty"`
}

// TableName specifies the table name for Program
func (Program) TableName() string {
	return "programs"
}

// IsFree reports whether the program can be enrolled without payment.
func (p *Program) IsFree() bool {
	return !p.Price.IsPositive()
}

// HasStarted reports whether the program is open at t. Programs without a
// start date are always open.
func (p *Program) HasStarted(t time.Time) bool {
	return p.Start == nil || !p.Start.After(t)
}
