package model

import "time"

// ProgramCertificate is a program completion certificate. VerifyUUID is the
// public lookup key printed on the certificate.
type ProgramCertificate struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_program_certificate_user_program" json:"user_id"`
	ProgramID  uint      `gorm:"not null;uniqueIndex:idx_program_certificate_user_program" json:"program_id"`
	VerifyUUID string    `gorm:"type:varchar(32);not null;default:'';index" json:"verify_uuid"`
	Issued     bool      `gorm:"not null;default:false" json:"issued"`

	User    User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Program Program `gorm:"foreignKey:ProgramID;constraint:OnDelete:CASCADE" json:"program,omitempty"`
}

// TableName specifies the table name for ProgramCertificate
func (ProgramCertificate) TableName() string {
	return "program_certificates"
}

// ProgramCertificateSignatory is a person whose signature is printed on the
// program's certificates.
type ProgramCertificateSignatory struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	ProgramID         uint      `gorm:"not null;index" json:"program_id"`
	Name              string    `gorm:"type:varchar(150);not null" json:"name"`
	Title             string    `gorm:"type:varchar(100)" json:"title"`
	InstitutionID     *uint     `gorm:"index" json:"institution_id"`
	SignatureImageURL string    `gorm:"type:text" json:"signature_image_url"`

	Institution *Institution `gorm:"foreignKey:InstitutionID;constraint:OnDelete:SET NULL" json:"institution,omitempty"`
}

// TableName specifies the table name for ProgramCertificateSignatory
func (ProgramCertificateSignatory) TableName() string {
	return "program_certificate_signatories"
}
