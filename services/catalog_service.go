package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/wiproedx/synergeticsopenedx/model"
	"gorm.io/gorm"
)

// CatalogService maintains the reference data programs point at: subjects,
// languages, institutions, instructors and certificate signatories.
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// SubjectInput is the editable part of a subject.
type SubjectInput struct {
	Name          string `json:"name" validate:"required,min=2,max=200"`
	MarkAsPopular bool   `json:"mark_as_popular"`
}

// LanguageInput is the editable part of a language.
type LanguageInput struct {
	Name string `json:"name" validate:"required,min=2,max=200"`
	Code string `json:"code" validate:"max=20"`
}

// InstitutionInput is the editable part of an institution.
type InstitutionInput struct {
	Name       string `json:"name" validate:"required,min=2,max=200"`
	WebsiteURL string `json:"website_url" validate:"omitempty,url,max=255"`
	LogoURL    string `json:"logo_url" validate:"omitempty,url"`
}

// InstructorInput is the editable part of an instructor.
type InstructorInput struct {
	Name            string `json:"name" validate:"required,min=2,max=200"`
	Designation     string `json:"designation" validate:"max=200"`
	ProfileImageURL string `json:"profile_image_url" validate:"omitempty,url"`
	InstitutionID   *uint  `json:"institution_id"`
}

// SignatoryInput is the editable part of a certificate signatory.
type SignatoryInput struct {
	Name              string `json:"name" validate:"required,min=2,max=150"`
	Title             string `json:"title" validate:"max=100"`
	InstitutionID     *uint  `json:"institution_id"`
	SignatureImageURL string `json:"signature_image_url" validate:"omitempty,url"`
}

// findRow loads dest by id, mapping a missing row to notFound.
func findRow(db *gorm.DB, dest interface{}, id uint, notFound error) error {
	if err := db.First(dest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound
		}
		return err
	}
	return nil
}

// deleteRow hard-deletes the row of value's table with id, mapping no match to notFound.
func deleteRow(db *gorm.DB, value interface{}, id uint, notFound error) error {
	res := db.Delete(value, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound
	}
	return nil
}

// requireRef checks that an optional reference points at an existing row.
func requireRef(db *gorm.DB, value interface{}, id *uint, notFound error) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := db.Model(value).Where("id = ?", *id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %d", notFound, *id)
	}
	return nil
}

// ==================== Subjects ====================

// ListSubjects returns subjects, popular ones first.
func (s *CatalogService) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	var subjects []model.Subject
	err := s.db.WithContext(ctx).Order("mark_as_popular DESC, name ASC").Find(&subjects).Error
	return subjects, err
}

// CreateSubject adds a subject. Duplicate names surface as a unique violation.
func (s *CatalogService) CreateSubject(ctx context.Context, in SubjectInput) (*model.Subject, error) {
	subject := model.Subject{Name: in.Name, MarkAsPopular: in.MarkAsPopular}
	if err := s.db.WithContext(ctx).Create(&subject).Error; err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}
	return &subject, nil
}

// UpdateSubject changes a subject.
func (s *CatalogService) UpdateSubject(ctx context.Context, id uint, in SubjectInput) (*model.Subject, error) {
	db := s.db.WithContext(ctx)
	var subject model.Subject
	if err := findRow(db, &subject, id, ErrSubjectNotFound); err != nil {
		return nil, err
	}
	subject.Name = in.Name
	subject.MarkAsPopular = in.MarkAsPopular
	if err := db.Save(&subject).Error; err != nil {
		return nil, fmt.Errorf("update subject %d: %w", id, err)
	}
	return &subject, nil
}

// DeleteSubject removes a subject; programs in it lose their subject.
func (s *CatalogService) DeleteSubject(ctx context.Context, id uint) error {
	return deleteRow(s.db.WithContext(ctx), &model.Subject{}, id, ErrSubjectNotFound)
}

// ==================== Languages ====================

// ListLanguages returns languages by name.
func (s *CatalogService) ListLanguages(ctx context.Context) ([]model.Language, error) {
	var languages []model.Language
	err := s.db.WithContext(ctx).Order("name ASC").Find(&languages).Error
	return languages, err
}

// CreateLanguage adds a language.
func (s *CatalogService) CreateLanguage(ctx context.Context, in LanguageInput) (*model.Language, error) {
	language := model.Language{Name: in.Name, Code: in.Code}
	if err := s.db.WithContext(ctx).Create(&language).Error; err != nil {
		return nil, fmt.Errorf("create language: %w", err)
	}
	return &language, nil
}

// UpdateLanguage changes a language.
func (s *CatalogService) UpdateLanguage(ctx context.Context, id uint, in LanguageInput) (*model.Language, error) {
	db := s.db.WithContext(ctx)
	var language model.Language
	if err := findRow(db, &language, id, ErrLanguageNotFound); err != nil {
		return nil, err
	}
	language.Name = in.Name
	language.Code = in.Code
	if err := db.Save(&language).Error; err != nil {
		return nil, fmt.Errorf("update language %d: %w", id, err)
	}
	return &language, nil
}

// DeleteLanguage removes a language from the catalog and from every program
// that is taught or transcribed in it.
func (s *CatalogService) DeleteLanguage(ctx context.Context, id uint) error {
	return deleteRow(s.db.WithContext(ctx), &model.Language{}, id, ErrLanguageNotFound)
}

// ==================== Institutions ====================

// ListInstitutions returns institutions by name.
func (s *CatalogService) ListInstitutions(ctx context.Context) ([]model.Institution, error) {
	var institutions []model.Institution
	err := s.db.WithContext(ctx).Order("name ASC").Find(&institutions).Error
	return institutions, err
}

// CreateInstitution adds an institution.
func (s *CatalogService) CreateInstitution(ctx context.Context, in InstitutionInput) (*model.Institution, error) {
	institution := model.Institution{Name: in.Name, WebsiteURL: in.WebsiteURL, LogoURL: in.LogoURL}
	if err := s.db.WithContext(ctx).Create(&institution).Error; err != nil {
		return nil, fmt.Errorf("create institution: %w", err)
	}
	return &institution, nil
}

// UpdateInstitution changes an institution.
func (s *CatalogService) UpdateInstitution(ctx context.Context, id uint, in InstitutionInput) (*model.Institution, error) {
	db := s.db.WithContext(ctx)
	var institution model.Institution
	if err := findRow(db, &institution, id, ErrInstitutionNotFound); err != nil {
		return nil, err
	}
	institution.Name = in.Name
	institution.WebsiteURL = in.WebsiteURL
	institution.LogoURL = in.LogoURL
	if err := db.Save(&institution).Error; err != nil {
		return nil, fmt.Errorf("update institution %d: %w", id, err)
	}
	return &institution, nil
}

// DeleteInstitution removes an institution. Programs, instructors and
// signatories that pointed at it keep existing without one.
func (s *CatalogService) DeleteInstitution(ctx context.Context, id uint) error {
	return deleteRow(s.db.WithContext(ctx), &model.Institution{}, id, ErrInstitutionNotFound)
}

// ==================== Instructors ====================

// ListInstructors returns instructors with their institution.
func (s *CatalogService) ListInstructors(ctx context.Context) ([]model.Instructor, error) {
	var instructors []model.Instructor
	err := s.db.WithContext(ctx).Preload("Institution").Order("name ASC, id ASC").Find(&instructors).Error
	return instructors, err
}

// CreateInstructor adds an instructor.
func (s *CatalogService) CreateInstructor(ctx context.Context, in InstructorInput) (*model.Instructor, error) {
	db := s.db.WithContext(ctx)
	if err := requireRef(db, &model.Institution{}, in.InstitutionID, ErrInstitutionNotFound); err != nil {
		return nil, err
	}
	instructor := model.Instructor{}
	in.apply(&instructor)
	if err := db.Create(&instructor).Error; err != nil {
		return nil, fmt.Errorf("create instructor: %w", err)
	}
	return &instructor, nil
}

// UpdateInstructor changes an instructor.
func (s *CatalogService) UpdateInstructor(ctx context.Context, id uint, in InstructorInput) (*model.Instructor, error) {
	db := s.db.WithContext(ctx)
	var instructor model.Instructor
	if err := findRow(db, &instructor, id, ErrInstructorNotFound); err != nil {
		return nil, err
	}
	if err := requireRef(db, &model.Institution{}, in.InstitutionID, ErrInstitutionNotFound); err != nil {
		return nil, err
	}
	in.apply(&instructor)
	if err := db.Save(&instructor).Error; err != nil {
		return nil, fmt.Errorf("update instructor %d: %w", id, err)
	}
	return &instructor, nil
}

// DeleteInstructor removes an instructor from the catalog and every program.
func (s *CatalogService) DeleteInstructor(ctx context.Context, id uint) error {
	return deleteRow(s.db.WithContext(ctx), &model.Instructor{}, id, ErrInstructorNotFound)
}

func (in InstructorInput) apply(i *model.Instructor) {
	i.Name = in.Name
	i.Designation = in.Designation
	i.ProfileImageURL = in.ProfileImageURL
	i.InstitutionID = in.InstitutionID
	i.Institution = nil
}

// ==================== Certificate signatories ====================

// ListSignatories returns the signatories printed on a program's certificates.
func (s *CatalogService) ListSignatories(ctx context.Context, programID uint) ([]model.ProgramCertificateSignatory, error) {
	var signatories []model.ProgramCertificateSignatory
	err := s.db.WithContext(ctx).
		Preload("Institution").
		Where("program_id = ?", programID).
		Order("id ASC").
		Find(&signatories).Error
	return signatories, err
}

// CreateSignatory adds a signatory to a program.
func (s *CatalogService) CreateSignatory(ctx context.Context, programID uint, in SignatoryInput) (*model.ProgramCertificateSignatory, error) {
	db := s.db.WithContext(ctx)
	if err := requireRef(db, &model.Program{}, &programID, ErrProgramNotFound); err != nil {
		return nil, err
	}
	if err := requireRef(db, &model.Institution{}, in.InstitutionID, ErrInstitutionNotFound); err != nil {
		return nil, err
	}
	signatory := model.ProgramCertificateSignatory{ProgramID: programID}
	in.apply(&signatory)
	if err := db.Create(&signatory).Error; err != nil {
		return nil, fmt.Errorf("create signatory: %w", err)
	}
	return &signatory, nil
}

// UpdateSignatory changes a signatory. The program it belongs to is fixed.
func (s *CatalogService) UpdateSignatory(ctx context.Context, id uint, in SignatoryInput) (*model.ProgramCertificateSignatory, error) {
	db := s.db.WithContext(ctx)
	var signatory model.ProgramCertificateSignatory
	if err := findRow(db, &signatory, id, ErrSignatoryNotFound); err != nil {
		return nil, err
	}
	if err := requireRef(db, &model.Institution{}, in.InstitutionID, ErrInstitutionNotFound); err != nil {
		return nil, err
	}
	in.apply(&signatory)
	if err := db.Save(&signatory).Error; err != nil {
		return nil, fmt.Errorf("update signatory %d: %w", id, err)
	}
	return &signatory, nil
}

// DeleteSignatory removes a signatory.
func (s *CatalogService) DeleteSignatory(ctx context.Context, id uint) error {
	return deleteRow(s.db.WithContext(ctx), &model.ProgramCertificateSignatory{}, id, ErrSignatoryNotFound)
}

func (in SignatoryInput) apply(sig *model.ProgramCertificateSignatory) {
	sig.Name = in.Name
	sig.Title = in.Title
	sig.InstitutionID = in.InstitutionID
	sig.SignatureImageURL = in.SignatureImageURL
	sig.Institution = nil
}
