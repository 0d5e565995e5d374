package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"github.com/wiproedx/synergeticsopenedx/model"
	"github.com/wiproedx/synergeticsopenedx/utils/cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const programCacheTTL = 10 * time.Minute

func programCacheKey(id uint) string {
	return fmt.Sprintf("program:%d", id)
}

// ProgramService reads and maintains the program catalog. Program reads are
// cached in Redis when a store is configured.
type ProgramService struct {
	db    *gorm.DB
	cache cache.Store
}

// NewProgramService creates a new program service. store may be nil.
func NewProgramService(db *gorm.DB, store cache.Store) *ProgramService {
	return &ProgramService{db: db, cache: store}
}

// ProgramInput is the editable part of a program.
type ProgramInput struct {
	Name             string          `json:"name" validate:"required,min=2,max=200"`
	Start            *time.Time      `json:"start"`
	End              *time.Time      `json:"end"`
	ShortDescription string          `json:"short_description" validate:"max=2000"`
	Price            decimal.Decimal `json:"price" validate:"gte=0"`
	AverageLength    string          `json:"average_length" validate:"max=40"`
	Effort           string          `json:"effort" validate:"max=40"`
	Overview         string          `json:"overview"`
	BannerImageURL   string          `json:"banner_image_url" validate:"omitempty,url"`
	IntroVideoURL    string          `json:"introductory_video_url" validate:"omitempty,url"`
	SubjectID        *uint           `json:"subject_id"`
	LanguageID       *uint           `json:"language_id"`
	TranscriptLangID *uint           `json:"video_transcripts_id"`
	InstitutionID    *uint           `json:"institution_id"`
	CourseIDs        []uint          `json:"course_ids"`
	InstructorIDs    []uint          `json:"instructor_ids"`
}

// withCatalog preloads everything the about page shows.
func withCatalog(db *gorm.DB) *gorm.DB {
	return db.Preload("Courses").
		Preload("Subject").
		Preload("Language").
		Preload("TranscriptLanguage").
		Preload("Institution").
		Preload("Instructors.Institution")
}

// Get returns a program with its courses.
func (s *ProgramService) Get(ctx context.Context, id uint) (*model.Program, error) {
	if s.cache != nil {
		var cached model.Program
		if err := s.cache.GetJSON(ctx, programCacheKey(id), &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, cache.ErrNotFound) {
			log.Warnf("Program cache read failed for %d: %v", id, err)
		}
	}

	var program model.Program
	err := withCatalog(s.db.WithContext(ctx)).First(&program, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProgramNotFound
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, programCacheKey(id), &program, programCacheTTL); err != nil {
			log.Warnf("Program cache write failed for %d: %v", id, err)
		}
	}
	return &program, nil
}

// List returns all programs ordered by start date.
func (s *ProgramService) List(ctx context.Context) ([]model.Program, error) {
	var programs []model.Program
	err := withCatalog(s.db.WithContext(ctx)).
		Order("start ASC NULLS FIRST, id ASC").
		Find(&programs).Error
	return programs, err
}

// Create adds a program.
func (s *ProgramService) Create(ctx context.Context, in ProgramInput) (*model.Program, error) {
	if in.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	program := model.Program{}
	in.apply(&program)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := in.checkRefs(tx); err != nil {
			return err
		}
		if err := tx.Create(&program).Error; err != nil {
			return err
		}
		if err := replaceCourses(tx, &program, in.CourseIDs); err != nil {
			return err
		}
		return replaceInstructors(tx, &program, in.InstructorIDs)
	})
	if err != nil {
		return nil, err
	}
	return &program, nil
}

// Update changes a program. Pending orders pick up the new name and price the
// next time they are opened.
func (s *ProgramService) Update(ctx context.Context, id uint, in ProgramInput) (*model.Program, error) {
	if in.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	var program model.Program
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&program, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProgramNotFound
			}
			return err
		}
		if err := in.checkRefs(tx); err != nil {
			return err
		}
		in.apply(&program)
		if err := tx.Omit(clause.Associations).Save(&program).Error; err != nil {
			return err
		}
		if err := replaceCourses(tx, &program, in.CourseIDs); err != nil {
			return err
		}
		return replaceInstructors(tx, &program, in.InstructorIDs)
	})
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx, id)
	return &program, nil
}

// Delete soft-deletes a program.
func (s *ProgramService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.Program{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProgramNotFound
	}
	s.Invalidate(ctx, id)
	return nil
}

// Invalidate drops the cached copy of a program.
func (s *ProgramService) Invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, programCacheKey(id)); err != nil {
		log.Warnf("Program cache delete failed for %d: %v", id, err)
	}
}

func (in ProgramInput) apply(p *model.Program) {
	p.Name = in.Name
	p.Start = in.Start
	p.End = in.End
	p.ShortDescription = in.ShortDescription
	p.Price = in.Price.Round(2)
	p.AverageLength = in.AverageLength
	p.Effort = in.Effort
	p.Overview = in.Overview
	p.BannerImageURL = in.BannerImageURL
	p.IntroVideoURL = in.IntroVideoURL
	p.SubjectID = in.SubjectID
	p.LanguageID = in.LanguageID
	p.TranscriptLanguageID = in.TranscriptLangID
	p.InstitutionID = in.InstitutionID
}

func (in ProgramInput) checkRefs(tx *gorm.DB) error {
	if err := requireRef(tx, &model.Subject{}, in.SubjectID, ErrSubjectNotFound); err != nil {
		return err
	}
	if err := requireRef(tx, &model.Language{}, in.LanguageID, ErrLanguageNotFound); err != nil {
		return err
	}
	if err := requireRef(tx, &model.Language{}, in.TranscriptLangID, ErrLanguageNotFound); err != nil {
		return err
	}
	return requireRef(tx, &model.Institution{}, in.InstitutionID, ErrInstitutionNotFound)
}

func replaceCourses(tx *gorm.DB, program *model.Program, courseIDs []uint) error {
	if courseIDs == nil {
		return nil
	}
	var courses []model.Course
	if len(courseIDs) > 0 {
		if err := tx.Where("id IN ?", courseIDs).Find(&courses).Error; err != nil {
			return err
		}
		if len(courses) != len(courseIDs) {
			return fmt.Errorf("%w in %v", ErrUnknownCourse, courseIDs)
		}
	}
	if err := tx.Model(program).Association("Courses").Replace(courses); err != nil {
		return err
	}
	program.Courses = courses
	return nil
}

func replaceInstructors(tx *gorm.DB, program *model.Program, instructorIDs []uint) error {
	if instructorIDs == nil {
		return nil
	}
	var instructors []model.Instructor
	if len(instructorIDs) > 0 {
		if err := tx.Where("id IN ?", instructorIDs).Find(&instructors).Error; err != nil {
			return err
		}
		if len(instructors) != len(instructorIDs) {
			return fmt.Errorf("%w in %v", ErrUnknownInstructor, instructorIDs)
		}
	}
	if err := tx.Model(program).Association("Instructors").Replace(instructors); err != nil {
		return err
	}
	program.Instructors = instructors
	return nil
}
