package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CourseEnroller manages a user's seat in a single course.
type CourseEnroller interface {
	EnrollCourse(ctx context.Context, userID uint, courseKey string) error
	UnenrollCourse(ctx context.Context, userID uint, courseKey string) error
}

// LocalCourseEnroller keeps course seats in the course_enrollments table.
type LocalCourseEnroller struct {
	db *gorm.DB
}

// NewLocalCourseEnroller creates a course enroller backed by db.
func NewLocalCourseEnroller(db *gorm.DB) *LocalCourseEnroller {
	return &LocalCourseEnroller{db: db}
}

// EnrollCourse activates the user's seat, creating it when needed.
func (e *LocalCourseEnroller) EnrollCourse(ctx context.Context, userID uint, courseKey string) error {
	seat := model.CourseEnrollment{UserID: userID, CourseKey: courseKey, IsActive: true}
	return e.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"is_active": true, "updated_at": time.Now().UTC()}),
	}).Create(&seat).Error
}

// UnenrollCourse deactivates the user's seat if it exists.
func (e *LocalCourseEnroller) UnenrollCourse(ctx context.Context, userID uint, courseKey string) error {
	return e.db.WithContext(ctx).Model(&model.CourseEnrollment{}).
		Where("user_id = ? AND course_key = ?", userID, courseKey).
		Update("is_active", false).Error
}

// EnrollmentService enrolls users into programs and their courses.
type EnrollmentService struct {
	db      *gorm.DB
	courses CourseEnroller
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB, courses CourseEnroller) *EnrollmentService {
	return &EnrollmentService{db: db, courses: courses}
}

func (s *EnrollmentService) loadProgram(ctx context.Context, programID uint) (*model.Program, error) {
	var program model.Program
	err := s.db.WithContext(ctx).Preload("Courses").First(&program, programID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &program, nil
}

// Enroll activates the user's program membership and enrolls them in every
// course of the program. It returns false when the program does not exist.
// Course seats are taken after the membership commits; a failure part way
// leaves the earlier seats in place and is returned.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, programID uint) (bool, error) {
	program, err := s.loadProgram(ctx, programID)
	if err != nil {
		return false, err
	}
	if program == nil {
		return false, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollment := model.ProgramEnrollment{UserID: userID, ProgramID: programID, IsActive: true}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "program_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"is_active": true, "updated_at": time.Now().UTC()}),
		}).Create(&enrollment).Error
		if err != nil {
			return err
		}
		return enqueueEvent(tx, model.EventEnrollmentChanged, EnrollmentEvent{
			UserID: userID, ProgramID: programID, Active: true,
		})
	})
	if err != nil {
		return false, fmt.Errorf("enroll user %d in program %d: %w", userID, programID, err)
	}

	for _, course := range program.Courses {
		if err := s.courses.EnrollCourse(ctx, userID, course.CourseKey); err != nil {
			return false, fmt.Errorf("enroll user %d in course %s: %w", userID, course.CourseKey, err)
		}
	}

	log.Infof("User %d enrolled in program %d (%d courses)", userID, programID, len(program.Courses))
	return true, nil
}

// Unenroll removes the user from every course of the program and deactivates
// the membership. It returns false when the program does not exist and
// ErrNotEnrolled when the user never joined it.
func (s *EnrollmentService) Unenroll(ctx context.Context, userID, programID uint) (bool, error) {
	program, err := s.loadProgram(ctx, programID)
	if err != nil {
		return false, err
	}
	if program == nil {
		return false, nil
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&model.ProgramEnrollment{}).
		Where("user_id = ? AND program_id = ?", userID, programID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, ErrNotEnrolled
	}

	for _, course := range program.Courses {
		if err := s.courses.UnenrollCourse(ctx, userID, course.CourseKey); err != nil {
			return false, fmt.Errorf("unenroll user %d from course %s: %w", userID, course.CourseKey, err)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.ProgramEnrollment{}).
			Where("user_id = ? AND program_id = ?", userID, programID).
			Update("is_active", false).Error
		if err != nil {
			return err
		}
		return enqueueEvent(tx, model.EventEnrollmentChanged, EnrollmentEvent{
			UserID: userID, ProgramID: programID, Active: false,
		})
	})
	if err != nil {
		return false, fmt.Errorf("unenroll user %d from program %d: %w", userID, programID, err)
	}

	log.Infof("User %d unenrolled from program %d", userID, programID)
	return true, nil
}

// IsEnrolled reports whether the user holds an active membership.
func (s *EnrollmentService) IsEnrolled(ctx context.Context, userID, programID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ProgramEnrollment{}).
		Where("user_id = ? AND program_id = ? AND is_active = ?", userID, programID, true).
		Count(&count).Error
	return count > 0, err
}

// EnrolledPrograms lists the programs the user is actively enrolled in.
func (s *EnrollmentService) EnrolledPrograms(ctx context.Context, userID uint) ([]model.ProgramEnrollment, error) {
	var enrollments []model.ProgramEnrollment
	err := s.db.WithContext(ctx).
		Preload("Program").
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}
