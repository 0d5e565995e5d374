package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wiproedx/synergeticsopenedx/model"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	// Run seeds in order (respecting foreign key constraints)
	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedCourses(); err != nil {
		return fmt.Errorf("failed to seed courses: %w", err)
	}

	if err := s.SeedCatalog(); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	if err := s.SeedPrograms(); err != nil {
		return fmt.Errorf("failed to seed programs: %w", err)
	}

	if err := s.SeedCoupons(); err != nil {
		return fmt.Errorf("failed to seed coupons: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user. Credentials live in the LMS,
// so only the identity is mirrored here.
func (s *Seeder) SeedAdminUser() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", "admin").Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Admin user already exists, skipping...")
		return nil
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminUsername := os.Getenv("ADMIN_USERNAME")
	if adminEmail == "" || adminUsername == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_USERNAME environment variables not set, skipping admin user creation")
		return nil
	}

	admin := &model.User{
		Username: adminUsername,
		Email:    adminEmail,
		Name:     "System Administrator",
		Role:     "admin",
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Created admin user: %s\n", admin.Email)
	return nil
}

// SeedCourses creates sample catalogue courses
func (s *Seeder) SeedCourses() error {
	var count int64
	if err := s.db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Courses already exist, skipping...")
		return nil
	}

	courses := []model.Course{
		{CourseKey: "course-v1:Synergetics+DS101+2025", Name: "Foundations of Data Science"},
		{CourseKey: "course-v1:Synergetics+DS102+2025", Name: "Applied Statistics"},
		{CourseKey: "course-v1:Synergetics+DS103+2025", Name: "Machine Learning in Practice"},
		{CourseKey: "course-v1:Synergetics+CL101+2025", Name: "Cloud Fundamentals"},
		{CourseKey: "course-v1:Synergetics+CL102+2025", Name: "Containers and Orchestration"},
	}

	if err := s.db.Create(&courses).Error; err != nil {
		return err
	}

	log.Printf("✅ Created %d courses\n", len(courses))
	return nil
}

// SeedCatalog creates the subjects, language, institution and instructors the
// sample programs point at
func (s *Seeder) SeedCatalog() error {
	var count int64
	if err := s.db.Model(&model.Institution{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Catalog already exists, skipping...")
		return nil
	}

	subjects := []model.Subject{
		{Name: "Data Science", MarkAsPopular: true},
		{Name: "Cloud Computing"},
	}
	if err := s.db.Create(&subjects).Error; err != nil {
		return err
	}
	if err := s.db.Create(&model.Language{Name: "English", Code: "en"}).Error; err != nil {
		return err
	}

	institution := model.Institution{Name: "Synergetics", WebsiteURL: "https://www.synergetics-india.com"}
	if err := s.db.Create(&institution).Error; err != nil {
		return err
	}
	instructors := []model.Instructor{
		{Name: "Priya Raman", Designation: "Lead Data Scientist", InstitutionID: &institution.ID},
		{Name: "Arjun Mehta", Designation: "Cloud Architect", InstitutionID: &institution.ID},
	}
	if err := s.db.Create(&instructors).Error; err != nil {
		return err
	}

	log.Printf("✅ Created catalog: %d subjects, 1 language, 1 institution, %d instructors\n", len(subjects), len(instructors))
	return nil
}

// SeedPrograms creates sample programs bundling the seeded courses
func (s *Seeder) SeedPrograms() error {
	var count int64
	if err := s.db.Model(&model.Program{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Programs already exist, skipping...")
		return nil
	}

	var courses []model.Course
	if err := s.db.Order("id").Find(&courses).Error; err != nil {
		return err
	}
	if len(courses) < 5 {
		return fmt.Errorf("expected seeded courses, found %d", len(courses))
	}

	var subjects []model.Subject
	if err := s.db.Order("id").Find(&subjects).Error; err != nil {
		return err
	}
	var instructors []model.Instructor
	if err := s.db.Order("id").Find(&instructors).Error; err != nil {
		return err
	}
	var english model.Language
	if err := s.db.Where("code = ?", "en").First(&english).Error; err != nil {
		return err
	}
	if len(subjects) < 2 || len(instructors) < 2 {
		return fmt.Errorf("expected seeded catalog, found %d subjects and %d instructors", len(subjects), len(instructors))
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	programs := []model.Program{
		{
			Name:             "Data Science MicroMasters",
			Start:            &start,
			ShortDescription: "Three graduate-level courses covering the data science workflow.",
			Price:            decimal.RequireFromString("299.00"),
			AverageLength:    "6-7 weeks per course",
			Effort:           "8-10 hours per week, per course",
			SubjectID:        &subjects[0].ID,
			LanguageID:       &english.ID,
			InstitutionID:    instructors[0].InstitutionID,
			Instructors:      instructors[:1],
			Courses:          courses[:3],
		},
		{
			Name:             "Cloud Engineering MicroMasters",
			Start:            &start,
			ShortDescription: "Operate production workloads on modern cloud platforms.",
			Price:            decimal.RequireFromString("199.99"),
			AverageLength:    "5 weeks per course",
			Effort:           "6-8 hours per week, per course",
			SubjectID:        &subjects[1].ID,
			LanguageID:       &english.ID,
			InstitutionID:    instructors[1].InstitutionID,
			Instructors:      instructors[1:],
			Courses:          courses[3:5],
		},
		{
			Name:             "Open Learning Sampler",
			ShortDescription: "A free taster of the catalogue.",
			Price:            decimal.Zero,
			Courses:          courses[:1],
		},
	}

	if err := s.db.Create(&programs).Error; err != nil {
		return err
	}

	log.Printf("✅ Created %d programs\n", len(programs))
	return nil
}

// SeedCoupons creates a launch coupon per paid program
func (s *Seeder) SeedCoupons() error {
	var count int64
	if err := s.db.Model(&model.ProgramCoupon{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Coupons already exist, skipping...")
		return nil
	}

	var programs []model.Program
	if err := s.db.Where("price > 0").Find(&programs).Error; err != nil {
		return err
	}

	expiry := time.Now().UTC().AddDate(0, 3, 0)
	coupons := make([]model.ProgramCoupon, 0, len(programs))
	for _, p := range programs {
		coupons = append(coupons, model.ProgramCoupon{
			Code:               "LAUNCH20",
			Description:        "Launch discount",
			ProgramID:          p.ID,
			PercentageDiscount: 20,
			IsActive:           true,
			ExpirationDate:     &expiry,
		})
	}
	if len(coupons) == 0 {
		return nil
	}

	if err := s.db.Create(&coupons).Error; err != nil {
		return err
	}

	log.Printf("✅ Created %d coupons\n", len(coupons))
	return nil
}

// RunSeeds is a convenience function to run all seeds
func RunSeeds(db *gorm.DB) error {
	seeder := NewSeeder(db)
	return seeder.SeedAll()
}
