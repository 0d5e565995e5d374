package admin

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wiproedx/synergeticsopenedx/model"
	"github.com/wiproedx/synergeticsopenedx/services"
	"github.com/wiproedx/synergeticsopenedx/utils/validation"
)

// ProgramCatalog is the editable program catalog.
type ProgramCatalog interface {
	List(ctx context.Context) ([]model.Program, error)
	Get(ctx context.Context, id uint) (*model.Program, error)
	Create(ctx context.Context, in services.ProgramInput) (*model.Program, error)
	Update(ctx context.Context, id uint, in services.ProgramInput) (*model.Program, error)
	Delete(ctx context.Context, id uint) error
}

// CatalogEditor manages the reference data programs point at.
type CatalogEditor interface {
	ListSubjects(ctx context.Context) ([]model.Subject, error)
	CreateSubject(ctx context.Context, in services.SubjectInput) (*model.Subject, error)
	UpdateSubject(ctx context.Context, id uint, in services.SubjectInput) (*model.Subject, error)
	DeleteSubject(ctx context.Context, id uint) error

	ListLanguages(ctx context.Context) ([]model.Language, error)
	CreateLanguage(ctx context.Context, in services.LanguageInput) (*model.Language, error)
	UpdateLanguage(ctx context.Context, id uint, in services.LanguageInput) (*model.Language, error)
	DeleteLanguage(ctx context.Context, id uint) error

	ListInstitutions(ctx context.Context) ([]model.Institution, error)
	CreateInstitution(ctx context.Context, in services.InstitutionInput) (*model.Institution, error)
	UpdateInstitution(ctx context.Context, id uint, in services.InstitutionInput) (*model.Institution, error)
	DeleteInstitution(ctx context.Context, id uint) error

	ListInstructors(ctx context.Context) ([]model.Instructor, error)
	CreateInstructor(ctx context.Context, in services.InstructorInput) (*model.Instructor, error)
	UpdateInstructor(ctx context.Context, id uint, in services.InstructorInput) (*model.Instructor, error)
	DeleteInstructor(ctx context.Context, id uint) error

	ListSignatories(ctx context.Context, programID uint) ([]model.ProgramCertificateSignatory, error)
	CreateSignatory(ctx context.Context, programID uint, in services.SignatoryInput) (*model.ProgramCertificateSignatory, error)
	UpdateSignatory(ctx context.Context, id uint, in services.SignatoryInput) (*model.ProgramCertificateSignatory, error)
	DeleteSignatory(ctx context.Context, id uint) error
}

// CouponBook manages coupons.
type CouponBook interface {
	ListCoupons(ctx context.Context, programID uint, page, limit int) ([]model.ProgramCoupon, int64, error)
	CreateCoupon(ctx context.Context, in services.CouponInput) (*model.ProgramCoupon, error)
	UpdateCoupon(ctx context.Context, id uint, in services.CouponInput) (*model.ProgramCoupon, error)
	DeleteCoupon(ctx context.Context, id uint) error
}

// OrderDesk lists and refunds orders.
type OrderDesk interface {
	List(ctx context.Context, filter services.OrderFilter) ([]model.ProgramOrder, int64, error)
	GetOrder(ctx context.Context, id uint) (*model.ProgramOrder, error)
	Refund(ctx context.Context, orderID uint) (*model.ProgramOrder, error)
}

// CertificateIssuer issues and revokes program certificates.
type CertificateIssuer interface {
	Issue(ctx context.Context, userID, programID uint, issued bool) (*model.ProgramCertificate, error)
}

// Memberships changes program enrollment on a learner's behalf.
type Memberships interface {
	Enroll(ctx context.Context, userID, programID uint) (bool, error)
	Unenroll(ctx context.Context, userID, programID uint) (bool, error)
	EnrolledPrograms(ctx context.Context, userID uint) ([]model.ProgramEnrollment, error)
}

// CallbackArchive reads the payment callback log.
type CallbackArchive interface {
	List(ctx context.Context, orderID uint, outcome string, limit int) ([]model.PaymentCallbackLog, error)
	Get(ctx context.Context, id uint) (*services.CallbackLogView, error)
}

// Deps are the services behind the back-office endpoints.
type Deps struct {
	Programs     ProgramCatalog
	Catalog      CatalogEditor
	Coupons      CouponBook
	Orders       OrderDesk
	Certificates CertificateIssuer
	Enrollments  Memberships
	Callbacks    CallbackArchive
}

// AdminHandler serves the back-office API
type AdminHandler struct {
	Deps
	validator *validation.Validator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(deps Deps) *AdminHandler {
	return &AdminHandler{Deps: deps, validator: validation.NewValidator()}
}

func parseID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func queryID(c *fiber.Ctx, name string) uint {
	id, err := strconv.ParseUint(c.Query(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// pageParams reads page and limit, defaulting to the first 20 rows.
func pageParams(c *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
