package course

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wiproedx/synergeticsopenedx/database"
	"github.com/wiproedx/synergeticsopenedx/model"
	"github.com/wiproedx/synergeticsopenedx/utils/response"
	"github.com/wiproedx/synergeticsopenedx/utils/validation"
	"gorm.io/gorm"
)

// CourseHandler manages the LMS course catalog that programs bundle
type CourseHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB) *CourseHandler {
	return &CourseHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CourseRequest represents the request body for creating or updating a course
type CourseRequest struct {
	CourseKey string `json:"course_key" validate:"required,min=3,max=255"`
	Name      string `json:"name" validate:"required,min=2,max=200"`
}

// ListCourses handles GET /admin/courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	pagination := response.CalculatePagination(page, limit, 0)
	page, limit = pagination.CurrentPage, pagination.PerPage

	query := h.db.WithContext(c.UserContext()).Model(&model.Course{})
	if search := c.Query("search"); search != "" {
		query = query.Where("name ILIKE ? OR course_key ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count courses")
	}

	var courses []model.Course
	if err := query.Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Paginated(c, courses, response.CalculatePagination(page, limit, total))
}

// GetCourse handles GET /admin/courses/:id
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	var course model.Course
	if err := h.db.WithContext(c.UserContext()).First(&course, c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}
	return response.Success(c, course)
}

func (h *CourseHandler) parseRequest(c *fiber.Ctx) (*CourseRequest, error) {
	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, response.BadRequest(c, "Invalid request body")
	}
	req.CourseKey = validation.SanitizeString(req.CourseKey)
	req.Name = validation.SanitizeString(req.Name)
	if err := h.validator.ValidateStruct(req); err != nil {
		return nil, response.ValidationError(c, err)
	}
	return &req, nil
}

// CreateCourse handles POST /admin/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	req, err := h.parseRequest(c)
	if req == nil {
		return err
	}

	course := model.Course{CourseKey: req.CourseKey, Name: req.Name}
	if err := h.db.WithContext(c.UserContext()).Create(&course).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return response.Conflict(c, "Course with this key already exists")
		}
		return response.InternalServerError(c, "Failed to create course")
	}
	return response.Created(c, course)
}

// UpdateCourse handles PUT /admin/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	req, err := h.parseRequest(c)
	if req == nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	var course model.Course
	if err := db.First(&course, c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	course.CourseKey = req.CourseKey
	course.Name = req.Name
	if err := db.Save(&course).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return response.Conflict(c, "Course with this key already exists")
		}
		return response.InternalServerError(c, "Failed to update course")
	}
	return response.SuccessWithMessage(c, "Course updated successfully", course)
}

// DeleteCourse handles DELETE /admin/courses/:id. Courses still bundled into
// a program cannot be removed.
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	db := h.db.WithContext(c.UserContext())
	var course model.Course
	if err := db.First(&course, c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if n := db.Model(&course).Association("Programs").Count(); n > 0 {
		return response.BadRequest(c, "Cannot delete a course that belongs to a program")
	}

	if err := db.Delete(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete course")
	}
	return response.SuccessWithMessage(c, "Course deleted successfully", nil)
}
