package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/services"
	"github.com/wiproedx/synergeticsopenedx/utils/response"
)

// ListUserEnrollments handles GET /admin/users/:id/enrollments
func (h *AdminHandler) ListUserEnrollments(c *fiber.Ctx) error {
	userID, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}
	enrollments, err := h.Enrollments.EnrolledPrograms(c.UserContext(), userID)
	if err != nil {
		log.Errorf("Failed to list enrollments of user %d: %v", userID, err)
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}
	return response.Success(c, enrollments)
}

// EnrollUser handles POST /admin/users/:id/programs/:program_id
func (h *AdminHandler) EnrollUser(c *fiber.Ctx) error {
	return h.setMembership(c, true)
}

// UnenrollUser handles DELETE /admin/users/:id/programs/:program_id
func (h *AdminHandler) UnenrollUser(c *fiber.Ctx) error {
	return h.setMembership(c, false)
}

func (h *AdminHandler) setMembership(c *fiber.Ctx, active bool) error {
	userID, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}
	programID, ok := parseID(c, "program_id")
	if !ok {
		return response.BadRequest(c, "Invalid program ID")
	}

	change := h.Enrollments.Unenroll
	if active {
		change = h.Enrollments.Enroll
	}
	changed, err := change(c.UserContext(), userID, programID)
	if errors.Is(err, services.ErrNotEnrolled) {
		return response.NotFound(c, "User is not enrolled in the program")
	}
	if err != nil {
		log.Errorf("Failed to set enrollment of user %d in program %d to %t: %v", userID, programID, active, err)
		return response.InternalServerError(c, "Failed to update enrollment")
	}
	if !changed {
		return response.NotFound(c, "Program not found")
	}
	return response.Success(c, fiber.Map{
		"user_id":    userID,
		"program_id": programID,
		"is_active":  active,
	})
}
