package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/services"
	"github.com/wiproedx/synergeticsopenedx/utils/response"
)

func (h *AdminHandler) programError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, services.ErrProgramNotFound):
		return response.NotFound(c, "Program not found")
	case errors.Is(err, services.ErrInvalidPrice):
		return response.BadRequest(c, "Price must not be negative")
	case errors.Is(err, services.ErrUnknownCourse),
		errors.Is(err, services.ErrUnknownInstructor),
		errors.Is(err, services.ErrSubjectNotFound),
		errors.Is(err, services.ErrLanguageNotFound),
		errors.Is(err, services.ErrInstitutionNotFound):
		return response.BadRequest(c, err.Error())
	}
	log.Errorf("Failed to %s program: %v", action, err)
	return response.InternalServerError(c, "Failed to "+action+" program")
}

func (h *AdminHandler) parseProgramInput(c *fiber.Ctx) (*services.ProgramInput, error) {
	var in services.ProgramInput
	if err := c.BodyParser(&in); err != nil {
		return nil, response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(in); err != nil {
		return nil, response.ValidationError(c, err)
	}
	return &in, nil
}

// ListPrograms handles GET /admin/programs
func (h *AdminHandler) ListPrograms(c *fiber.Ctx) error {
	programs, err := h.Programs.List(c.UserContext())
	if err != nil {
		return h.programError(c, err, "list")
	}
	return response.Success(c, programs)
}

// GetProgram handles GET /admin/programs/:id
func (h *AdminHandler) GetProgram(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid program ID")
	}
	program, err := h.Programs.Get(c.UserContext(), id)
	if err != nil {
		return h.programError(c, err, "fetch")
	}
	return response.Success(c, program)
}

// CreateProgram handles POST /admin/programs
func (h *AdminHandler) CreateProgram(c *fiber.Ctx) error {
	in, err := h.parseProgramInput(c)
	if in == nil {
		return err
	}
	program, err := h.Programs.Create(c.UserContext(), *in)
	if err != nil {
		return h.programError(c, err, "create")
	}
	return c.Status(fiber.StatusCreated).JSON(response.Response{
		Success: true,
		Message: "Program created successfully",
		Data:    program,
	})
}

// UpdateProgram handles PUT /admin/programs/:id
func (h *AdminHandler) UpdateProgram(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid program ID")
	}
	in, err := h.parseProgramInput(c)
	if in == nil {
		return err
	}
	program, err := h.Programs.Update(c.UserContext(), id, *in)
	if err != nil {
		return h.programError(c, err, "update")
	}
	return response.SuccessWithMessage(c, "Program updated successfully", program)
}

// DeleteProgram handles DELETE /admin/programs/:id
func (h *AdminHandler) DeleteProgram(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid program ID")
	}
	if err := h.Programs.Delete(c.UserContext(), id); err != nil {
		return h.programError(c, err, "delete")
	}
	return response.SuccessWithMessage(c, "Program deleted successfully", nil)
}
