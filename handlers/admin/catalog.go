package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/database"
	"github.com/wiproedx/synergeticsopenedx/services"
	"github.com/wiproedx/synergeticsopenedx/utils/response"
	"github.com/wiproedx/synergeticsopenedx/utils/validation"
)

var catalogRefErrors = []error{
	services.ErrProgramNotFound,
	services.ErrSubjectNotFound,
	services.ErrLanguageNotFound,
	services.ErrInstitutionNotFound,
	services.ErrInstructorNotFound,
	services.ErrSignatoryNotFound,
}

// catalogError maps a catalog failure. missing is the not-found error of the
// row named in the path; other not-found errors are bad references in the body.
func catalogError(c *fiber.Ctx, err, missing error, action, what string) error {
	if errors.Is(err, missing) {
		return response.NotFound(c, missing.Error())
	}
	for _, ref := range catalogRefErrors {
		if errors.Is(err, ref) {
			return response.BadRequest(c, err.Error())
		}
	}
	if database.IsUniqueViolation(err) {
		return response.Conflict(c, "A "+what+" with this name already exists")
	}
	log.Errorf("Failed to %s %s: %v", action, what, err)
	return response.InternalServerError(c, "Failed to "+action+" "+what)
}

// bindInput parses the body into in, trims the name field it points at and
// validates. When it returns false the rejection has already been written.
func (h *AdminHandler) bindInput(c *fiber.Ctx, in interface{}, name *string) (bool, error) {
	if err := c.BodyParser(in); err != nil {
		return false, response.BadRequest(c, "Invalid request body")
	}
	*name = validation.SanitizeString(*name)
	if err := h.validator.ValidateStruct(in); err != nil {
		return false, response.ValidationError(c, err)
	}
	return true, nil
}

func created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(response.Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ==================== Subjects ====================

// ListSubjects handles GET /admin/subjects
func (h *AdminHandler) ListSubjects(c *fiber.Ctx) error {
	subjects, err := h.Catalog.ListSubjects(c.UserContext())
	if err != nil {
		return catalogError(c, err, services.ErrSubjectNotFound, "list", "subject")
	}
	return response.Success(c, subjects)
}

// CreateSubject handles POST /admin/subjects
func (h *AdminHandler) CreateSubject(c *fiber.Ctx) error {
	var in services.SubjectInput
	if ok, err := h.bindInput(c, &in, &in.Name); !ok {
		return err
	}
	subject, err := h.Catalog.CreateSubject(c.UserContext(), in)
	if err != nil {
		return catalogError(c, err, services.ErrSubjectNotFound, "create", "subject")
	}
	return created(c, "Subject created successfully", subject)
}

// UpdateSubject handles PUT /admin/subjects/:id
func (h *AdminHandler) UpdateSubject(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid subject ID")
	}
	var in services.SubjectInput
	if ok, err := h.bindInput(c, &in, &in.Name); !ok {
		return err
	}
	subject, err := h.Catalog.UpdateSubject(c.UserContext(), id, in)
	if err != nil {
		return catalogError(c, err, services.ErrSubjectNotFound, "update", "subject")
	}
	return response.SuccessWithMessage(c, "Subject updated successfully", subject)
}

// DeleteSubject handles DELETE /admin/subjects/:id
func (h *AdminHandler) DeleteSubject(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid subject ID")
	}
	if err := h.Catalog.DeleteSubject(c.UserContext(), id); err != nil {
		return catalogError(c, err, services.ErrSubjectNotFound, "delete", "subject")
	}
	return response.SuccessWithMessage(c, "Subject deleted successfully", nil)
}

// ==================== Languages ====================

// ListLanguages handles GET /admin/languages
func (h *AdminHandler) ListLanguages(c *fiber.Ctx) error {
	languages, err := h.Catalog.ListLanguages(c.UserContext())
	if err != nil {
		return catalogError(c, err, services.ErrLanguageNotFound, "list", "language")
	}
	return response.Success(c, languages)
}

// CreateLanguage handles POST /admin/languages
func (h *AdminHandler) CreateLanguage(c *fiber.Ctx) error {
	var in services.LanguageInput
	if ok, err := h.bindInput(c, &in, &in.Name); !ok {
		return err
	}
	language, err := h.Catalog.CreateLanguage(c.UserContext(), in)
	if err != nil {
		return catalogError(c, err, services.ErrLanguageNotFound, "create", "language")
	}
	return created(c, "Language created successfully", language)
}

// UpdateLanguage handles PUT /admin/languages/:id
func (h *AdminHandler) UpdateLanguage(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid language ID")
	}
	var in services.LanguageInput
	if ok, err := h.bindInput(c, &in, &in.Name); !ok {
		return err
	}
	language, err := h.Catalog.UpdateLanguage(c.UserContext(), id, in)
	if err != nil {
		return catalogError(c, err, services.ErrLanguageNotFound, "update", "language")
	}
	return response.SuccessWithMessage(c, "Language updated successfully", language)
}

// DeleteLanguage handles DELETE /admin/languages/:id
func (h *AdminHandler) DeleteLanguage(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid language ID")
	}
	if err := h.Catalog.DeleteLanguage(c.UserContext(), id); err != nil {
		return catalogError(c, err, services.ErrLanguageNotFound, "delete", "language")
	}
	return response.SuccessWithMessage(c, "Language deleted successfully", nil)
}

// ==================== Institutions ====================

// ListInstitutions handles GET /admin/institutions
func (h *AdminHandler) ListInstitutions(c *fiber.Ctx) error {
	institutions, err := h.Catalog.ListInstitutions(c.UserContext())
	if err != nil {
		return catalogError(c, err, services.ErrInstitutionNotFound, "list", "institution")
	}
	return response.Success(c, institutions)
}

// CreateInstitution handles POST /admin/institutions
func (h *AdminHandler) CreateInstitution(c *fiber.Ctx) error {
	var in services.InstitutionInput
	if ok, err := h.bindInput(c, &in, &in.Name); !ok {
		return err
	}
	institution, err := h.Catalog.CreateInstitution(c.UserContext(), in)
	if err != nil {
		return catalogError(c, err, services.ErrInstitutionNotFound, "create", "institution")
	}
	return created(c, "Institution created successfully", institution)
}

// UpdateInstitution handles PUT /admin/institutions/:id
func (h *AdminHandler) UpdateInstitution(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid institution ID")
	}
	var in services.InstitutionInput
	if ok, err := h.bindInput(c, &in, &in.Name); !ok {
		return err
	}
	institution, err := h.Catalog.UpdateInstitution(c.UserContext(), id, in)
	if err != nil {
		return catalogError(c, err, services.ErrInstitutionNotFound, "update", "institution")
	}
	return response.SuccessWithMessage(c, "Institution updated successfully", institution)
}

// DeleteInstitution handles DELETE /admin/institutions/:id
func (h *AdminHandler) DeleteInstitution(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid institution ID")
	}
	if err := h.Catalog.DeleteInstitution(c.UserContext(), id); err != nil {
		return catalogError(c, err, services.ErrInstitutionNotFound, "delete", "institution")
	}
	return response.SuccessWithMessage(c, "Institution deleted successfully", nil)
}

// ==================== Instructors ====================

// ListInstructors handles GET /admin/instructors
func (h *AdminHandler) ListInstructors(c *fiber.Ctx) error {
	instructors, err := h.Catalog.ListInstructors(c.UserContext())
	if err != nil {
		return catalogError(c, err, services.ErrInstructorNotFound, "list", "instructor")
	}
	return response.Success(c, instructors)
}

// CreateInstructor handles POST /admin/instructors
func (h *AdminHandler) CreateInstructor(c *fiber.Ctx) error {
	var in services.InstructorInput
	if ok, err := h.bindInput(c, &in, &in.Name); !ok {
		return err
	}
	instructor, err := h.Catalog.CreateInstructor(c.UserContext(), in)
	if err != nil {
		return catalogError(c, err, services.ErrInstructorNotFound, "create", "instructor")
	}
	return created(c, "Instructor created successfully", instructor)
}

// UpdateInstructor handles PUT /admin/instructors/:id
func (h *AdminHandler) UpdateInstructor(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid instructor ID")
	}
	var in services.InstructorInput
	if ok, err := h.bindInput(c, &in, &in.Name); !ok {
		return err
	}
	instructor, err := h.Catalog.UpdateInstructor(c.UserContext(), id, in)
	if err != nil {
		return catalogError(c, err, services.ErrInstructorNotFound, "update", "instructor")
	}
	return response.SuccessWithMessage(c, "Instructor updated successfully", instructor)
}

// DeleteInstructor handles DELETE /admin/instructors/:id
func (h *AdminHandler) DeleteInstructor(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid instructor ID")
	}
	if err := h.Catalog.DeleteInstructor(c.UserContext(), id); err != nil {
		return catalogError(c, err, services.ErrInstructorNotFound, "delete", "instructor")
	}
	return response.SuccessWithMessage(c, "Instructor deleted successfully", nil)
}

// ==================== Certificate signatories ====================

// ListSignatories handles GET /admin/programs/:id/signatories
func (h *AdminHandler) ListSignatories(c *fiber.Ctx) error {
	programID, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid program ID")
	}
	signatories, err := h.Catalog.ListSignatories(c.UserContext(), programID)
	if err != nil {
		return catalogError(c, err, services.ErrProgramNotFound, "list", "signatory")
	}
	return response.Success(c, signatories)
}

// CreateSignatory handles POST /admin/programs/:id/signatories
func (h *AdminHandler) CreateSignatory(c *fiber.Ctx) error {
	programID, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid program ID")
	}
	var in services.SignatoryInput
	if ok, err := h.bindInput(c, &in, &in.Name); !ok {
		return err
	}
	signatory, err := h.Catalog.CreateSignatory(c.UserContext(), programID, in)
	if err != nil {
		return catalogError(c, err, services.ErrProgramNotFound, "create", "signatory")
	}
	return created(c, "Signatory created successfully", signatory)
}

// UpdateSignatory handles PUT /admin/signatories/:id
func (h *AdminHandler) UpdateSignatory(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid signatory ID")
	}
	var in services.SignatoryInput
	if ok, err := h.bindInput(c, &in, &in.Name); !ok {
		return err
	}
	signatory, err := h.Catalog.UpdateSignatory(c.UserContext(), id, in)
	if err != nil {
		return catalogError(c, err, services.ErrSignatoryNotFound, "update", "signatory")
	}
	return response.SuccessWithMessage(c, "Signatory updated successfully", signatory)
}

// DeleteSignatory handles DELETE /admin/signatories/:id
func (h *AdminHandler) DeleteSignatory(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid signatory ID")
	}
	if err := h.Catalog.DeleteSignatory(c.UserContext(), id); err != nil {
		return catalogError(c, err, services.ErrSignatoryNotFound, "delete", "signatory")
	}
	return response.SuccessWithMessage(c, "Signatory deleted successfully", nil)
}
