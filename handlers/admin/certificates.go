package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/services"
	"github.com/wiproedx/synergeticsopenedx/utils/response"
)

// IssueCertificateRequest sets the issued flag of a learner's certificate.
type IssueCertificateRequest struct {
	UserID    uint  `json:"user_id" validate:"required,min=1"`
	ProgramID uint  `json:"program_id" validate:"required,min=1"`
	Issued    *bool `json:"issued" validate:"required"`
}

// IssueCertificate handles POST /admin/certificates
func (h *AdminHandler) IssueCertificate(c *fiber.Ctx) error {
	var req IssueCertificateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	cert, err := h.Certificates.Issue(c.UserContext(), req.UserID, req.ProgramID, *req.Issued)
	if errors.Is(err, services.ErrCertificateNotFound) {
		return response.NotFound(c, "Certificate not found")
	}
	if err != nil {
		log.Errorf("Failed to set certificate for user %d program %d: %v", req.UserID, req.ProgramID, err)
		return response.InternalServerError(c, "Failed to update certificate")
	}
	return response.Success(c, cert)
}
