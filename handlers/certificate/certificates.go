package certificate

import (
	"context"
	"errors"
	"regexp"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/model"
	"github.com/wiproedx/synergeticsopenedx/services"
	"github.com/wiproedx/synergeticsopenedx/utils/response"
)

var verifyUUIDPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

type signatoryView struct {
	Name              string `json:"name"`
	Title             string `json:"title"`
	Institution       string `json:"institution,omitempty"`
	SignatureImageURL string `json:"signature_image_url,omitempty"`
}

// Verifier resolves public certificate links.
type Verifier interface {
	Verify(ctx context.Context, verifyUUID string) (*model.ProgramCertificate, error)
}

// CertificateHandler serves certificate verification
type CertificateHandler struct {
	certificates Verifier
}

// NewCertificateHandler creates a new certificate handler
func NewCertificateHandler(certificates Verifier) *CertificateHandler {
	return &CertificateHandler{certificates: certificates}
}

// VerifyCertificate handles GET /api/v1/programs/certificates/:uuid
func (h *CertificateHandler) VerifyCertificate(c *fiber.Ctx) error {
	id := c.Params("uuid")
	if !verifyUUIDPattern.MatchString(id) {
		return response.NotFound(c, "Certificate not found")
	}

	cert, err := h.certificates.Verify(c.UserContext(), id)
	if errors.Is(err, services.ErrCertificateNotFound) {
		return response.NotFound(c, "Certificate not found")
	}
	if err != nil {
		log.Errorf("Failed to verify certificate %s: %v", id, err)
		return response.InternalServerError(c, "Failed to verify certificate")
	}

	signatories := make([]signatoryView, 0, len(cert.Program.Signatories))
	for _, s := range cert.Program.Signatories {
		view := signatoryView{Name: s.Name, Title: s.Title, SignatureImageURL: s.SignatureImageURL}
		if s.Institution != nil {
			view.Institution = s.Institution.Name
		}
		signatories = append(signatories, view)
	}

	return response.Success(c, fiber.Map{
		"verify_uuid":  cert.VerifyUUID,
		"program_id":   cert.ProgramID,
		"program_name": cert.Program.Name,
		"learner_name": cert.User.DisplayName(),
		"issued_on":    cert.UpdatedAt.Format("January 02, 2006"),
		"signatories":  signatories,
	})
}
