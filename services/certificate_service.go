package services

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/wiproedx/synergeticsopenedx/model"
	"gorm.io/gorm"
)

// CertificateService issues program certificates.
type CertificateService struct {
	db *gorm.DB
}

// NewCertificateService creates a new certificate service
func NewCertificateService(db *gorm.DB) *CertificateService {
	return &CertificateService{db: db}
}

// Issue sets the issued flag on the user's certificate for program. Issuing
// creates the certificate with a fresh verify UUID if needed; revoking a
// certificate that does not exist returns ErrCertificateNotFound.
func (s *CertificateService) Issue(ctx context.Context, userID, programID uint, issued bool) (*model.ProgramCertificate, error) {
	var cert model.ProgramCertificate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND program_id = ?", userID, programID).First(&cert).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if !issued {
				return ErrCertificateNotFound
			}
			cert = model.ProgramCertificate{
				UserID:     userID,
				ProgramID:  programID,
				VerifyUUID: newVerifyUUID(),
				Issued:     true,
			}
			return tx.Create(&cert).Error
		case err != nil:
			return err
		}

		updates := map[string]interface{}{"issued": issued}
		if cert.VerifyUUID == "" {
			cert.VerifyUUID = newVerifyUUID()
			updates["verify_uuid"] = cert.VerifyUUID
		}
		cert.Issued = issued
		return tx.Model(&cert).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	log.Infof("Certificate for user %d program %d issued=%t", userID, programID, issued)
	return &cert, nil
}

// Verify looks up an issued certificate by its public UUID, with the
// program's signatories.
func (s *CertificateService) Verify(ctx context.Context, verifyUUID string) (*model.ProgramCertificate, error) {
	var cert model.ProgramCertificate
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Program").
		Preload("Program.Signatories", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Program.Signatories.Institution").
		Where("verify_uuid = ? AND issued = ?", verifyUUID, true).
		First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCertificateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func newVerifyUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
