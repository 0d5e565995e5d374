package certificate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiproedx/synergeticsopenedx/model"
	"github.com/wiproedx/synergeticsopenedx/services"
)

type stubVerifier struct {
	cert *model.ProgramCertificate
	err  error
}

func (s stubVerifier) Verify(_ context.Context, id string) (*model.ProgramCertificate, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.cert == nil || s.cert.VerifyUUID != id {
		return nil, services.ErrCertificateNotFound
	}
	return s.cert, nil
}

func newApp(v Verifier) *fiber.App {
	app := fiber.New()
	app.Get("/certificates/:uuid", NewCertificateHandler(v).VerifyCertificate)
	return app
}

func TestVerifyCertificate(t *testing.T) {
	cert := &model.ProgramCertificate{
		VerifyUUID: "0123456789abcdef0123456789abcdef",
		ProgramID:  3,
		Issued:     true,
		UpdatedAt:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		User:       model.User{Username: "ada"},
		Program: model.Program{
			Name: "Data Science",
			Signatories: []model.ProgramCertificateSignatory{
				{Name: "Grace Hopper", Title: "Program Director", Institution: &model.Institution{Name: "Synergetics"}, SignatureImageURL: "https://cdn.example.com/sig/hopper.png"},
				{Name: "Alan Kay", Title: "Dean"},
			},
		},
	}
	app := newApp(stubVerifier{cert: cert})

	resp, err := app.Test(httptest.NewRequest("GET", "/certificates/"+cert.VerifyUUID, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ada", body.Data["learner_name"])
	assert.Equal(t, "Data Science", body.Data["program_name"])
	assert.Equal(t, "June 01, 2025", body.Data["issued_on"])

	signatories := body.Data["signatories"].([]interface{})
	require.Len(t, signatories, 2)
	first := signatories[0].(map[string]interface{})
	assert.Equal(t, "Grace Hopper", first["name"])
	assert.Equal(t, "Program Director", first["title"])
	assert.Equal(t, "Synergetics", first["institution"])
	assert.Equal(t, "https://cdn.example.com/sig/hopper.png", first["signature_image_url"])
	second := signatories[1].(map[string]interface{})
	assert.Equal(t, "Dean", second["title"])
	assert.NotContains(t, second, "institution")
}

func TestVerifyCertificateWithoutSignatories(t *testing.T) {
	cert := &model.ProgramCertificate{
		VerifyUUID: "fedcba9876543210fedcba9876543210",
		Issued:     true,
		User:       model.User{Username: "ada"},
		Program:    model.Program{Name: "Cloud"},
	}
	resp, err := newApp(stubVerifier{cert: cert}).Test(httptest.NewRequest("GET", "/certificates/"+cert.VerifyUUID, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.Data["signatories"])
	assert.NotNil(t, body.Data["signatories"])
}

func TestVerifyCertificateFailures(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{"malformed id", "/certificates/not-a-uuid", nil, fiber.StatusNotFound},
		{"unknown id", "/certificates/ffffffffffffffffffffffffffffffff", nil, fiber.StatusNotFound},
		{"store failure", "/certificates/ffffffffffffffffffffffffffffffff", errors.New("db down"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(stubVerifier{err: tt.err})
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
