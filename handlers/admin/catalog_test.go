package admin

import (
	"context"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiproedx/synergeticsopenedx/model"
	"github.com/wiproedx/synergeticsopenedx/services"
)

// fakeCatalog implements the catalog calls these tests route to; the rest
// panic through the nil embedded interface.
type fakeCatalog struct {
	CatalogEditor
	subjects map[string]bool
	deleted  []uint
}

func (f *fakeCatalog) CreateSubject(_ context.Context, in services.SubjectInput) (*model.Subject, error) {
	if f.subjects[in.Name] {
		return nil, fmt.Errorf("create subject: %w", &pgconn.PgError{Code: "23505"})
	}
	f.subjects[in.Name] = true
	return &model.Subject{ID: uint(len(f.subjects)), Name: in.Name, MarkAsPopular: in.MarkAsPopular}, nil
}

func (f *fakeCatalog) UpdateSubject(context.Context, uint, services.SubjectInput) (*model.Subject, error) {
	return nil, services.ErrSubjectNotFound
}

func (f *fakeCatalog) ListInstructors(context.Context) ([]model.Instructor, error) {
	inst := uint(4)
	return []model.Instructor{{ID: 1, Name: "Grace Hopper", InstitutionID: &inst, Institution: &model.Institution{ID: inst, Name: "Synergetics"}}}, nil
}

func (f *fakeCatalog) CreateInstructor(_ context.Context, in services.InstructorInput) (*model.Instructor, error) {
	if in.InstitutionID != nil && *in.InstitutionID == 99 {
		return nil, fmt.Errorf("%w: %d", services.ErrInstitutionNotFound, 99)
	}
	return &model.Instructor{ID: 2, Name: in.Name, Designation: in.Designation, InstitutionID: in.InstitutionID}, nil
}

func (f *fakeCatalog) DeleteInstructor(_ context.Context, id uint) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeCatalog) CreateSignatory(_ context.Context, programID uint, in services.SignatoryInput) (*model.ProgramCertificateSignatory, error) {
	if programID != 3 {
		return nil, services.ErrProgramNotFound
	}
	if in.InstitutionID != nil {
		return nil, fmt.Errorf("%w: %d", services.ErrInstitutionNotFound, *in.InstitutionID)
	}
	return &model.ProgramCertificateSignatory{ID: 5, ProgramID: programID, Name: in.Name, Title: in.Title}, nil
}

func (f *fakeCatalog) DeleteSignatory(context.Context, uint) error {
	return services.ErrSignatoryNotFound
}

func newCatalogHarness() (*harness, *fakeCatalog) {
	catalog := &fakeCatalog{subjects: map[string]bool{}}
	handler := NewAdminHandler(Deps{Catalog: catalog})

	app := fiber.New()
	app.Post("/subjects", handler.CreateSubject)
	app.Put("/subjects/:id", handler.UpdateSubject)
	app.Get("/instructors", handler.ListInstructors)
	app.Post("/instructors", handler.CreateInstructor)
	app.Delete("/instructors/:id", handler.DeleteInstructor)
	app.Post("/programs/:id/signatories", handler.CreateSignatory)
	app.Delete("/signatories/:id", handler.DeleteSignatory)
	return &harness{app: app}, catalog
}

func TestCreateSubject(t *testing.T) {
	h, catalog := newCatalogHarness()

	status, out := h.do(t, "POST", "/subjects", `{"name":"  Data Science ","mark_as_popular":true}`)
	require.Equal(t, fiber.StatusCreated, status)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "Data Science", data["name"])
	assert.Equal(t, true, data["mark_as_popular"])
	assert.True(t, catalog.subjects["Data Science"])

	status, _ = h.do(t, "POST", "/subjects", `{"name":"Data Science"}`)
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = h.do(t, "POST", "/subjects", `{"name":"  "}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestUpdateMissingSubject(t *testing.T) {
	h, _ := newCatalogHarness()
	status, _ := h.do(t, "PUT", "/subjects/8", `{"name":"Cloud"}`)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = h.do(t, "PUT", "/subjects/zero", `{"name":"Cloud"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestInstructors(t *testing.T) {
	h, catalog := newCatalogHarness()

	status, out := h.do(t, "GET", "/instructors", "")
	require.Equal(t, fiber.StatusOK, status)
	first := out["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Synergetics", first["institution"].(map[string]interface{})["name"])

	status, out = h.do(t, "POST", "/instructors", `{"name":"Alan Kay","designation":"Professor","institution_id":4}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.EqualValues(t, 4, out["data"].(map[string]interface{})["institution_id"])

	// A missing institution is a bad reference, not a missing instructor.
	status, _ = h.do(t, "POST", "/instructors", `{"name":"Alan Kay","institution_id":99}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = h.do(t, "POST", "/instructors", `{"name":"Alan Kay","profile_image_url":"not a url"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = h.do(t, "DELETE", "/instructors/2", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []uint{2}, catalog.deleted)
}

func TestSignatories(t *testing.T) {
	h, _ := newCatalogHarness()

	status, out := h.do(t, "POST", "/programs/3/signatories", `{"name":"Grace Hopper","title":"Program Director"}`)
	require.Equal(t, fiber.StatusCreated, status)
	data := out["data"].(map[string]interface{})
	assert.EqualValues(t, 3, data["program_id"])
	assert.Equal(t, "Program Director", data["title"])

	status, _ = h.do(t, "POST", "/programs/4/signatories", `{"name":"Grace Hopper"}`)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = h.do(t, "POST", "/programs/3/signatories", `{"name":"Grace Hopper","institution_id":7}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = h.do(t, "DELETE", "/signatories/6", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}
