package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfoxhq/DocFox/app/models"
	"github.com/docfoxhq/DocFox/internal/pkg/conversion"
	"github.com/docfoxhq/DocFox/internal/pkg/usage"
	"github.com/docfoxhq/DocFox/internal/pkg/usercontext"
)

type stubDocs struct {
	docs map[string]models.Document
}

func (r *stubDocs) Create(*models.Document) error              { return nil }
func (r *stubDocs) GetByID(uint) (*models.Document, error)     { return nil, nil }
func (r *stubDocs) GetByUUID(string) (*models.Document, error) { return nil, nil }
func (r *stubDocs) GetByUUIDForUser(string, uint) (*models.Document, error) {
	return nil, nil
}

func (r *stubDocs) GetByUUIDsForUser(uuids []string, userID uint) ([]models.Document, error) {
	var out []models.Document
	for _, u := range uuids {
		if d, ok := r.docs[u]; ok && d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *stubDocs) Update(*models.Document) error                          { return nil }
func (r *stubDocs) UpdateStatus(uint, string, string) error                { return nil }
func (r *stubDocs) SetConvertedFormat(uint, string) error                  { return nil }
func (r *stubDocs) ListByUserID(uint, int, int) ([]models.Document, error) { return nil, nil }
func (r *stubDocs) StorageBytesByUserID(uint) (int64, error)               { return 0, nil }

type stubUsers struct {
	user *models.User
}

func (r *stubUsers) Create(*models.User) error { return nil }
func (r *stubUsers) GetByID(id uint) (*models.User, error) {
	if r.user != nil && r.user.ID == id {
		return r.user, nil
	}
	return nil, fmt.Errorf("record not found")
}
func (r *stubUsers) GetByEmail(string) (*models.User, error)           { return nil, nil }
func (r *stubUsers) GetByActivationToken(string) (*models.User, error) { return nil, nil }
func (r *stubUsers) GetByResetToken(string) (*models.User, error)      { return nil, nil }
func (r *stubUsers) GetByAPIKeyHash(string) (*models.User, error)      { return nil, nil }
func (r *stubUsers) Update(*models.User) error                         { return nil }
func (r *stubUsers) UpdateSubscription(uint, string, string) error     { return nil }

type stubMirror struct {
	statuses map[string]string
}

func statusKey(userID uint, jobUUID string) string {
	return fmt.Sprintf("%d/%s", userID, jobUUID)
}

func (m *stubMirror) SetJobStatus(_ context.Context, userID uint, jobUUID, status string) error {
	m.statuses[statusKey(userID, jobUUID)] = status
	return nil
}

func (m *stubMirror) GetJobStatus(_ context.Context, userID uint, jobUUID string) (string, error) {
	return m.statuses[statusKey(userID, jobUUID)], nil
}

func (m *stubMirror) AddProcessingDeadline(context.Context, string, time.Time) error { return nil }
func (m *stubMirror) RemoveProcessingDeadline(context.Context, string) error         { return nil }
func (m *stubMirror) DueProcessingJobs(context.Context, time.Time, int) ([]string, error) {
	return nil, nil
}

// asyncBackend accepts every dispatch; the job stays processing until the
// engine calls back.
type asyncBackend struct{}

func (asyncBackend) Dispatch(context.Context, conversion.DispatchRequest) (*conversion.Result, error) {
	return nil, nil
}

func sessionUser() *models.User {
	return &models.User{
		ID:                 7,
		Name:               "tester",
		Status:             models.STATUS_ACTIVE,
		SubscriptionTier:   "free",
		SubscriptionStatus: "active",
	}
}

func newConversionApp(jobs *stubJobs, docs *stubDocs, mirror *stubMirror, loggedIn bool) *fiber.App {
	user := sessionUser()
	users := &stubUsers{user: user}
	var statusMirror conversion.StatusMirror
	if mirror != nil {
		statusMirror = mirror
	}
	manager := conversion.NewManager(conversion.ManagerConfig{
		Jobs:            jobs,
		Docs:            docs,
		Users:           users,
		Ledger:          usage.NewLedger(&stubPeriods{}),
		Mirror:          statusMirror,
		Backend:         asyncBackend{},
		CallbackBaseURL: "http://localhost:8080",
	})
	ctrl := NewConversionController(manager, users, testCallbackSecret)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if loggedIn {
			usercontext.SetUserContext(c, usercontext.UserContext{
				UserID:     user.ID,
				Username:   user.Name,
				IsLoggedIn: true,
			})
		}
		return c.Next()
	})
	app.Post("/api/v1/conversions", ctrl.HandleCreate)
	app.Get("/api/v1/conversions/:uuid", ctrl.HandleGet)
	app.Get("/api/v1/conversions/:uuid/status", ctrl.HandleGetStatus)
	return app
}

func ownedPdfDoc() models.Document {
	return models.Document{
		ID:             1,
		UUID:           "doc-1",
		UserID:         7,
		OriginalFormat: "pdf",
		StoragePath:    "docs/7/doc-1.pdf",
		Status:         models.DocumentStatusPending,
	}
}

func TestCreateRespondsOKWithPendingJob(t *testing.T) {
	jobs := &stubJobs{jobs: make(map[string]*models.ConversionJob)}
	docs := &stubDocs{docs: map[string]models.Document{"doc-1": ownedPdfDoc()}}
	app := newConversionApp(jobs, docs, nil, true)

	body := `{"type":"convert","output_format":"docx","document_uuids":["doc-1"]}`
	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/conversions", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, models.JobStatusPending, out["status"])
	assert.NotEmpty(t, out["uuid"])
}

func TestCreateRequiresLogin(t *testing.T) {
	jobs := &stubJobs{jobs: make(map[string]*models.ConversionJob)}
	docs := &stubDocs{docs: map[string]models.Document{}}
	app := newConversionApp(jobs, docs, nil, false)

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/conversions", strings.NewReader(`{}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestStatusEndpointServesFromMirror(t *testing.T) {
	job := processingJob("job-1")
	jobs := &stubJobs{jobs: map[string]*models.ConversionJob{"job-1": job}}
	mirror := &stubMirror{statuses: map[string]string{statusKey(7, "job-1"): models.JobStatusProcessing}}
	app := newConversionApp(jobs, &stubDocs{}, mirror, true)

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/conversions/job-1/status", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]string
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "job-1", out["uuid"])
	assert.Equal(t, models.JobStatusProcessing, out["status"])
}

func TestStatusEndpointFallsBackToDatabase(t *testing.T) {
	job := processingJob("job-1")
	jobs := &stubJobs{jobs: map[string]*models.ConversionJob{"job-1": job}}
	mirror := &stubMirror{statuses: map[string]string{}}
	app := newConversionApp(jobs, &stubDocs{}, mirror, true)

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/conversions/job-1/status", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), models.JobStatusProcessing)
}

// The status of a job owned by another user reads as missing even when its
// mirror entry exists for the owner.
func TestStatusEndpointScopesToOwner(t *testing.T) {
	job := processingJob("job-1")
	job.UserID = 99
	jobs := &stubJobs{jobs: map[string]*models.ConversionJob{"job-1": job}}
	mirror := &stubMirror{statuses: map[string]string{statusKey(99, "job-1"): models.JobStatusProcessing}}
	app := newConversionApp(jobs, &stubDocs{}, mirror, true)

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/conversions/job-1/status", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
