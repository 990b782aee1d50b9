package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence/file"
	"github.com/dukex/leadflow/pkg/services"
	"github.com/dukex/leadflow/pkg/web"
	"github.com/dukex/leadflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScanner struct {
	fired int
	err   error
}

func (s *stubScanner) ScanAndFire(context.Context) (int, error) {
	return s.fired, s.err
}

func setupTestApp(t *testing.T, scanner web.Scanner) *fiber.App {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	persistence := file.NewPersistence(t.TempDir())

	executor := workflow.NewExecutor(logger, persistence)
	dispatcher := workflow.NewDispatcher(logger, persistence.WorkflowRepository(), executor)

	if scanner == nil {
		scanner = workflow.NewInactivityScanner(logger, persistence.LeadRepository(), dispatcher, workflow.DefaultInactivityWindow)
	}

	handlers := web.NewAPIHandlers(
		services.NewLead(persistence, dispatcher),
		services.NewClient(persistence),
		services.NewActivity(persistence),
		services.NewWorkflow(persistence),
		scanner,
		validator.New(validator.WithRequiredStructEnabled()),
	)

	app := fiber.New()
	handlers.RegisterRoutes(app)

	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader

	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		encoded, err := json.Marshal(b)
		require.NoError(t, err)

		reader = bytes.NewBuffer(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, payload
}

func problemType(t *testing.T, body []byte) string {
	t.Helper()

	var problem map[string]any
	require.NoError(t, json.Unmarshal(body, &problem))

	kind, _ := problem["type"].(string)

	return kind
}

func createLead(t *testing.T, app *fiber.App, request web.LeadRequest) models.Lead {
	t.Helper()

	status, body := doRequest(t, app, http.MethodPost, "/leads", request)
	require.Equal(t, http.StatusCreated, status, string(body))

	var lead models.Lead
	require.NoError(t, json.Unmarshal(body, &lead))

	return lead
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)

	status, body := doRequest(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"status":"healthy"`)
}

func TestAPIHandlers_CreateLead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
	}{
		{
			name:           "successful creation",
			requestBody:    web.LeadRequest{Name: "Acme", Email: "ops@acme.test", Source: "website"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "validation error - missing name",
			requestBody:    web.LeadRequest{Email: "ops@acme.test"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "validation error - missing email",
			requestBody:    web.LeadRequest{Name: "Acme"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid-json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := setupTestApp(t, nil)

			status, body := doRequest(t, app, http.MethodPost, "/leads", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, status, string(body))

			if status == http.StatusBadRequest {
				assert.Equal(t, "validation_error", problemType(t, body))
			}
		})
	}
}

func TestAPIHandlers_LeadCRUD(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)

	lead := createLead(t, app, web.LeadRequest{Name: "Acme", Email: "ops@acme.test", Source: "website"})
	assert.Equal(t, models.LeadStatusNew, lead.Status)

	path := "/leads/" + strconv.FormatInt(lead.ID, 10)

	status, body := doRequest(t, app, http.MethodPut, path,
		web.LeadRequest{Name: "Acme", Email: "ops@acme.test", Status: "qualified"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"status":"qualified"`)

	status, body = doRequest(t, app, http.MethodGet, "/leads?status=qualified", nil)
	require.Equal(t, http.StatusOK, status)

	var leads []models.Lead
	require.NoError(t, json.Unmarshal(body, &leads))
	assert.Len(t, leads, 1)

	status, _ = doRequest(t, app, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = doRequest(t, app, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "lead_not_found", problemType(t, body))

	status, _ = doRequest(t, app, http.MethodGet, "/leads/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPIHandlers_WorkflowRunsOnLeadCreated(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)

	status, body := doRequest(t, app, http.MethodPost, "/workflows", map[string]any{
		"trigger_event": "lead_created",
		"conditions": []any{
			map[string]any{"field": "source", "operator": "equals", "value": "website"},
		},
		"actions": []any{
			map[string]any{"type": "update_status", "status": "contacted"},
			map[string]any{"type": "create_activity", "activity_type": "note", "summary": "Welcome {{name}}"},
		},
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	lead := createLead(t, app, web.LeadRequest{Name: "Acme", Email: "ops@acme.test", Source: "website"})
	other := createLead(t, app, web.LeadRequest{Name: "Globex", Email: "hi@globex.test", Source: "referral"})

	status, body = doRequest(t, app, http.MethodGet, "/leads/"+strconv.FormatInt(lead.ID, 10), nil)
	require.Equal(t, http.StatusOK, status)

	var stored models.Lead
	require.NoError(t, json.Unmarshal(body, &stored))
	assert.Equal(t, "contacted", stored.Status)

	status, body = doRequest(t, app, http.MethodGet, "/activities?parent_type=lead&parent_id="+strconv.FormatInt(lead.ID, 10), nil)
	require.Equal(t, http.StatusOK, status)

	var activities []models.Activity
	require.NoError(t, json.Unmarshal(body, &activities))
	require.Len(t, activities, 1)
	assert.Equal(t, "Welcome Acme", activities[0].Summary)

	status, body = doRequest(t, app, http.MethodGet, "/leads/"+strconv.FormatInt(other.ID, 10), nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &stored))
	assert.Equal(t, models.LeadStatusNew, stored.Status)
}

func TestAPIHandlers_ConvertLead(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)

	lead := createLead(t, app, web.LeadRequest{Name: "Acme", Company: "Acme Inc", Email: "ops@acme.test"})
	path := "/leads/" + strconv.FormatInt(lead.ID, 10) + "/convert"

	status, body := doRequest(t, app, http.MethodPost, path, nil)
	require.Equal(t, http.StatusCreated, status, string(body))

	var client models.Client
	require.NoError(t, json.Unmarshal(body, &client))
	assert.Equal(t, "Acme Inc", client.Company)
	require.NotNil(t, client.ConvertedFromLeadID)
	assert.Equal(t, lead.ID, *client.ConvertedFromLeadID)

	status, body = doRequest(t, app, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "already converted")

	status, _ = doRequest(t, app, http.MethodPost, "/leads/999/convert", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = doRequest(t, app, http.MethodGet, "/clients/"+strconv.FormatInt(client.ID, 10), nil)
	assert.Equal(t, http.StatusOK, status, string(body))
}

func TestAPIHandlers_ClientCRUD(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)

	status, body := doRequest(t, app, http.MethodPost, "/clients", web.ClientRequest{Name: "Initech", Email: "bill@initech.test"})
	require.Equal(t, http.StatusCreated, status, string(body))

	var client models.Client
	require.NoError(t, json.Unmarshal(body, &client))

	path := "/clients/" + strconv.FormatInt(client.ID, 10)

	status, _ = doRequest(t, app, http.MethodPut, path, web.ClientRequest{Name: "Initech"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = doRequest(t, app, http.MethodPut, path, web.ClientRequest{Name: "Initech LLC", Email: "bill@initech.test"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "Initech LLC")

	status, body = doRequest(t, app, http.MethodGet, "/clients?search=llc", nil)
	require.Equal(t, http.StatusOK, status)

	var clients []models.Client
	require.NoError(t, json.Unmarshal(body, &clients))
	assert.Len(t, clients, 1)

	status, _ = doRequest(t, app, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = doRequest(t, app, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "client_not_found", problemType(t, body))
}

func TestAPIHandlers_Activities(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)

	lead := createLead(t, app, web.LeadRequest{Name: "Acme", Email: "ops@acme.test"})

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
	}{
		{
			name:           "successful creation",
			requestBody:    web.CreateActivityRequest{ParentType: "lead", ParentID: lead.ID, Type: "call", Summary: "intro"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid parent type",
			requestBody:    web.CreateActivityRequest{ParentType: "deal", ParentID: lead.ID, Type: "call"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing type",
			requestBody:    web.CreateActivityRequest{ParentType: "lead", ParentID: lead.ID},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown parent",
			requestBody:    web.CreateActivityRequest{ParentType: "client", ParentID: 42, Type: "call"},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		status, body := doRequest(t, app, http.MethodPost, "/activities", tt.requestBody)
		assert.Equal(t, tt.expectedStatus, status, tt.name+": "+string(body))
	}

	status, body := doRequest(t, app, http.MethodGet, "/activities?type=call", nil)
	require.Equal(t, http.StatusOK, status)

	var activities []models.Activity
	require.NoError(t, json.Unmarshal(body, &activities))
	require.Len(t, activities, 1)

	status, _ = doRequest(t, app, http.MethodDelete, "/activities/"+strconv.FormatInt(activities[0].ID, 10), nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = doRequest(t, app, http.MethodGet, "/activities?parent_type=deal", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, app, http.MethodGet, "/activities?parent_id=x", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPIHandlers_WorkflowAdmin(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)

	status, body := doRequest(t, app, http.MethodPost, "/workflows", map[string]any{
		"trigger_event": "status_updated",
		"actions":       []any{map[string]any{"type": "auto_convert"}},
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	var created models.Workflow
	require.NoError(t, json.Unmarshal(body, &created))
	assert.True(t, created.IsActive)

	path := "/workflows/" + created.ID

	status, body = doRequest(t, app, http.MethodPut, path, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, status, string(body))

	var updated models.Workflow
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.False(t, updated.IsActive)
	assert.Equal(t, models.Actions{models.AutoConvert{}}, updated.Actions)

	status, body = doRequest(t, app, http.MethodGet, "/workflows?is_active=false", nil)
	require.Equal(t, http.StatusOK, status)

	var workflows []models.Workflow
	require.NoError(t, json.Unmarshal(body, &workflows))
	assert.Len(t, workflows, 1)

	status, _ = doRequest(t, app, http.MethodGet, "/workflows?is_active=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = doRequest(t, app, http.MethodPost, "/workflows", map[string]any{
		"trigger_event": "lead_created",
		"actions":       []any{},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "at least one action")

	status, _ = doRequest(t, app, http.MethodPost, "/workflows", "invalid-json")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, app, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = doRequest(t, app, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "workflow_not_found", problemType(t, body))
}

func TestAPIHandlers_ScanInactive(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, &stubScanner{fired: 3})

	status, body := doRequest(t, app, http.MethodPost, "/workflows/scan-inactive", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"fired":3}`, string(body))

	app = setupTestApp(t, &stubScanner{err: errors.New("store offline")})

	status, body = doRequest(t, app, http.MethodPost, "/workflows/scan-inactive", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", problemType(t, body))
}

func TestAPIHandlers_ScanInactiveFiresForIdleLeads(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil)

	status, body := doRequest(t, app, http.MethodPost, "/workflows", map[string]any{
		"trigger_event": "no_activity_7_days",
		"actions":       []any{map[string]any{"type": "update_status", "status": "stale"}},
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	lead := createLead(t, app, web.LeadRequest{Name: "Acme", Email: "ops@acme.test"})

	status, body = doRequest(t, app, http.MethodPost, "/workflows/scan-inactive", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"fired":1}`, string(body))

	status, body = doRequest(t, app, http.MethodGet, "/leads/"+strconv.FormatInt(lead.ID, 10), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"status":"stale"`)
}
