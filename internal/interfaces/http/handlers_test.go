package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qasimops/intellimaintain/internal/application/service"
	"github.com/qasimops/intellimaintain/internal/domain/entity"
	"github.com/qasimops/intellimaintain/internal/domain/workflow"
	"github.com/qasimops/intellimaintain/internal/report"
	"github.com/qasimops/intellimaintain/internal/repository"
)

type stubAnalyzer struct {
	analysis *entity.AIAnalysis
}

func (s *stubAnalyzer) Analyze(ctx context.Context, description string) *entity.AIAnalysis {
	if s.analysis != nil {
		return s.analysis
	}
	return &entity.AIAnalysis{
		Category:             entity.CategoryPlumbing,
		Priority:             entity.PriorityHigh,
		PotentialCause:       "Worn washer",
		RequiredTools:        []string{"Wrench"},
		TroubleshootingSteps: []string{"Shut off water supply."},
	}
}

// syncEmitter persists notifications inline so tests can read the feed
// without a running dispatcher.
type syncEmitter struct {
	repo *repository.MemoryNotificationRepository
}

func (e *syncEmitter) Enqueue(n *entity.Notification) bool {
	return e.repo.Create(context.Background(), n) == nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	requests := repository.NewMemoryRequestRepository()
	notifications := repository.NewMemoryNotificationRepository()
	directory := service.RoleDirectory{
		workflow.RoleReceiver: 1,
		workflow.RoleTech:     2,
		workflow.RoleManager:  3,
		workflow.RoleStore:    4,
		workflow.RoleQA:       5,
	}

	logger := nopLogger{}
	notificationService := service.NewNotificationService(
		notifications, &syncEmitter{repo: notifications}, directory, logger)
	lifecycleService := service.NewLifecycleService(
		requests, &stubAnalyzer{}, notificationService, logger)
	exporter := report.NewExporter("Pipeline", zap.NewNop())

	return NewServer(DefaultServerConfig(), lifecycleService, notificationService, exporter, logger)
}

func doJSON(t *testing.T, s *Server, method, path string, actor *service.Actor, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set(headerActorID, strconv.FormatInt(actor.UserID, 10))
		req.Header.Set(headerActorName, actor.Name)
		req.Header.Set(headerActorRole, actor.Role.String())
	}

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decodeRequest(t *testing.T, w *httptest.ResponseRecorder) *entity.MaintenanceRequest {
	t.Helper()

	var resp struct {
		Success bool                       `json:"success"`
		Data    *entity.MaintenanceRequest `json:"data"`
		Error   string                     `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success, "expected success, got error: %s", resp.Error)
	require.NotNil(t, resp.Data)
	return resp.Data
}

var (
	receiver = service.Actor{UserID: 1, Name: "Qasim", Role: workflow.RoleReceiver}
	tech     = service.Actor{UserID: 2, Name: "Jaleel", Role: workflow.RoleTech}
	manager  = service.Actor{UserID: 3, Name: "Sultan", Role: workflow.RoleManager}
	store    = service.Actor{UserID: 4, Name: "Sunish", Role: workflow.RoleStore}
	qa       = service.Actor{UserID: 5, Name: "Mariam", Role: workflow.RoleQA}
)

func createRequest(t *testing.T, s *Server) *entity.MaintenanceRequest {
	t.Helper()

	w := doJSON(t, s, http.MethodPost, "/api/requests", &receiver, CreateRequestBody{
		Building:    "B",
		Unit:        "204",
		Description: "Kitchen tap dripping constantly",
		TenantName:  "Fatima",
		TenantPhone: "+971501234567",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeRequest(t, w)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestCreateRequest(t *testing.T) {
	s := newTestServer(t)

	req := createRequest(t, s)
	assert.Equal(t, "REQ-0001", req.RequestNo)
	assert.Equal(t, workflow.StatePendingAssessment.String(), req.Status)
	assert.Equal(t, entity.PriorityHigh, req.Priority)
	require.Len(t, req.History, 1)
	assert.Contains(t, req.History[0].Text, "Qasim")
}

func TestCreateRequest_MissingFields(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/requests", &receiver, CreateRequestBody{
		Building: "B",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRequest_MissingActorHeaders(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/requests", nil, CreateRequestBody{
		Building: "B", Unit: "204", Description: "Broken lock",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "X-Actor-Role")
}

func TestCreateRequest_ForbiddenRole(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/requests", &tech, CreateRequestBody{
		Building: "B", Unit: "204", Description: "Broken lock",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetRequest_NotFound(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/requests/99", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLifecycle_HappyPath(t *testing.T) {
	s := newTestServer(t)
	req := createRequest(t, s)
	base := fmt.Sprintf("/api/requests/%d", req.ID)

	w := doJSON(t, s, http.MethodPost, base+"/assessment", &tech, AssessmentBody{
		LaborCost: 150,
		Materials: []entity.RequestMaterial{{Name: "Tap cartridge", Cost: 80}},
		Photos:    []string{"before.jpg"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assessed := decodeRequest(t, w)
	assert.Equal(t, workflow.StateAwaitingApproval.String(), assessed.Status)
	assert.Equal(t, 230.0, assessed.TotalCost)

	w = doJSON(t, s, http.MethodPost, base+"/authorize", &manager, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodPost, base+"/fulfill", &store, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodPost, base+"/collect", &tech, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodPost, base+"/audit", &tech, AuditBody{
		CompletionPhotos: []string{"after.jpg"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodPost, base+"/verify", &qa, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	closed := decodeRequest(t, w)
	assert.Equal(t, workflow.StateCompleted.String(), closed.Status)
	assert.Len(t, closed.History, 7)
	assert.Equal(t, 230.0, closed.TotalCost)
}

func TestReject_StoresFeedback(t *testing.T) {
	s := newTestServer(t)
	req := createRequest(t, s)
	base := fmt.Sprintf("/api/requests/%d", req.ID)

	w := doJSON(t, s, http.MethodPost, base+"/assessment", &tech, AssessmentBody{LaborCost: 500})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodPost, base+"/reject", &manager, RejectBody{Feedback: "Labor quote too high."})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rejected := decodeRequest(t, w)
	assert.Equal(t, workflow.StateRejected.String(), rejected.Status)
	assert.Equal(t, "Labor quote too high.", rejected.ManagerFeedback)
}

func TestTransition_WrongRoleIs403(t *testing.T) {
	s := newTestServer(t)
	req := createRequest(t, s)

	w := doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/requests/%d/authorize", req.ID), &manager, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestAudit_WithoutPhotosIs422(t *testing.T) {
	s := newTestServer(t)
	req := createRequest(t, s)
	base := fmt.Sprintf("/api/requests/%d", req.ID)

	doJSON(t, s, http.MethodPost, base+"/assessment", &tech, AssessmentBody{LaborCost: 100})
	doJSON(t, s, http.MethodPost, base+"/authorize", &manager, nil)
	doJSON(t, s, http.MethodPost, base+"/fulfill", &store, nil)
	doJSON(t, s, http.MethodPost, base+"/collect", &tech, nil)

	w := doJSON(t, s, http.MethodPost, base+"/audit", &tech, AuditBody{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRequestAudit_MalformedBodyIs400(t *testing.T) {
	s := newTestServer(t)
	req := createRequest(t, s)
	base := fmt.Sprintf("/api/requests/%d", req.ID)

	doJSON(t, s, http.MethodPost, base+"/assessment", &tech, AssessmentBody{LaborCost: 100})
	doJSON(t, s, http.MethodPost, base+"/authorize", &manager, nil)
	doJSON(t, s, http.MethodPost, base+"/fulfill", &store, nil)
	doJSON(t, s, http.MethodPost, base+"/collect", &tech, nil)

	r := httptest.NewRequest(http.MethodPost, base+"/audit", strings.NewReader(`{"completion_photos": [`))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set(headerActorID, "2")
	r.Header.Set(headerActorName, tech.Name)
	r.Header.Set(headerActorRole, tech.Role.String())

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	// an absent body is not malformed, the photo precondition handles it
	w = doJSON(t, s, http.MethodPost, base+"/audit", &tech, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
}

func TestListRequests_FilterByStatus(t *testing.T) {
	s := newTestServer(t)
	createRequest(t, s)
	createRequest(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/requests?status=Pending+Assessment", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []*entity.MaintenanceRequest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)

	w = doJSON(t, s, http.MethodGet, "/api/requests?status=Nonsense", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotifications_FeedAndMarkRead(t *testing.T) {
	s := newTestServer(t)
	createRequest(t, s)

	// creation notifies the Tech (user 2)
	w := doJSON(t, s, http.MethodGet, "/api/notifications?user_id=2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []*entity.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Job Assigned", resp.Data[0].Title)
	assert.False(t, resp.Data[0].Read)

	w = doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", resp.Data[0].ID), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/notifications?user_id=2", nil, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.True(t, resp.Data[0].Read)
}

func TestExportPipeline(t *testing.T) {
	s := newTestServer(t)
	createRequest(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/reports/pipeline", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotEmpty(t, w.Body.Bytes())
}
