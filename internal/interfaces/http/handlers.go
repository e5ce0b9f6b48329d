package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qasimops/intellimaintain/internal/application/port"
	"github.com/qasimops/intellimaintain/internal/application/service"
	"github.com/qasimops/intellimaintain/internal/domain/entity"
	"github.com/qasimops/intellimaintain/internal/domain/workflow"
	"github.com/qasimops/intellimaintain/internal/report"
)

// Actor headers identify who is performing the operation. Authentication
// itself lives upstream; these carry the already-established identity.
const (
	headerActorID   = "X-Actor-Id"
	headerActorName = "X-Actor-Name"
	headerActorRole = "X-Actor-Role"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	lifecycleService    service.LifecycleService
	notificationService service.NotificationService
	exporter            *report.Exporter
	logger              Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	lifecycleService service.LifecycleService,
	notificationService service.NotificationService,
	exporter *report.Exporter,
	logger Logger,
) *Handlers {
	return &Handlers{
		lifecycleService:    lifecycleService,
		notificationService: notificationService,
		exporter:            exporter,
		logger:              logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// CreateRequestBody is the intake payload for a new request
type CreateRequestBody struct {
	Building    string `json:"building" binding:"required"`
	Unit        string `json:"unit" binding:"required"`
	Description string `json:"description" binding:"required"`
	TenantName  string `json:"tenant_name"`
	TenantPhone string `json:"tenant_phone"`
}

// AssessmentBody is the Tech's cost estimate submission
type AssessmentBody struct {
	LaborCost float64                  `json:"labor_cost"`
	Materials []entity.RequestMaterial `json:"materials"`
	Photos    []string                 `json:"photos"`
}

// RejectBody carries the manager's optional feedback note
type RejectBody struct {
	Feedback string `json:"feedback"`
}

// AuditBody carries the completion evidence
type AuditBody struct {
	CompletionPhotos []string `json:"completion_photos"`
}

// ListRequestsQuery represents query parameters for listing requests
type ListRequestsQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// CreateRequest handles POST /api/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.logger.Error("Invalid create payload", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "building, unit and description are required",
		})
		return
	}

	req, err := h.lifecycleService.CreateRequest(c.Request.Context(), actor, service.CreateRequestInput{
		Building:    body.Building,
		Unit:        body.Unit,
		Description: body.Description,
		TenantName:  body.TenantName,
		TenantPhone: body.TenantPhone,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    req,
	})
}

// ListRequests handles GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	var query ListRequestsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	// Set defaults
	if query.Limit <= 0 || query.Limit > 100 {
		query.Limit = 20
	}
	if query.Offset < 0 {
		query.Offset = 0
	}
	if query.Status != "" && !workflow.State(query.Status).IsValid() {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   fmt.Sprintf("unknown status %q", query.Status),
		})
		return
	}

	requests, err := h.lifecycleService.ListRequests(c.Request.Context(), query.Status, query.Limit, query.Offset)
	if err != nil {
		h.logger.Error("Failed to list requests", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve requests",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    requests,
	})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	req, err := h.lifecycleService.GetRequest(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    req,
	})
}

// GetHistory handles GET /api/requests/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	history, err := h.lifecycleService.GetHistory(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    history,
	})
}

// SubmitAssessment handles POST /api/requests/:id/assessment
func (h *Handlers) SubmitAssessment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	var body AssessmentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.logger.Error("Invalid assessment payload", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid assessment payload",
		})
		return
	}

	req, err := h.lifecycleService.SubmitAssessment(c.Request.Context(), actor, id, service.AssessmentInput{
		LaborCost: body.LaborCost,
		Materials: body.Materials,
		Photos:    body.Photos,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    req,
	})
}

// Authorize handles POST /api/requests/:id/authorize
func (h *Handlers) Authorize(c *gin.Context) {
	h.fireTransition(c, func(actor service.Actor, id int64) (*entity.MaintenanceRequest, error) {
		return h.lifecycleService.Authorize(c.Request.Context(), actor, id)
	})
}

// Reject handles POST /api/requests/:id/reject
func (h *Handlers) Reject(c *gin.Context) {
	var body RejectBody
	// feedback is optional: an absent or even malformed body still rejects,
	// it just carries no note
	_ = c.ShouldBindJSON(&body)

	h.fireTransition(c, func(actor service.Actor, id int64) (*entity.MaintenanceRequest, error) {
		return h.lifecycleService.Reject(c.Request.Context(), actor, id, body.Feedback)
	})
}

// Fulfill handles POST /api/requests/:id/fulfill
func (h *Handlers) Fulfill(c *gin.Context) {
	h.fireTransition(c, func(actor service.Actor, id int64) (*entity.MaintenanceRequest, error) {
		return h.lifecycleService.Fulfill(c.Request.Context(), actor, id)
	})
}

// ConfirmCollection handles POST /api/requests/:id/collect
func (h *Handlers) ConfirmCollection(c *gin.Context) {
	h.fireTransition(c, func(actor service.Actor, id int64) (*entity.MaintenanceRequest, error) {
		return h.lifecycleService.ConfirmCollection(c.Request.Context(), actor, id)
	})
}

// RequestAudit handles POST /api/requests/:id/audit
func (h *Handlers) RequestAudit(c *gin.Context) {
	var body AuditBody
	// an absent body means no photos (the precondition rejects that later);
	// a malformed one is the caller's error
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Error("Invalid audit payload", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid audit payload",
		})
		return
	}

	h.fireTransition(c, func(actor service.Actor, id int64) (*entity.MaintenanceRequest, error) {
		return h.lifecycleService.RequestAudit(c.Request.Context(), actor, id, body.CompletionPhotos)
	})
}

// ApproveAndClose handles POST /api/requests/:id/verify
func (h *Handlers) ApproveAndClose(c *gin.Context) {
	h.fireTransition(c, func(actor service.Actor, id int64) (*entity.MaintenanceRequest, error) {
		return h.lifecycleService.ApproveAndClose(c.Request.Context(), actor, id)
	})
}

// FailAudit handles POST /api/requests/:id/fail-audit
func (h *Handlers) FailAudit(c *gin.Context) {
	h.fireTransition(c, func(actor service.Actor, id int64) (*entity.MaintenanceRequest, error) {
		return h.lifecycleService.FailAudit(c.Request.Context(), actor, id)
	})
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	userIDStr := c.Query("user_id")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "user_id query parameter is required",
		})
		return
	}

	notifications, err := h.notificationService.Feed(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list notifications", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve notifications",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    notifications,
	})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid notification ID",
		})
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// ExportPipeline handles GET /api/reports/pipeline
func (h *Handlers) ExportPipeline(c *gin.Context) {
	requests, err := h.lifecycleService.ListRequests(c.Request.Context(), "", 1000, 0)
	if err != nil {
		h.logger.Error("Failed to load pipeline for export", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to load pipeline",
		})
		return
	}

	data, err := h.exporter.Export(requests)
	if err != nil {
		h.logger.Error("Pipeline export failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "export failed",
		})
		return
	}

	filename := fmt.Sprintf("pipeline-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// fireTransition runs a payload-free lifecycle transition handler
func (h *Handlers) fireTransition(c *gin.Context, fire func(service.Actor, int64) (*entity.MaintenanceRequest, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	req, err := fire(actor, id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    req,
	})
}

// actor extracts the acting identity from the request headers
func (h *Handlers) actor(c *gin.Context) (service.Actor, bool) {
	role := workflow.Role(c.GetHeader(headerActorRole))
	if !role.IsValid() {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "X-Actor-Role header is missing or unknown",
		})
		return service.Actor{}, false
	}

	userID, err := strconv.ParseInt(c.GetHeader(headerActorID), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "X-Actor-Id header is missing or invalid",
		})
		return service.Actor{}, false
	}

	name := c.GetHeader(headerActorName)
	if name == "" {
		name = fmt.Sprintf("User %d", userID)
	}

	return service.Actor{UserID: userID, Name: name, Role: role}, true
}

// requestID parses the :id path parameter
func (h *Handlers) requestID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request ID",
		})
		return 0, false
	}
	return id, true
}

// writeError maps service errors onto HTTP status codes
func (h *Handlers) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, port.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrForbiddenTransition):
		status = http.StatusForbidden
	case errors.Is(err, workflow.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, workflow.ErrPreconditionFailed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request handling failed", "path", c.FullPath(), "error", err)
		c.JSON(status, Response{Success: false, Error: "internal error"})
		return
	}

	c.JSON(status, Response{Success: false, Error: err.Error()})
}
