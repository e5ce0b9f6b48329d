package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/qasimops/intellimaintain/internal/application/port"
	"github.com/qasimops/intellimaintain/internal/domain/costing"
	"github.com/qasimops/intellimaintain/internal/domain/entity"
	"github.com/qasimops/intellimaintain/internal/domain/workflow"
	"github.com/qasimops/intellimaintain/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ErrValidation is returned for malformed input before any side effect
var ErrValidation = errors.New("validation failed")

// Actor identifies who is performing an operation
type Actor struct {
	UserID int64
	Name   string
	Role   workflow.Role
}

// CreateRequestInput is the intake payload for a new request
type CreateRequestInput struct {
	Building    string
	Unit        string
	Description string
	TenantName  string
	TenantPhone string
}

// AssessmentInput is the Tech's cost estimate submission
type AssessmentInput struct {
	LaborCost float64
	Materials []entity.RequestMaterial
	Photos    []string
}

// LifecycleService drives every status transition of a maintenance
// request: it validates role and state, mutates the aggregate, appends
// history atomically with the mutation and emits notifications afterwards.
type LifecycleService interface {
	CreateRequest(ctx context.Context, actor Actor, in CreateRequestInput) (*entity.MaintenanceRequest, error)
	SubmitAssessment(ctx context.Context, actor Actor, requestID int64, in AssessmentInput) (*entity.MaintenanceRequest, error)
	Authorize(ctx context.Context, actor Actor, requestID int64) (*entity.MaintenanceRequest, error)
	Reject(ctx context.Context, actor Actor, requestID int64, feedback string) (*entity.MaintenanceRequest, error)
	Fulfill(ctx context.Context, actor Actor, requestID int64) (*entity.MaintenanceRequest, error)
	ConfirmCollection(ctx context.Context, actor Actor, requestID int64) (*entity.MaintenanceRequest, error)
	RequestAudit(ctx context.Context, actor Actor, requestID int64, completionPhotos []string) (*entity.MaintenanceRequest, error)
	ApproveAndClose(ctx context.Context, actor Actor, requestID int64) (*entity.MaintenanceRequest, error)
	FailAudit(ctx context.Context, actor Actor, requestID int64) (*entity.MaintenanceRequest, error)

	GetRequest(ctx context.Context, requestID int64) (*entity.MaintenanceRequest, error)
	ListRequests(ctx context.Context, status string, limit, offset int) ([]*entity.MaintenanceRequest, error)
	GetHistory(ctx context.Context, requestID int64) ([]entity.HistoryEntry, error)
}

type lifecycleServiceImpl struct {
	requests  port.RequestRepository
	analyzer  port.Analyzer
	notifier  port.Notifier
	lifecycle workflow.Builder
	locks     *requestLocks
	logger    Logger
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(
	requests port.RequestRepository,
	analyzer port.Analyzer,
	notifier port.Notifier,
	logger Logger,
) LifecycleService {
	return &lifecycleServiceImpl{
		requests:  requests,
		analyzer:  analyzer,
		notifier:  notifier,
		lifecycle: workflow.NewLifecycle(),
		locks:     newRequestLocks(),
		logger:    logger,
	}
}

// CreateRequest registers a new request. It is always born in Pending
// Assessment with exactly one history entry; the AI classification is
// advisory and never blocks creation.
func (s *lifecycleServiceImpl) CreateRequest(ctx context.Context, actor Actor, in CreateRequestInput) (*entity.MaintenanceRequest, error) {
	if !workflow.CanCreate(actor.Role) {
		return nil, fmt.Errorf("%w: role %s cannot create requests", workflow.ErrForbiddenTransition, actor.Role)
	}
	if strings.TrimSpace(in.Building) == "" || strings.TrimSpace(in.Unit) == "" || strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: building, unit and description are required", ErrValidation)
	}
	if strings.TrimSpace(in.TenantPhone) != "" {
		if err := utils.ValidatePhone(strings.TrimSpace(in.TenantPhone)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	analysis := s.analyzer.Analyze(ctx, in.Description)
	priority := entity.PriorityMedium
	if analysis != nil && entity.ValidPriority(analysis.Priority) {
		priority = analysis.Priority
	}
	analysisJSON, _ := json.Marshal(analysis)

	now := time.Now()
	req := &entity.MaintenanceRequest{
		Building:           in.Building,
		Unit:               in.Unit,
		Description:        in.Description,
		TenantName:         orDefault(in.TenantName, "N/A"),
		TenantPhone:        orDefault(in.TenantPhone, "N/A"),
		Status:             workflow.StatePendingAssessment.String(),
		Priority:           priority,
		CreatedBy:          actor.Name,
		CreatedByID:        actor.UserID,
		MaterialsRequested: []entity.RequestMaterial{},
		AssessmentPhotos:   []string{},
		CompletionPhotos:   []string{},
		AIAnalysis:         string(analysisJSON),
		History: []entity.HistoryEntry{
			{Text: fmt.Sprintf("New request created by %s. Needs assessment.", actor.Name), CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.requests.Create(ctx, req); err != nil {
		s.logger.Error("Failed to create request", "error", err, "building", in.Building, "unit", in.Unit)
		return nil, err
	}

	s.logger.Info("Request created",
		"id", req.ID, "request_no", req.RequestNo, "priority", req.Priority)
	s.notifier.NotifyRole(ctx, workflow.RoleTech, "Job Assigned",
		fmt.Sprintf("Action Required: Technical survey for unit %s in %s", req.Unit, req.Building))
	return req, nil
}

// SubmitAssessment writes the Tech's cost estimate through the cost ledger
// and moves the request to Awaiting Approval.
func (s *lifecycleServiceImpl) SubmitAssessment(ctx context.Context, actor Actor, requestID int64, in AssessmentInput) (*entity.MaintenanceRequest, error) {
	ledger := costing.NewLedger()
	for _, m := range in.Materials {
		if err := ledger.AddMaterial(m.Name, m.Cost); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	text := fmt.Sprintf("%s: Assessment submitted. Labor: %.0f AED, Materials: %.0f AED.",
		actor.Name, in.LaborCost, ledger.StagedTotal())

	req, err := s.transition(ctx, actor, requestID, workflow.ActionSubmitAssessment, text,
		func(r *entity.MaintenanceRequest) error {
			if err := costing.Commit(r, in.LaborCost, ledger.Staged(), in.Photos); err != nil {
				if errors.Is(err, costing.ErrInvalidAmount) {
					return fmt.Errorf("%w: %v", ErrValidation, err)
				}
				return err
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyRole(ctx, workflow.RoleManager, "Approval Required",
		fmt.Sprintf("%s: cost estimate of %.0f AED awaits your approval", req.RequestNo, req.TotalCost))
	return req, nil
}

// Authorize is the Manager's approval of the assessed costs.
func (s *lifecycleServiceImpl) Authorize(ctx context.Context, actor Actor, requestID int64) (*entity.MaintenanceRequest, error) {
	text := fmt.Sprintf("%s: Authorized. Procurement initiated.", actor.Name)
	req, err := s.transition(ctx, actor, requestID, workflow.ActionAuthorize, text, nil)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyRole(ctx, workflow.RoleStore, "Procurement Approved",
		fmt.Sprintf("%s: prepare materials for collection", req.RequestNo))
	return req, nil
}

// Reject terminates the request with an optional feedback note.
func (s *lifecycleServiceImpl) Reject(ctx context.Context, actor Actor, requestID int64, feedback string) (*entity.MaintenanceRequest, error) {
	text := fmt.Sprintf("%s: Request rejected.", actor.Name)
	if strings.TrimSpace(feedback) != "" {
		text = fmt.Sprintf("%s: Request rejected. %s", actor.Name, strings.TrimSpace(feedback))
	}

	req, err := s.transition(ctx, actor, requestID, workflow.ActionReject, text,
		func(r *entity.MaintenanceRequest) error {
			r.ManagerFeedback = strings.TrimSpace(feedback)
			return nil
		})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyRole(ctx, workflow.RoleReceiver, "Request Rejected",
		fmt.Sprintf("%s was rejected by the manager", req.RequestNo))
	return req, nil
}

// Fulfill marks the requested materials as prepared by the Store.
func (s *lifecycleServiceImpl) Fulfill(ctx context.Context, actor Actor, requestID int64) (*entity.MaintenanceRequest, error) {
	text := fmt.Sprintf("%s: Order fulfillment complete. Materials ready for pickup.", actor.Name)
	req, err := s.transition(ctx, actor, requestID, workflow.ActionFulfill, text, nil)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyRole(ctx, workflow.RoleTech, "Materials Ready",
		fmt.Sprintf("%s: materials are ready for collection", req.RequestNo))
	return req, nil
}

// ConfirmCollection records the Tech picking up materials and starting work.
func (s *lifecycleServiceImpl) ConfirmCollection(ctx context.Context, actor Actor, requestID int64) (*entity.MaintenanceRequest, error) {
	text := fmt.Sprintf("%s: Collected materials. Work is now active on site.", actor.Name)
	return s.transition(ctx, actor, requestID, workflow.ActionConfirmCollection, text, nil)
}

// RequestAudit submits completion evidence and asks QA for verification.
// Non-empty completion photos are a hard precondition.
func (s *lifecycleServiceImpl) RequestAudit(ctx context.Context, actor Actor, requestID int64, completionPhotos []string) (*entity.MaintenanceRequest, error) {
	text := fmt.Sprintf("%s: Repair finished. Quality audit requested.", actor.Name)
	req, err := s.transition(ctx, actor, requestID, workflow.ActionRequestAudit, text,
		func(r *entity.MaintenanceRequest) error {
			if len(completionPhotos) == 0 {
				return fmt.Errorf("%w: completion photos are required before verification", workflow.ErrPreconditionFailed)
			}
			r.CompletionPhotos = append([]string(nil), completionPhotos...)
			return nil
		})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyRole(ctx, workflow.RoleQA, "Audit Requested",
		fmt.Sprintf("%s: completed work awaits quality verification", req.RequestNo))
	return req, nil
}

// ApproveAndClose is QA signing off on the completed work.
func (s *lifecycleServiceImpl) ApproveAndClose(ctx context.Context, actor Actor, requestID int64) (*entity.MaintenanceRequest, error) {
	text := fmt.Sprintf("%s: Standards verified. Order officially closed.", actor.Name)
	req, err := s.transition(ctx, actor, requestID, workflow.ActionApproveAndClose, text, nil)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyRole(ctx, workflow.RoleReceiver, "Request Completed",
		fmt.Sprintf("%s passed quality verification and is closed", req.RequestNo))
	return req, nil
}

// FailAudit sends the request back into execution. Costs and photos from
// the prior cycle are carried over untouched.
func (s *lifecycleServiceImpl) FailAudit(ctx context.Context, actor Actor, requestID int64) (*entity.MaintenanceRequest, error) {
	text := fmt.Sprintf("%s: Quality audit failed. Returned for rework.", actor.Name)
	return s.transition(ctx, actor, requestID, workflow.ActionFailAudit, text, nil)
}

// GetRequest retrieves a request by ID
func (s *lifecycleServiceImpl) GetRequest(ctx context.Context, requestID int64) (*entity.MaintenanceRequest, error) {
	return s.requests.GetByID(ctx, requestID)
}

// ListRequests lists requests, optionally filtered by status
func (s *lifecycleServiceImpl) ListRequests(ctx context.Context, status string, limit, offset int) ([]*entity.MaintenanceRequest, error) {
	if status != "" {
		return s.requests.ListByStatus(ctx, status, limit, offset)
	}
	return s.requests.List(ctx, limit, offset)
}

// GetHistory retrieves the audit trail of a request, newest first
func (s *lifecycleServiceImpl) GetHistory(ctx context.Context, requestID int64) ([]entity.HistoryEntry, error) {
	return s.requests.History(ctx, requestID)
}

// transition runs the shared validate-mutate-persist sequence under the
// request's lock. Order matters: existence, then role policy, then state
// machine, then action preconditions; mutation and history append are
// persisted in one transaction and nothing is written on any failure.
func (s *lifecycleServiceImpl) transition(
	ctx context.Context,
	actor Actor,
	requestID int64,
	action workflow.Action,
	historyText string,
	mutate func(*entity.MaintenanceRequest) error,
) (*entity.MaintenanceRequest, error) {
	unlock := s.locks.lock(requestID)
	defer unlock()

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	state := workflow.State(req.Status)
	if !workflow.Allows(actor.Role, state, action) {
		return nil, fmt.Errorf("%w: role %s cannot %s a request in state %q",
			workflow.ErrForbiddenTransition, actor.Role, action, state)
	}

	machine := s.lifecycle.Build(state)
	if err := machine.Fire(action); err != nil {
		return nil, err
	}

	if mutate != nil {
		if err := mutate(req); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	req.Status = machine.State().String()
	req.UpdatedAt = now
	entry := &entity.HistoryEntry{Text: historyText, CreatedAt: now}

	if err := s.requests.Update(ctx, req, entry); err != nil {
		s.logger.Error("Failed to persist transition",
			"error", err, "request_id", requestID, "action", action.String())
		return nil, err
	}

	req.History = append([]entity.HistoryEntry{*entry}, req.History...)
	s.logger.Info("Request transitioned",
		"request_id", requestID,
		"request_no", req.RequestNo,
		"action", action.String(),
		"from", state.String(),
		"to", req.Status,
		"actor", actor.Name,
		"role", actor.Role.String())
	return req, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
