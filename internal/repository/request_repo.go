package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/qasimops/intellimaintain/internal/application/port"
	"github.com/qasimops/intellimaintain/internal/domain/entity"
)

// RequestRepository handles maintenance request database operations
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) *RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

const requestColumns = `
	id, request_no, building, unit, description, tenant_name, tenant_phone,
	status, priority, created_by, created_by_id, labor_cost, total_cost,
	materials, assessment_photos, completion_photos, manager_feedback,
	ai_analysis, created_at, updated_at
`

// Create inserts a new request together with its initial history entries.
// The request number is derived from the assigned row id.
func (r *RequestRepository) Create(ctx context.Context, req *entity.MaintenanceRequest) error {
	materials, assessmentPhotos, completionPhotos, err := marshalLists(req)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO requests (
			request_no, building, unit, description, tenant_name, tenant_phone,
			status, priority, created_by, created_by_id, labor_cost, total_cost,
			materials, assessment_photos, completion_photos, manager_feedback,
			ai_analysis, created_at, updated_at
		) VALUES ('', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		req.Building, req.Unit, req.Description, req.TenantName, req.TenantPhone,
		req.Status, req.Priority, req.CreatedBy, req.CreatedByID,
		req.LaborCost, req.TotalCost, materials, assessmentPhotos,
		completionPhotos, req.ManagerFeedback, req.AIAnalysis,
		req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	req.ID = id
	req.RequestNo = fmt.Sprintf("REQ-%04d", id)

	if _, err := tx.ExecContext(ctx,
		`UPDATE requests SET request_no = ? WHERE id = ?`, req.RequestNo, id); err != nil {
		return fmt.Errorf("failed to assign request number: %w", err)
	}

	for i := range req.History {
		entryID, err := insertHistory(ctx, tx, id, &req.History[i])
		if err != nil {
			r.logger.Error("Failed to create initial history", zap.Int64("request_id", id), zap.Error(err))
			return err
		}
		req.History[i].ID = entryID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit request: %w", err)
	}
	return nil
}

// GetByID retrieves a request by id, history newest first
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.MaintenanceRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, id)

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: request %d", port.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	history, err := r.History(ctx, id)
	if err != nil {
		return nil, err
	}
	req.History = history
	return req, nil
}

// Update replaces the request row and appends the history entry in one
// transaction. A failed append rolls back the mutation.
func (r *RequestRepository) Update(ctx context.Context, req *entity.MaintenanceRequest, history *entity.HistoryEntry) error {
	materials, assessmentPhotos, completionPhotos, err := marshalLists(req)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE requests SET
			status = ?, priority = ?, labor_cost = ?, total_cost = ?,
			materials = ?, assessment_photos = ?, completion_photos = ?,
			manager_feedback = ?, ai_analysis = ?, updated_at = ?
		WHERE id = ?
	`,
		req.Status, req.Priority, req.LaborCost, req.TotalCost,
		materials, assessmentPhotos, completionPhotos,
		req.ManagerFeedback, req.AIAnalysis, req.UpdatedAt, req.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update request", zap.Int64("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to update request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: request %d", port.ErrNotFound, req.ID)
	}

	if history != nil {
		entryID, err := insertHistory(ctx, tx, req.ID, history)
		if err != nil {
			r.logger.Error("Failed to append history", zap.Int64("request_id", req.ID), zap.Error(err))
			return err
		}
		history.ID = entryID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit update: %w", err)
	}
	return nil
}

// List retrieves requests ordered by id descending
func (r *RequestRepository) List(ctx context.Context, limit, offset int) ([]*entity.MaintenanceRequest, error) {
	return r.list(ctx,
		`SELECT `+requestColumns+` FROM requests ORDER BY id DESC LIMIT ? OFFSET ?`,
		limit, offset)
}

// ListByStatus retrieves requests in the given status, id descending
func (r *RequestRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.MaintenanceRequest, error) {
	return r.list(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE status = ? ORDER BY id DESC LIMIT ? OFFSET ?`,
		status, limit, offset)
}

// History retrieves the audit trail of a request, newest first
func (r *RequestRepository) History(ctx context.Context, requestID int64) ([]entity.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, text, created_at
		FROM request_history
		WHERE request_id = ?
		ORDER BY id DESC
	`, requestID)
	if err != nil {
		r.logger.Error("Failed to get history", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var entries []entity.HistoryEntry
	for rows.Next() {
		var e entity.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Text, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *RequestRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.MaintenanceRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.MaintenanceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, req := range requests {
		history, err := r.History(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		req.History = history
	}
	return requests, nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(s scanner) (*entity.MaintenanceRequest, error) {
	var req entity.MaintenanceRequest
	var materials, assessmentPhotos, completionPhotos string

	err := s.Scan(
		&req.ID, &req.RequestNo, &req.Building, &req.Unit, &req.Description,
		&req.TenantName, &req.TenantPhone, &req.Status, &req.Priority,
		&req.CreatedBy, &req.CreatedByID, &req.LaborCost, &req.TotalCost,
		&materials, &assessmentPhotos, &completionPhotos,
		&req.ManagerFeedback, &req.AIAnalysis, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(materials), &req.MaterialsRequested); err != nil {
		return nil, fmt.Errorf("failed to decode materials: %w", err)
	}
	if err := json.Unmarshal([]byte(assessmentPhotos), &req.AssessmentPhotos); err != nil {
		return nil, fmt.Errorf("failed to decode assessment photos: %w", err)
	}
	if err := json.Unmarshal([]byte(completionPhotos), &req.CompletionPhotos); err != nil {
		return nil, fmt.Errorf("failed to decode completion photos: %w", err)
	}
	return &req, nil
}

func marshalLists(req *entity.MaintenanceRequest) (materials, assessmentPhotos, completionPhotos string, err error) {
	m, err := json.Marshal(emptyIfNilMaterials(req.MaterialsRequested))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode materials: %w", err)
	}
	a, err := json.Marshal(emptyIfNil(req.AssessmentPhotos))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode assessment photos: %w", err)
	}
	c, err := json.Marshal(emptyIfNil(req.CompletionPhotos))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode completion photos: %w", err)
	}
	return string(m), string(a), string(c), nil
}

func emptyIfNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func emptyIfNilMaterials(v []entity.RequestMaterial) []entity.RequestMaterial {
	if v == nil {
		return []entity.RequestMaterial{}
	}
	return v
}

func insertHistory(ctx context.Context, tx *sql.Tx, requestID int64, entry *entity.HistoryEntry) (int64, error) {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO request_history (request_id, text, created_at)
		VALUES (?, ?, ?)
	`, requestID, entry.Text, entry.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert history: %w", err)
	}
	return result.LastInsertId()
}
