package entity

import "time"

// MaintenanceRequest is the central work-order aggregate. Status only
// changes through the lifecycle service; history is append-only.
type MaintenanceRequest struct {
	ID                 int64             `json:"id"`
	RequestNo          string            `json:"request_no"`
	Building           string            `json:"building"`
	Unit               string            `json:"unit"`
	Description        string            `json:"description"`
	TenantName         string            `json:"tenant_name"`
	TenantPhone        string            `json:"tenant_phone"`
	Status             string            `json:"status"`
	Priority           string            `json:"priority"`
	CreatedBy          string            `json:"created_by"`
	CreatedByID        int64             `json:"created_by_id"`
	MaterialsRequested []RequestMaterial `json:"materials_requested"`
	LaborCost          float64           `json:"labor_cost"`
	TotalCost          float64           `json:"total_cost"`
	ManagerFeedback    string            `json:"manager_feedback,omitempty"`
	History            []HistoryEntry    `json:"history"`
	AssessmentPhotos   []string          `json:"assessment_photos"`
	CompletionPhotos   []string          `json:"completion_photos"`
	AIAnalysis         string            `json:"ai_analysis,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// RequestMaterial is one line of the material estimate attached during
// assessment.
type RequestMaterial struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Cost float64 `json:"cost"`
}

// HistoryEntry is one immutable line of a request's audit trail.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// MaterialsTotal sums the cost of all requested materials.
func (r *MaintenanceRequest) MaterialsTotal() float64 {
	var total float64
	for _, m := range r.MaterialsRequested {
		total += m.Cost
	}
	return total
}

// CostConsistent reports whether totalCost equals laborCost plus the
// material sum. It must hold after every mutation.
func (r *MaintenanceRequest) CostConsistent() bool {
	return r.TotalCost == r.LaborCost+r.MaterialsTotal()
}
