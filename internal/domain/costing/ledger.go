// Package costing owns the material/labor cost arithmetic for a request.
// A Ledger stages material lines during assessment; nothing touches the
// request itself until Commit.
package costing

import (
	"errors"
	"fmt"
	"time"

	"github.com/qasimops/intellimaintain/internal/domain/entity"
)

var (
	// ErrInvalidAmount is returned for a negative cost
	ErrInvalidAmount = errors.New("cost must not be negative")

	// ErrIndexOutOfRange is returned when removing a material at an
	// index outside the staging list
	ErrIndexOutOfRange = errors.New("material index out of range")

	// ErrNilRequest is returned when committing to a nil request
	ErrNilRequest = errors.New("nil request")
)

// Ledger stages material estimate lines before they are committed to a
// request during assessment submission.
type Ledger struct {
	staged []entity.RequestMaterial
}

// NewLedger creates an empty staging ledger
func NewLedger() *Ledger {
	return &Ledger{}
}

// AddMaterial appends a material line to the staging list
func (l *Ledger) AddMaterial(name string, cost float64) error {
	if cost < 0 {
		return fmt.Errorf("%w: %.2f", ErrInvalidAmount, cost)
	}
	l.staged = append(l.staged, entity.RequestMaterial{Name: name, Cost: cost})
	return nil
}

// RemoveMaterial deletes the staged line at index
func (l *Ledger) RemoveMaterial(index int) error {
	if index < 0 || index >= len(l.staged) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	l.staged = append(l.staged[:index], l.staged[index+1:]...)
	return nil
}

// Staged returns a copy of the staging list
func (l *Ledger) Staged() []entity.RequestMaterial {
	return append([]entity.RequestMaterial(nil), l.staged...)
}

// StagedTotal sums the staged material costs
func (l *Ledger) StagedTotal() float64 {
	var total float64
	for _, m := range l.staged {
		total += m.Cost
	}
	return total
}

// Commit writes an assessment onto the request: replaces the material list
// wholesale, sets labor cost, recomputes the total and accumulates
// assessment photos. This is the only writer of those fields.
func Commit(req *entity.MaintenanceRequest, laborCost float64, materials []entity.RequestMaterial, photos []string) error {
	if req == nil {
		return ErrNilRequest
	}
	if laborCost < 0 {
		return fmt.Errorf("%w: labor %.2f", ErrInvalidAmount, laborCost)
	}
	for _, m := range materials {
		if m.Cost < 0 {
			return fmt.Errorf("%w: material %q %.2f", ErrInvalidAmount, m.Name, m.Cost)
		}
	}

	base := time.Now().UnixMilli()
	committed := make([]entity.RequestMaterial, len(materials))
	for i, m := range materials {
		id := m.ID
		if id == 0 {
			id = base + int64(i)
		}
		committed[i] = entity.RequestMaterial{ID: id, Name: m.Name, Cost: m.Cost}
	}

	req.MaterialsRequested = committed
	req.LaborCost = laborCost
	req.TotalCost = laborCost + req.MaterialsTotal()
	req.AssessmentPhotos = append(req.AssessmentPhotos, photos...)
	return nil
}
