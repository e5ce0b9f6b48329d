package port

import (
	"context"

	"github.com/qasimops/intellimaintain/internal/domain/entity"
	"github.com/qasimops/intellimaintain/internal/domain/workflow"
)

// Analyzer pre-classifies a new request description. It is advisory: a
// failed or malformed upstream call is replaced by the fallback
// classification, so Analyze never returns an error.
type Analyzer interface {
	Analyze(ctx context.Context, description string) *entity.AIAnalysis
}

// Notifier emits in-app notifications to the user acting in a role.
// Emission is fire-and-forget: enqueue failures are logged, never
// surfaced to the transition that triggered them.
type Notifier interface {
	NotifyRole(ctx context.Context, role workflow.Role, title, body string)
}
