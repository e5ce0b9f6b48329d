package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/qasimops/intellimaintain/internal/domain/entity"
	"github.com/qasimops/intellimaintain/internal/domain/workflow"
)

func sampleRequests() []*entity.MaintenanceRequest {
	created := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	return []*entity.MaintenanceRequest{
		{
			ID:          1,
			RequestNo:   "REQ-0001",
			Building:    "B",
			Unit:        "204",
			Description: "AC leaking water",
			TenantName:  "Fatima",
			Status:      workflow.StateInExecution.String(),
			Priority:    entity.PriorityHigh,
			MaterialsRequested: []entity.RequestMaterial{
				{ID: 1, Name: "Drain pipe", Cost: 40},
				{ID: 2, Name: "Sealant", Cost: 15},
			},
			LaborCost: 120,
			TotalCost: 175,
			CreatedBy: "Qasim",
			CreatedAt: created,
			UpdatedAt: created.Add(2 * time.Hour),
		},
		{
			ID:        2,
			RequestNo: "REQ-0002",
			Building:  "A",
			Unit:      "101",
			Status:    workflow.StatePendingAssessment.String(),
			Priority:  entity.PriorityMedium,
			CreatedBy: "Qasim",
			CreatedAt: created,
			UpdatedAt: created,
		},
	}
}

func TestExport_ProducesReadableWorkbook(t *testing.T) {
	exporter := NewExporter("Pipeline", zap.NewNop())

	data, err := exporter.Export(sampleRequests())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, f.GetSheetList(), "Pipeline")

	header, err := f.GetCellValue("Pipeline", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Request No", header)

	no, err := f.GetCellValue("Pipeline", "A2")
	require.NoError(t, err)
	assert.Equal(t, "REQ-0001", no)

	status, err := f.GetCellValue("Pipeline", "F2")
	require.NoError(t, err)
	assert.Equal(t, "In Execution", status)

	materials, err := f.GetCellValue("Pipeline", "I2")
	require.NoError(t, err)
	assert.Equal(t, "55", materials)

	total, err := f.GetCellValue("Pipeline", "J2")
	require.NoError(t, err)
	assert.Equal(t, "175", total)
}

func TestExport_EmptyPipeline(t *testing.T) {
	exporter := NewExporter("", zap.NewNop())

	data, err := exporter.Export(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Pipeline", "M1")
	require.NoError(t, err)
	assert.Equal(t, "Updated At", header)
}
