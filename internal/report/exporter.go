package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/qasimops/intellimaintain/internal/domain/entity"
)

var pipelineHeader = []string{
	"Request No", "Building", "Unit", "Description", "Tenant",
	"Status", "Priority", "Labor Cost", "Materials Cost", "Total Cost",
	"Created By", "Created At", "Updated At",
}

// Exporter renders the maintenance pipeline as an Excel workbook
type Exporter struct {
	sheetName string
	logger    *zap.Logger
}

// NewExporter creates a new pipeline exporter
func NewExporter(sheetName string, logger *zap.Logger) *Exporter {
	if sheetName == "" {
		sheetName = "Pipeline"
	}
	return &Exporter{
		sheetName: sheetName,
		logger:    logger,
	}
}

// Export writes one row per request and returns the workbook bytes
func (e *Exporter) Export(requests []*entity.MaintenanceRequest) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(e.sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if e.sheetName != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			e.logger.Warn("Failed to remove default sheet", zap.Error(err))
		}
	}

	for col, title := range pipelineHeader {
		e.setCell(f, cellRef(col, 1), title)
	}

	for i, req := range requests {
		row := i + 2
		e.setCell(f, cellRef(0, row), req.RequestNo)
		e.setCell(f, cellRef(1, row), req.Building)
		e.setCell(f, cellRef(2, row), req.Unit)
		e.setCell(f, cellRef(3, row), req.Description)
		e.setCell(f, cellRef(4, row), req.TenantName)
		e.setCell(f, cellRef(5, row), req.Status)
		e.setCell(f, cellRef(6, row), req.Priority)
		e.setCell(f, cellRef(7, row), req.LaborCost)
		e.setCell(f, cellRef(8, row), req.MaterialsTotal())
		e.setCell(f, cellRef(9, row), req.TotalCost)
		e.setCell(f, cellRef(10, row), req.CreatedBy)
		e.setCell(f, cellRef(11, row), req.CreatedAt.Format("2006-01-02 15:04"))
		e.setCell(f, cellRef(12, row), req.UpdatedAt.Format("2006-01-02 15:04"))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Pipeline report exported", zap.Int("requests", len(requests)))
	return buf.Bytes(), nil
}

// setCell sets a cell value on the pipeline sheet
func (e *Exporter) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(e.sheetName, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}

// cellRef converts a zero-based column index and one-based row to an A1 reference
func cellRef(col, row int) string {
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		name = "A"
	}
	return fmt.Sprintf("%s%d", name, row)
}
