package dashboard

import (
	"context"
	"fmt"
	"time"

	common_models "go-insight/internal/common/models"

	"github.com/xuri/excelize/v2"
)

// ExportDashboards renders the session's full dashboard configuration as an
// Excel workbook, one sheet listing dashboards and one listing widgets.
func (s *DashboardServiceImpl) ExportDashboards(ctx context.Context, tenantID, userID string) ([]byte, string, error) {
	store := s.session(ctx, tenantID, userID)
	dashboards := store.Dashboards()

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	if err := writeDashboardSheet(f, headerStyle, dashboards); err != nil {
		return nil, "", err
	}
	if err := writeWidgetSheet(f, headerStyle, dashboards); err != nil {
		return nil, "", err
	}
	f.DeleteSheet("Sheet1")

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionExport, "dashboards", snapshotKey(tenantID, userID), nil)

	filename := fmt.Sprintf("dashboards_%s.xlsx", time.Now().Format("2006-01-02"))
	return buffer.Bytes(), filename, nil
}

func writeDashboardSheet(f *excelize.File, headerStyle int, dashboards []Dashboard) error {
	const sheetName = "Dashboards"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)

	columns := []string{"ID", "Name", "Created By", "Layout", "Default", "Widgets", "Updated At"}
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, d := range dashboards {
		row := []interface{}{
			d.ID,
			d.Name,
			d.CreatedBy,
			string(d.Layout),
			d.IsDefault,
			len(d.Widgets),
			d.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		for colIdx, val := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, val)
		}
	}

	for i := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 20)
	}
	return nil
}

func writeWidgetSheet(f *excelize.File, headerStyle int, dashboards []Dashboard) error {
	const sheetName = "Widgets"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	columns := []string{"Dashboard", "ID", "Title", "Kind", "Size", "KPI", "Chart Type"}
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	rowIdx := 0
	for _, d := range dashboards {
		for _, w := range d.Widgets {
			row := []interface{}{
				d.Name,
				w.ID,
				w.Title,
				string(w.Kind),
				string(w.Size),
				w.KPIID,
				w.ChartType,
			}
			for colIdx, val := range row {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
				f.SetCellValue(sheetName, cell, val)
			}
			rowIdx++
		}
	}

	for i := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 20)
	}
	return nil
}
