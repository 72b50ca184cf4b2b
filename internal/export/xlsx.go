package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bayline/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Appointments"

var columns = []string{"Date", "Time", "Bay", "Service", "Customer", "Phone", "Email", "Vehicle"}

// Workbook renders an appointment range as an xlsx workbook, one row per
// appointment, ordered as given. bayNames maps bay ID to display name.
func Workbook(appts []models.Appointment, bayNames map[string]string, from, to time.Time, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Appointments %s to %s",
		from.In(loc).Format("2006-01-02"), to.In(loc).Format("2006-01-02")))

	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	if style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err == nil {
		_ = f.SetCellStyle(sheetName, "A1", "A1", style)
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, col)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheetName, "A2", lastCol+"2", style)
	}

	for row, appt := range appts {
		bay := appt.BayID
		if name, ok := bayNames[appt.BayID]; ok && name != "" {
			bay = name
		}
		values := []interface{}{
			appt.Start.In(loc).Format("2006-01-02"),
			appt.Start.In(loc).Format("15:04") + " - " + appt.End.In(loc).Format("15:04"),
			bay,
			appt.ServiceName,
			appt.CustomerName,
			appt.Contact.Phone,
			appt.Contact.Email,
			appt.Vehicle.String(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+3)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", lastCol, 18)
	_ = f.SetColWidth(sheetName, "E", "E", 24)
	_ = f.DeleteSheet("Sheet1")

	return f, nil
}

// Save writes the workbook into dir with a range-stamped filename and
// returns the full path.
func Save(f *excelize.File, dir string, from, to time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	fileName := fmt.Sprintf("appointments_%s_to_%s.xlsx",
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	fullPath := filepath.Join(dir, fileName)

	if err := f.SaveAs(fullPath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return fullPath, nil
}
