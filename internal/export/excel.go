package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"parkeasy/internal/models"
)

// SaveXLSX writes the same report as an Excel workbook.
func (e *Exporter) SaveXLSX(bookings []models.Booking, now time.Time) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Bookings"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"ID", "Customer Name", "Vehicle Number", "Slot", "Date", "Time",
		"Duration (hours)", "Amount", "Status",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, b := range bookings {
		row := i + 2
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), b.ID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), b.CustomerName)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), b.VehicleNumber)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), b.Slot)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), b.Date)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), b.Time)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), b.Duration)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), b.Amount)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), b.Status)
	}

	_ = f.SetColWidth(sheetName, "A", "A", 26)
	_ = f.SetColWidth(sheetName, "B", "C", 18)
	_ = f.SetColWidth(sheetName, "D", "F", 12)
	_ = f.SetColWidth(sheetName, "G", "I", 14)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("parking_bookings_%s.xlsx", now.Format("2006-01-02"))
	path := filepath.Join(e.dir, fileName)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", path).Int("bookings", len(bookings)).Msg("Excel file created")
	return path, nil
}
