// Package export writes the admin's booking report to CSV and Excel files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"parkeasy/internal/models"
)

// CSVHeader is the fixed column order of the CSV report.
const CSVHeader = "ID,Customer Name,Vehicle Number,Slot,Date,Time,Duration (hours),Amount,Status"

// Exporter writes report files into a configured directory.
type Exporter struct {
	dir    string
	logger *zerolog.Logger
}

func New(dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

// CSVFileName names the report by export date, e.g.
// parking_bookings_2026-08-31.csv.
func CSVFileName(now time.Time) string {
	return fmt.Sprintf("parking_bookings_%s.csv", now.Format("2006-01-02"))
}

// RenderCSV produces the report body: header line plus one comma-joined row
// per booking.
func RenderCSV(bookings []models.Booking) string {
	var sb strings.Builder
	sb.WriteString(CSVHeader)
	sb.WriteByte('\n')
	for _, b := range bookings {
		row := []string{
			b.ID,
			b.CustomerName,
			b.VehicleNumber,
			b.Slot,
			b.Date,
			b.Time,
			strconv.Itoa(b.Duration),
			strconv.Itoa(b.Amount),
			b.Status,
		}
		sb.WriteString(strings.Join(row, ","))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// SaveCSV writes the report to the export directory and returns the path.
func (e *Exporter) SaveCSV(bookings []models.Booking, now time.Time) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}
	path := filepath.Join(e.dir, CSVFileName(now))
	if err := os.WriteFile(path, []byte(RenderCSV(bookings)), 0o644); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}
	e.logger.Info().Str("file_path", path).Int("bookings", len(bookings)).Msg("CSV file created")
	return path, nil
}
