package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"xolvetech/internal/kits"
)

// SchemaVersion identifies the CSV export format version.
// This version should be incremented when adding new columns or changing the format.
const SchemaVersion = "1"

// csvColumns defines the column order for export. These columns are a superset
// of the import format to ensure round-trip compatibility.
var csvColumns = []string{
	"schemaVersion",
	"title",
	"description",
	"price",
	"currency",
	"category",
	"difficulty",
	"ageGroup",
	"components",
	"learningOutcomes",
	"estimatedHours",
	"rating",
	"reviewCount",
	"inStock",
	"tags",
	"images",
	"createdAt",
	"updatedAt",
}

// listSeparator joins multi-valued cells; it matches the importer.
const listSeparator = "|"

// CSVExporter exports catalog kits to CSV format.
type CSVExporter struct{}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export writes kits to the given writer in CSV format.
// The export format is designed to be compatible with the CSV import feature.
func (e *CSVExporter) Export(w io.Writer, kitList []kits.Kit) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	// Write header row
	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, kit := range kitList {
		row := e.kitToRow(kit)
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return writer.Error()
}

// kitToRow converts a kit to a CSV row following the column order.
func (e *CSVExporter) kitToRow(kit kits.Kit) []string {
	row := make([]string, len(csvColumns))

	row[0] = SchemaVersion
	row[1] = kit.Title
	row[2] = kit.Description
	row[3] = formatFloat(kit.Price)
	row[4] = kit.Currency
	row[5] = string(kit.Category)
	row[6] = string(kit.Difficulty)
	row[7] = kit.AgeGroup
	row[8] = joinList(kit.Components)
	row[9] = joinList(kit.LearningOutcomes)
	row[10] = formatFloat(kit.EstimatedHours)
	row[11] = formatFloat(kit.Rating)
	row[12] = strconv.Itoa(kit.ReviewCount)
	row[13] = strconv.FormatBool(kit.InStock)
	row[14] = joinList(kit.Tags)
	row[15] = joinList(kit.Images)
	row[16] = formatTime(kit.CreatedAt)
	row[17] = formatTime(kit.UpdatedAt)

	return row
}

func joinList(values []string) string {
	return strings.Join(values, listSeparator)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// formatTime formats a time to RFC3339 string.
func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format(time.RFC3339)
}
