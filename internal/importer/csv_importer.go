package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"xolvetech/internal/kits"
)

// KitStore is the slice of the catalog service the importer needs.
type KitStore interface {
	Create(ctx context.Context, input kits.CreateKitInput) (kits.Kit, error)
	List(ctx context.Context, opts kits.ListOptions) ([]kits.Kit, error)
}

type Summary struct {
	TotalRows         int             `json:"totalRows"`
	Imported          int             `json:"imported"`
	SkippedDuplicates []SkippedRecord `json:"skippedDuplicates"`
	Failed            []FailedRecord  `json:"failed"`
	TruncatedRecords  bool            `json:"truncatedRecords,omitempty"`
}

type SkippedRecord struct {
	Row    int    `json:"row"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason"`
}

type FailedRecord struct {
	Row   int    `json:"row"`
	Title string `json:"title,omitempty"`
	Error string `json:"error"`
}

var ErrInvalidCSV = errors.New("invalid csv upload")

// MaxImportRows limits the number of data rows processed per CSV import to
// prevent excessive memory usage and long-running requests.
const MaxImportRows = 1000

// MaxFailedRecords caps the number of failed/skipped records stored in the
// summary to avoid unbounded memory growth from malformed uploads.
const MaxFailedRecords = 100

// listSeparator splits multi-valued cells (components, tags, outcomes).
const listSeparator = "|"

var requiredColumns = []string{
	"title",
	"description",
	"price",
	"category",
	"difficulty",
}

type CSVImporter struct {
	kits KitStore
}

func NewCSVImporter(kits KitStore) *CSVImporter {
	return &CSVImporter{kits: kits}
}

func (i *CSVImporter) Import(ctx context.Context, reader io.Reader) (Summary, error) {
	if i.kits == nil {
		return Summary{}, fmt.Errorf("%w: kit store is not configured", ErrInvalidCSV)
	}

	existing, err := i.kits.List(ctx, kits.ListOptions{})
	if err != nil {
		return Summary{}, err
	}

	tracker := newDuplicateTracker(existing)

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Summary{}, fmt.Errorf("%w: file is empty", ErrInvalidCSV)
		}
		return Summary{}, fmt.Errorf("%w: failed to read header", ErrInvalidCSV)
	}

	columns, err := normalizeHeader(header)
	if err != nil {
		return Summary{}, err
	}

	type parsedRow struct {
		number int
		values map[string]string
	}

	var rows []parsedRow
	rowNumber := 1
	totalRows := 0

	for {
		record, err := csvReader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Summary{}, fmt.Errorf("%w: failed to read row %d", ErrInvalidCSV, rowNumber+1)
		}
		rowNumber++
		values := mapRecord(columns, record)
		if isRowEmpty(values) {
			continue
		}

		totalRows++
		if totalRows > MaxImportRows {
			return Summary{}, fmt.Errorf("%w: CSV exceeds maximum of %d rows", ErrInvalidCSV, MaxImportRows)
		}

		rows = append(rows, parsedRow{
			number: rowNumber,
			values: values,
		})
	}

	summary := Summary{TotalRows: totalRows}

	for _, row := range rows {
		input, rowErr := buildInput(row.values)
		if rowErr != nil {
			if len(summary.Failed) < MaxFailedRecords {
				summary.Failed = append(summary.Failed, FailedRecord{
					Row:   row.number,
					Title: strings.TrimSpace(row.values["title"]),
					Error: rowErr.Error(),
				})
			} else {
				summary.TruncatedRecords = true
			}
			continue
		}

		if tracker.Seen(input.Title) {
			if len(summary.SkippedDuplicates) < MaxFailedRecords {
				summary.SkippedDuplicates = append(summary.SkippedDuplicates, SkippedRecord{
					Row:    row.number,
					Title:  input.Title,
					Reason: "duplicate title",
				})
			} else {
				summary.TruncatedRecords = true
			}
			continue
		}

		if _, err := i.kits.Create(ctx, input); err != nil {
			if len(summary.Failed) < MaxFailedRecords {
				summary.Failed = append(summary.Failed, FailedRecord{
					Row:   row.number,
					Title: input.Title,
					Error: err.Error(),
				})
			} else {
				summary.TruncatedRecords = true
			}
			continue
		}

		tracker.Add(input.Title)
		summary.Imported++
	}

	return summary, nil
}

func buildInput(values map[string]string) (kits.CreateKitInput, error) {
	title := strings.TrimSpace(values["title"])
	if title == "" {
		return kits.CreateKitInput{}, fmt.Errorf("title is required")
	}

	price, err := parseFloat(values["price"], "price")
	if err != nil {
		return kits.CreateKitInput{}, err
	}
	if price < 0 {
		return kits.CreateKitInput{}, fmt.Errorf("price must not be negative")
	}

	category := kits.Category(strings.TrimSpace(values["category"]))
	switch category {
	case kits.CategoryElectronics, kits.CategoryRobotics, kits.CategoryProgramming, kits.CategoryScience:
	default:
		return kits.CreateKitInput{}, fmt.Errorf("category must be one of Electronics, Robotics, Programming, or Science")
	}

	difficulty := kits.Difficulty(strings.TrimSpace(values["difficulty"]))
	switch difficulty {
	case kits.DifficultyBeginner, kits.DifficultyIntermediate, kits.DifficultyAdvanced:
	default:
		return kits.CreateKitInput{}, fmt.Errorf("difficulty must be one of Beginner, Intermediate, or Advanced")
	}

	estimatedHours := 0.0
	if raw := strings.TrimSpace(values["estimatedhours"]); raw != "" {
		estimatedHours, err = parseFloat(raw, "estimatedHours")
		if err != nil {
			return kits.CreateKitInput{}, err
		}
	}

	inStock := true
	if raw := strings.TrimSpace(values["instock"]); raw != "" {
		inStock, err = strconv.ParseBool(raw)
		if err != nil {
			return kits.CreateKitInput{}, fmt.Errorf("inStock must be true or false")
		}
	}

	return kits.CreateKitInput{
		Title:            title,
		Description:      strings.TrimSpace(values["description"]),
		Price:            price,
		Currency:         strings.TrimSpace(values["currency"]),
		Images:           splitList(values["images"]),
		Category:         category,
		Difficulty:       difficulty,
		AgeGroup:         strings.TrimSpace(values["agegroup"]),
		Components:       splitList(values["components"]),
		LearningOutcomes: splitList(values["learningoutcomes"]),
		EstimatedHours:   estimatedHours,
		InStock:          inStock,
		Tags:             splitList(values["tags"]),
	}, nil
}

func normalizeHeader(header []string) (map[int]string, error) {
	columns := make(map[int]string, len(header))
	seen := map[string]bool{}
	for idx, raw := range header {
		cleaned := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
		if cleaned == "" {
			continue
		}
		columns[idx] = cleaned
		seen[cleaned] = true
	}

	missing := make([]string, 0)
	for _, column := range requiredColumns {
		if !seen[column] {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s", ErrInvalidCSV, strings.Join(missing, ", "))
	}
	return columns, nil
}

func mapRecord(columns map[int]string, record []string) map[string]string {
	values := make(map[string]string, len(columns))
	for idx, column := range columns {
		if idx >= len(record) {
			values[column] = ""
			continue
		}
		values[column] = strings.TrimSpace(record[idx])
	}
	return values
}

func isRowEmpty(values map[string]string) bool {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

func parseFloat(value string, field string) (float64, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", field)
	}
	return parsed, nil
}

func splitList(value string) []string {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return nil
	}
	parts := strings.Split(cleaned, listSeparator)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type duplicateTracker struct {
	known map[string]bool
}

func newDuplicateTracker(existing []kits.Kit) *duplicateTracker {
	tracker := &duplicateTracker{known: map[string]bool{}}
	for _, kit := range existing {
		tracker.Add(kit.Title)
	}
	return tracker
}

func (t *duplicateTracker) Add(title string) {
	cleaned := strings.ToLower(strings.TrimSpace(title))
	if cleaned == "" {
		return
	}
	t.known[cleaned] = true
}

func (t *duplicateTracker) Seen(title string) bool {
	return t.known[strings.ToLower(strings.TrimSpace(title))]
}
