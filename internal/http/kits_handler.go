package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"xolvetech/internal/exporter"
	"xolvetech/internal/importer"
	"xolvetech/internal/kits"
)

// KitHandler exposes the kit catalog endpoints.
type KitHandler struct {
	service  *kits.Service
	importer *importer.CSVImporter
	exporter *exporter.CSVExporter
	logger   *slog.Logger
}

// NewKitHandler creates a handler.
func NewKitHandler(service *kits.Service, importer *importer.CSVImporter, exporter *exporter.CSVExporter, logger *slog.Logger) *KitHandler {
	return &KitHandler{service: service, importer: importer, exporter: exporter, logger: logger}
}

// List returns kits matching the query filters.
func (h *KitHandler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	kitList, err := h.service.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("list kits", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list kits")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kits": kitList})
}

func parseListOptions(values url.Values) (kits.ListOptions, error) {
	opts := kits.ListOptions{}
	const maxListLimit = 100
	const maxSearchQueryLength = 500

	if rawCategory := strings.TrimSpace(values.Get("category")); rawCategory != "" {
		category := kits.Category(rawCategory)
		switch category {
		case kits.CategoryElectronics, kits.CategoryRobotics, kits.CategoryProgramming, kits.CategoryScience:
			opts.Category = &category
		default:
			return kits.ListOptions{}, fmt.Errorf("invalid category filter")
		}
	}

	if rawDifficulty := strings.TrimSpace(values.Get("difficulty")); rawDifficulty != "" {
		difficulty := kits.Difficulty(rawDifficulty)
		switch difficulty {
		case kits.DifficultyBeginner, kits.DifficultyIntermediate, kits.DifficultyAdvanced:
			opts.Difficulty = &difficulty
		default:
			return kits.ListOptions{}, fmt.Errorf("invalid difficulty filter")
		}
	}

	if rawInStock := strings.TrimSpace(values.Get("inStock")); rawInStock != "" {
		inStock, err := strconv.ParseBool(rawInStock)
		if err != nil {
			return kits.ListOptions{}, fmt.Errorf("invalid inStock filter")
		}
		opts.InStock = &inStock
	}

	if rawQuery := strings.TrimSpace(values.Get("query")); rawQuery != "" {
		if len(rawQuery) > maxSearchQueryLength {
			return kits.ListOptions{}, fmt.Errorf("query too long (max %d characters)", maxSearchQueryLength)
		}
		query := rawQuery
		opts.Query = &query
	}

	if rawLimit := strings.TrimSpace(values.Get("limit")); rawLimit != "" {
		value, err := strconv.Atoi(rawLimit)
		if err != nil || value <= 0 || value > maxListLimit {
			return kits.ListOptions{}, fmt.Errorf("invalid limit filter")
		}
		opts.Limit = &value
	}

	return opts, nil
}

// Create stores a new kit.
func (h *KitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title            string   `json:"title"`
		Description      string   `json:"description"`
		Price            float64  `json:"price"`
		Currency         string   `json:"currency"`
		Images           []string `json:"images"`
		Category         string   `json:"category"`
		Difficulty       string   `json:"difficulty"`
		AgeGroup         string   `json:"ageGroup"`
		Components       []string `json:"components"`
		LearningOutcomes []string `json:"learningOutcomes"`
		EstimatedHours   float64  `json:"estimatedHours"`
		InStock          bool     `json:"inStock"`
		Tags             []string `json:"tags"`
	}

	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	kit, err := h.service.Create(r.Context(), kits.CreateKitInput{
		Title:            payload.Title,
		Description:      payload.Description,
		Price:            payload.Price,
		Currency:         payload.Currency,
		Images:           payload.Images,
		Category:         kits.Category(payload.Category),
		Difficulty:       kits.Difficulty(payload.Difficulty),
		AgeGroup:         payload.AgeGroup,
		Components:       payload.Components,
		LearningOutcomes: payload.LearningOutcomes,
		EstimatedHours:   payload.EstimatedHours,
		InStock:          payload.InStock,
		Tags:             payload.Tags,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, kit)
}

// Get returns a single kit.
func (h *KitHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	kit, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, kit)
}

// Update modifies a kit.
func (h *KitHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var payload struct {
		Title          *string   `json:"title"`
		Description    *string   `json:"description"`
		Price          *float64  `json:"price"`
		Currency       *string   `json:"currency"`
		Images         *[]string `json:"images"`
		Category       *string   `json:"category"`
		Difficulty     *string   `json:"difficulty"`
		AgeGroup       *string   `json:"ageGroup"`
		EstimatedHours *float64  `json:"estimatedHours"`
		InStock        *bool     `json:"inStock"`
		Tags           *[]string `json:"tags"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	input := kits.UpdateKitInput{
		Title:          payload.Title,
		Description:    payload.Description,
		Price:          payload.Price,
		Currency:       payload.Currency,
		Images:         payload.Images,
		AgeGroup:       payload.AgeGroup,
		EstimatedHours: payload.EstimatedHours,
		InStock:        payload.InStock,
		Tags:           payload.Tags,
	}
	if payload.Category != nil {
		category := kits.Category(*payload.Category)
		input.Category = &category
	}
	if payload.Difficulty != nil {
		difficulty := kits.Difficulty(*payload.Difficulty)
		input.Difficulty = &difficulty
	}

	kit, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, kit)
}

// Delete removes a kit.
func (h *KitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

const maxCSVUploadBytes int64 = 5 << 20

// ImportCSV ingests a CSV file of catalog kits.
func (h *KitHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	if h.importer == nil {
		writeError(w, http.StatusNotImplemented, "CSV import is not available")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCSVUploadBytes)
	if err := r.ParseMultipartForm(maxCSVUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("CSV upload is too large (max %d bytes)", maxErr.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid CSV upload")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "CSV file is required")
		return
	}
	defer func() { _ = file.Close() }()

	summary, err := h.importer.Import(r.Context(), file)
	if err != nil {
		if errors.Is(err, importer.ErrInvalidCSV) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("csv import failed", "error", err)
		writeError(w, http.StatusInternalServerError, "bulk import failed")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// ExportCSV streams the full catalog as a CSV download.
func (h *KitHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeError(w, http.StatusNotImplemented, "CSV export is not available")
		return
	}

	kitList, err := h.service.List(r.Context(), kits.ListOptions{})
	if err != nil {
		h.logger.Error("list kits for export", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="kits.csv"`)
	if err := h.exporter.Export(w, kitList); err != nil {
		h.logger.Error("csv export failed", "error", err)
	}
}

func (h *KitHandler) handleServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, kits.ErrNotFound) {
		writeError(w, http.StatusNotFound, "kit not found")
		return
	}
	if errors.Is(err, kits.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error("service error", "error", err)
	writeError(w, http.StatusInternalServerError, "unexpected error")
}
