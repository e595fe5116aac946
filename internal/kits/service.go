package kits

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service orchestrates validation and persistence for the kit catalog.
type Service struct {
	repo Repository
}

// NewService wires a Service with the provided repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new kit.
func (s *Service) Create(ctx context.Context, input CreateKitInput) (Kit, error) {
	if err := validateKitInput(input); err != nil {
		return Kit{}, err
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "INR"
	}

	now := time.Now().UTC()
	kit := Kit{
		ID:               uuid.New(),
		Title:            strings.TrimSpace(input.Title),
		Description:      strings.TrimSpace(input.Description),
		Price:            input.Price,
		Currency:         currency,
		Images:           normalizeList(input.Images),
		Category:         input.Category,
		Difficulty:       input.Difficulty,
		AgeGroup:         strings.TrimSpace(input.AgeGroup),
		Components:       normalizeList(input.Components),
		LearningOutcomes: normalizeList(input.LearningOutcomes),
		EstimatedHours:   input.EstimatedHours,
		InStock:          input.InStock,
		Tags:             normalizeList(input.Tags),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	return s.repo.Create(ctx, kit)
}

// Get returns a single kit by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Kit, error) {
	return s.repo.Get(ctx, id)
}

// List returns kits matching the provided filters.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Kit, error) {
	return s.repo.List(ctx, opts)
}

// Update applies a partial update to an existing kit.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateKitInput) (Kit, error) {
	kit, err := s.repo.Get(ctx, id)
	if err != nil {
		return Kit{}, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return Kit{}, &ValidationError{Message: "title is required"}
		}
		kit.Title = title
	}
	if input.Description != nil {
		kit.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return Kit{}, &ValidationError{Message: "price must not be negative"}
		}
		kit.Price = *input.Price
	}
	if input.Currency != nil {
		kit.Currency = strings.ToUpper(strings.TrimSpace(*input.Currency))
	}
	if input.Images != nil {
		kit.Images = normalizeList(*input.Images)
	}
	if input.Category != nil {
		if !validCategory(*input.Category) {
			return Kit{}, &ValidationError{Message: "invalid category"}
		}
		kit.Category = *input.Category
	}
	if input.Difficulty != nil {
		if !validDifficulty(*input.Difficulty) {
			return Kit{}, &ValidationError{Message: "invalid difficulty"}
		}
		kit.Difficulty = *input.Difficulty
	}
	if input.AgeGroup != nil {
		kit.AgeGroup = strings.TrimSpace(*input.AgeGroup)
	}
	if input.EstimatedHours != nil {
		if *input.EstimatedHours < 0 {
			return Kit{}, &ValidationError{Message: "estimated hours must not be negative"}
		}
		kit.EstimatedHours = *input.EstimatedHours
	}
	if input.InStock != nil {
		kit.InStock = *input.InStock
	}
	if input.Tags != nil {
		kit.Tags = normalizeList(*input.Tags)
	}

	kit.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, kit)
}

// Delete removes a kit from the catalog.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func validateKitInput(input CreateKitInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return &ValidationError{Message: "title is required"}
	}
	if input.Price < 0 {
		return &ValidationError{Message: "price must not be negative"}
	}
	if !validCategory(input.Category) {
		return &ValidationError{Message: "invalid category"}
	}
	if !validDifficulty(input.Difficulty) {
		return &ValidationError{Message: "invalid difficulty"}
	}
	if input.EstimatedHours < 0 {
		return &ValidationError{Message: "estimated hours must not be negative"}
	}
	return nil
}

func validCategory(c Category) bool {
	switch c {
	case CategoryElectronics, CategoryRobotics, CategoryProgramming, CategoryScience:
		return true
	}
	return false
}

func validDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
