package kits

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a kit cannot be located.
var ErrNotFound = errors.New("kit not found")

// ErrValidation is returned when input validation fails.
var ErrValidation = errors.New("validation error")

// ValidationError wraps a validation message so callers can distinguish
// client errors from internal failures.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Category enumerates the STEM disciplines a kit belongs to.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryRobotics    Category = "Robotics"
	CategoryProgramming Category = "Programming"
	CategoryScience     Category = "Science"
)

// Difficulty describes the intended experience level for a kit.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Kit is a purchasable STEM learning kit in the storefront catalog.
type Kit struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Price            float64    `json:"price"`
	Currency         string     `json:"currency"`
	Images           []string   `json:"images"`
	Category         Category   `json:"category"`
	Difficulty       Difficulty `json:"difficulty"`
	AgeGroup         string     `json:"ageGroup"`
	Components       []string   `json:"components"`
	LearningOutcomes []string   `json:"learningOutcomes"`
	EstimatedHours   float64    `json:"estimatedHours"`
	Rating           float64    `json:"rating"`
	ReviewCount      int        `json:"reviewCount"`
	InStock          bool       `json:"inStock"`
	CourseID         *uuid.UUID `json:"courseId,omitempty"`
	Tags             []string   `json:"tags"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// CreateKitInput carries the fields accepted when adding a kit to the catalog.
type CreateKitInput struct {
	Title            string
	Description      string
	Price            float64
	Currency         string
	Images           []string
	Category         Category
	Difficulty       Difficulty
	AgeGroup         string
	Components       []string
	LearningOutcomes []string
	EstimatedHours   float64
	InStock          bool
	Tags             []string
}

// UpdateKitInput uses pointer fields so absent values leave the kit unchanged.
type UpdateKitInput struct {
	Title          *string
	Description    *string
	Price          *float64
	Currency       *string
	Images         *[]string
	Category       *Category
	Difficulty     *Difficulty
	AgeGroup       *string
	EstimatedHours *float64
	InStock        *bool
	Tags           *[]string
}

// ListOptions narrows catalog listings. Nil fields apply no filter.
type ListOptions struct {
	Category   *Category
	Difficulty *Difficulty
	InStock    *bool
	Query      *string
	Limit      *int
}

// Repository defines the persistence operations the catalog needs.
type Repository interface {
	Create(ctx context.Context, kit Kit) (Kit, error)
	Get(ctx context.Context, id uuid.UUID) (Kit, error)
	List(ctx context.Context, opts ListOptions) ([]Kit, error)
	Update(ctx context.Context, kit Kit) (Kit, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
