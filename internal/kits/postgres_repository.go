package kits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const kitColumns = `
	id, title, description, price, currency, images, category, difficulty,
	age_group, components, learning_outcomes, estimated_hours, rating,
	review_count, in_stock, course_id, tags, created_at, updated_at
`

// Create inserts a new kit.
func (r *PostgresRepository) Create(ctx context.Context, kit Kit) (Kit, error) {
	const query = `
		INSERT INTO kits (
			id, title, description, price, currency, images, category, difficulty,
			age_group, components, learning_outcomes, estimated_hours, rating,
			review_count, in_stock, course_id, tags, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := r.db.ExecContext(ctx, query,
		kit.ID,
		kit.Title,
		kit.Description,
		kit.Price,
		kit.Currency,
		pq.Array(kit.Images),
		kit.Category,
		kit.Difficulty,
		kit.AgeGroup,
		pq.Array(kit.Components),
		pq.Array(kit.LearningOutcomes),
		kit.EstimatedHours,
		kit.Rating,
		kit.ReviewCount,
		kit.InStock,
		kit.CourseID,
		pq.Array(kit.Tags),
		kit.CreatedAt,
		kit.UpdatedAt,
	)
	if err != nil {
		return Kit{}, fmt.Errorf("insert kit: %w", err)
	}

	return kit, nil
}

// Get returns a kit by ID.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Kit, error) {
	query := `SELECT ` + kitColumns + ` FROM kits WHERE id = $1`

	var row kitRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Kit{}, ErrNotFound
		}
		return Kit{}, fmt.Errorf("get kit: %w", err)
	}

	return row.toKit(), nil
}

// List returns kits matching the filters, newest first.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]Kit, error) {
	var (
		conditions []string
		args       []any
	)

	addArg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if opts.Category != nil {
		conditions = append(conditions, "category = "+addArg(*opts.Category))
	}
	if opts.Difficulty != nil {
		conditions = append(conditions, "difficulty = "+addArg(*opts.Difficulty))
	}
	if opts.InStock != nil {
		conditions = append(conditions, "in_stock = "+addArg(*opts.InStock))
	}
	if opts.Query != nil && strings.TrimSpace(*opts.Query) != "" {
		pattern := "%" + strings.TrimSpace(*opts.Query) + "%"
		placeholder := addArg(pattern)
		conditions = append(conditions, "(title ILIKE "+placeholder+" OR description ILIKE "+placeholder+")")
	}

	query := `SELECT ` + kitColumns + ` FROM kits`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if opts.Limit != nil {
		query += " LIMIT " + addArg(*opts.Limit)
	}

	var rows []kitRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list kits: %w", err)
	}

	kits := make([]Kit, 0, len(rows))
	for i := range rows {
		kits = append(kits, rows[i].toKit())
	}
	return kits, nil
}

// Update replaces an existing kit.
func (r *PostgresRepository) Update(ctx context.Context, kit Kit) (Kit, error) {
	const query = `
		UPDATE kits
		SET title = $2, description = $3, price = $4, currency = $5, images = $6,
			category = $7, difficulty = $8, age_group = $9, components = $10,
			learning_outcomes = $11, estimated_hours = $12, rating = $13,
			review_count = $14, in_stock = $15, course_id = $16, tags = $17,
			updated_at = $18
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		kit.ID,
		kit.Title,
		kit.Description,
		kit.Price,
		kit.Currency,
		pq.Array(kit.Images),
		kit.Category,
		kit.Difficulty,
		kit.AgeGroup,
		pq.Array(kit.Components),
		pq.Array(kit.LearningOutcomes),
		kit.EstimatedHours,
		kit.Rating,
		kit.ReviewCount,
		kit.InStock,
		kit.CourseID,
		pq.Array(kit.Tags),
		kit.UpdatedAt,
	)
	if err != nil {
		return Kit{}, fmt.Errorf("update kit: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Kit{}, fmt.Errorf("update kit: %w", err)
	}
	if affected == 0 {
		return Kit{}, ErrNotFound
	}

	return kit, nil
}

// Delete removes a kit by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM kits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete kit: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete kit: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// kitRow is a database row representation of Kit.
type kitRow struct {
	ID               uuid.UUID      `db:"id"`
	Title            string         `db:"title"`
	Description      string         `db:"description"`
	Price            float64        `db:"price"`
	Currency         string         `db:"currency"`
	Images           pq.StringArray `db:"images"`
	Category         string         `db:"category"`
	Difficulty       string         `db:"difficulty"`
	AgeGroup         string         `db:"age_group"`
	Components       pq.StringArray `db:"components"`
	LearningOutcomes pq.StringArray `db:"learning_outcomes"`
	EstimatedHours   float64        `db:"estimated_hours"`
	Rating           float64        `db:"rating"`
	ReviewCount      int            `db:"review_count"`
	InStock          bool           `db:"in_stock"`
	CourseID         *uuid.UUID     `db:"course_id"`
	Tags             pq.StringArray `db:"tags"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r *kitRow) toKit() Kit {
	return Kit{
		ID:               r.ID,
		Title:            r.Title,
		Description:      r.Description,
		Price:            r.Price,
		Currency:         r.Currency,
		Images:           []string(r.Images),
		Category:         Category(r.Category),
		Difficulty:       Difficulty(r.Difficulty),
		AgeGroup:         r.AgeGroup,
		Components:       []string(r.Components),
		LearningOutcomes: []string(r.LearningOutcomes),
		EstimatedHours:   r.EstimatedHours,
		Rating:           r.Rating,
		ReviewCount:      r.ReviewCount,
		InStock:          r.InStock,
		CourseID:         r.CourseID,
		Tags:             []string(r.Tags),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
