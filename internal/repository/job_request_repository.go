package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/models"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/repository/common"
)

type JobRequestRepository struct {
	db *sqlx.DB
}

func NewJobRequestRepository(db *sqlx.DB) *JobRequestRepository {
	return &JobRequestRepository{db: db}
}

// Create inserts a new open job request.
func (r *JobRequestRepository) Create(ctx context.Context, request *models.JobRequest) error {
	query := `
		INSERT INTO job_requests (seeker_id, title, description, category, status)
		VALUES ($1, $2, $3, $4, 'open')
		RETURNING id, status, created_at, updated_at
	`
	row := r.db.QueryRowxContext(ctx, query,
		request.SeekerID, request.Title, request.Description, request.Category)
	if err := row.Scan(&request.ID, &request.Status, &request.CreatedAt, &request.UpdatedAt); err != nil {
		return fmt.Errorf("job request repository: create %w", err)
	}
	return nil
}

// GetByID returns one job request.
func (r *JobRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.JobRequest, error) {
	return common.GetByID[models.JobRequest](ctx, r.db, "job_requests", id, common.ErrNotFound)
}

// ListBySeeker returns the seeker's job requests with their offer counts.
func (r *JobRequestRepository) ListBySeeker(ctx context.Context, seekerID uuid.UUID) ([]models.JobRequest, error) {
	var requests []models.JobRequest
	err := r.db.SelectContext(ctx, &requests, `
		SELECT jr.*, COUNT(o.id) AS offers_count
		FROM job_requests jr
		LEFT JOIN offers o ON o.job_request_id = jr.id
		WHERE jr.seeker_id = $1
		GROUP BY jr.id
		ORDER BY jr.created_at DESC
	`, seekerID)
	if err != nil {
		return nil, fmt.Errorf("job request repository: list by seeker %w", err)
	}
	return requests, nil
}
