package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/models"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/pkg/apperror"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/repository/common"
)

// JobRequestRepository describes the job request storage operations.
type JobRequestRepository interface {
	Create(ctx context.Context, request *models.JobRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.JobRequest, error)
	ListBySeeker(ctx context.Context, seekerID uuid.UUID) ([]models.JobRequest, error)
}

// JobRequestService handles seekers' job requests.
type JobRequestService struct {
	repo JobRequestRepository
}

// NewJobRequestService creates the job request service.
func NewJobRequestService(repo JobRequestRepository) *JobRequestService {
	return &JobRequestService{repo: repo}
}

// CreateJobRequestInput carries the data for a new job request.
type CreateJobRequestInput struct {
	SeekerID    uuid.UUID
	Title       string
	Description string
	Category    *string
}

// CreateJobRequest publishes a new open job request.
func (s *JobRequestService) CreateJobRequest(ctx context.Context, in CreateJobRequestInput) (*models.JobRequest, error) {
	if in.Title == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "title must not be empty")
	}
	if in.Description == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "description must not be empty")
	}

	request := &models.JobRequest{
		SeekerID:    in.SeekerID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// GetJobRequest loads a job request by ID.
func (s *JobRequestService) GetJobRequest(ctx context.Context, id uuid.UUID) (*models.JobRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, apperror.ErrJobRequestNotFound
		}
		return nil, err
	}
	return request, nil
}

// ListMyJobRequests returns the requests the actor opened as seeker.
func (s *JobRequestService) ListMyJobRequests(ctx context.Context, seekerID uuid.UUID) ([]models.JobRequest, error) {
	return s.repo.ListBySeeker(ctx, seekerID)
}
