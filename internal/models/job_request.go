package models

import (
	"time"

	"github.com/google/uuid"
)

// JobRequest describes a seeker's request for a service. Providers respond
// with offers; accepting one assigns the request.
type JobRequest struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	SeekerID        uuid.UUID  `db:"seeker_id" json:"seeker_id"`
	Title           string     `db:"title" json:"title"`
	Description     string     `db:"description" json:"description"`
	Category        *string    `db:"category" json:"category,omitempty"`
	Status          string     `db:"status" json:"status"`
	AssignedOfferID *uuid.UUID `db:"assigned_offer_id" json:"assigned_offer_id,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
	OffersCount     *int       `db:"offers_count" json:"offers_count,omitempty"`
}
