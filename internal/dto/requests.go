package dto

// RegisterRequest represents the request to create an account
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
}

// LoginRequest represents the request to sign in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the request to rotate tokens
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateJobRequestRequest represents the request to publish a job request
type CreateJobRequestRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Category    *string `json:"category"`
}

// CreateOfferRequest represents a provider's initial offer
type CreateOfferRequest struct {
	Message       string  `json:"message" binding:"required"`
	ProposedPrice float64 `json:"proposed_price" binding:"required"`
	Availability  *string `json:"availability"`
}

// UpdateTermsRequest carries a partial negotiation terms proposal. Absent
// fields are left untouched.
type UpdateTermsRequest struct {
	Price     *float64 `json:"price"`
	Date      *string  `json:"date"`
	Time      *string  `json:"time"`
	Materials *string  `json:"materials"`
	Scope     *string  `json:"scope"`
}

// CancelOfferRequest represents a cancellation request for an active service
type CancelOfferRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// DepositRequest represents a wallet top-up
type DepositRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}
