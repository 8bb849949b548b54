package models

// OfferStatus values for the offer lifecycle.
const (
	OfferStatusPending               = "pending"
	OfferStatusNegotiating           = "negotiating"
	OfferStatusAccepted              = "accepted"
	OfferStatusRejected              = "rejected"
	OfferStatusInProgress            = "in_progress"
	OfferStatusCompleted             = "completed"
	OfferStatusCancelled             = "cancelled"
	OfferStatusCancellationRequested = "cancellation_requested"
)

// JobRequestStatus values.
const (
	JobRequestStatusOpen     = "open"
	JobRequestStatusAssigned = "assigned"
	JobRequestStatusClosed   = "closed"
)

// Party roles on an offer.
const (
	RoleSeeker   = "seeker"
	RoleProvider = "provider"
)

// Account roles. A single account acts as seeker on its own job requests
// and as provider on everyone else's, so there is one regular role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Negotiation history field markers. The five term fields use their own
// names; confirmation and status changes are recorded under synthetic
// markers.
const (
	HistoryFieldPrice        = "price"
	HistoryFieldDate         = "date"
	HistoryFieldTime         = "time"
	HistoryFieldMaterials    = "materials"
	HistoryFieldScope        = "scope"
	HistoryFieldConfirmation = "confirmation"
	HistoryFieldStatus       = "status"
)

// TerminalOfferStatuses are statuses from which no further transition or
// negotiation is accepted.
var TerminalOfferStatuses = map[string]struct{}{
	OfferStatusCompleted: {},
	OfferStatusCancelled: {},
	OfferStatusRejected:  {},
}
