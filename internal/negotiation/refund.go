package negotiation

import (
	"fmt"
	"time"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/models"
)

// Refund policy for cancellations of accepted or in-progress services:
// full refund while the scheduled time is still comfortably away, a reduced
// one close to it.
const (
	// FullRefundWindow is how far ahead of the scheduled service time a
	// cancellation still refunds everything. The boundary is exclusive: at
	// exactly 12 hours the reduced tier applies.
	FullRefundWindow = 12 * time.Hour

	FullRefundPercentage    = 100
	ReducedRefundPercentage = 70
)

// Wire formats of the negotiated date and time fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ScheduledAt combines the negotiated date and time into a timestamp.
// Both fields must be set; cancellation only happens after acceptance,
// which in turn requires complete terms.
func ScheduledAt(terms models.NegotiationTerms) (time.Time, error) {
	if terms.Date == nil || terms.Time == nil {
		return time.Time{}, fmt.Errorf("negotiation: scheduled date/time not set")
	}
	t, err := time.Parse(DateLayout+" "+TimeLayout, *terms.Date+" "+*terms.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("negotiation: parse scheduled time: %w", err)
	}
	return t, nil
}

// RefundPercentage computes the refund tier for a cancellation requested at
// now against the scheduled service time: 100% strictly more than 12 hours
// ahead, 70% otherwise.
func RefundPercentage(scheduled, now time.Time) int {
	if scheduled.Sub(now) > FullRefundWindow {
		return FullRefundPercentage
	}
	return ReducedRefundPercentage
}
