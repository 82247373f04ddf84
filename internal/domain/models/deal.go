package models

import (
	"time"

	"github.com/google/uuid"
)

// DealStatus represents the lifecycle state of a deal
type DealStatus string

const (
	DealPending   DealStatus = "pending"
	DealCompleted DealStatus = "completed"
	DealFailed    DealStatus = "failed"
	DealCanceled  DealStatus = "canceled"
)

// Deal represents an agreed transaction between two parties.
// Deals are created by the product layer before any payment flow begins;
// only the webhook reconciler moves a deal into a terminal state.
type Deal struct {
	ID               uuid.UUID
	Status           DealStatus
	AmountMinorUnits int64
	Currency         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsTerminal reports whether the status permits no further transitions
func (s DealStatus) IsTerminal() bool {
	return s == DealCompleted || s == DealFailed || s == DealCanceled
}

// CanTransitionTo reports whether a transition to the target status is allowed.
// The only legal transitions are pending -> completed and pending -> failed.
func (s DealStatus) CanTransitionTo(target DealStatus) bool {
	if s != DealPending {
		return false
	}
	return target == DealCompleted || target == DealFailed
}

// IsPayable reports whether a payment intent may be issued against the deal
func (d *Deal) IsPayable() bool {
	return d.Status == DealPending
}
