package domain

import "time"

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending    BookingStatus = "PENDING"
	StatusAssigned   BookingStatus = "ASSIGNED"
	StatusInProgress BookingStatus = "IN_PROGRESS"
	StatusCompleted  BookingStatus = "COMPLETED"
	StatusCancelled  BookingStatus = "CANCELLED"
	StatusRejected   BookingStatus = "REJECTED"
	StatusFailed     BookingStatus = "FAILED"
)

// Booking represents a service booking connecting a customer to a provider
type Booking struct {
	ID         int64
	CustomerID int64
	ProviderID *int64 // non-nil только в статусах ASSIGNED и IN_PROGRESS
	Status     BookingStatus

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal returns true if the booking is in a terminal state
// for ordinary actor operations (admin force operations may still act
// on CANCELLED/REJECTED/FAILED, retry may resurrect REJECTED/FAILED)
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCompleted ||
		b.Status == StatusCancelled ||
		b.Status == StatusRejected ||
		b.Status == StatusFailed
}

// OccupiesProvider returns true if the booking counts towards
// provider busy accounting
func (b *Booking) OccupiesProvider() bool {
	return b.Status == StatusAssigned || b.Status == StatusInProgress
}

// HasProvider returns true if a provider is currently assigned
func (b *Booking) HasProvider() bool {
	return b.ProviderID != nil
}

// IsAssignedTo returns true if the booking is currently assigned to the provider
func (b *Booking) IsAssignedTo(providerID int64) bool {
	return b.ProviderID != nil && *b.ProviderID == providerID
}

// IsOwnedBy returns true if the booking belongs to the customer
func (b *Booking) IsOwnedBy(customerID int64) bool {
	return b.CustomerID == customerID
}
