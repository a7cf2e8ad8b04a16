package cancel_booking

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	ActorID int64   `json:"actorId"`
	Reason  *string `json:"reason,omitempty"`
}
