package admin_cancel_booking

// AdminCancelBookingRequest HTTP request model
type AdminCancelBookingRequest struct {
	ActorID int64   `json:"actorId"`
	Reason  *string `json:"reason,omitempty"`
}
