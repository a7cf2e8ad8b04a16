package complete_booking

// CompleteBookingRequest HTTP request model
type CompleteBookingRequest struct {
	ActorID int64 `json:"actorId"`
}
