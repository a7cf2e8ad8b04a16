package provider_reject

// RejectBookingRequest HTTP request model
type RejectBookingRequest struct {
	ActorID int64 `json:"actorId"`
}
