package provider_accept

// AcceptBookingRequest HTTP request model
type AcceptBookingRequest struct {
	ActorID int64 `json:"actorId"`
}
