package retry_booking

// RetryBookingRequest HTTP request model
type RetryBookingRequest struct {
	ActorRole string `json:"actorRole"`
	ActorID   int64  `json:"actorId"`
}
