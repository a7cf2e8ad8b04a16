package mark_failed

// MarkFailedRequest HTTP request model
type MarkFailedRequest struct {
	ActorID int64 `json:"actorId"`
}
