package force_cancel

// ForceCancelRequest HTTP request model
type ForceCancelRequest struct {
	ActorID int64 `json:"actorId"`
}
