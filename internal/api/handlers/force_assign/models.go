package force_assign

// ForceAssignRequest HTTP request model
type ForceAssignRequest struct {
	ProviderID int64 `json:"providerId"`
	ActorID    int64 `json:"actorId"`
}
