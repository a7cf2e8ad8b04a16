package assign_provider

// AssignProviderRequest HTTP request model
// У назначения нет идентификатора актора: SYSTEM/ADMIN действуют
// от имени роли
type AssignProviderRequest struct {
	ProviderID int64  `json:"providerId"`
	ActorRole  string `json:"actorRole"`
}
