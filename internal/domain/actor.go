package domain

// ActorRole represents the role asserted by a caller
type ActorRole string

const (
	RoleCustomer ActorRole = "CUSTOMER"
	RoleProvider ActorRole = "PROVIDER"
	RoleAdmin    ActorRole = "ADMIN"
	RoleSystem   ActorRole = "SYSTEM"
)

// Actor пара роль+идентификатор, заявленная вызывающей стороной
// Ядро не аутентифицирует, только авторизует заявленную роль
type Actor struct {
	Role ActorRole
	ID   *int64 // nil для SYSTEM/ADMIN действий без идентификатора
}

// IsValid returns true if the role is one of the known roles
func (r ActorRole) IsValid() bool {
	switch r {
	case RoleCustomer, RoleProvider, RoleAdmin, RoleSystem:
		return true
	default:
		return false
	}
}
