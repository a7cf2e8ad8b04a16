package create_booking

import (
	serviceModels "github.com/m04kA/SMC-DispatchService/internal/service/bookings/models"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	CustomerName string `json:"customerName"`
	ActorRole    string `json:"actorRole"`
	ActorID      int64  `json:"actorId"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
// Роль валидируется при конвертации
func (r *CreateBookingRequest) ToServiceRequest() (*serviceModels.CreateBookingRequest, error) {
	role, err := serviceModels.ToDomainActorRole(r.ActorRole)
	if err != nil {
		return nil, err
	}

	return &serviceModels.CreateBookingRequest{
		CustomerName: r.CustomerName,
		ActorRole:    role,
		ActorID:      r.ActorID,
	}, nil
}
