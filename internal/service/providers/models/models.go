package models

import "github.com/m04kA/SMC-DispatchService/internal/domain"

// Availability производный статус занятости провайдера
const (
	AvailabilityAvailable = "AVAILABLE"
	AvailabilityBusy      = "BUSY"
)

// ProviderResponse провайдер с производным статусом занятости
type ProviderResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Availability string `json:"availability"` // AVAILABLE или BUSY
}

// ProviderListResponse ответ со списком провайдеров
type ProviderListResponse struct {
	Providers []ProviderResponse `json:"providers"`
}

// FromDomainProvider конвертирует domain модель в DTO
func FromDomainProvider(p *domain.Provider, busy bool) ProviderResponse {
	availability := AvailabilityAvailable
	if busy {
		availability = AvailabilityBusy
	}

	return ProviderResponse{
		ID:           p.ID,
		Name:         p.Name,
		Availability: availability,
	}
}
