package providers

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	"github.com/m04kA/SMC-DispatchService/internal/service/providers/models"
)

// Service сервис провайдеров с производной доступностью
//
// Доступность не хранится и не кэшируется: провайдер занят, если на
// него прямо сейчас есть бронирование в ASSIGNED или IN_PROGRESS.
// Листинг использует ту же проверку, что и предусловие назначения
type Service struct {
	providerRepo ProviderRepository
	bookingRepo  BookingRepository
	logger       Logger
}

// NewService создает новый экземпляр сервиса провайдеров
func NewService(providerRepo ProviderRepository, bookingRepo BookingRepository, logger Logger) *Service {
	return &Service{
		providerRepo: providerRepo,
		bookingRepo:  bookingRepo,
		logger:       logger,
	}
}

// ListWithAvailability получает всех провайдеров с производным статусом
// занятости. Доступно только администратору
func (s *Service) ListWithAvailability(ctx context.Context, actorRole domain.ActorRole) (*models.ProviderListResponse, error) {
	if actorRole != domain.RoleAdmin {
		s.logger.Warn("ListWithAvailability: role %s denied", actorRole)
		return nil, ErrForbidden
	}

	providers, err := s.providerRepo.List(ctx)
	if err != nil {
		s.logger.Error("ListWithAvailability: failed to list providers: %v", err)
		return nil, fmt.Errorf("%w: ListWithAvailability - list providers: %v", ErrInternal, err)
	}

	resp := &models.ProviderListResponse{
		Providers: make([]models.ProviderResponse, 0, len(providers)),
	}

	for _, p := range providers {
		busy, err := s.bookingRepo.ExistsActiveForProvider(ctx, p.ID)
		if err != nil {
			s.logger.Error("ListWithAvailability: busy check failed for provider id=%d: %v", p.ID, err)
			return nil, fmt.Errorf("%w: ListWithAvailability - busy check: %v", ErrInternal, err)
		}
		resp.Providers = append(resp.Providers, models.FromDomainProvider(p, busy))
	}

	s.logger.Info("ListWithAvailability: listed %d providers", len(resp.Providers))
	return resp, nil
}

// IsBusy проверяет занятость провайдера
func (s *Service) IsBusy(ctx context.Context, providerID int64) (bool, error) {
	busy, err := s.bookingRepo.ExistsActiveForProvider(ctx, providerID)
	if err != nil {
		s.logger.Error("IsBusy: busy check failed for provider id=%d: %v", providerID, err)
		return false, fmt.Errorf("%w: IsBusy - busy check: %v", ErrInternal, err)
	}
	return busy, nil
}
