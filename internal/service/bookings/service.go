package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/booking"
	customerRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/customer"
	providerRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/provider"
	"github.com/m04kA/SMC-DispatchService/internal/service/bookings/models"
)

// Service движок переходов состояния бронирований
//
// Каждый переход проходит через одну точку диспетчеризации
// (applyTransition) и валидируется строго по таблице переходов
// из internal/domain. Вся последовательность
// "прочитать - проверить - изменить - записать событие" выполняется
// в одной сериализуемой транзакции: при обрыве любой проверки
// бронирование остаётся ровно в том состоянии, в каком было
type Service struct {
	bookingRepo  BookingRepository
	customerRepo CustomerRepository
	providerRepo ProviderRepository
	txManager    TransactionManager
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	customerRepo CustomerRepository,
	providerRepo ProviderRepository,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		customerRepo: customerRepo,
		providerRepo: providerRepo,
		txManager:    txManager,
		logger:       logger,
	}
}

// transitionRequest внутренний запрос на переход состояния
type transitionRequest struct {
	bookingID int64
	trigger   domain.Trigger
	actor     domain.Actor
	// providerID целевой провайдер (только для assign/force-assign)
	providerID *int64
	// reason причина отмены (только для отменяющих переходов)
	reason *string
}

// Create создает новое бронирование в статусе PENDING
// Только клиент может создавать бронирования. Клиент создается лениво:
// при первом бронировании с неизвестным actor id заводится запись
func (s *Service) Create(ctx context.Context, req *models.CreateBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Create: creating booking for customer=%d", req.ActorID)

	if req.ActorRole != domain.RoleCustomer {
		s.logger.Warn("Create: role %s is not allowed to create bookings", req.ActorRole)
		return nil, ErrForbidden
	}

	if req.ActorID <= 0 {
		return nil, fmt.Errorf("%w: actor id must be positive", ErrInvalidInput)
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	}
	if len(req.CustomerName) > domain.MaxCustomerNameLength {
		return nil, fmt.Errorf("%w: customer name is too long", ErrInvalidInput)
	}

	var result *domain.Booking

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// Ленивое создание клиента
		if _, err := s.customerRepo.GetByID(txCtx, req.ActorID); err != nil {
			if !errors.Is(err, customerRepo.ErrCustomerNotFound) {
				s.logger.Error("Create: failed to get customer id=%d: %v", req.ActorID, err)
				return fmt.Errorf("%w: Create - get customer: %v", ErrInternal, err)
			}

			if _, err := s.customerRepo.Create(txCtx, &domain.Customer{
				ID:   req.ActorID,
				Name: req.CustomerName,
			}); err != nil {
				s.logger.Error("Create: failed to create customer id=%d: %v", req.ActorID, err)
				return fmt.Errorf("%w: Create - create customer: %v", ErrInternal, err)
			}
			s.logger.Info("Create: customer id=%d created lazily", req.ActorID)
		}

		booking, err := s.bookingRepo.Create(txCtx, &domain.Booking{
			CustomerID: req.ActorID,
			Status:     domain.StatusPending,
		})
		if err != nil {
			s.logger.Error("Create: failed to create booking for customer=%d: %v", req.ActorID, err)
			return fmt.Errorf("%w: Create - create booking: %v", ErrInternal, err)
		}

		// Первое событие истории: NULL -> PENDING
		if _, err := s.bookingRepo.AppendEvent(txCtx, &domain.BookingEvent{
			BookingID:  booking.ID,
			FromStatus: nil,
			ToStatus:   domain.StatusPending,
			ActorRole:  domain.RoleCustomer,
			ActorID:    &req.ActorID,
		}); err != nil {
			s.logger.Error("Create: failed to append event for booking=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: Create - append event: %v", ErrInternal, err)
		}

		result = booking
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Create: successfully created booking id=%d for customer=%d", result.ID, req.ActorID)
	return models.FromDomainBooking(result), nil
}

// GetByID получает бронирование по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.BookingResponse, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBooking(booking), nil
}

// GetEvents получает историю событий бронирования
// Бронирование должно существовать; события возвращаются в каноническом
// порядке истории (по времени создания по возрастанию)
func (s *Service) GetEvents(ctx context.Context, bookingID int64) (*models.BookingEventListResponse, error) {
	if _, err := s.bookingRepo.GetByID(ctx, bookingID); err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetEvents: booking id=%d not found", bookingID)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetEvents: repository error for booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: GetEvents - repository error: %v", ErrInternal, err)
	}

	events, err := s.bookingRepo.ListEvents(ctx, bookingID)
	if err != nil {
		s.logger.Error("GetEvents: failed to list events for booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: GetEvents - list events: %v", ErrInternal, err)
	}

	return models.FromDomainEventList(events), nil
}

// ListProviderBookings получает активную очередь работ провайдера
// Строгий фильтр видимости: только ASSIGNED и IN_PROGRESS
func (s *Service) ListProviderBookings(ctx context.Context, providerID int64) (*models.BookingListResponse, error) {
	bookings, err := s.bookingRepo.GetActiveByProvider(ctx, providerID)
	if err != nil {
		s.logger.Error("ListProviderBookings: repository error for provider id=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: ListProviderBookings - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(bookings), nil
}

// AssignProvider назначает провайдера на бронирование
// Роль: ADMIN или SYSTEM. Провайдер должен существовать и быть свободным
func (s *Service) AssignProvider(ctx context.Context, bookingID, providerID int64, actorRole domain.ActorRole) (*models.BookingResponse, error) {
	s.logger.Info("AssignProvider: booking=%d, provider=%d, role=%s", bookingID, providerID, actorRole)

	// У назначения нет идентификатора актора: SYSTEM/ADMIN действуют
	// без собственного id, событие пишется с actor_id = NULL
	return s.transition(ctx, transitionRequest{
		bookingID:  bookingID,
		trigger:    domain.TriggerAssign,
		actor:      domain.Actor{Role: actorRole},
		providerID: &providerID,
	})
}

// ProviderAccept провайдер принимает назначенное ему бронирование
func (s *Service) ProviderAccept(ctx context.Context, bookingID, actorID int64) (*models.BookingResponse, error) {
	s.logger.Info("ProviderAccept: booking=%d, provider=%d", bookingID, actorID)

	return s.transition(ctx, transitionRequest{
		bookingID: bookingID,
		trigger:   domain.TriggerAccept,
		actor:     domain.Actor{Role: domain.RoleProvider, ID: &actorID},
	})
}

// ProviderReject провайдер отклоняет назначенное ему бронирование
// provider_id обнуляется
func (s *Service) ProviderReject(ctx context.Context, bookingID, actorID int64) (*models.BookingResponse, error) {
	s.logger.Info("ProviderReject: booking=%d, provider=%d", bookingID, actorID)

	return s.transition(ctx, transitionRequest{
		bookingID: bookingID,
		trigger:   domain.TriggerReject,
		actor:     domain.Actor{Role: domain.RoleProvider, ID: &actorID},
	})
}

// Complete провайдер завершает бронирование в работе
// provider_id сохраняется: завершённое бронирование остаётся связанным
// с выполнившим его провайдером
func (s *Service) Complete(ctx context.Context, bookingID, actorID int64) (*models.BookingResponse, error) {
	s.logger.Info("Complete: booking=%d, provider=%d", bookingID, actorID)

	return s.transition(ctx, transitionRequest{
		bookingID: bookingID,
		trigger:   domain.TriggerComplete,
		actor:     domain.Actor{Role: domain.RoleProvider, ID: &actorID},
	})
}

// CancelByCustomer клиент отменяет своё бронирование
func (s *Service) CancelByCustomer(ctx context.Context, bookingID, actorID int64, reason *string) (*models.BookingResponse, error) {
	s.logger.Info("CancelByCustomer: booking=%d, customer=%d", bookingID, actorID)

	if err := validateReason(reason); err != nil {
		return nil, err
	}

	return s.transition(ctx, transitionRequest{
		bookingID: bookingID,
		trigger:   domain.TriggerCustomerCancel,
		actor:     domain.Actor{Role: domain.RoleCustomer, ID: &actorID},
		reason:    reason,
	})
}

// CancelByAdmin администратор отменяет бронирование текущим порядком
// (не force: терминальные статусы не отменяются)
func (s *Service) CancelByAdmin(ctx context.Context, bookingID, actorID int64, reason *string) (*models.BookingResponse, error) {
	s.logger.Info("CancelByAdmin: booking=%d, admin=%d", bookingID, actorID)

	if err := validateReason(reason); err != nil {
		return nil, err
	}

	return s.transition(ctx, transitionRequest{
		bookingID: bookingID,
		trigger:   domain.TriggerAdminCancel,
		actor:     domain.Actor{Role: domain.RoleAdmin, ID: &actorID},
		reason:    reason,
	})
}

// Retry возвращает REJECTED/FAILED бронирование в PENDING
// Роль: ADMIN или SYSTEM. CANCELLED не возвращается: осознанная отмена
// клиента не воскрешается автоматикой
func (s *Service) Retry(ctx context.Context, bookingID int64, actorRole domain.ActorRole, actorID int64) (*models.BookingResponse, error) {
	s.logger.Info("Retry: booking=%d, role=%s, actor=%d", bookingID, actorRole, actorID)

	return s.transition(ctx, transitionRequest{
		bookingID: bookingID,
		trigger:   domain.TriggerRetry,
		actor:     domain.Actor{Role: actorRole, ID: &actorID},
	})
}

// ForceAssign администратор принудительно назначает провайдера
// Проверка занятости провайдера пропускается; исключён только COMPLETED
func (s *Service) ForceAssign(ctx context.Context, bookingID, providerID, actorID int64) (*models.BookingResponse, error) {
	s.logger.Info("ForceAssign: booking=%d, provider=%d, admin=%d", bookingID, providerID, actorID)

	return s.transition(ctx, transitionRequest{
		bookingID:  bookingID,
		trigger:    domain.TriggerForceAssign,
		actor:      domain.Actor{Role: domain.RoleAdmin, ID: &actorID},
		providerID: &providerID,
	})
}

// ForceCancel администратор принудительно отменяет бронирование
// Исключён только COMPLETED
func (s *Service) ForceCancel(ctx context.Context, bookingID, actorID int64) (*models.BookingResponse, error) {
	s.logger.Info("ForceCancel: booking=%d, admin=%d", bookingID, actorID)

	return s.transition(ctx, transitionRequest{
		bookingID: bookingID,
		trigger:   domain.TriggerForceCancel,
		actor:     domain.Actor{Role: domain.RoleAdmin, ID: &actorID},
	})
}

// MarkFailed администратор помечает бронирование как FAILED
// Исключён только COMPLETED
func (s *Service) MarkFailed(ctx context.Context, bookingID, actorID int64) (*models.BookingResponse, error) {
	s.logger.Info("MarkFailed: booking=%d, admin=%d", bookingID, actorID)

	return s.transition(ctx, transitionRequest{
		bookingID: bookingID,
		trigger:   domain.TriggerMarkFailed,
		actor:     domain.Actor{Role: domain.RoleAdmin, ID: &actorID},
	})
}

// transition выполняет applyTransition и конвертирует результат в DTO
func (s *Service) transition(ctx context.Context, req transitionRequest) (*models.BookingResponse, error) {
	booking, err := s.applyTransition(ctx, req)
	if err != nil {
		return nil, err
	}
	return models.FromDomainBooking(booking), nil
}

// applyTransition единая точка диспетчеризации переходов
//
// Порядок проверок: роль -> загрузка (FOR UPDATE) -> правило статуса ->
// принадлежность -> существование провайдера -> занятость провайдера.
// Изменение статуса и запись события фиксируются одной транзакцией:
// частичных состояний не бывает
func (s *Service) applyTransition(ctx context.Context, req transitionRequest) (*domain.Booking, error) {
	rule, ok := domain.RuleFor(req.trigger)
	if !ok {
		return nil, fmt.Errorf("%w: unknown transition trigger %q", ErrInternal, req.trigger)
	}

	// Роль проверяется до загрузки бронирования: чужая роль получает
	// отказ, не узнав о существовании бронирования
	if !rule.AllowsRole(req.actor.Role) {
		s.logger.Warn("applyTransition: role %s is not allowed for trigger %s", req.actor.Role, req.trigger)
		return nil, ErrForbidden
	}

	var result *domain.Booking

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByID(txCtx, req.bookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				s.logger.Warn("applyTransition: booking id=%d not found", req.bookingID)
				return ErrBookingNotFound
			}
			s.logger.Error("applyTransition: failed to load booking id=%d: %v", req.bookingID, err)
			return fmt.Errorf("%w: applyTransition - load booking: %v", ErrInternal, err)
		}

		// Проверка по текущему сохранённому статусу, не по кэшу
		if !rule.AllowsFrom(booking.Status) {
			if booking.Status == domain.StatusCompleted && isForceTrigger(req.trigger) {
				s.logger.Warn("applyTransition: booking id=%d is COMPLETED, override refused", booking.ID)
				return ErrCompletedOverride
			}
			s.logger.Warn("applyTransition: trigger %s not allowed from status %s (booking id=%d)",
				req.trigger, booking.Status, booking.ID)
			return ErrInvalidTransition
		}

		if err := checkOwnership(rule, booking, req.actor); err != nil {
			s.logger.Warn("applyTransition: ownership check failed for booking id=%d, trigger=%s",
				booking.ID, req.trigger)
			return err
		}

		if rule.NeedsProvider {
			if req.providerID == nil {
				return fmt.Errorf("%w: provider id is required for trigger %s", ErrInvalidInput, req.trigger)
			}

			if _, err := s.providerRepo.GetByID(txCtx, *req.providerID); err != nil {
				if errors.Is(err, providerRepo.ErrProviderNotFound) {
					s.logger.Warn("applyTransition: provider id=%d not found", *req.providerID)
					return ErrProviderNotFound
				}
				s.logger.Error("applyTransition: failed to load provider id=%d: %v", *req.providerID, err)
				return fmt.Errorf("%w: applyTransition - load provider: %v", ErrInternal, err)
			}
		}

		// Проверка занятости выполняется в той же транзакции, что и
		// запись: check-then-act без общей границы - классическая гонка
		if rule.ChecksAvailability {
			busy, err := s.bookingRepo.ExistsActiveForProvider(txCtx, *req.providerID)
			if err != nil {
				s.logger.Error("applyTransition: busy check failed for provider id=%d: %v", *req.providerID, err)
				return fmt.Errorf("%w: applyTransition - busy check: %v", ErrInternal, err)
			}
			if busy {
				s.logger.Warn("applyTransition: provider id=%d is busy, booking id=%d not assigned",
					*req.providerID, booking.ID)
				return ErrProviderBusy
			}
		}

		previousStatus := booking.Status

		newProviderID := booking.ProviderID
		if rule.ClearsProvider {
			newProviderID = nil
		}
		if rule.NeedsProvider {
			newProviderID = req.providerID
		}

		if rule.To == domain.StatusCancelled {
			err = s.bookingRepo.Cancel(txCtx, booking.ID, rule.To, req.reason)
		} else {
			err = s.bookingRepo.UpdateState(txCtx, booking.ID, rule.To, newProviderID)
		}
		if err != nil {
			s.logger.Error("applyTransition: failed to update booking id=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: applyTransition - update booking: %v", ErrInternal, err)
		}

		// Ровно одно событие на переход, from_status - статус до изменения
		if _, err := s.bookingRepo.AppendEvent(txCtx, &domain.BookingEvent{
			BookingID:  booking.ID,
			FromStatus: &previousStatus,
			ToStatus:   rule.To,
			ActorRole:  req.actor.Role,
			ActorID:    req.actor.ID,
		}); err != nil {
			s.logger.Error("applyTransition: failed to append event for booking id=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: applyTransition - append event: %v", ErrInternal, err)
		}

		booking.Status = rule.To
		booking.ProviderID = newProviderID
		if rule.To == domain.StatusCancelled {
			booking.CancellationReason = req.reason
		}

		result = booking
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("applyTransition: booking id=%d moved to %s by %s (trigger=%s)",
		result.ID, result.Status, req.actor.Role, req.trigger)
	return result, nil
}

// checkOwnership проверяет принадлежность бронирования актору по правилу
func checkOwnership(rule domain.TransitionRule, booking *domain.Booking, actor domain.Actor) error {
	switch rule.Ownership {
	case domain.OwnershipCustomer:
		if actor.ID == nil || !booking.IsOwnedBy(*actor.ID) {
			return ErrForbidden
		}
	case domain.OwnershipProvider:
		if actor.ID == nil || !booking.IsAssignedTo(*actor.ID) {
			return ErrForbidden
		}
	}
	return nil
}

// isForceTrigger проверяет, является ли триггер административным
// переопределением (для них отказ от COMPLETED имеет отдельную причину)
func isForceTrigger(trigger domain.Trigger) bool {
	return trigger == domain.TriggerForceAssign ||
		trigger == domain.TriggerForceCancel ||
		trigger == domain.TriggerMarkFailed
}

// validateReason проверяет длину причины отмены
func validateReason(reason *string) error {
	if reason != nil && len(*reason) > domain.MaxCancellationReasonLength {
		return fmt.Errorf("%w: cancellation reason is too long", ErrInvalidInput)
	}
	return nil
}
