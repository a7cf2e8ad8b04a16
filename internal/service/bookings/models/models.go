package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

var (
	// ErrInvalidRole возвращается при неизвестной роли актора
	ErrInvalidRole = errors.New("invalid actor role")
)

// Request модели

// CreateBookingRequest запрос на создание бронирования
// ActorID одновременно является ID клиента: клиент создается лениво,
// если его ещё нет
type CreateBookingRequest struct {
	CustomerName string
	ActorRole    domain.ActorRole
	ActorID      int64
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customerId"`
	ProviderID *int64 `json:"providerId,omitempty"`
	Status     string `json:"status"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// BookingEventResponse ответ с событием аудита
type BookingEventResponse struct {
	ID         int64     `json:"id"`
	BookingID  int64     `json:"bookingId"`
	FromStatus *string   `json:"fromStatus"` // null только для события создания
	ToStatus   string    `json:"toStatus"`
	ActorRole  string    `json:"actorRole"`
	ActorID    *int64    `json:"actorId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// BookingEventListResponse ответ с историей событий бронирования
type BookingEventListResponse struct {
	Events []BookingEventResponse `json:"events"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		CustomerID:         b.CustomerID,
		ProviderID:         b.ProviderID,
		Status:             string(b.Status),
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	if b.CancelledAt != nil {
		cancelledStr := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}

// FromDomainEvent конвертирует событие аудита в DTO
func FromDomainEvent(e *domain.BookingEvent) *BookingEventResponse {
	if e == nil {
		return nil
	}

	resp := &BookingEventResponse{
		ID:        e.ID,
		BookingID: e.BookingID,
		ToStatus:  string(e.ToStatus),
		ActorRole: string(e.ActorRole),
		ActorID:   e.ActorID,
		CreatedAt: e.CreatedAt,
	}

	if e.FromStatus != nil {
		from := string(*e.FromStatus)
		resp.FromStatus = &from
	}

	return resp
}

// FromDomainEventList конвертирует историю событий в DTO
func FromDomainEventList(events []*domain.BookingEvent) *BookingEventListResponse {
	resp := &BookingEventListResponse{
		Events: make([]BookingEventResponse, 0, len(events)),
	}

	for _, event := range events {
		if eventResp := FromDomainEvent(event); eventResp != nil {
			resp.Events = append(resp.Events, *eventResp)
		}
	}

	return resp
}

// ToDomainActorRole конвертирует строку в domain.ActorRole с валидацией
func ToDomainActorRole(role string) (domain.ActorRole, error) {
	r := domain.ActorRole(role)
	if !r.IsValid() {
		return "", ErrInvalidRole
	}
	return r, nil
}
