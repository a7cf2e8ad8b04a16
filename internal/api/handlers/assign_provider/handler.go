package assign_provider

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-DispatchService/internal/api/handlers"
	"github.com/m04kA/SMC-DispatchService/internal/service/bookings"
	serviceModels "github.com/m04kA/SMC-DispatchService/internal/service/bookings/models"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidRole        = "некорректная роль актора"
	msgForbidden          = "назначать провайдера может только SYSTEM или ADMIN"
	msgBookingNotFound    = "бронирование не найдено"
	msgProviderNotFound   = "провайдер не найден"
	msgInvalidState       = "назначение возможно только из статусов PENDING и REJECTED"
	msgProviderBusy       = "провайдер занят другим бронированием"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/assign
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/assign - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req AssignProviderRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/assign - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	role, err := serviceModels.ToDomainActorRole(req.ActorRole)
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/assign - Invalid actor role: %s", req.ActorRole)
		handlers.RespondBadRequest(w, msgInvalidRole)
		return
	}

	booking, err := h.service.AssignProvider(r.Context(), bookingID, req.ProviderID, role)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrForbidden):
			h.logger.Warn("POST /bookings/{id}/assign - Forbidden: booking_id=%d, actor_role=%s", bookingID, role)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/assign - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, bookings.ErrProviderNotFound):
			h.logger.Warn("POST /bookings/{id}/assign - Provider not found: provider_id=%d", req.ProviderID)
			handlers.RespondNotFound(w, msgProviderNotFound)

		case errors.Is(err, bookings.ErrProviderBusy):
			h.logger.Warn("POST /bookings/{id}/assign - Provider busy: booking_id=%d, provider_id=%d",
				bookingID, req.ProviderID)
			handlers.RespondConflict(w, msgProviderBusy)

		case errors.Is(err, bookings.ErrInvalidTransition):
			h.logger.Warn("POST /bookings/{id}/assign - Invalid state: booking_id=%d", bookingID)
			handlers.RespondBadRequest(w, msgInvalidState)

		default:
			h.logger.Error("POST /bookings/{id}/assign - Failed to assign provider: booking_id=%d, provider_id=%d, error=%v",
				bookingID, req.ProviderID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/assign - Provider assigned successfully: booking_id=%d, provider_id=%d",
		bookingID, req.ProviderID)
	handlers.RespondJSON(w, http.StatusOK, booking)
}
