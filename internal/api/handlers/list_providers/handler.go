package list_providers

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DispatchService/internal/api/handlers"
	serviceModels "github.com/m04kA/SMC-DispatchService/internal/service/bookings/models"
	"github.com/m04kA/SMC-DispatchService/internal/service/providers"
)

const (
	msgInvalidRole = "некорректная роль актора"
	msgForbidden   = "список провайдеров доступен только администратору"
)

type Handler struct {
	service ProviderService
	logger  Logger
}

func NewHandler(service ProviderService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/admin/providers?actor_role=ADMIN
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	role, err := serviceModels.ToDomainActorRole(r.URL.Query().Get("actor_role"))
	if err != nil {
		h.logger.Warn("GET /admin/providers - Invalid actor role: %s", r.URL.Query().Get("actor_role"))
		handlers.RespondBadRequest(w, msgInvalidRole)
		return
	}

	result, err := h.service.ListWithAvailability(r.Context(), role)
	if err != nil {
		if errors.Is(err, providers.ErrForbidden) {
			h.logger.Warn("GET /admin/providers - Forbidden: actor_role=%s", role)
			handlers.RespondForbidden(w, msgForbidden)
			return
		}

		h.logger.Error("GET /admin/providers - Failed to list providers: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /admin/providers - Providers listed: count=%d", len(result.Providers))
	handlers.RespondJSON(w, http.StatusOK, result)
}
