package list_providers

import (
	"context"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
	"github.com/m04kA/SMC-DispatchService/internal/service/providers/models"
)

type ProviderService interface {
	ListWithAvailability(ctx context.Context, actorRole domain.ActorRole) (*models.ProviderListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
