package providers

import (
	"context"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

// ProviderRepository интерфейс репозитория провайдеров
type ProviderRepository interface {
	List(ctx context.Context) ([]*domain.Provider, error)
}

// BookingRepository интерфейс репозитория бронирований
// Занятость провайдера выводится из активных бронирований,
// отдельной таблицы доступности нет
type BookingRepository interface {
	ExistsActiveForProvider(ctx context.Context, providerID int64) (bool, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
