package bookings

import (
	"context"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований и событий
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateState(ctx context.Context, id int64, status domain.BookingStatus, providerID *int64) error
	Cancel(ctx context.Context, id int64, status domain.BookingStatus, reason *string) error
	ExistsActiveForProvider(ctx context.Context, providerID int64) (bool, error)
	GetActiveByProvider(ctx context.Context, providerID int64) ([]*domain.Booking, error)
	AppendEvent(ctx context.Context, event *domain.BookingEvent) (*domain.BookingEvent, error)
	ListEvents(ctx context.Context, bookingID int64) ([]*domain.BookingEvent, error)
}

// CustomerRepository интерфейс репозитория клиентов
type CustomerRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	Create(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
}

// ProviderRepository интерфейс репозитория провайдеров
type ProviderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Provider, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
