package domain

import "time"

// Customer identity placeholder for the booking owner
// ID приходит извне (из слоя идентификации), не генерируется здесь.
// Создается лениво при первом бронировании
type Customer struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Provider a service provider; seeded externally, the core only reads providers
type Provider struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
