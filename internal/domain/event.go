package domain

import "time"

// BookingEvent immutable audit record of a single status transition
// Append-only: события никогда не обновляются и не удаляются отдельно
// от бронирования
type BookingEvent struct {
	ID         int64
	BookingID  int64
	FromStatus *BookingStatus // nil только для события создания
	ToStatus   BookingStatus
	ActorRole  ActorRole
	ActorID    *int64
	CreatedAt  time.Time
}
