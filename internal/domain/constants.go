package domain

// Business validation constants
const (
	MaxCustomerNameLength       = 200
	MaxCancellationReasonLength = 500
)

// OccupyingStatuses список статусов, при которых бронирование занимает провайдера
// Используется при проверке занятости и в фильтре активных бронирований провайдера
var OccupyingStatuses = []BookingStatus{
	StatusAssigned,
	StatusInProgress,
}

// TerminalStatuses список терминальных статусов для обычных операций
// COMPLETED из них единственный, который не переопределяется даже админом
var TerminalStatuses = []BookingStatus{
	StatusCompleted,
	StatusCancelled,
	StatusRejected,
	StatusFailed,
}

// AllStatuses полный список статусов, используется при валидации
var AllStatuses = []BookingStatus{
	StatusPending,
	StatusAssigned,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusRejected,
	StatusFailed,
}
