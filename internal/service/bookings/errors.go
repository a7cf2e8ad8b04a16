package bookings

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrProviderNotFound возвращается, когда целевой провайдер не найден
	ErrProviderNotFound = errors.New("provider not found")

	// ErrForbidden возвращается при несоответствии роли или принадлежности
	// (не та роль, чужое бронирование, чужое назначение)
	ErrForbidden = errors.New("actor is not allowed to perform this transition")

	// ErrInvalidTransition возвращается, когда переход недопустим
	// из текущего статуса бронирования
	ErrInvalidTransition = errors.New("transition is not allowed from current status")

	// ErrCompletedOverride возвращается при попытке административного
	// переопределения завершённого бронирования. COMPLETED - единственный
	// статус, защищённый от force-операций
	ErrCompletedOverride = errors.New("completed booking cannot be overridden")

	// ErrProviderBusy возвращается, когда целевой провайдер уже занят
	// активным бронированием. Выделен отдельно от ErrInvalidTransition:
	// причина в другом объекте (провайдере), а не в самом бронировании
	ErrProviderBusy = errors.New("provider is busy with another booking")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("bookings service: internal error")
)
