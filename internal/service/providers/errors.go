package providers

import "errors"

var (
	// ErrForbidden возвращается при доступе не-администратора
	ErrForbidden = errors.New("admin access only")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("providers service: internal error")
)
