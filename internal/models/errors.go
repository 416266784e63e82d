package models

import "errors"

// Типизированные ошибки доменных сервисов
var (
	// ErrInvalidCredentials возвращается при неверном email или пароле
	ErrInvalidCredentials = errors.New("неверный email или пароль")

	// ErrNotFound возвращается, когда сущность отсутствует в хранилище
	ErrNotFound = errors.New("запись не найдена")

	// ErrForbidden возвращается при попытке изменить чужую сущность
	ErrForbidden = errors.New("нет доступа к этой записи")

	// ErrUnauthorized возвращается, когда операция требует авторизации
	ErrUnauthorized = errors.New("пользователь не авторизован")

	// ErrValidation возвращается до обращения к хранилищу
	// при некорректных входных данных
	ErrValidation = errors.New("некорректные данные")

	// ErrEmailTaken возвращается при регистрации на занятый email
	ErrEmailTaken = errors.New("email уже зарегистрирован")
)
