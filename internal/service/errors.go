package service

import "errors"

// Ошибки бизнес-логики. Контроллер отображает их в HTTP-статусы и
// сообщения; ничего кроме них (и инфраструктурных сбоев) наружу не выходит.
var (
	ErrUnauthenticated = errors.New("caller is not authenticated")

	// ErrNotFound возвращается и когда сущности нет, и когда она принадлежит
	// чужой организации. Для вызывающего эти случаи неразличимы намеренно:
	// существование чужих занятий не раскрываем.
	ErrNotFound = errors.New("not found")

	ErrForbidden    = errors.New("action is not allowed for this role")
	ErrAccessDenied = errors.New("no qualifying purchase grants access to this session")

	ErrSessionNotActive  = errors.New("session is not live")
	ErrInvalidTransition = errors.New("invalid session state transition")
	ErrEditNotAllowed    = errors.New("session can not be edited in its current state")
	ErrDeleteNotAllowed  = errors.New("live session can not be deleted")

	ErrValidation             = errors.New("validation failed")
	ErrChildSelectionRequired = errors.New("caller has several children, child id is required")
)
