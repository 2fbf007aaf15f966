package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Taxonomía del motor de sincronización.
	ErrTransportUnavailable = errors.New("transporte no disponible")
	ErrResponseTimeout      = errors.New("sin respuesta dentro del tiempo configurado")
	ErrSuperseded           = errors.New("petición reemplazada por otra en el mismo canal")
	ErrRemoteRequestFailed  = errors.New("la petición remota falló")
	ErrHandlerBound         = errors.New("el canal ya tiene un handler registrado")
)
