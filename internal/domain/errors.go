package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrLockConflict agrupa deadlock, lock timeout y fallos de serialización: el llamador puede reintentar.
	ErrLockConflict = errors.New("conflicto de bloqueo en base de datos")
	// ErrBatchLocked indica que otra generación de facturas está en curso para la misma empresa.
	ErrBatchLocked = errors.New("generación de facturas en curso para la empresa")
)
