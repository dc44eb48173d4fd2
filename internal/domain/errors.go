package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrProductNotFound   = errors.New("producto no encontrado")
	ErrStockNotFound     = errors.New("registro de stock no encontrado")
	ErrMovementNotFound  = errors.New("movimiento no encontrado")
	ErrUserNotFound      = errors.New("usuario no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrInvalidKind       = errors.New("tipo de movimiento inválido")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUsernameTaken     = errors.New("el nombre de usuario ya está registrado")
	ErrProductInUse      = errors.New("el producto tiene stock o movimientos asociados")
	ErrUserInUse         = errors.New("el usuario tiene movimientos registrados")
	ErrStockNotEmpty     = errors.New("el registro de stock aún tiene existencias")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInactiveUser      = errors.New("usuario inactivo")
	ErrSelfDelete        = errors.New("no puede eliminar su propio usuario")
	ErrConflict          = errors.New("conflicto con el estado actual")
)

// IsNotFound indica si err corresponde a cualquiera de los errores de "no encontrado".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrStockNotFound) ||
		errors.Is(err, ErrMovementNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
