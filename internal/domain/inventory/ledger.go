// Package inventory contiene las reglas puras del libro de existencias:
// validación de movimientos, aplicación de deltas y normalización de etiquetas.
package inventory

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var lower = cases.Lower(language.Und)

// NormalizeLocation limpia la etiqueta de ubicación: NFC, espacios colapsados.
// Una etiqueta vacía se convierte en entity.UnknownLocation.
func NormalizeLocation(s string) string {
	s = strings.Join(strings.Fields(norm.NFC.String(s)), " ")
	if s == "" {
		return entity.UnknownLocation
	}
	return s
}

// NormalizeKind pasa el tipo de movimiento a minúsculas sin espacios alrededor.
func NormalizeKind(s string) string {
	return lower.String(strings.TrimSpace(s))
}

// ValidateMovement comprueba que kind y delta sean coherentes para un movimiento directo.
// transfer e incoming-ordered solo se generan desde sus propios casos de uso.
func ValidateMovement(kind string, delta int64) error {
	if delta == 0 {
		return fmt.Errorf("%w: la cantidad no puede ser cero", domain.ErrInvalidQuantity)
	}
	// -MinInt64 no es representable en int64
	if delta == math.MinInt64 {
		return fmt.Errorf("%w: cantidad fuera de rango", domain.ErrInvalidQuantity)
	}
	switch kind {
	case entity.MovementTypeIn:
		if delta < 0 {
			return fmt.Errorf("%w: una entrada debe ser positiva", domain.ErrInvalidQuantity)
		}
	case entity.MovementTypeOut:
		if delta > 0 {
			return fmt.Errorf("%w: una salida debe ser negativa", domain.ErrInvalidQuantity)
		}
	case entity.MovementTypeAdjustment:
	default:
		return fmt.Errorf("%w: %q", domain.ErrInvalidKind, kind)
	}
	return nil
}

// ApplyDelta aplica delta sobre rec respetando current_quantity >= 0.
// Si el resultado sería negativo devuelve ErrInsufficientStock y rec queda intacto;
// si desborda int64, ErrInvalidQuantity.
//
// Es la semántica de referencia del libro: los adaptadores de postgres y mongodb la
// reproducen en una única escritura condicional, y el repositorio en memoria de los
// tests la usa tal cual.
func ApplyDelta(rec *entity.StockRecord, delta int64, at time.Time) error {
	if delta == 0 || delta == math.MinInt64 {
		return domain.ErrInvalidQuantity
	}
	if delta > 0 && (rec.CurrentQuantity > math.MaxInt64-delta || rec.TotalIn > math.MaxInt64-delta) {
		return fmt.Errorf("%w: cantidad fuera de rango", domain.ErrInvalidQuantity)
	}
	next := rec.CurrentQuantity + delta
	if next < 0 {
		return domain.ErrInsufficientStock
	}
	if delta < 0 && rec.TotalOut > math.MaxInt64+delta {
		return fmt.Errorf("%w: cantidad fuera de rango", domain.ErrInvalidQuantity)
	}
	rec.CurrentQuantity = next
	if delta > 0 {
		rec.TotalIn += delta
		rec.LastInDate = &at
	} else {
		rec.TotalOut += -delta
		rec.LastOutDate = &at
	}
	rec.UpdatedAt = at
	return nil
}

// ApplyIncoming suma qty a incoming_quantity; current_quantity no cambia.
// Igual que ApplyDelta, define lo que AddIncoming hace en cada adaptador.
func ApplyIncoming(rec *entity.StockRecord, qty int64, at time.Time) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	if rec.IncomingQuantity > math.MaxInt64-qty {
		return fmt.Errorf("%w: cantidad fuera de rango", domain.ErrInvalidQuantity)
	}
	rec.IncomingQuantity += qty
	rec.UpdatedAt = at
	return nil
}

// IncomingReference arma el documento de referencia de un pedido a proveedor.
func IncomingReference(supplierInfo string) string {
	supplierInfo = strings.TrimSpace(supplierInfo)
	if supplierInfo == "" {
		supplierInfo = "N/A"
	}
	return "Pedido a proveedor: " + supplierInfo
}

// SuggestedOrder cantidad sugerida para llevar el registro a su nivel máximo,
// descontando lo ya pedido. Nunca es negativa.
func SuggestedOrder(rec *entity.StockRecord) int64 {
	ceiling := rec.MaxLevel
	if ceiling <= 0 {
		ceiling = entity.DefaultMaxLevel
	}
	s := ceiling - rec.CurrentQuantity - rec.IncomingQuantity
	if s < 0 {
		return 0
	}
	return s
}

// BelowMinimum indica si el registro está en o por debajo de su nivel mínimo.
func BelowMinimum(rec *entity.StockRecord) bool {
	return rec.MinLevel > 0 && rec.CurrentQuantity <= rec.MinLevel
}
