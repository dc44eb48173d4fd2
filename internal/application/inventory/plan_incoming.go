package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

const planIncomingMessage = "Pedidos planificados correctamente."

// Razones de omisión devueltas en PlanIncomingPartsResponse.Skipped.
const (
	skipReasonProductNotFound = "producto no encontrado"
	skipReasonInvalidQuantity = "la cantidad debe ser mayor que cero"
)

// PlanIncomingParts registra pedidos a proveedor: por cada línea suma incoming_quantity en el
// registro (producto, UNKNOWN) y agrega un movimiento incoming-ordered. Cada línea es su propia
// transacción; las líneas con producto inexistente o cantidad no positiva se omiten y se informan.
// Un error de infraestructura detiene el lote (las líneas ya confirmadas quedan confirmadas).
func (uc *MovementUseCase) PlanIncomingParts(ctx context.Context, userID string, in dto.PlanIncomingPartsRequest) (*dto.PlanIncomingPartsResponse, error) {
	if len(in.NeededParts) == 0 {
		return nil, fmt.Errorf("%w: needed_parts no puede estar vacío", domain.ErrInvalidInput)
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, domain.ErrUnauthorized
	}

	reference := inventory.IncomingReference(in.SupplierInfo)
	var remarks string
	if in.DeliveryDate != nil {
		remarks = "Entrega estimada: " + in.DeliveryDate.Format("2006-01-02")
	}

	resp := &dto.PlanIncomingPartsResponse{
		Message:   planIncomingMessage,
		Movements: []dto.MovementResponse{},
		Skipped:   []dto.SkippedPart{},
	}
	for _, item := range in.NeededParts {
		if item.Quantity <= 0 {
			uc.skip(resp, item, skipReasonInvalidQuantity)
			continue
		}
		product, err := uc.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			uc.skip(resp, item, skipReasonProductNotFound)
			continue
		}

		now := uc.now()
		mov := &entity.StockMovement{
			ID:                uuid.New().String(),
			ProductID:         product.ID,
			Type:              entity.MovementTypeIncomingOrdered,
			Quantity:          item.Quantity,
			Location:          entity.UnknownLocation,
			ToLocation:        entity.UnknownLocation,
			ReferenceDocument: reference,
			Remarks:           remarks,
			PerformedBy:       user.ID,
			MovementDate:      now,
		}
		err = uc.txRunner.Run(ctx, func(
			ctx context.Context,
			stockRepo repository.StockRepository,
			movRepo repository.StockMovementRepository,
		) error {
			if _, err := stockRepo.GetOrCreate(ctx, product.ID, entity.UnknownLocation, now); err != nil {
				return err
			}
			if _, err := stockRepo.AddIncoming(ctx, product.ID, entity.UnknownLocation, item.Quantity, now); err != nil {
				return err
			}
			return movRepo.Create(ctx, mov)
		})
		if err != nil {
			return nil, fmt.Errorf("planificar pedido de %s: %w", product.ID, err)
		}
		resp.Movements = append(resp.Movements, dto.NewMovementResponse(mov, product, user))
	}
	return resp, nil
}

func (uc *MovementUseCase) skip(resp *dto.PlanIncomingPartsResponse, item dto.IncomingPartItem, reason string) {
	uc.log.Warn().
		Str("product_id", item.ProductID).
		Int64("quantity", item.Quantity).
		Str("reason", reason).
		Msg("línea de pedido omitida")
	resp.Skipped = append(resp.Skipped, dto.SkippedPart{
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Reason:    reason,
	})
}
