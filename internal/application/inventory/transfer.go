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

// TransferInput entrada de Transfer.
type TransferInput struct {
	ProductID         string
	FromLocation      string
	ToLocation        string
	Quantity          int64
	ReferenceDocument string
	Remarks           string
	UserID            string
}

// TransferInputFromRequest adapta el body HTTP a la entrada del caso de uso.
func TransferInputFromRequest(userID string, in dto.TransferRequest) TransferInput {
	return TransferInput{
		ProductID:         in.ProductID,
		FromLocation:      in.FromLocation,
		ToLocation:        in.ToLocation,
		Quantity:          in.Quantity,
		ReferenceDocument: in.ReferenceDocument,
		Remarks:           in.Remarks,
		UserID:            userID,
	}
}

// Transfer resta de la ubicación origen y suma en la destino en la misma transacción;
// guarda dos movimientos de tipo transfer (salida y entrada).
func (uc *MovementUseCase) Transfer(ctx context.Context, in TransferInput) (*dto.TransferResponse, error) {
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad a trasladar debe ser positiva", domain.ErrInvalidQuantity)
	}
	if in.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	from := inventory.NormalizeLocation(in.FromLocation)
	to := inventory.NormalizeLocation(in.ToLocation)
	if from == to {
		return nil, fmt.Errorf("%w: origen y destino son la misma ubicación", domain.ErrInvalidInput)
	}
	product, user, err := uc.resolve(ctx, in.ProductID, in.UserID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	newMov := func(location string, qty int64) *entity.StockMovement {
		return &entity.StockMovement{
			ID:                uuid.New().String(),
			ProductID:         product.ID,
			Type:              entity.MovementTypeTransfer,
			Quantity:          qty,
			Location:          location,
			FromLocation:      from,
			ToLocation:        to,
			ReferenceDocument: in.ReferenceDocument,
			Remarks:           in.Remarks,
			PerformedBy:       user.ID,
			MovementDate:      now,
		}
	}
	outMov := newMov(from, -in.Quantity)
	inMov := newMov(to, in.Quantity)

	deltas := map[string]int64{from: -in.Quantity, to: in.Quantity}
	// orden fijo de bloqueo para que dos traslados cruzados no se bloqueen mutuamente
	order := []string{from, to}
	if to < from {
		order = []string{to, from}
	}

	results := make(map[string]*entity.StockRecord, 2)
	err = uc.txRunner.Run(ctx, func(
		ctx context.Context,
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
	) error {
		for _, loc := range order {
			if _, err := stockRepo.GetOrCreate(ctx, product.ID, loc, now); err != nil {
				return err
			}
			rec, err := stockRepo.ApplyDelta(ctx, product.ID, loc, deltas[loc], now)
			if err != nil {
				return err
			}
			results[loc] = rec
		}
		if err := movRepo.Create(ctx, outMov); err != nil {
			return err
		}
		return movRepo.Create(ctx, inMov)
	})
	if err != nil {
		return nil, err
	}

	return &dto.TransferResponse{
		Movements: []dto.MovementResponse{
			dto.NewMovementResponse(outMov, product, user),
			dto.NewMovementResponse(inMov, product, user),
		},
		Source:      dto.NewStockResponse(results[from], product),
		Destination: dto.NewStockResponse(results[to], product),
	}, nil
}
