package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// MovementUseCase registra movimientos sobre el libro de existencias de forma transaccional:
// la actualización condicional de cantidad y el alta del movimiento se confirman juntas o ninguna.
type MovementUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	log         zerolog.Logger
	now         func() time.Time
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	log zerolog.Logger,
) *MovementUseCase {
	return &MovementUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		userRepo:    userRepo,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RecordMovementInput entrada de RecordMovement. Location vacía = entity.UnknownLocation.
type RecordMovementInput struct {
	ProductID         string
	Kind              string
	Quantity          int64
	Location          string
	ReferenceDocument string
	Remarks           string
	UserID            string
}

// RecordMovementInputFromRequest adapta el body HTTP a la entrada del caso de uso.
func RecordMovementInputFromRequest(userID string, in dto.RecordMovementRequest) RecordMovementInput {
	return RecordMovementInput{
		ProductID:         in.ProductID,
		Kind:              in.MovementType,
		Quantity:          in.Quantity,
		Location:          in.Location,
		ReferenceDocument: in.ReferenceDocument,
		Remarks:           in.Remarks,
		UserID:            userID,
	}
}

// RecordMovement resuelve el producto, crea el registro (producto, ubicación) si no existe,
// aplica el delta con la condición current_quantity + delta >= 0 y agrega el movimiento.
//
// Errores: ErrInvalidQuantity/ErrInvalidKind/ErrInvalidInput (validación), ErrProductNotFound,
// ErrUnauthorized (usuario no resoluble), ErrInsufficientStock (sin escrituras).
func (uc *MovementUseCase) RecordMovement(ctx context.Context, in RecordMovementInput) (*dto.RecordMovementResponse, error) {
	kind := inventory.NormalizeKind(in.Kind)
	if err := inventory.ValidateMovement(kind, in.Quantity); err != nil {
		return nil, err
	}
	if in.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	product, user, err := uc.resolve(ctx, in.ProductID, in.UserID)
	if err != nil {
		return nil, err
	}

	location := inventory.NormalizeLocation(in.Location)
	now := uc.now()
	mov := &entity.StockMovement{
		ID:                uuid.New().String(),
		ProductID:         product.ID,
		Type:              kind,
		Quantity:          in.Quantity,
		Location:          location,
		ReferenceDocument: in.ReferenceDocument,
		Remarks:           in.Remarks,
		PerformedBy:       user.ID,
		MovementDate:      now,
	}
	if in.Quantity > 0 {
		mov.ToLocation = location
	} else {
		mov.FromLocation = location
	}

	var rec *entity.StockRecord
	err = uc.txRunner.Run(ctx, func(
		ctx context.Context,
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
	) error {
		if _, err := stockRepo.GetOrCreate(ctx, product.ID, location, now); err != nil {
			return err
		}
		updated, err := stockRepo.ApplyDelta(ctx, product.ID, location, in.Quantity, now)
		if err != nil {
			return err
		}
		if err := movRepo.Create(ctx, mov); err != nil {
			return err
		}
		rec = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Debug().
		Str("product_id", product.ID).
		Str("location", location).
		Int64("delta", in.Quantity).
		Int64("current_quantity", rec.CurrentQuantity).
		Msg("movimiento registrado")

	return &dto.RecordMovementResponse{
		Movement: dto.NewMovementResponse(mov, product, user),
		Stock:    dto.NewStockResponse(rec, product),
	}, nil
}

// resolve obtiene producto y usuario actuante.
func (uc *MovementUseCase) resolve(ctx context.Context, productID, userID string) (*entity.Product, *entity.User, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, domain.ErrProductNotFound
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !user.IsActive {
		return nil, nil, domain.ErrUnauthorized
	}
	return product, user, nil
}
