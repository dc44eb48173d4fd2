package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

const adminAdjustmentRemarks = "Ajuste desde administración de stock"

// StockAdminUseCase administración explícita de registros de stock (/api/stock).
// Toda variación de current_quantity queda respaldada por un movimiento de ajuste.
type StockAdminUseCase struct {
	txRunner    TxRunner
	stockRepo   repository.StockRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	log         zerolog.Logger
	now         func() time.Time
}

// NewStockAdminUseCase construye el caso de uso.
func NewStockAdminUseCase(
	txRunner TxRunner,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	log zerolog.Logger,
) *StockAdminUseCase {
	return &StockAdminUseCase{
		txRunner:    txRunner,
		stockRepo:   stockRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create crea el registro (producto, ubicación). Devuelve ErrDuplicate si el par ya existe.
// Una cantidad inicial positiva se registra como movimiento de ajuste en la misma transacción.
func (uc *StockAdminUseCase) Create(ctx context.Context, userID string, in dto.CreateStockRequest) (*dto.StockResponse, error) {
	if in.CurrentQuantity < 0 || in.ReservedQuantity < 0 || in.IncomingQuantity < 0 || in.MinLevel < 0 {
		return nil, fmt.Errorf("%w: las cantidades no pueden ser negativas", domain.ErrInvalidQuantity)
	}
	maxLevel := int64(entity.DefaultMaxLevel)
	if in.MaxLevel != nil {
		maxLevel = *in.MaxLevel
	}
	if maxLevel < in.MinLevel {
		return nil, fmt.Errorf("%w: max_level no puede ser menor que min_level", domain.ErrInvalidInput)
	}
	product, user, err := uc.resolve(ctx, in.ProductID, userID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	rec := entity.NewStockRecord(uuid.New().String(), product.ID, inventory.NormalizeLocation(in.Location), now)
	rec.ReservedQuantity = in.ReservedQuantity
	rec.IncomingQuantity = in.IncomingQuantity
	rec.MinLevel = in.MinLevel
	rec.MaxLevel = maxLevel
	rec.SerialNumbers = in.SerialNumbers

	result := rec
	err = uc.txRunner.Run(ctx, func(
		ctx context.Context,
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
	) error {
		if err := stockRepo.Create(ctx, rec); err != nil {
			return err
		}
		if in.CurrentQuantity == 0 {
			return nil
		}
		updated, err := stockRepo.ApplyDelta(ctx, product.ID, rec.Location, in.CurrentQuantity, now)
		if err != nil {
			return err
		}
		result = updated
		return movRepo.Create(ctx, uc.adjustment(rec, in.CurrentQuantity, user.ID, adminAdjustmentRemarks, now))
	})
	if err != nil {
		return nil, err
	}
	out := dto.NewStockResponse(result, product)
	return &out, nil
}

// Update modifica umbrales, reservado, pedido y series. Si cambia current_quantity,
// la diferencia se aplica bajo bloqueo como un movimiento de ajuste.
func (uc *StockAdminUseCase) Update(ctx context.Context, userID, id string, in dto.UpdateStockRequest) (*dto.StockResponse, error) {
	for _, v := range []*int64{in.CurrentQuantity, in.ReservedQuantity, in.IncomingQuantity, in.MinLevel, in.MaxLevel} {
		if v != nil && *v < 0 {
			return nil, fmt.Errorf("%w: las cantidades no pueden ser negativas", domain.ErrInvalidQuantity)
		}
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, domain.ErrUnauthorized
	}
	remarks := in.Remarks
	if remarks == "" {
		remarks = adminAdjustmentRemarks
	}

	var result *entity.StockRecord
	err = uc.txRunner.Run(ctx, func(
		ctx context.Context,
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
	) error {
		rec, err := stockRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrStockNotFound
		}
		now := uc.now()

		if in.CurrentQuantity != nil && *in.CurrentQuantity != rec.CurrentQuantity {
			delta := *in.CurrentQuantity - rec.CurrentQuantity
			updated, err := stockRepo.ApplyDelta(ctx, rec.ProductID, rec.Location, delta, now)
			if err != nil {
				return err
			}
			if err := movRepo.Create(ctx, uc.adjustment(rec, delta, user.ID, remarks, now)); err != nil {
				return err
			}
			rec = updated
		}

		if in.ReservedQuantity != nil {
			rec.ReservedQuantity = *in.ReservedQuantity
		}
		if in.IncomingQuantity != nil {
			rec.IncomingQuantity = *in.IncomingQuantity
		}
		if in.MinLevel != nil {
			rec.MinLevel = *in.MinLevel
		}
		if in.MaxLevel != nil {
			rec.MaxLevel = *in.MaxLevel
		}
		if in.SerialNumbers != nil {
			rec.SerialNumbers = in.SerialNumbers
		}
		if rec.MaxLevel < rec.MinLevel {
			return fmt.Errorf("%w: max_level no puede ser menor que min_level", domain.ErrInvalidInput)
		}
		rec.UpdatedAt = now
		if err := stockRepo.Update(ctx, rec); err != nil {
			return err
		}
		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	product, err := uc.productRepo.GetByID(ctx, result.ProductID)
	if err != nil {
		return nil, err
	}
	out := dto.NewStockResponse(result, product)
	return &out, nil
}

// Delete elimina un registro vacío. ErrStockNotEmpty si aún tiene existencias.
func (uc *StockAdminUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.stockRepo.Delete(ctx, id); err != nil {
		return err
	}
	uc.log.Info().Str("stock_id", id).Msg("registro de stock eliminado")
	return nil
}

func (uc *StockAdminUseCase) adjustment(rec *entity.StockRecord, delta int64, userID, remarks string, at time.Time) *entity.StockMovement {
	m := &entity.StockMovement{
		ID:           uuid.New().String(),
		ProductID:    rec.ProductID,
		Type:         entity.MovementTypeAdjustment,
		Quantity:     delta,
		Location:     rec.Location,
		Remarks:      remarks,
		PerformedBy:  userID,
		MovementDate: at,
	}
	if delta > 0 {
		m.ToLocation = rec.Location
	} else {
		m.FromLocation = rec.Location
	}
	return m
}

func (uc *StockAdminUseCase) resolve(ctx context.Context, productID, userID string) (*entity.Product, *entity.User, error) {
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
