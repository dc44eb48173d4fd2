package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// StockQueryUseCase lecturas del libro: siempre hidratadas con producto y usuario.
type StockQueryUseCase struct {
	stockRepo    repository.StockRepository
	movementRepo repository.StockMovementRepository
	productRepo  repository.ProductRepository
	hydrate      hydrator
}

// NewStockQueryUseCase construye el caso de uso de consultas.
func NewStockQueryUseCase(
	stockRepo repository.StockRepository,
	movementRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
) *StockQueryUseCase {
	return &StockQueryUseCase{
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		productRepo:  productRepo,
		hydrate:      hydrator{productRepo: productRepo, userRepo: userRepo},
	}
}

// ListMovements devuelve movimientos (más recientes primero) según el filtro.
func (uc *StockQueryUseCase) ListMovements(ctx context.Context, filter repository.MovementFilter) (*dto.MovementListResponse, error) {
	page := dto.PageRequest{Limit: filter.Limit, Offset: filter.Offset}
	page.DefaultPage()
	filter.Limit, filter.Offset = page.Limit, page.Offset
	if filter.Location != "" {
		filter.Location = inventory.NormalizeLocation(filter.Location)
	}
	if filter.Type != "" {
		filter.Type = inventory.NormalizeKind(filter.Type)
	}

	list, err := uc.movementRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items, err := uc.hydrate.movements(ctx, list)
	if err != nil {
		return nil, err
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Count: len(items)},
	}, nil
}

// GetMovement devuelve un movimiento por id. ErrMovementNotFound si no existe.
func (uc *StockQueryUseCase) GetMovement(ctx context.Context, id string) (*dto.MovementResponse, error) {
	m, err := uc.movementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrMovementNotFound
	}
	out, err := uc.hydrate.movements(ctx, []*entity.StockMovement{m})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// ListStock devuelve registros de stock según el filtro.
func (uc *StockQueryUseCase) ListStock(ctx context.Context, filter repository.StockFilter) (*dto.StockListResponse, error) {
	page := dto.PageRequest{Limit: filter.Limit, Offset: filter.Offset}
	page.DefaultPage()
	filter.Limit, filter.Offset = page.Limit, page.Offset
	if filter.Location != "" {
		filter.Location = inventory.NormalizeLocation(filter.Location)
	}

	list, err := uc.stockRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items, err := uc.hydrate.stocks(ctx, list)
	if err != nil {
		return nil, err
	}
	return &dto.StockListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Count: len(items)},
	}, nil
}

// GetStock devuelve un registro por id. ErrStockNotFound si no existe.
func (uc *StockQueryUseCase) GetStock(ctx context.Context, id string) (*dto.StockResponse, error) {
	s, err := uc.stockRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrStockNotFound
	}
	product, err := uc.productRepo.GetByID(ctx, s.ProductID)
	if err != nil {
		return nil, err
	}
	out := dto.NewStockResponse(s, product)
	return &out, nil
}

// GetStockByProduct todos los registros de un producto (uno por ubicación).
// ErrProductNotFound si el producto no existe; lista vacía si aún no tiene registros.
func (uc *StockQueryUseCase) GetStockByProduct(ctx context.Context, productID string) ([]dto.StockResponse, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	list, err := uc.stockRepo.List(ctx, repository.StockFilter{ProductID: product.ID, Limit: dto.MaxLimit})
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.NewStockResponse(s, product))
	}
	return out, nil
}

// GetStockByLocation todos los registros de una ubicación (etiqueta normalizada).
func (uc *StockQueryUseCase) GetStockByLocation(ctx context.Context, location string) ([]dto.StockResponse, error) {
	list, err := uc.stockRepo.List(ctx, repository.StockFilter{
		Location: inventory.NormalizeLocation(location),
		Limit:    dto.MaxLimit,
	})
	if err != nil {
		return nil, err
	}
	return uc.hydrate.stocks(ctx, list)
}
