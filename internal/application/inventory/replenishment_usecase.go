package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ReplenishmentUseCase genera la lista de faltantes: registros en o por debajo de su mínimo.
type ReplenishmentUseCase struct {
	stockRepo   repository.StockRepository
	productRepo repository.ProductRepository
	hydrate     hydrator
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{
		stockRepo:   stockRepo,
		productRepo: productRepo,
		hydrate:     hydrator{productRepo: productRepo},
	}
}

// LowStock devuelve los registros bajo mínimo con la cantidad sugerida de pedido
// (max_level − current − incoming, nunca negativa) y un ranking de prioridad.
// location vacía considera todas las ubicaciones.
func (uc *ReplenishmentUseCase) LowStock(ctx context.Context, location string) ([]dto.LowStockItemDTO, error) {
	filter := repository.StockFilter{BelowMin: true}
	if location != "" {
		filter.Location = inventory.NormalizeLocation(location)
	}
	records, err := uc.stockRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []dto.LowStockItemDTO{}, nil
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ProductID)
	}
	products, err := uc.hydrate.productsByID(ctx, unique(ids))
	if err != nil {
		return nil, err
	}

	items := make([]dto.LowStockItemDTO, 0, len(records))
	for _, r := range records {
		// min_level = 0 no genera alerta
		if !inventory.BelowMinimum(r) {
			continue
		}
		suggested := inventory.SuggestedOrder(r)
		item := dto.LowStockItemDTO{
			StockID:            r.ID,
			ProductID:          r.ProductID,
			Location:           r.Location,
			CurrentQuantity:    r.CurrentQuantity,
			IncomingQuantity:   r.IncomingQuantity,
			MinLevel:           r.MinLevel,
			MaxLevel:           r.MaxLevel,
			Deficit:            r.MinLevel - r.CurrentQuantity,
			SuggestedOrderQty:  suggested,
			EstimatedOrderCost: decimal.Zero,
		}
		if p, ok := products[r.ProductID]; ok {
			item.Code = p.Code
			item.ProductName = p.Name
			item.EstimatedOrderCost = p.PurchasePrice.Mul(decimal.NewFromInt(suggested))
		}
		items = append(items, item)
	}

	// mayor déficit primero; luego menos pedido en camino; luego código
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Deficit != b.Deficit {
			return a.Deficit > b.Deficit
		}
		if a.IncomingQuantity != b.IncomingQuantity {
			return a.IncomingQuantity < b.IncomingQuantity
		}
		return a.Code < b.Code
	})

	for i := range items {
		items[i].Priority = i + 1
	}
	return items, nil
}
