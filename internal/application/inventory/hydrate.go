package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// hydrator resuelve productos y usuarios referenciados en lote (una consulta por colección).
type hydrator struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
}

func (h hydrator) productsByID(ctx context.Context, ids []string) (map[string]*entity.Product, error) {
	out := make(map[string]*entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	list, err := h.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hidratar productos: %w", err)
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

func (h hydrator) usersByID(ctx context.Context, ids []string) (map[string]*entity.User, error) {
	out := make(map[string]*entity.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	list, err := h.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hidratar usuarios: %w", err)
	}
	for _, u := range list {
		out[u.ID] = u
	}
	return out, nil
}

func (h hydrator) movements(ctx context.Context, list []*entity.StockMovement) ([]dto.MovementResponse, error) {
	productIDs := make([]string, 0, len(list))
	userIDs := make([]string, 0, len(list))
	for _, m := range list {
		productIDs = append(productIDs, m.ProductID)
		userIDs = append(userIDs, m.PerformedBy)
	}
	products, err := h.productsByID(ctx, unique(productIDs))
	if err != nil {
		return nil, err
	}
	users, err := h.usersByID(ctx, unique(userIDs))
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, dto.NewMovementResponse(m, products[m.ProductID], users[m.PerformedBy]))
	}
	return out, nil
}

func (h hydrator) stocks(ctx context.Context, list []*entity.StockRecord) ([]dto.StockResponse, error) {
	ids := make([]string, 0, len(list))
	for _, s := range list {
		ids = append(ids, s.ProductID)
	}
	products, err := h.productsByID(ctx, unique(ids))
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.NewStockResponse(s, products[s.ProductID]))
	}
	return out, nil
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
