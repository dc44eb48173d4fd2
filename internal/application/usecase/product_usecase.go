package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos. Las existencias se manejan vía movimientos.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create crea un nuevo producto. Código duplicado → ErrDuplicate.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return nil, fmt.Errorf("%w: code y name son obligatorios", domain.ErrInvalidInput)
	}
	if err := validatePrices(in.PurchasePrice, in.SalePrice); err != nil {
		return nil, err
	}
	if in.CurrentStock < 0 || in.MinimumStock < 0 || in.ReorderPoint < 0 {
		return nil, fmt.Errorf("%w: los niveles no pueden ser negativos", domain.ErrInvalidQuantity)
	}
	existing, err := uc.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = entity.DefaultUnit
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	now := time.Now().UTC()
	product := &entity.Product{
		ID:            uuid.New().String(),
		Code:          code,
		Name:          name,
		Description:   in.Description,
		Unit:          unit,
		Category:      strings.TrimSpace(in.Category),
		PurchasePrice: in.PurchasePrice,
		SalePrice:     in.SalePrice,
		CurrentStock:  in.CurrentStock,
		MinimumStock:  in.MinimumStock,
		ReorderPoint:  in.ReorderPoint,
		IsActive:      active,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return dto.NewProductResponse(product), nil
}

// GetByID obtiene un producto por ID. ErrProductNotFound si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	return dto.NewProductResponse(product), nil
}

// List devuelve productos paginados y filtrados.
func (uc *ProductUseCase) List(ctx context.Context, filter repository.ProductFilter) (*dto.ProductListResponse, error) {
	page := dto.PageRequest{Limit: filter.Limit, Offset: filter.Offset}
	page.DefaultPage()
	filter.Limit, filter.Offset = page.Limit, page.Offset

	list, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *dto.NewProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Count: len(items)},
	}, nil
}

// Update actualiza un producto. Cambiar a un código existente → ErrDuplicate.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	if in.Code != nil {
		code := strings.TrimSpace(*in.Code)
		if code == "" {
			return nil, fmt.Errorf("%w: code no puede quedar vacío", domain.ErrInvalidInput)
		}
		if code != product.Code {
			other, err := uc.repo.GetByCode(ctx, code)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, domain.ErrDuplicate
			}
			product.Code = code
		}
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name no puede quedar vacío", domain.ErrInvalidInput)
		}
		product.Name = name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Unit != nil {
		product.Unit = strings.TrimSpace(*in.Unit)
		if product.Unit == "" {
			product.Unit = entity.DefaultUnit
		}
	}
	if in.Category != nil {
		product.Category = strings.TrimSpace(*in.Category)
	}
	if in.PurchasePrice != nil {
		product.PurchasePrice = *in.PurchasePrice
	}
	if in.SalePrice != nil {
		product.SalePrice = *in.SalePrice
	}
	if err := validatePrices(product.PurchasePrice, product.SalePrice); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		in  *int64
		out *int64
	}{
		{in.CurrentStock, &product.CurrentStock},
		{in.MinimumStock, &product.MinimumStock},
		{in.ReorderPoint, &product.ReorderPoint},
	} {
		if f.in == nil {
			continue
		}
		if *f.in < 0 {
			return nil, fmt.Errorf("%w: los niveles no pueden ser negativos", domain.ErrInvalidQuantity)
		}
		*f.out = *f.in
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	product.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return dto.NewProductResponse(product), nil
}

// Delete elimina el producto. ErrProductInUse si tiene stock o movimientos.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrProductNotFound
	}
	return uc.repo.Delete(ctx, id)
}

// ImportRow una fila del catálogo importado desde CSV.
type ImportRow struct {
	Code          string
	Name          string
	Unit          string
	Category      string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
}

// ImportResult conteo del resultado de Import.
type ImportResult struct {
	Created int
	Updated int
}

// Import inserta o actualiza productos por código.
func (uc *ProductUseCase) Import(ctx context.Context, rows []ImportRow) (ImportResult, error) {
	var res ImportResult
	for _, row := range rows {
		existing, err := uc.repo.GetByCode(ctx, strings.TrimSpace(row.Code))
		if err != nil {
			return res, err
		}
		if existing == nil {
			_, err := uc.Create(ctx, dto.CreateProductRequest{
				Code:          row.Code,
				Name:          row.Name,
				Unit:          row.Unit,
				Category:      row.Category,
				PurchasePrice: row.PurchasePrice,
				SalePrice:     row.SalePrice,
			})
			if err != nil {
				return res, fmt.Errorf("importar %s: %w", row.Code, err)
			}
			res.Created++
			continue
		}
		name, unit, category := row.Name, row.Unit, row.Category
		if _, err := uc.Update(ctx, existing.ID, dto.UpdateProductRequest{
			Name:          &name,
			Unit:          &unit,
			Category:      &category,
			PurchasePrice: &row.PurchasePrice,
			SalePrice:     &row.SalePrice,
		}); err != nil {
			return res, fmt.Errorf("importar %s: %w", row.Code, err)
		}
		res.Updated++
	}
	return res, nil
}

func validatePrices(purchase, sale decimal.Decimal) error {
	if purchase.IsNegative() || sale.IsNegative() {
		return fmt.Errorf("%w: los precios no pueden ser negativos", domain.ErrInvalidInput)
	}
	return nil
}
