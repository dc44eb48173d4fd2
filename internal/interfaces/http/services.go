package http

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/application/auth"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Contratos que consumen los handlers; los implementan los casos de uso de application.

// AuthService login y alta de usuarios.
type AuthService interface {
	Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error)
	Register(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error)
}

// UserService administración de usuarios.
type UserService interface {
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, page dto.PageRequest) (*dto.UserListResponse, error)
	Update(ctx context.Context, actorID, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, actorID, id string) error
}

// ProductService catálogo de productos.
type ProductService interface {
	Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ProductResponse, error)
	List(ctx context.Context, filter repository.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, id string) error
}

// MovementService escrituras sobre el libro de existencias.
type MovementService interface {
	RecordMovement(ctx context.Context, in inventory.RecordMovementInput) (*dto.RecordMovementResponse, error)
	Transfer(ctx context.Context, in inventory.TransferInput) (*dto.TransferResponse, error)
	PlanIncomingParts(ctx context.Context, userID string, in dto.PlanIncomingPartsRequest) (*dto.PlanIncomingPartsResponse, error)
}

// StockQueryService lecturas hidratadas de stock y movimientos.
type StockQueryService interface {
	ListMovements(ctx context.Context, filter repository.MovementFilter) (*dto.MovementListResponse, error)
	GetMovement(ctx context.Context, id string) (*dto.MovementResponse, error)
	ListStock(ctx context.Context, filter repository.StockFilter) (*dto.StockListResponse, error)
	GetStock(ctx context.Context, id string) (*dto.StockResponse, error)
	GetStockByProduct(ctx context.Context, productID string) ([]dto.StockResponse, error)
	GetStockByLocation(ctx context.Context, location string) ([]dto.StockResponse, error)
}

// StockAdminService alta, edición y baja de registros de stock.
type StockAdminService interface {
	Create(ctx context.Context, userID string, in dto.CreateStockRequest) (*dto.StockResponse, error)
	Update(ctx context.Context, userID, id string, in dto.UpdateStockRequest) (*dto.StockResponse, error)
	Delete(ctx context.Context, id string) error
}

// ReplenishmentService registros bajo mínimo.
type ReplenishmentService interface {
	LowStock(ctx context.Context, location string) ([]dto.LowStockItemDTO, error)
}

// ReportService reporte PDF de niveles.
type ReportService interface {
	StockLevelsPDF(ctx context.Context, location, generatedBy string) ([]byte, string, error)
}

var (
	_ AuthService          = (*auth.AuthUseCase)(nil)
	_ SubjectResolver      = (*auth.AuthUseCase)(nil)
	_ UserService          = (*usecase.UserUseCase)(nil)
	_ ProductService       = (*usecase.ProductUseCase)(nil)
	_ MovementService      = (*inventory.MovementUseCase)(nil)
	_ StockQueryService    = (*inventory.StockQueryUseCase)(nil)
	_ StockAdminService    = (*inventory.StockAdminUseCase)(nil)
	_ ReplenishmentService = (*inventory.ReplenishmentUseCase)(nil)
	_ ReportService        = (*inventory.ReportUseCase)(nil)
)
