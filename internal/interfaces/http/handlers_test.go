package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	apphttp "github.com/jhoicas/stock-ledger/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Mocks de servicios
// ──────────────────────────────────────────────────────────────────────────────

type mockMovements struct{ mock.Mock }

func (m *mockMovements) RecordMovement(ctx context.Context, in inventory.RecordMovementInput) (*dto.RecordMovementResponse, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dto.RecordMovementResponse)
	return out, args.Error(1)
}

func (m *mockMovements) Transfer(ctx context.Context, in inventory.TransferInput) (*dto.TransferResponse, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dto.TransferResponse)
	return out, args.Error(1)
}

func (m *mockMovements) PlanIncomingParts(ctx context.Context, userID string, in dto.PlanIncomingPartsRequest) (*dto.PlanIncomingPartsResponse, error) {
	args := m.Called(ctx, userID, in)
	out, _ := args.Get(0).(*dto.PlanIncomingPartsResponse)
	return out, args.Error(1)
}

type mockStockQuery struct{ mock.Mock }

func (m *mockStockQuery) ListMovements(ctx context.Context, f repository.MovementFilter) (*dto.MovementListResponse, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).(*dto.MovementListResponse)
	return out, args.Error(1)
}

func (m *mockStockQuery) GetMovement(ctx context.Context, id string) (*dto.MovementResponse, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*dto.MovementResponse)
	return out, args.Error(1)
}

func (m *mockStockQuery) ListStock(ctx context.Context, f repository.StockFilter) (*dto.StockListResponse, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).(*dto.StockListResponse)
	return out, args.Error(1)
}

func (m *mockStockQuery) GetStock(ctx context.Context, id string) (*dto.StockResponse, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*dto.StockResponse)
	return out, args.Error(1)
}

func (m *mockStockQuery) GetStockByProduct(ctx context.Context, productID string) ([]dto.StockResponse, error) {
	args := m.Called(ctx, productID)
	out, _ := args.Get(0).([]dto.StockResponse)
	return out, args.Error(1)
}

func (m *mockStockQuery) GetStockByLocation(ctx context.Context, location string) ([]dto.StockResponse, error) {
	args := m.Called(ctx, location)
	out, _ := args.Get(0).([]dto.StockResponse)
	return out, args.Error(1)
}

type mockProducts struct{ mock.Mock }

func (m *mockProducts) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dto.ProductResponse)
	return out, args.Error(1)
}

func (m *mockProducts) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*dto.ProductResponse)
	return out, args.Error(1)
}

func (m *mockProducts) List(ctx context.Context, f repository.ProductFilter) (*dto.ProductListResponse, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).(*dto.ProductListResponse)
	return out, args.Error(1)
}

func (m *mockProducts) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	args := m.Called(ctx, id, in)
	out, _ := args.Get(0).(*dto.ProductResponse)
	return out, args.Error(1)
}

func (m *mockProducts) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockReplenishment struct{ mock.Mock }

func (m *mockReplenishment) LowStock(ctx context.Context, location string) ([]dto.LowStockItemDTO, error) {
	args := m.Called(ctx, location)
	out, _ := args.Get(0).([]dto.LowStockItemDTO)
	return out, args.Error(1)
}

type mockReports struct{ mock.Mock }

func (m *mockReports) StockLevelsPDF(ctx context.Context, location, generatedBy string) ([]byte, string, error) {
	args := m.Called(ctx, location, generatedBy)
	out, _ := args.Get(0).([]byte)
	return out, args.String(1), args.Error(2)
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	app           *fiber.App
	movements     *mockMovements
	query         *mockStockQuery
	products      *mockProducts
	replenishment *mockReplenishment
	reports       *mockReports
}

func newFixture() *fixture {
	f := &fixture{
		movements:     &mockMovements{},
		query:         &mockStockQuery{},
		products:      &mockProducts{},
		replenishment: &mockReplenishment{},
		reports:       &mockReports{},
	}
	f.app = fiber.New(fiber.Config{ErrorHandler: apphttp.NewErrorHandler(zerolog.Nop())})
	apphttp.Router(f.app, apphttp.RouterDeps{
		Products:      f.products,
		Movements:     f.movements,
		StockQuery:    f.query,
		Replenishment: f.replenishment,
		Reports:       f.reports,
		JWTSecret:     testJWTSecret,
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, role string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	var out dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// record-movement
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordMovement_Creado201(t *testing.T) {
	f := newFixture()
	expected := inventory.RecordMovementInput{
		ProductID: "p-1", Kind: "in", Quantity: 10, Location: "A-01", UserID: testUserID,
	}
	f.movements.On("RecordMovement", mock.Anything, expected).Return(&dto.RecordMovementResponse{
		Movement: dto.MovementResponse{ID: "m-1", MovementType: "in", Quantity: 10},
		Stock:    dto.StockResponse{ID: "s-1", CurrentQuantity: 10},
	}, nil)

	resp := f.do(t, http.MethodPost, "/api/stock-management/record-movement", entity.RoleBodeguero,
		dto.RecordMovementRequest{ProductID: "p-1", MovementType: "in", Quantity: 10, Location: "A-01"})
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out dto.RecordMovementResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "m-1", out.Movement.ID)
	assert.Equal(t, int64(10), out.Stock.CurrentQuantity)
	f.movements.AssertExpectations(t)
}

func TestRecordMovement_StockInsuficiente400(t *testing.T) {
	f := newFixture()
	f.movements.On("RecordMovement", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: disponible 3, solicitado 5", domain.ErrInsufficientStock))

	resp := f.do(t, http.MethodPost, "/api/stock-management/record-movement", entity.RoleAdmin,
		dto.RecordMovementRequest{ProductID: "p-1", MovementType: "out", Quantity: -5})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", decodeError(t, resp).Code)
}

func TestRecordMovement_CantidadFueraDeRango400(t *testing.T) {
	f := newFixture()
	f.movements.On("RecordMovement", mock.Anything, mock.MatchedBy(func(in inventory.RecordMovementInput) bool {
		return in.Quantity == math.MinInt64
	})).Return(nil, fmt.Errorf("%w: cantidad fuera de rango", domain.ErrInvalidQuantity))

	resp := f.do(t, http.MethodPost, "/api/stock-management/record-movement", entity.RoleAdmin,
		dto.RecordMovementRequest{ProductID: "p-1", MovementType: "out", Quantity: math.MinInt64, Location: "A"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, resp).Code)
	f.movements.AssertExpectations(t)
}

func TestRecordMovement_ProductoInexistente404(t *testing.T) {
	f := newFixture()
	f.movements.On("RecordMovement", mock.Anything, mock.Anything).Return(nil, domain.ErrProductNotFound)

	resp := f.do(t, http.MethodPost, "/api/stock-management/record-movement", entity.RoleAdmin,
		dto.RecordMovementRequest{ProductID: "nope", MovementType: "in", Quantity: 1})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)
}

func TestRecordMovement_VendedorSinPermiso403(t *testing.T) {
	f := newFixture()

	resp := f.do(t, http.MethodPost, "/api/stock-management/record-movement", entity.RoleVendedor,
		dto.RecordMovementRequest{ProductID: "p-1", MovementType: "in", Quantity: 1})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	f.movements.AssertNotCalled(t, "RecordMovement", mock.Anything, mock.Anything)
}

func TestRecordMovement_CuerpoInvalido400(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodPost, "/api/stock-management/record-movement", strings.NewReader("{no-json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, entity.RoleAdmin))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// plan-incoming-parts / transfer
// ──────────────────────────────────────────────────────────────────────────────

func TestPlanIncomingParts_DevuelveOmitidas(t *testing.T) {
	f := newFixture()
	in := dto.PlanIncomingPartsRequest{
		NeededParts:  []dto.IncomingPartItem{{ProductID: "p-1", Quantity: 5}, {ProductID: "x", Quantity: 2}},
		SupplierInfo: "Proveedor S.A.",
	}
	f.movements.On("PlanIncomingParts", mock.Anything, testUserID, in).Return(&dto.PlanIncomingPartsResponse{
		Message:   "1 pieza(s) planificada(s)",
		Movements: []dto.MovementResponse{{ID: "m-1", MovementType: "incoming-ordered", Quantity: 5}},
		Skipped:   []dto.SkippedPart{{ProductID: "x", Quantity: 2, Reason: "producto no encontrado"}},
	}, nil)

	resp := f.do(t, http.MethodPost, "/api/stock-management/plan-incoming-parts", entity.RoleBodeguero, in)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.PlanIncomingPartsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Len(t, out.Movements, 1)
	require.Len(t, out.Skipped, 1)
	assert.Equal(t, "x", out.Skipped[0].ProductID)
}

func TestTransfer_Creado201(t *testing.T) {
	f := newFixture()
	f.movements.On("Transfer", mock.Anything, inventory.TransferInput{
		ProductID: "p-1", FromLocation: "A", ToLocation: "B", Quantity: 4, UserID: testUserID,
	}).Return(&dto.TransferResponse{
		Source:      dto.StockResponse{Location: "A", CurrentQuantity: 6},
		Destination: dto.StockResponse{Location: "B", CurrentQuantity: 4},
	}, nil)

	resp := f.do(t, http.MethodPost, "/api/stock-management/transfer", entity.RoleAdmin,
		dto.TransferRequest{ProductID: "p-1", FromLocation: "A", ToLocation: "B", Quantity: 4})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	f.movements.AssertExpectations(t)
}

// ──────────────────────────────────────────────────────────────────────────────
// movements
// ──────────────────────────────────────────────────────────────────────────────

func TestListMovements_ParseaFiltros(t *testing.T) {
	f := newFixture()
	f.query.On("ListMovements", mock.Anything, mock.MatchedBy(func(fl repository.MovementFilter) bool {
		return fl.ProductID == "p-1" && fl.Type == "out" && fl.Limit == 5 &&
			fl.From != nil && fl.From.Day() == 2 && fl.To != nil && fl.To.Hour() == 10
	})).Return(&dto.MovementListResponse{Items: []dto.MovementResponse{}}, nil)

	resp := f.do(t, http.MethodGet,
		"/api/stock-management/movements?product_id=p-1&kind=out&limit=5&from=2024-03-02&to=2024-03-05T10:00:00Z",
		entity.RoleVendedor, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	f.query.AssertExpectations(t)
}

func TestListMovements_FechaInvalida400(t *testing.T) {
	f := newFixture()

	resp := f.do(t, http.MethodGet, "/api/stock-management/movements?from=ayer", entity.RoleAdmin, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_QUERY", decodeError(t, resp).Code)
	f.query.AssertNotCalled(t, "ListMovements", mock.Anything, mock.Anything)
}

func TestGetMovement_NoEncontrado404(t *testing.T) {
	f := newFixture()
	f.query.On("GetMovement", mock.Anything, "m-9").Return(nil, domain.ErrMovementNotFound)

	resp := f.do(t, http.MethodGet, "/api/stock-management/movements/m-9", entity.RoleAdmin, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// stock / low-stock / reporte
// ──────────────────────────────────────────────────────────────────────────────

func TestStockByLocation_DecodificaUbicacion(t *testing.T) {
	f := newFixture()
	f.query.On("GetStockByLocation", mock.Anything, "A 01/B").Return([]dto.StockResponse{{Location: "A 01/B"}}, nil)

	resp := f.do(t, http.MethodGet, "/api/stock/location/A%2001%2FB", entity.RoleVendedor, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	f.query.AssertExpectations(t)
}

func TestLowStock_FiltraPorUbicacion(t *testing.T) {
	f := newFixture()
	f.replenishment.On("LowStock", mock.Anything, "A-01").Return([]dto.LowStockItemDTO{
		{StockID: "s-1", Code: "P-1", Deficit: 3, Priority: 1},
	}, nil)

	resp := f.do(t, http.MethodGet, "/api/stock-management/low-stock?location=A-01", entity.RoleVendedor, nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Total int                   `json:"total"`
		Items []dto.LowStockItemDTO `json:"items"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 1, out.Total)
	assert.Equal(t, int64(3), out.Items[0].Deficit)
}

func TestStockLevelsReport_DevuelvePDF(t *testing.T) {
	f := newFixture()
	f.reports.On("StockLevelsPDF", mock.Anything, "", testUsername).
		Return([]byte("%PDF-1.3 fake"), "niveles-stock-20240301.pdf", nil)

	resp := f.do(t, http.MethodGet, "/api/stock-management/reports/stock-levels", entity.RoleBodeguero, nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "niveles-stock-20240301.pdf")
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))
}

// ──────────────────────────────────────────────────────────────────────────────
// products / error handler
// ──────────────────────────────────────────────────────────────────────────────

func TestProductCreate_Duplicado409(t *testing.T) {
	f := newFixture()
	f.products.On("Create", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: código P-1", domain.ErrDuplicate))

	resp := f.do(t, http.MethodPost, "/api/products", entity.RoleAdmin, dto.CreateProductRequest{Code: "P-1", Name: "Perno"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE", decodeError(t, resp).Code)
}

func TestProductCreate_BodegueroSinCatalogo403(t *testing.T) {
	f := newFixture()

	resp := f.do(t, http.MethodPost, "/api/products", entity.RoleBodeguero, dto.CreateProductRequest{Code: "P-1"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestProductDelete_EnUso409(t *testing.T) {
	f := newFixture()
	f.products.On("Delete", mock.Anything, "p-1").Return(domain.ErrProductInUse)

	resp := f.do(t, http.MethodDelete, "/api/products/p-1", entity.RoleAdmin, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decodeError(t, resp).Code)
}

func TestProductList_ActiveInvalido400(t *testing.T) {
	f := newFixture()

	resp := f.do(t, http.MethodGet, "/api/products?active=quizas", entity.RoleAdmin, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorHandler_ErrorInternoNoExponeDetalle(t *testing.T) {
	f := newFixture()
	f.products.On("GetByID", mock.Anything, "p-1").Return(nil, errors.New("pgx: conexión rechazada 10.0.0.5"))

	resp := f.do(t, http.MethodGet, "/api/products/p-1", entity.RoleAdmin, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	out := decodeError(t, resp)
	assert.Equal(t, "INTERNAL", out.Code)
	assert.NotContains(t, out.Message, "10.0.0.5")
}
