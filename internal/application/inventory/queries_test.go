package inventory_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestListMovements_HidrataEnLote(t *testing.T) {
	f := newFixture()
	p1 := f.store.addProduct("P1")
	p2 := f.store.addProduct("P2")
	for i := 0; i < 3; i++ {
		_, err := f.record(t, p1.ID, entity.MovementTypeIn, 1, "A")
		require.NoError(t, err)
		_, err = f.record(t, p2.ID, entity.MovementTypeIn, 1, "B")
		require.NoError(t, err)
	}
	f.products.getByIDsCall, f.users.getByIDsCall = 0, 0

	resp, err := f.queries.ListMovements(context.Background(), repository.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, resp.Items, 6)
	assert.Equal(t, dto.DefaultLimit, resp.Page.Limit)
	assert.Equal(t, 6, resp.Page.Count)
	for _, m := range resp.Items {
		require.NotNil(t, m.Product)
		require.NotNil(t, m.PerformedBy)
	}
	assert.Equal(t, 1, f.products.getByIDsCall, "los productos deben cargarse en una sola consulta")
	assert.Equal(t, 1, f.users.getByIDsCall, "los usuarios deben cargarse en una sola consulta")
}

func TestListMovements_FiltraYRecortaLimite(t *testing.T) {
	f := newFixture()
	p := f.store.addProduct("P1")
	_, err := f.record(t, p.ID, entity.MovementTypeIn, 5, "A")
	require.NoError(t, err)
	_, err = f.record(t, p.ID, entity.MovementTypeOut, -1, "A")
	require.NoError(t, err)

	resp, err := f.queries.ListMovements(context.Background(), repository.MovementFilter{Type: " OUT ", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, dto.MaxLimit, resp.Page.Limit)
	assert.Equal(t, 1, resp.Page.Count, "count refleja los elementos de la página")
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(-1), resp.Items[0].Quantity)
}

func TestGetMovement(t *testing.T) {
	f := newFixture()
	p := f.store.addProduct("P1")
	created, err := f.record(t, p.ID, entity.MovementTypeIn, 5, "A")
	require.NoError(t, err)

	got, err := f.queries.GetMovement(context.Background(), created.Movement.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Movement.ID, got.ID)
	assert.Equal(t, "P1", got.Product.Code)

	_, err = f.queries.GetMovement(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrMovementNotFound)
}

func TestGetStockByProductYUbicacion(t *testing.T) {
	f := newFixture()
	p := f.store.addProduct("P1")
	for _, loc := range []string{"A", "B"} {
		_, err := f.record(t, p.ID, entity.MovementTypeIn, 2, loc)
		require.NoError(t, err)
	}

	byProduct, err := f.queries.GetStockByProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, byProduct, 2)

	byLocation, err := f.queries.GetStockByLocation(context.Background(), " B ")
	require.NoError(t, err)
	require.Len(t, byLocation, 1)
	assert.Equal(t, "P1", byLocation[0].Product.Code)

	_, err = f.queries.GetStockByProduct(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = f.queries.GetStock(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrStockNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Administración de stock
// ──────────────────────────────────────────────────────────────────────────────

func newAdmin(f *fixture) *inventory.StockAdminUseCase {
	return inventory.NewStockAdminUseCase(f.tx, f.stocks, f.products, f.users, zerolog.Nop())
}

func TestStockAdmin_CrearConCantidadInicialRegistraAjuste(t *testing.T) {
	f := newFixture()
	admin := newAdmin(f)
	p := f.store.addProduct("P1")

	out, err := admin.Create(context.Background(), f.user.ID, dto.CreateStockRequest{
		ProductID: p.ID, Location: "Bodega 1", CurrentQuantity: 8, MinLevel: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), out.CurrentQuantity)
	assert.Equal(t, int64(entity.DefaultMaxLevel), out.MaxLevel)

	movs := f.store.movementsFor(p.ID)
	require.Len(t, movs, 1, "la cantidad inicial debe quedar auditada")
	assert.Equal(t, entity.MovementTypeAdjustment, movs[0].Type)
	assert.Equal(t, int64(8), movs[0].Quantity)

	_, err = admin.Create(context.Background(), f.user.ID, dto.CreateStockRequest{ProductID: p.ID, Location: "Bodega  1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestStockAdmin_ActualizarCantidadGeneraAjuste(t *testing.T) {
	f := newFixture()
	admin := newAdmin(f)
	p := f.store.addProduct("P1")
	created, err := f.record(t, p.ID, entity.MovementTypeIn, 10, "A")
	require.NoError(t, err)

	qty, minLevel := int64(4), int64(3)
	out, err := admin.Update(context.Background(), f.user.ID, created.Stock.ID, dto.UpdateStockRequest{
		CurrentQuantity: &qty, MinLevel: &minLevel, Remarks: "conteo físico",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), out.CurrentQuantity)
	assert.Equal(t, int64(3), out.MinLevel)

	movs := f.store.movementsFor(p.ID)
	require.Len(t, movs, 2)
	assert.Equal(t, int64(-6), movs[1].Quantity)
	assert.Equal(t, "conteo físico", movs[1].Remarks)

	reserved := int64(1)
	_, err = admin.Update(context.Background(), f.user.ID, created.Stock.ID, dto.UpdateStockRequest{ReservedQuantity: &reserved})
	require.NoError(t, err)
	assert.Len(t, f.store.movementsFor(p.ID), 2, "sin cambio de cantidad no hay movimiento")

	neg := int64(-1)
	_, err = admin.Update(context.Background(), f.user.ID, created.Stock.ID, dto.UpdateStockRequest{CurrentQuantity: &neg})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = admin.Update(context.Background(), f.user.ID, "no-existe", dto.UpdateStockRequest{MinLevel: &minLevel})
	assert.ErrorIs(t, err, domain.ErrStockNotFound)
}

func TestStockAdmin_EliminarSoloVacio(t *testing.T) {
	f := newFixture()
	admin := newAdmin(f)
	p := f.store.addProduct("P1")
	created, err := f.record(t, p.ID, entity.MovementTypeIn, 1, "A")
	require.NoError(t, err)

	assert.ErrorIs(t, admin.Delete(context.Background(), created.Stock.ID), domain.ErrStockNotEmpty)

	_, err = f.record(t, p.ID, entity.MovementTypeOut, -1, "A")
	require.NoError(t, err)
	require.NoError(t, admin.Delete(context.Background(), created.Stock.ID))
	assert.Nil(t, f.store.record(p.ID, "A"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Faltantes y reporte
// ──────────────────────────────────────────────────────────────────────────────

func TestLowStock_OrdenaPorDeficit(t *testing.T) {
	f := newFixture()
	admin := newAdmin(f)
	p1 := f.store.addProduct("P1")
	p2 := f.store.addProduct("P2")
	p3 := f.store.addProduct("P3")
	p1.PurchasePrice = decimal.NewFromInt(2)
	max20 := int64(20)

	_, err := admin.Create(context.Background(), f.user.ID, dto.CreateStockRequest{ProductID: p1.ID, Location: "A", CurrentQuantity: 4, MinLevel: 5, MaxLevel: &max20})
	require.NoError(t, err)
	_, err = admin.Create(context.Background(), f.user.ID, dto.CreateStockRequest{ProductID: p2.ID, Location: "A", CurrentQuantity: 0, MinLevel: 10, MaxLevel: &max20})
	require.NoError(t, err)
	_, err = admin.Create(context.Background(), f.user.ID, dto.CreateStockRequest{ProductID: p3.ID, Location: "A", CurrentQuantity: 50, MinLevel: 5})
	require.NoError(t, err)

	items, err := inventory.NewReplenishmentUseCase(f.stocks, f.products).LowStock(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, items, 2, "P3 está sobre su mínimo")
	assert.Equal(t, "P2", items[0].Code)
	assert.Equal(t, 1, items[0].Priority)
	assert.Equal(t, int64(20), items[0].SuggestedOrderQty)
	assert.Equal(t, "P1", items[1].Code)
	assert.Equal(t, int64(16), items[1].SuggestedOrderQty)
	assert.True(t, decimal.NewFromInt(32).Equal(items[1].EstimatedOrderCost))
}

type captureGenerator struct {
	got inventory.StockReport
}

func (g *captureGenerator) GenerateStockReport(_ context.Context, r inventory.StockReport) ([]byte, error) {
	g.got = r
	return []byte("%PDF-1.3"), nil
}

func TestStockLevelsPDF_Valorizacion(t *testing.T) {
	f := newFixture()
	p1 := f.store.addProduct("P1")
	p2 := f.store.addProduct("P2")
	p1.PurchasePrice = decimal.RequireFromString("1.50")
	p2.PurchasePrice = decimal.NewFromInt(10)
	_, err := f.record(t, p1.ID, entity.MovementTypeIn, 4, "B")
	require.NoError(t, err)
	_, err = f.record(t, p2.ID, entity.MovementTypeIn, 3, "A")
	require.NoError(t, err)

	gen := &captureGenerator{}
	pdf, filename, err := inventory.NewReportUseCase(f.stocks, f.products, gen).StockLevelsPDF(context.Background(), "", "bodega1")
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.Contains(t, filename, "niveles_stock_")
	assert.Equal(t, int64(7), gen.got.TotalUnits)
	assert.True(t, decimal.NewFromInt(36).Equal(gen.got.Valuation), "4×1.50 + 3×10")
	require.Len(t, gen.got.Lines, 2)
	assert.Equal(t, "A", gen.got.Lines[0].Location, "las líneas se ordenan por ubicación")
	assert.Equal(t, "bodega1", gen.got.GeneratedBy)
}
