package inventory_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	store    *memStore
	tx       *memTxRunner
	products *memProductRepo
	users    *memUserRepo
	stocks   *memStockRepo
	moves    *memMovementRepo
	uc       *inventory.MovementUseCase
	queries  *inventory.StockQueryUseCase
	user     *entity.User
}

func newFixture() *fixture {
	store := newMemStore()
	f := &fixture{
		store:    store,
		tx:       &memTxRunner{store: store},
		products: &memProductRepo{store: store},
		users:    &memUserRepo{store: store},
		stocks:   &memStockRepo{store: store},
		moves:    &memMovementRepo{store: store},
	}
	f.uc = inventory.NewMovementUseCase(f.tx, f.products, f.users, zerolog.Nop())
	f.queries = inventory.NewStockQueryUseCase(f.stocks, f.moves, f.products, f.users)
	f.user = store.addUser("bodega1", entity.RoleBodeguero)
	return f
}

func (f *fixture) record(t *testing.T, productID, kind string, qty int64, location string) (*dto.RecordMovementResponse, error) {
	t.Helper()
	return f.uc.RecordMovement(context.Background(), inventory.RecordMovementInput{
		ProductID: productID,
		Kind:      kind,
		Quantity:  qty,
		Location:  location,
		UserID:    f.user.ID,
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// RecordMovement
// ──────────────────────────────────────────────────────────────────────────────

// +10 → 10; -15 rechazado (sigue en 10, un movimiento); -10 → 0 con dos movimientos.
func TestRecordMovement_EscenarioEntradaSalidaRechazo(t *testing.T) {
	f := newFixture()
	p1 := f.store.addProduct("P1")

	resp, err := f.record(t, p1.ID, entity.MovementTypeIn, 10, "A")
	require.NoError(t, err)
	assert.Equal(t, int64(10), resp.Stock.CurrentQuantity)
	assert.Equal(t, "A", resp.Stock.Location)
	require.NotNil(t, resp.Movement.Product, "el movimiento debe venir hidratado con el producto")
	require.NotNil(t, resp.Movement.PerformedBy, "el movimiento debe venir hidratado con el usuario")
	assert.Equal(t, "bodega1", resp.Movement.PerformedBy.Username)
	assert.Equal(t, "A", resp.Movement.ToLocation)

	_, err = f.record(t, p1.ID, entity.MovementTypeOut, -15, "A")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(10), f.store.record(p1.ID, "A").CurrentQuantity, "el rechazo no debe modificar el saldo")
	assert.Len(t, f.store.movementsFor(p1.ID), 1, "el rechazo no debe registrar movimiento")

	resp, err = f.record(t, p1.ID, entity.MovementTypeOut, -10, "A")
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Stock.CurrentQuantity)
	assert.Equal(t, int64(10), resp.Stock.TotalOut)
	assert.NotNil(t, resp.Stock.LastOutDate)
	assert.Equal(t, "A", resp.Movement.FromLocation)
	assert.Len(t, f.store.movementsFor(p1.ID), 2)
}

func TestRecordMovement_CreaRegistroEnUbicacionDesconocida(t *testing.T) {
	f := newFixture()
	p := f.store.addProduct("P1")

	resp, err := f.record(t, p.ID, "  IN ", 3, "")
	require.NoError(t, err)
	assert.Equal(t, entity.UnknownLocation, resp.Stock.Location)
	assert.Equal(t, entity.MovementTypeIn, resp.Movement.MovementType)
	assert.Equal(t, int64(entity.DefaultMaxLevel), resp.Stock.MaxLevel)

	_, err = f.record(t, p.ID, entity.MovementTypeIn, 2, "   ")
	require.NoError(t, err)
	assert.Len(t, f.store.stocks, 1, "la misma ubicación no debe duplicar el registro")
	assert.Equal(t, int64(5), f.store.record(p.ID, entity.UnknownLocation).CurrentQuantity)
}

func TestRecordMovement_SalidaSinRegistroNoDejaRastro(t *testing.T) {
	f := newFixture()
	p := f.store.addProduct("P1")

	_, err := f.record(t, p.ID, entity.MovementTypeOut, -1, "B")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Nil(t, f.store.record(p.ID, "B"), "el registro creado en la tx fallida debe revertirse")
	assert.Zero(t, f.store.movementCount())
}

func TestRecordMovement_ProductoInexistente(t *testing.T) {
	f := newFixture()
	_, err := f.record(t, "00000000-0000-0000-0000-00000000dead", entity.MovementTypeIn, 1, "A")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Zero(t, f.store.movementCount())
}

func TestRecordMovement_ValidacionDeEntrada(t *testing.T) {
	f := newFixture()
	p := f.store.addProduct("P1")

	_, err := f.record(t, p.ID, entity.MovementTypeIn, 0, "A")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.record(t, p.ID, entity.MovementTypeIn, -2, "A")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.record(t, p.ID, "robo", 2, "A")
	assert.ErrorIs(t, err, domain.ErrInvalidKind)

	_, err = f.record(t, p.ID, entity.MovementTypeTransfer, 2, "A")
	assert.ErrorIs(t, err, domain.ErrInvalidKind, "transfer solo se genera desde su propio endpoint")

	_, err = f.record(t, "", entity.MovementTypeIn, 2, "A")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, f.store.movementCount())
}

func TestRecordMovement_CantidadesExtremas(t *testing.T) {
	f := newFixture()
	p := f.store.addProduct("P1")
	_, err := f.record(t, p.ID, entity.MovementTypeIn, 10, "A")
	require.NoError(t, err)

	_, err = f.record(t, p.ID, entity.MovementTypeOut, math.MinInt64, "A")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.record(t, p.ID, entity.MovementTypeAdjustment, math.MinInt64, "A")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.record(t, p.ID, entity.MovementTypeIn, math.MaxInt64, "A")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	rec := f.store.record(p.ID, "A")
	assert.Equal(t, int64(10), rec.CurrentQuantity)
	assert.Equal(t, int64(0), rec.TotalOut)
	assert.Len(t, f.store.movementsFor(p.ID), 1)
}

func TestRecordMovement_UsuarioInactivo(t *testing.T) {
	f := newFixture()
	p := f.store.addProduct("P1")
	f.user.IsActive = false

	_, err := f.record(t, p.ID, entity.MovementTypeIn, 1, "A")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// Cada movimiento aceptado queda auditado y la suma de deltas reproduce el saldo.
func TestRecordMovement_AuditoriaCompleta(t *testing.T) {
	f := newFixture()
	p := f.store.addProduct("P1")
	deltas := []int64{5, -2, 7, -20, -10, 3, -3}

	var sum int64
	for _, d := range deltas {
		kind := entity.MovementTypeIn
		if d < 0 {
			kind = entity.MovementTypeOut
		}
		if _, err := f.record(t, p.ID, kind, d, "A"); err == nil {
			sum += d
		}
	}
	var audited int64
	for _, m := range f.store.movementsFor(p.ID) {
		audited += m.Quantity
	}
	assert.Equal(t, sum, audited)
	assert.Equal(t, sum, f.store.record(p.ID, "A").CurrentQuantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Atomicidad: fallo al insertar el movimiento
// ──────────────────────────────────────────────────────────────────────────────

type failingMovementRepo struct {
	mock.Mock
}

func (m *failingMovementRepo) Create(ctx context.Context, mov *entity.StockMovement) error {
	return m.Called(ctx, mov).Error(0)
}

func (m *failingMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	args := m.Called(ctx, id)
	mov, _ := args.Get(0).(*entity.StockMovement)
	return mov, args.Error(1)
}

func (m *failingMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]*entity.StockMovement)
	return list, args.Error(1)
}

func TestRecordMovement_FalloDelMovimientoRevierteElSaldo(t *testing.T) {
	f := newFixture()
	p := f.store.addProduct("P1")
	_, err := f.record(t, p.ID, entity.MovementTypeIn, 10, "A")
	require.NoError(t, err)

	movRepo := new(failingMovementRepo)
	boom := errors.New("conexión perdida")
	movRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.StockMovement")).Return(boom).Once()
	f.tx.movRepo = movRepo

	_, err = f.record(t, p.ID, entity.MovementTypeOut, -4, "A")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(10), f.store.record(p.ID, "A").CurrentQuantity, "el saldo debe revertirse con la transacción")
	assert.Len(t, f.store.movementsFor(p.ID), 1)
	movRepo.AssertExpectations(t)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordMovement_SalidasConcurrentesNoSobregiran(t *testing.T) {
	f := newFixture()
	p := f.store.addProduct("P1")
	_, err := f.record(t, p.ID, entity.MovementTypeIn, 20, "A")
	require.NoError(t, err)

	const workers = 50
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.RecordMovement(context.Background(), inventory.RecordMovementInput{
				ProductID: p.ID, Kind: entity.MovementTypeOut, Quantity: -1, Location: "A", UserID: f.user.ID,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
			} else if errors.Is(err, domain.ErrInsufficientStock) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, accepted)
	assert.Equal(t, workers-20, rejected)
	assert.Zero(t, f.store.record(p.ID, "A").CurrentQuantity)
	assert.Len(t, f.store.movementsFor(p.ID), 21)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transfer
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_MueveEntreUbicaciones(t *testing.T) {
	f := newFixture()
	p := f.store.addProduct("P1")
	_, err := f.record(t, p.ID, entity.MovementTypeIn, 10, "A")
	require.NoError(t, err)

	resp, err := f.uc.Transfer(context.Background(), inventory.TransferInput{
		ProductID: p.ID, FromLocation: "A", ToLocation: "B", Quantity: 4, UserID: f.user.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), resp.Source.CurrentQuantity)
	assert.Equal(t, int64(4), resp.Destination.CurrentQuantity)
	require.Len(t, resp.Movements, 2)
	assert.Equal(t, int64(-4), resp.Movements[0].Quantity)
	assert.Equal(t, int64(4), resp.Movements[1].Quantity)
	for _, m := range resp.Movements {
		assert.Equal(t, entity.MovementTypeTransfer, m.MovementType)
		assert.Equal(t, "A", m.FromLocation)
		assert.Equal(t, "B", m.ToLocation)
	}
}

func TestTransfer_SinExistenciasNoTocaNada(t *testing.T) {
	f := newFixture()
	p := f.store.addProduct("P1")
	_, err := f.record(t, p.ID, entity.MovementTypeIn, 3, "B")
	require.NoError(t, err)

	_, err = f.uc.Transfer(context.Background(), inventory.TransferInput{
		ProductID: p.ID, FromLocation: "B", ToLocation: "A", Quantity: 5, UserID: f.user.ID,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(3), f.store.record(p.ID, "B").CurrentQuantity)
	assert.Nil(t, f.store.record(p.ID, "A"), "el destino creado en la tx fallida debe revertirse")
	assert.Len(t, f.store.movementsFor(p.ID), 1)
}

func TestTransfer_MismaUbicacion(t *testing.T) {
	f := newFixture()
	p := f.store.addProduct("P1")
	_, err := f.uc.Transfer(context.Background(), inventory.TransferInput{
		ProductID: p.ID, FromLocation: "A ", ToLocation: " A", Quantity: 1, UserID: f.user.ID,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// PlanIncomingParts
// ──────────────────────────────────────────────────────────────────────────────

func TestPlanIncomingParts_LoteConProductoFaltante(t *testing.T) {
	f := newFixture()
	p1 := f.store.addProduct("P1")
	p2 := f.store.addProduct("P2")
	delivery := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)

	resp, err := f.uc.PlanIncomingParts(context.Background(), f.user.ID, dto.PlanIncomingPartsRequest{
		NeededParts: []dto.IncomingPartItem{
			{ProductID: p1.ID, Quantity: 5},
			{ProductID: "00000000-0000-0000-0000-00000000beef", Quantity: 3},
			{ProductID: p2.ID, Quantity: 7},
		},
		SupplierInfo: "ACME",
		DeliveryDate: &delivery,
	})
	require.NoError(t, err)
	assert.Equal(t, "Pedidos planificados correctamente.", resp.Message)
	require.Len(t, resp.Movements, 2)
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, "00000000-0000-0000-0000-00000000beef", resp.Skipped[0].ProductID)

	for _, m := range resp.Movements {
		assert.Equal(t, entity.MovementTypeIncomingOrdered, m.MovementType)
		assert.Equal(t, "Pedido a proveedor: ACME", m.ReferenceDocument)
		assert.Equal(t, entity.UnknownLocation, m.Location)
		assert.Contains(t, m.Remarks, "2026-11-02")
	}
	r1 := f.store.record(p1.ID, entity.UnknownLocation)
	r2 := f.store.record(p2.ID, entity.UnknownLocation)
	require.NotNil(t, r1)
	require.NotNil(t, r2)
	assert.Equal(t, int64(5), r1.IncomingQuantity)
	assert.Equal(t, int64(7), r2.IncomingQuantity)
	assert.Zero(t, r1.CurrentQuantity, "un pedido no cambia las existencias")
}

func TestPlanIncomingParts_SinProveedorYCantidadInvalida(t *testing.T) {
	f := newFixture()
	p := f.store.addProduct("P1")

	resp, err := f.uc.PlanIncomingParts(context.Background(), f.user.ID, dto.PlanIncomingPartsRequest{
		NeededParts: []dto.IncomingPartItem{{ProductID: p.ID, Quantity: 0}, {ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Movements, 1)
	assert.Equal(t, "Pedido a proveedor: N/A", resp.Movements[0].ReferenceDocument)
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, int64(0), resp.Skipped[0].Quantity)
}

func TestPlanIncomingParts_ListaVacia(t *testing.T) {
	f := newFixture()
	_, err := f.uc.PlanIncomingParts(context.Background(), f.user.ID, dto.PlanIncomingPartsRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
