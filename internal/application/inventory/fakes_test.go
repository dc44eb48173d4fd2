package inventory_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// memStore: almacenamiento en memoria con transacciones serializadas
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu        sync.Mutex
	stocks    map[string]*entity.StockRecord // id → registro
	index     map[string]string              // product|location → id
	movements []*entity.StockMovement
	products  map[string]*entity.Product
	users     map[string]*entity.User
}

func newMemStore() *memStore {
	return &memStore{
		stocks:   map[string]*entity.StockRecord{},
		index:    map[string]string{},
		products: map[string]*entity.Product{},
		users:    map[string]*entity.User{},
	}
}

func key(productID, location string) string { return productID + "|" + location }

func cloneRecord(r *entity.StockRecord) *entity.StockRecord {
	c := *r
	if r.SerialNumbers != nil {
		c.SerialNumbers = append([]string(nil), r.SerialNumbers...)
	}
	return &c
}

type snapshot struct {
	stocks    map[string]*entity.StockRecord
	index     map[string]string
	movements []*entity.StockMovement
}

func (s *memStore) snapshot() snapshot {
	snap := snapshot{
		stocks:    make(map[string]*entity.StockRecord, len(s.stocks)),
		index:     make(map[string]string, len(s.index)),
		movements: append([]*entity.StockMovement(nil), s.movements...),
	}
	for k, v := range s.stocks {
		snap.stocks[k] = cloneRecord(v)
	}
	for k, v := range s.index {
		snap.index[k] = v
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.stocks, s.index, s.movements = snap.stocks, snap.index, snap.movements
}

func (s *memStore) addProduct(code string) *entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &entity.Product{ID: uuid.New().String(), Code: code, Name: "Producto " + code, Unit: entity.DefaultUnit, IsActive: true}
	s.products[p.ID] = p
	return p
}

func (s *memStore) addUser(username, role string) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &entity.User{ID: uuid.New().String(), Username: username, Role: role, IsActive: true}
	s.users[u.ID] = u
	return u
}

func (s *memStore) record(productID, location string) *entity.StockRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.index[key(productID, location)]
	if !ok {
		return nil
	}
	return cloneRecord(s.stocks[id])
}

func (s *memStore) movementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements)
}

func (s *memStore) movementsFor(productID string) []*entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.StockMovement
	for _, m := range s.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// TxRunner en memoria
// ──────────────────────────────────────────────────────────────────────────────

type memTxRunner struct {
	store *memStore
	// movRepo reemplaza al repositorio de movimientos dentro de la tx (inyección de fallos).
	movRepo repository.StockMovementRepository
}

func (r *memTxRunner) Run(ctx context.Context, fn func(
	ctx context.Context,
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	snap := r.store.snapshot()

	var movRepo repository.StockMovementRepository = &memMovementRepo{store: r.store, inTx: true}
	if r.movRepo != nil {
		movRepo = r.movRepo
	}
	if err := fn(ctx, &memStockRepo{store: r.store, inTx: true}, movRepo); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios en memoria
// ──────────────────────────────────────────────────────────────────────────────

type memStockRepo struct {
	store *memStore
	inTx  bool
}

var _ repository.StockRepository = (*memStockRepo)(nil)

func (r *memStockRepo) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *memStockRepo) GetOrCreate(_ context.Context, productID, location string, now time.Time) (*entity.StockRecord, error) {
	defer r.lock()()
	if id, ok := r.store.index[key(productID, location)]; ok {
		return cloneRecord(r.store.stocks[id]), nil
	}
	rec := entity.NewStockRecord(uuid.New().String(), productID, location, now)
	r.store.stocks[rec.ID] = rec
	r.store.index[key(productID, location)] = rec.ID
	return cloneRecord(rec), nil
}

func (r *memStockRepo) ApplyDelta(_ context.Context, productID, location string, delta int64, at time.Time) (*entity.StockRecord, error) {
	defer r.lock()()
	id, ok := r.store.index[key(productID, location)]
	if !ok {
		return nil, domain.ErrInsufficientStock
	}
	rec := r.store.stocks[id]
	if err := domaininv.ApplyDelta(rec, delta, at); err != nil {
		return nil, err
	}
	return cloneRecord(rec), nil
}

func (r *memStockRepo) AddIncoming(_ context.Context, productID, location string, qty int64, at time.Time) (*entity.StockRecord, error) {
	defer r.lock()()
	id, ok := r.store.index[key(productID, location)]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	rec := r.store.stocks[id]
	if err := domaininv.ApplyIncoming(rec, qty, at); err != nil {
		return nil, err
	}
	return cloneRecord(rec), nil
}

func (r *memStockRepo) Create(_ context.Context, rec *entity.StockRecord) error {
	defer r.lock()()
	k := key(rec.ProductID, rec.Location)
	if _, ok := r.store.index[k]; ok {
		return domain.ErrDuplicate
	}
	r.store.stocks[rec.ID] = cloneRecord(rec)
	r.store.index[k] = rec.ID
	return nil
}

func (r *memStockRepo) GetByID(_ context.Context, id string) (*entity.StockRecord, error) {
	defer r.lock()()
	rec, ok := r.store.stocks[id]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

func (r *memStockRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockRecord, error) {
	return r.GetByID(ctx, id)
}

func (r *memStockRepo) Get(_ context.Context, productID, location string) (*entity.StockRecord, error) {
	defer r.lock()()
	id, ok := r.store.index[key(productID, location)]
	if !ok {
		return nil, nil
	}
	return cloneRecord(r.store.stocks[id]), nil
}

func (r *memStockRepo) Update(_ context.Context, rec *entity.StockRecord) error {
	defer r.lock()()
	cur, ok := r.store.stocks[rec.ID]
	if !ok {
		return domain.ErrStockNotFound
	}
	next := cloneRecord(rec)
	next.CurrentQuantity = cur.CurrentQuantity
	next.TotalIn, next.TotalOut = cur.TotalIn, cur.TotalOut
	r.store.stocks[rec.ID] = next
	return nil
}

func (r *memStockRepo) Delete(_ context.Context, id string) error {
	defer r.lock()()
	rec, ok := r.store.stocks[id]
	if !ok {
		return domain.ErrStockNotFound
	}
	if rec.CurrentQuantity != 0 {
		return domain.ErrStockNotEmpty
	}
	delete(r.store.index, key(rec.ProductID, rec.Location))
	delete(r.store.stocks, id)
	return nil
}

func (r *memStockRepo) List(_ context.Context, f repository.StockFilter) ([]*entity.StockRecord, error) {
	defer r.lock()()
	var out []*entity.StockRecord
	for _, rec := range r.store.stocks {
		if f.ProductID != "" && rec.ProductID != f.ProductID {
			continue
		}
		if f.Location != "" && rec.Location != f.Location {
			continue
		}
		if f.BelowMin && !domaininv.BelowMinimum(rec) {
			continue
		}
		out = append(out, cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return page(out, f.Limit, f.Offset), nil
}

type memMovementRepo struct {
	store *memStore
	inTx  bool
}

var _ repository.StockMovementRepository = (*memMovementRepo)(nil)

func (r *memMovementRepo) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *memMovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	defer r.lock()()
	c := *m
	r.store.movements = append(r.store.movements, &c)
	return nil
}

func (r *memMovementRepo) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	defer r.lock()()
	for _, m := range r.store.movements {
		if m.ID == id {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memMovementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	defer r.lock()()
	var out []*entity.StockMovement
	for i := len(r.store.movements) - 1; i >= 0; i-- {
		m := r.store.movements[i]
		if f.ProductID != "" && m.ProductID != f.ProductID {
			continue
		}
		if f.Location != "" && m.Location != f.Location {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	return page(out, f.Limit, f.Offset), nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// memProductRepo cuenta las llamadas por lote para verificar la hidratación sin N+1.
type memProductRepo struct {
	store        *memStore
	getByIDsCall int
}

var _ repository.ProductRepository = (*memProductRepo)(nil)

func (r *memProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.products[p.ID] = p
	return nil
}

func (r *memProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.products[id], nil
}

func (r *memProductRepo) GetByCode(_ context.Context, code string) (*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.products {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memProductRepo) GetByIDs(_ context.Context, ids []string) ([]*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.getByIDsCall++
	var out []*entity.Product
	for _, id := range ids {
		if p, ok := r.store.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memProductRepo) Update(_ context.Context, p *entity.Product) error {
	return r.Create(context.Background(), p)
}

func (r *memProductRepo) List(_ context.Context, _ repository.ProductFilter) ([]*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Product
	for _, p := range r.store.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *memProductRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.products, id)
	return nil
}

type memUserRepo struct {
	store        *memStore
	getByIDsCall int
}

var _ repository.UserRepository = (*memUserRepo)(nil)

func (r *memUserRepo) Create(_ context.Context, u *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.users[u.ID] = u
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.users[id], nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetByIDs(_ context.Context, ids []string) ([]*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.getByIDsCall++
	var out []*entity.User
	for _, id := range ids {
		if u, ok := r.store.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memUserRepo) Update(ctx context.Context, u *entity.User) error { return r.Create(ctx, u) }

func (r *memUserRepo) List(_ context.Context, _, _ int) ([]*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.User
	for _, u := range r.store.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.users, id)
	return nil
}
