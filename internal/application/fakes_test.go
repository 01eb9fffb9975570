package application

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/shopfront/order-platform/internal/domain"
	"github.com/shopfront/order-platform/pkg/auth"
	"github.com/shopfront/order-platform/pkg/logging"
)

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("application-test")
	cfg.Output = io.Discard
	return logging.New(cfg)
}

// memStore is the shared state behind the fakes. memTx snapshots it so a
// failed transaction leaves it untouched.
type memStore struct {
	orders    map[string]domain.Order
	wallets   map[string]float64
	products  map[string]domain.Product
	carts     map[string][]*domain.CartItem
	addresses map[string]*domain.Address
	users     map[string]*domain.User
	admins    map[string]*domain.AdminCredential
	events    []domain.DomainEvent
}

func newMemStore() *memStore {
	return &memStore{
		orders:    map[string]domain.Order{},
		wallets:   map[string]float64{},
		products:  map[string]domain.Product{},
		carts:     map[string][]*domain.CartItem{},
		addresses: map[string]*domain.Address{},
		users:     map[string]*domain.User{},
		admins:    map[string]*domain.AdminCredential{},
	}
}

type memSnapshot struct {
	orders   map[string]domain.Order
	wallets  map[string]float64
	products map[string]domain.Product
	carts    map[string][]*domain.CartItem
	events   int
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		orders:   make(map[string]domain.Order, len(s.orders)),
		wallets:  make(map[string]float64, len(s.wallets)),
		products: make(map[string]domain.Product, len(s.products)),
		carts:    make(map[string][]*domain.CartItem, len(s.carts)),
		events:   len(s.events),
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}
	for k, v := range s.wallets {
		snap.wallets[k] = v
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.carts {
		snap.carts[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.orders = snap.orders
	s.wallets = snap.wallets
	s.products = snap.products
	s.carts = snap.carts
	s.events = s.events[:snap.events]
}

func (s *memStore) stock(productID string) int {
	return s.products[productID].Stock
}

func (s *memStore) eventTypes() []string {
	types := make([]string, 0, len(s.events))
	for _, e := range s.events {
		types = append(types, e.EventType())
	}
	return types
}

type memTx struct {
	store   *memStore
	commits int
}

func (t *memTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
	t.commits++
	return nil
}

type fakeOrderRepo struct {
	store *memStore

	findByIDFn  func(ctx context.Context, orderID string) (*domain.Order, error)
	insertErr   error
	listFilters []domain.OrderFilter
}

func (r *fakeOrderRepo) Insert(_ context.Context, order *domain.Order) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.store.orders[order.ID] = *order
	r.store.events = append(r.store.events, order.DomainEvents()...)
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	if r.findByIDFn != nil {
		return r.findByIDFn(ctx, orderID)
	}
	o, ok := r.store.orders[orderID]
	if !ok {
		return nil, nil
	}
	o.ClearDomainEvents()
	return &o, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, order *domain.Order, expected domain.OrderStatus) error {
	stored, ok := r.store.orders[order.ID]
	if !ok || stored.Status != expected {
		return domain.ErrConcurrentUpdate
	}
	r.store.orders[order.ID] = *order
	r.store.events = append(r.store.events, order.DomainEvents()...)
	return nil
}

func (r *fakeOrderRepo) UpdateReturn(_ context.Context, order *domain.Order) error {
	if _, ok := r.store.orders[order.ID]; !ok {
		return domain.ErrOrderNotFound
	}
	r.store.orders[order.ID] = *order
	r.store.events = append(r.store.events, order.DomainEvents()...)
	return nil
}

func (r *fakeOrderRepo) sorted(match func(domain.Order) bool, sortOrder domain.SortOrder) []*domain.Order {
	var out []*domain.Order
	for _, o := range r.store.orders {
		if match(o) {
			o := o
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if sortOrder == domain.SortOlder {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func paginate(orders []*domain.Order, page domain.Pagination) []*domain.Order {
	start := page.Skip()
	if start >= int64(len(orders)) {
		return nil
	}
	end := start + page.Limit()
	if end > int64(len(orders)) {
		end = int64(len(orders))
	}
	return orders[start:end]
}

func (r *fakeOrderRepo) FindByUser(_ context.Context, userID string, page domain.Pagination, sortOrder domain.SortOrder) ([]*domain.Order, int64, error) {
	all := r.sorted(func(o domain.Order) bool { return o.UserID == userID }, sortOrder)
	return paginate(all, page), int64(len(all)), nil
}

func (r *fakeOrderRepo) List(_ context.Context, filter domain.OrderFilter, page domain.Pagination) ([]*domain.Order, int64, error) {
	r.listFilters = append(r.listFilters, filter)
	all := r.sorted(func(o domain.Order) bool {
		return filter.Status == nil || o.Status == *filter.Status
	}, filter.Sort)
	return paginate(all, page), int64(len(all)), nil
}

func (r *fakeOrderRepo) FindByStatus(_ context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	return r.sorted(func(o domain.Order) bool { return o.Status == status }, domain.SortRecent), nil
}

type fakeWallets struct {
	store *memStore
}

func (w *fakeWallets) FindByUserID(_ context.Context, userID string) (*domain.Wallet, error) {
	amount, ok := w.store.wallets[userID]
	if !ok {
		return nil, nil
	}
	return &domain.Wallet{UserID: userID, Amount: amount}, nil
}

func (w *fakeWallets) Credit(_ context.Context, userID string, amount float64) error {
	w.store.wallets[userID] += amount
	return nil
}

func (w *fakeWallets) Debit(_ context.Context, userID string, amount float64) error {
	if w.store.wallets[userID] < amount {
		return domain.ErrInsufficientBalance
	}
	w.store.wallets[userID] -= amount
	return nil
}

type fakeCatalog struct {
	store *memStore
}

func (c *fakeCatalog) FindByID(_ context.Context, productID string) (*domain.Product, error) {
	p, ok := c.store.products[productID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *fakeCatalog) FindManyByIDs(_ context.Context, productIDs []string) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, id := range productIDs {
		if p, ok := c.store.products[id]; ok {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}

func (c *fakeCatalog) AdjustStock(_ context.Context, productID string, delta int) error {
	p, ok := c.store.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Stock += delta
	c.store.products[productID] = p
	return nil
}

type fakeCarts struct {
	store    *memStore
	clearErr error
	// beforeClear runs inside ClearByUser, after the checkout read
	beforeClear func()
}

func (c *fakeCarts) FindByUser(_ context.Context, userID string) ([]*domain.CartItem, error) {
	return c.store.carts[userID], nil
}

func (c *fakeCarts) ClearByUser(_ context.Context, userID string) (int, error) {
	if c.clearErr != nil {
		return 0, c.clearErr
	}
	if c.beforeClear != nil {
		c.beforeClear()
	}
	removed := len(c.store.carts[userID])
	delete(c.store.carts, userID)
	return removed, nil
}

type fakeAddresses struct {
	store *memStore
}

func (a *fakeAddresses) FindByID(_ context.Context, addressID string) (*domain.Address, error) {
	return a.store.addresses[addressID], nil
}

type fakeUsers struct {
	store *memStore
}

func (u *fakeUsers) FindByID(_ context.Context, userID string) (*domain.User, error) {
	return u.store.users[userID], nil
}

func (u *fakeUsers) FindManyByIDs(_ context.Context, userIDs []string) ([]*domain.User, error) {
	var out []*domain.User
	for _, id := range userIDs {
		if user, ok := u.store.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

type fakeAdmins struct {
	store *memStore
}

func (a *fakeAdmins) FindByUsername(_ context.Context, username string) (*domain.AdminCredential, error) {
	return a.store.admins[username], nil
}

type fakeGateway struct {
	createFn func(ctx context.Context, req domain.GatewayOrderRequest) (*domain.GatewayOrder, error)
	requests []domain.GatewayOrderRequest
}

func (g *fakeGateway) CreateGatewayOrder(ctx context.Context, req domain.GatewayOrderRequest) (*domain.GatewayOrder, error) {
	g.requests = append(g.requests, req)
	return g.createFn(ctx, req)
}

type fakeTokens struct {
	issueFn func(principal auth.Principal) (string, time.Time, error)
}

func (f *fakeTokens) Issue(principal auth.Principal) (string, time.Time, error) {
	return f.issueFn(principal)
}

// fixture wires every service over one memStore
type fixture struct {
	store     *memStore
	tx        *memTx
	orders    *fakeOrderRepo
	carts     *fakeCarts
	gateway   *fakeGateway
	ledger    *LedgerService
	placement *OrderPlacementService
	lifecycle *OrderLifecycleService
	queries   *OrderQueryService
}

func newFixture(policy domain.ReturnPolicy) *fixture {
	store := newMemStore()
	f := &fixture{
		store:  store,
		tx:     &memTx{store: store},
		orders: &fakeOrderRepo{store: store},
		carts:  &fakeCarts{store: store},
		gateway: &fakeGateway{createFn: func(_ context.Context, req domain.GatewayOrderRequest) (*domain.GatewayOrder, error) {
			return &domain.GatewayOrder{ID: "order_gw123", Amount: req.AmountMinor, Currency: req.Currency, KeyID: "rzp_test"}, nil
		}},
	}

	logger := testLogger()
	products := &fakeCatalog{store: store}
	f.ledger = NewLedgerService(products, &fakeWallets{store: store}, logger)
	f.placement = NewOrderPlacementService(PlacementDeps{
		Orders:    f.orders,
		Addresses: &fakeAddresses{store: store},
		Carts:     f.carts,
		Products:  products,
		Ledger:    f.ledger,
		Gateway:   f.gateway,
		Tx:        f.tx,
	}, PlacementConfig{}, logger, nil)
	f.lifecycle = NewOrderLifecycleService(f.orders, f.ledger, f.tx, LifecycleConfig{ReturnPolicy: policy}, logger, nil)
	f.queries = NewOrderQueryService(f.orders, &fakeUsers{store: store}, logger)
	return f
}

// seedCheckout gives user-1 an address, a wallet and a cart of P1 x2, P2 x1
func (f *fixture) seedCheckout(walletAmount float64) {
	f.store.addresses["addr-1"] = &domain.Address{ID: "addr-1", UserID: "user-1", Name: "Asha", Line1: "12 MG Road", City: "Pune", State: "MH", Pincode: "411001"}
	f.store.users["user-1"] = &domain.User{ID: "user-1", Name: "Asha", Email: "asha@example.com"}
	f.store.products["P1"] = domain.Product{ID: "P1", Name: "Kettle", Price: 100, Stock: 8}
	f.store.products["P2"] = domain.Product{ID: "P2", Name: "Mug", Price: 100, Stock: 4}
	f.store.carts["user-1"] = []*domain.CartItem{
		{UserID: "user-1", ProductID: "P1", Quantity: 2},
		{UserID: "user-1", ProductID: "P2", Quantity: 1},
	}
	if walletAmount > 0 {
		f.store.wallets["user-1"] = walletAmount
	}
}

// seedOrder stores an order directly, bypassing placement
func (f *fixture) seedOrder(id, userID string, status domain.OrderStatus, method domain.PaymentMethod, total float64, lines ...domain.CartLine) {
	f.store.orders[id] = domain.Order{
		ID:            id,
		UserID:        userID,
		Carts:         lines,
		Total:         total,
		PaymentMethod: method,
		Status:        status,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
}
