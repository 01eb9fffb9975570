package domain

import "context"

// OrderRepository defines the interface for order persistence.
// Implementations write pending domain events to the outbox in the same call.
type OrderRepository interface {
	// Insert persists a new order
	Insert(ctx context.Context, order *Order) error

	// FindByID returns nil, nil when the order does not exist
	FindByID(ctx context.Context, orderID string) (*Order, error)

	// UpdateStatus persists order.Status only if the stored status still equals expected.
	// Returns ErrConcurrentUpdate when it does not.
	UpdateStatus(ctx context.Context, order *Order, expected OrderStatus) error

	// UpdateReturn persists the return request
	UpdateReturn(ctx context.Context, order *Order) error

	// FindByUser returns one page of a user's orders and the user's order count
	FindByUser(ctx context.Context, userID string, page Pagination, sort SortOrder) ([]*Order, int64, error)

	// List returns one page of orders matching filter and the filtered count
	List(ctx context.Context, filter OrderFilter, page Pagination) ([]*Order, int64, error)

	// FindByStatus returns every order with the given status, newest first
	FindByStatus(ctx context.Context, status OrderStatus) ([]*Order, error)
}

// WalletRepository stores wallet balances
type WalletRepository interface {
	// FindByUserID returns nil, nil when the user has no wallet
	FindByUserID(ctx context.Context, userID string) (*Wallet, error)

	// Credit increments the balance, creating the wallet when absent
	Credit(ctx context.Context, userID string, amount float64) error

	// Debit decrements the balance when it covers amount, else ErrInsufficientBalance
	Debit(ctx context.Context, userID string, amount float64) error
}

// ProductCatalog reads products and adjusts stock
type ProductCatalog interface {
	FindByID(ctx context.Context, productID string) (*Product, error)
	FindManyByIDs(ctx context.Context, productIDs []string) ([]*Product, error)
	// AdjustStock applies delta with $inc; ErrProductNotFound for unknown ids
	AdjustStock(ctx context.Context, productID string, delta int) error
}

// UserDirectory reads customers
type UserDirectory interface {
	FindByID(ctx context.Context, userID string) (*User, error)
	FindManyByIDs(ctx context.Context, userIDs []string) ([]*User, error)
}

// AddressBook reads saved addresses
type AddressBook interface {
	FindByID(ctx context.Context, addressID string) (*Address, error)
}

// CartStore reads and clears carts
type CartStore interface {
	FindByUser(ctx context.Context, userID string) ([]*CartItem, error)
	// ClearByUser deletes the user's cart lines and returns how many were removed
	ClearByUser(ctx context.Context, userID string) (int, error)
}

// AdminCredentialStore reads admin logins
type AdminCredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*AdminCredential, error)
}

// Transactor runs fn atomically. Repositories called with the ctx passed to fn
// take part in the transaction. fn may run more than once.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SortOrder orders listings by creation time
type SortOrder string

const (
	SortRecent SortOrder = "recentOrders"
	SortOlder  SortOrder = "olderOrders"
)

// ParseSortOrder defaults to newest first
func ParseSortOrder(value string) SortOrder {
	if SortOrder(value) == SortOlder {
		return SortOlder
	}
	return SortRecent
}

// Pagination represents pagination options
type Pagination struct {
	Page     int64
	PageSize int64
}

// NewPagination clamps page to at least 1 and applies defaultSize when size is not positive
func NewPagination(page, size, defaultSize int64) Pagination {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultSize
	}
	return Pagination{Page: page, PageSize: size}
}

// Skip returns the number of documents to skip
func (p Pagination) Skip() int64 {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the maximum number of documents to return
func (p Pagination) Limit() int64 {
	return p.PageSize
}

// OrderFilter represents filter options for admin listings
type OrderFilter struct {
	Status *OrderStatus
	Sort   SortOrder
}
