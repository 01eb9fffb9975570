package application

import (
	"context"
	"fmt"

	"github.com/shopfront/order-platform/internal/domain"
	"github.com/shopfront/order-platform/pkg/logging"
)

// LedgerService owns stock and wallet adjustments.
// Restock, Credit and Debit return domain errors so they compose inside
// a caller's transaction; GetStock and GetBalance are request facing.
type LedgerService struct {
	products domain.ProductCatalog
	wallets  domain.WalletRepository
	logger   *logging.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(products domain.ProductCatalog, wallets domain.WalletRepository, logger *logging.Logger) *LedgerService {
	return &LedgerService{
		products: products,
		wallets:  wallets,
		logger:   logger.WithComponent("ledger"),
	}
}

// GetStock returns a product's stock level
func (s *LedgerService) GetStock(ctx context.Context, productID string) (*StockDTO, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get product", "productId", productID)
		return nil, mapDomainError(fmt.Errorf("failed to get product: %w", err))
	}
	if product == nil {
		return nil, mapDomainError(domain.ErrProductNotFound)
	}
	return &StockDTO{ProductID: product.ID, Name: product.Name, Stock: product.Stock}, nil
}

// Restock returns quantity units of a product to stock
func (s *LedgerService) Restock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	if err := s.products.AdjustStock(ctx, productID, quantity); err != nil {
		return fmt.Errorf("failed to restock product %s: %w", productID, err)
	}
	return nil
}

// GetBalance returns the user's wallet; a missing wallet reads as zero
func (s *LedgerService) GetBalance(ctx context.Context, userID string) (*WalletDTO, error) {
	wallet, err := s.wallets.FindByUserID(ctx, userID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get wallet", "userId", userID)
		return nil, mapDomainError(fmt.Errorf("failed to get wallet: %w", err))
	}
	if wallet == nil {
		return &WalletDTO{UserID: userID}, nil
	}
	return &WalletDTO{UserID: userID, Amount: wallet.Amount, Exists: true}, nil
}

// Credit adds amount to the user's wallet, creating it when absent
func (s *LedgerService) Credit(ctx context.Context, userID string, amount float64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if err := s.wallets.Credit(ctx, userID, amount); err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}
	return nil
}

// Debit removes amount from the user's wallet when the balance covers it
func (s *LedgerService) Debit(ctx context.Context, userID string, amount float64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if err := s.wallets.Debit(ctx, userID, amount); err != nil {
		return fmt.Errorf("failed to debit wallet: %w", err)
	}
	return nil
}
