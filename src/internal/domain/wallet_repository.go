package domain

import "context"

type WalletRepository interface {
	// Create returns ErrConflict when the owner already holds a wallet in the currency.
	Create(ctx context.Context, wallet Wallet) (Wallet, error)
	GetByID(ctx context.Context, id string) (Wallet, error)
	GetByOwnerAndCurrency(ctx context.Context, ownerID string, currency string) (Wallet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Wallet, error)
}
