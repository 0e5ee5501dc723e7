package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/logger"
)

var _ domain.WalletRepository = (*WalletRepository)(nil)

type WalletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) Create(ctx context.Context, wallet domain.Wallet) (domain.Wallet, error) {
	logger.Info("wallet repository create", logger.Fields{
		"ownerId":  wallet.OwnerID,
		"currency": wallet.Currency,
	})

	const query = `
INSERT INTO wallets (
	owner_id,
	currency,
	balance
) VALUES ($1, $2, $3::numeric)
RETURNING id, created_at, updated_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		wallet.OwnerID,
		wallet.Currency,
		wallet.Balance.String(),
	).Scan(&wallet.ID, &wallet.CreatedAt, &wallet.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.Wallet{}, domain.ErrConflict
		}
		logger.Error("wallet repository create failed", err, logger.Fields{
			"ownerId":  wallet.OwnerID,
			"currency": wallet.Currency,
		})
		return domain.Wallet{}, fmt.Errorf("create wallet: %w", err)
	}

	logger.Info("wallet repository create success", logger.Fields{
		"walletId": wallet.ID,
	})
	return wallet, nil
}

func (r *WalletRepository) GetByID(ctx context.Context, id string) (domain.Wallet, error) {
	const query = `
SELECT id, owner_id, currency, balance, created_at, updated_at
FROM wallets
WHERE id = $1`

	w, err := scanWallet(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Wallet{}, domain.ErrRecordNotFound
		}
		logger.Error("wallet repository get by id failed", err, logger.Fields{"walletId": id})
		return domain.Wallet{}, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

func (r *WalletRepository) GetByOwnerAndCurrency(ctx context.Context, ownerID string, currency string) (domain.Wallet, error) {
	const query = `
SELECT id, owner_id, currency, balance, created_at, updated_at
FROM wallets
WHERE owner_id = $1
  AND currency = $2`

	w, err := scanWallet(r.db.QueryRowContext(ctx, query, ownerID, currency))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Wallet{}, domain.ErrRecordNotFound
		}
		logger.Error("wallet repository get by owner failed", err, logger.Fields{
			"ownerId":  ownerID,
			"currency": currency,
		})
		return domain.Wallet{}, fmt.Errorf("get wallet by owner: %w", err)
	}
	return w, nil
}

func (r *WalletRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Wallet, error) {
	const query = `
SELECT id, owner_id, currency, balance, created_at, updated_at
FROM wallets
WHERE owner_id = $1
ORDER BY currency ASC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		logger.Error("wallet repository list failed", err, logger.Fields{"ownerId": ownerID})
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	wallets := make([]domain.Wallet, 0)
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallets: %w", err)
	}
	return wallets, nil
}

func scanWallet(row rowScanner) (domain.Wallet, error) {
	var w domain.Wallet
	err := row.Scan(&w.ID, &w.OwnerID, &w.Currency, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}
