package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/logger"
)

var _ domain.BankRepository = (*BankRepository)(nil)

type BankRepository struct {
	db *sql.DB
}

func NewBankRepository(db *sql.DB) *BankRepository {
	return &BankRepository{db: db}
}

// EnsureBanks upserts the bank directory. Existing webhook secret hashes are
// left untouched so rotated secrets survive a restart.
func (r *BankRepository) EnsureBanks(ctx context.Context, banks []domain.Bank) error {
	const query = `
INSERT INTO banks (id, name, country, status, webhook_secret_hash)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    country = EXCLUDED.country,
    status = EXCLUDED.status`

	for _, b := range banks {
		if _, err := r.db.ExecContext(ctx, query, b.ID, b.Name, b.Country, b.Status, b.WebhookSecretHash); err != nil {
			logger.Error("bank repository ensure banks failed", err, logger.Fields{"bankId": b.ID})
			return fmt.Errorf("ensure bank %s: %w", b.ID, err)
		}
	}
	return nil
}

func (r *BankRepository) GetAll(ctx context.Context) ([]domain.Bank, error) {
	const query = `
SELECT id, name, country, status, webhook_secret_hash
FROM banks
ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("bank repository get all failed", err, nil)
		return nil, fmt.Errorf("get banks: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Bank, 0)
	for rows.Next() {
		var b domain.Bank
		if err := rows.Scan(&b.ID, &b.Name, &b.Country, &b.Status, &b.WebhookSecretHash); err != nil {
			return nil, fmt.Errorf("scan bank: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate banks: %w", err)
	}
	return out, nil
}

func (r *BankRepository) GetByID(ctx context.Context, id string) (domain.Bank, error) {
	const query = `
SELECT id, name, country, status, webhook_secret_hash
FROM banks
WHERE id = $1`

	var b domain.Bank
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.Name, &b.Country, &b.Status, &b.WebhookSecretHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Bank{}, domain.ErrRecordNotFound
		}
		return domain.Bank{}, fmt.Errorf("get bank: %w", err)
	}
	return b, nil
}
