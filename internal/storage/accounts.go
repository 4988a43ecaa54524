package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/waste-collection/internal/models"
)

const accountColumns = `account_id, user_id, holder, address, lat, lng, capacity, updated_at`

func scanAccount(row scanner) (*models.WasteAccount, error) {
	a := &models.WasteAccount{}
	var lat, lng sql.NullFloat64
	if err := row.Scan(&a.AccountID, &a.UserID, &a.Holder, &a.Address, &lat, &lng, &a.Capacity, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Location = locationOf(lat, lng)
	return a, nil
}

// CreateAccount сохраняет точку сбора
func (s *Storage) CreateAccount(ctx context.Context, a models.WasteAccount) error {
	const op = "storage.CreateAccount"
	lat, lng := nullLocation(a.Location)
	_, err := s.DB.ExecContext(ctx, `INSERT INTO waste_accounts
		(account_id, user_id, holder, address, lat, lng, capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.AccountID, a.UserID, a.Holder, a.Address, lat, lng, a.Capacity)
	if err != nil {
		return wrap(op, err)
	}
	return nil
}

// GetAccount возвращает точку сбора по её идентификатору из QR-кода
func (s *Storage) GetAccount(ctx context.Context, accountID string) (*models.WasteAccount, error) {
	const op = "storage.GetAccount"
	a, err := scanAccount(s.DB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM waste_accounts WHERE account_id::text = $1`, accountID))
	if err != nil {
		return nil, wrap(op, err)
	}
	return a, nil
}

// ListAccounts возвращает все точки сбора
func (s *Storage) ListAccounts(ctx context.Context) ([]*models.WasteAccount, error) {
	const op = "storage.ListAccounts"
	rows, err := s.DB.QueryContext(ctx, `SELECT `+accountColumns+` FROM waste_accounts ORDER BY holder, account_id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.WasteAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// UpdateCapacity задаёт заполненность точки сбора
func (s *Storage) UpdateCapacity(ctx context.Context, accountID string, capacity int) error {
	const op = "storage.UpdateCapacity"
	res, err := s.DB.ExecContext(ctx, `UPDATE waste_accounts
		SET capacity = $2, updated_at = NOW() WHERE account_id::text = $1`, accountID, capacity)
	if err != nil {
		return wrap(op, err)
	}
	return affected(op, res)
}
