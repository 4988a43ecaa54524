package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/waste-collection/internal/models"
)

const specialColumns = `id, user_id, category, quantity, fee, scheduled_at, time_slot, status,
	payment_status, payment_id, qr_code, address, lat, lng, created_at`

func scanSpecial(row scanner) (*models.SpecialCollection, error) {
	c := &models.SpecialCollection{}
	var lat, lng sql.NullFloat64
	err := row.Scan(&c.ID, &c.UserID, &c.Category, &c.Quantity, &c.Fee, &c.ScheduledAt,
		&c.TimeSlot, &c.Status, &c.PaymentStatus, &c.PaymentID, &c.QRCode, &c.Address,
		&lat, &lng, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Location = locationOf(lat, lng)
	return c, nil
}

// CreateSpecial сохраняет специальный вывоз и возвращает его ID
func (s *Storage) CreateSpecial(ctx context.Context, c models.SpecialCollection) (int64, error) {
	const op = "storage.CreateSpecial"
	lat, lng := nullLocation(c.Location)
	var id int64
	err := s.DB.QueryRowContext(ctx, `INSERT INTO special_collections
		(user_id, category, quantity, fee, scheduled_at, time_slot, status, payment_status,
		 qr_code, address, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		c.UserID, c.Category, c.Quantity, c.Fee, c.ScheduledAt, c.TimeSlot, c.Status,
		c.PaymentStatus, c.QRCode, c.Address, lat, lng).Scan(&id)
	if err != nil {
		return 0, wrap(op, err)
	}
	return id, nil
}

// GetSpecial возвращает вывоз по ID
func (s *Storage) GetSpecial(ctx context.Context, id int64) (*models.SpecialCollection, error) {
	const op = "storage.GetSpecial"
	c, err := scanSpecial(s.DB.QueryRowContext(ctx,
		`SELECT `+specialColumns+` FROM special_collections WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return c, nil
}

// GetSpecialByQR возвращает вывоз по содержимому QR-кода
func (s *Storage) GetSpecialByQR(ctx context.Context, code string) (*models.SpecialCollection, error) {
	const op = "storage.GetSpecialByQR"
	c, err := scanSpecial(s.DB.QueryRowContext(ctx,
		`SELECT `+specialColumns+` FROM special_collections WHERE qr_code = $1`, code))
	if err != nil {
		return nil, wrap(op, err)
	}
	return c, nil
}

// ListSpecials возвращает вывозы пользователя, при пустом userID все.
func (s *Storage) ListSpecials(ctx context.Context, userID string) ([]*models.SpecialCollection, error) {
	const op = "storage.ListSpecials"
	query := `SELECT ` + specialColumns + ` FROM special_collections`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY scheduled_at, id`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.SpecialCollection
	for rows.Next() {
		c, err := scanSpecial(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// UpdateSpecialStatus меняет статус вывоза
func (s *Storage) UpdateSpecialStatus(ctx context.Context, id int64, status models.SpecialStatus) error {
	const op = "storage.UpdateSpecialStatus"
	res, err := s.DB.ExecContext(ctx, `UPDATE special_collections SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return wrap(op, err)
	}
	return affected(op, res)
}

// RescheduleSpecial переносит вывоз
func (s *Storage) RescheduleSpecial(ctx context.Context, id int64, at time.Time, slot string) error {
	const op = "storage.RescheduleSpecial"
	res, err := s.DB.ExecContext(ctx, `UPDATE special_collections
		SET scheduled_at = $2, time_slot = $3 WHERE id = $1`, id, at, slot)
	if err != nil {
		return wrap(op, err)
	}
	return affected(op, res)
}

// MarkSpecialPaid отмечает вывоз оплаченным
func (s *Storage) MarkSpecialPaid(ctx context.Context, id int64, paymentID string) error {
	const op = "storage.MarkSpecialPaid"
	res, err := s.DB.ExecContext(ctx, `UPDATE special_collections
		SET payment_status = $2, payment_id = $3 WHERE id = $1`, id, models.PaymentPaid, paymentID)
	if err != nil {
		return wrap(op, err)
	}
	return affected(op, res)
}
