package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/waste-collection/internal/models"
)

const submissionColumns = `id, user_id, category, items, weight_kg, payback_amount, method,
	status, payment_status, qr_code, address, lat, lng, created_at, updated_at`

func scanSubmission(row scanner) (*models.WasteSubmission, error) {
	s := &models.WasteSubmission{}
	var (
		items    []byte
		lat, lng sql.NullFloat64
	)
	err := row.Scan(&s.ID, &s.UserID, &s.Category, &items, &s.WeightKg, &s.PaybackAmount,
		&s.Method, &s.Status, &s.PaymentStatus, &s.QRCode, &s.Address, &lat, &lng,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &s.Items); err != nil {
		return nil, err
	}
	s.Location = locationOf(lat, lng)
	return s, nil
}

// CreateSubmission сохраняет заявку и возвращает её ID
func (s *Storage) CreateSubmission(ctx context.Context, sub models.WasteSubmission) (int64, error) {
	const op = "storage.CreateSubmission"
	items, err := json.Marshal(sub.Items)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	lat, lng := nullLocation(sub.Location)

	var id int64
	err = s.DB.QueryRowContext(ctx, `INSERT INTO waste_submissions
		(user_id, category, items, weight_kg, payback_amount, method, status, payment_status,
		 qr_code, address, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		sub.UserID, sub.Category, items, sub.WeightKg, sub.PaybackAmount, sub.Method,
		sub.Status, sub.PaymentStatus, sub.QRCode, sub.Address, lat, lng).Scan(&id)
	if err != nil {
		return 0, wrap(op, err)
	}
	return id, nil
}

// GetSubmission возвращает заявку по ID
func (s *Storage) GetSubmission(ctx context.Context, id int64) (*models.WasteSubmission, error) {
	const op = "storage.GetSubmission"
	sub, err := scanSubmission(s.DB.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM waste_submissions WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return sub, nil
}

// GetSubmissionByQR возвращает заявку по содержимому QR-кода
func (s *Storage) GetSubmissionByQR(ctx context.Context, code string) (*models.WasteSubmission, error) {
	const op = "storage.GetSubmissionByQR"
	sub, err := scanSubmission(s.DB.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM waste_submissions WHERE qr_code = $1`, code))
	if err != nil {
		return nil, wrap(op, err)
	}
	return sub, nil
}

// ListSubmissions возвращает заявки пользователя, а при пустом userID все заявки.
func (s *Storage) ListSubmissions(ctx context.Context, userID string) ([]*models.WasteSubmission, error) {
	const op = "storage.ListSubmissions"
	query := `SELECT ` + submissionColumns + ` FROM waste_submissions`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.WasteSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// UpdateSubmission перезаписывает редактируемые поля заявки
func (s *Storage) UpdateSubmission(ctx context.Context, sub models.WasteSubmission) error {
	const op = "storage.UpdateSubmission"
	items, err := json.Marshal(sub.Items)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	lat, lng := nullLocation(sub.Location)
	res, err := s.DB.ExecContext(ctx, `UPDATE waste_submissions
		SET category = $2, items = $3, weight_kg = $4, payback_amount = $5, method = $6,
		    address = $7, lat = $8, lng = $9, updated_at = NOW()
		WHERE id = $1`,
		sub.ID, sub.Category, items, sub.WeightKg, sub.PaybackAmount, sub.Method, sub.Address, lat, lng)
	if err != nil {
		return wrap(op, err)
	}
	return affected(op, res)
}

// UpdateSubmissionStatus меняет статус заявки
func (s *Storage) UpdateSubmissionStatus(ctx context.Context, id int64, status models.WasteStatus, payment models.PaymentStatus) error {
	const op = "storage.UpdateSubmissionStatus"
	res, err := s.DB.ExecContext(ctx, `UPDATE waste_submissions
		SET status = $2, payment_status = $3, updated_at = NOW() WHERE id = $1`, id, status, payment)
	if err != nil {
		return wrap(op, err)
	}
	return affected(op, res)
}

// DeleteSubmission удаляет заявку
func (s *Storage) DeleteSubmission(ctx context.Context, id int64) error {
	const op = "storage.DeleteSubmission"
	res, err := s.DB.ExecContext(ctx, `DELETE FROM waste_submissions WHERE id = $1`, id)
	if err != nil {
		return wrap(op, err)
	}
	return affected(op, res)
}
