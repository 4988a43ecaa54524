package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/waste-collection/internal/models"
)

const userColumns = `id, name, email, phone, address, username, password_hash, role, email_verified, created_at`

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address, &u.Username,
		&u.PasswordHash, &u.Role, &u.EmailVerified, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser сохраняет пользователя. ID генерируется вызывающим.
func (s *Storage) CreateUser(ctx context.Context, u models.User) error {
	const op = "storage.CreateUser"
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users
		(id, name, email, phone, address, username, password_hash, role, email_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Name, u.Email, u.Phone, u.Address, u.Username, u.PasswordHash, u.Role, u.EmailVerified)
	if err != nil {
		return wrap(op, err)
	}
	return nil
}

// GetUserByUsername возвращает пользователя по username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по ID
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUser"
	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// UpdateProfile меняет имя, телефон и адрес
func (s *Storage) UpdateProfile(ctx context.Context, id string, req models.ProfileRequest) (*models.User, error) {
	const op = "storage.UpdateProfile"
	u, err := scanUser(s.DB.QueryRowContext(ctx, `UPDATE users
		SET name = $2, phone = $3, address = $4
		WHERE id = $1
		RETURNING `+userColumns, id, req.Name, req.Phone, req.Address))
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// ListUsersByRole возвращает пользователей с указанной ролью
func (s *Storage) ListUsersByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	const op = "storage.ListUsersByRole"
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at`, role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
