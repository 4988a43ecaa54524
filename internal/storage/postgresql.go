// Package storage реализует хранилище на PostgreSQL: пользователи, заявки
// на вторсырьё, специальные вывозы и точки сбора.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/waste-collection/internal/models"
)

var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists нарушено ограничение уникальности
	ErrAlreadyExists = errors.New("already exists")
)

// Storage инкапсулирует соединение с PostgreSQL
type Storage struct {
	DB *sql.DB
}

// New открывает подключение и проверяет его
func New(ctx context.Context, storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Storage{DB: db}, nil
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(ctx context.Context, storage *Storage) error {
	const op = "storage.CheckDatabaseReady"
	for _, table := range []string{"users", "waste_submissions", "special_collections", "waste_accounts"} {
		var exists bool
		err := storage.DB.QueryRowContext(ctx, `SELECT EXISTS (
			SELECT FROM information_schema.tables WHERE table_name = $1
		)`, table).Scan(&exists)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return fmt.Errorf("%s: required table %s missing", op, table)
		}
	}
	return nil
}

// PatchLocation сохраняет координаты записи указанного типа. Используется
// фоновым геокодированием маркеров.
func (s *Storage) PatchLocation(ctx context.Context, kind models.MarkerType, pointID string, loc models.Location) error {
	const op = "storage.PatchLocation"
	var query string
	switch kind {
	case models.MarkerWasteAccount:
		query = `UPDATE waste_accounts SET lat = $1, lng = $2 WHERE account_id::text = $3`
	case models.MarkerRecyclable:
		query = `UPDATE waste_submissions SET lat = $1, lng = $2 WHERE id::text = $3`
	case models.MarkerSpecial:
		query = `UPDATE special_collections SET lat = $1, lng = $2 WHERE id::text = $3`
	default:
		return fmt.Errorf("%s: unknown marker type %q", op, kind)
	}
	res, err := s.DB.ExecContext(ctx, query, loc.Lat, loc.Lng, pointID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(op, res)
}

func affected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// wrap приводит sql.ErrNoRows и нарушение уникальности к ошибкам пакета
func wrap(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullLocation(loc *models.Location) (sql.NullFloat64, sql.NullFloat64) {
	if loc == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: loc.Lat, Valid: true}, sql.NullFloat64{Float64: loc.Lng, Valid: true}
}

func locationOf(lat, lng sql.NullFloat64) *models.Location {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &models.Location{Lat: lat.Float64, Lng: lng.Float64}
}

type scanner interface {
	Scan(dest ...any) error
}
