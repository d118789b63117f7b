package business

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/waitline/waitline/internal/domain"
)

type pgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore returns a Store backed by PostgreSQL.
func NewPgStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

const businessColumns = `id, name, type, address, latitude, longitude,
	avg_service_time, is_open, created_at`

func (s *pgStore) GetByID(ctx context.Context, id int64) (*domain.Business, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+businessColumns+`
		FROM businesses WHERE id = $1`, id)

	b, err := scanBusiness(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUnknownBusiness
	}
	return b, err
}

func (s *pgStore) List(ctx context.Context, limit int) ([]*domain.Business, error) {
	query := `
		SELECT ` + businessColumns + `
		FROM businesses
		ORDER BY id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	var businesses []*domain.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		businesses = append(businesses, b)
	}
	return businesses, rows.Err()
}

func scanBusiness(row pgx.Row) (*domain.Business, error) {
	var b domain.Business
	err := row.Scan(
		&b.ID, &b.Name, &b.Type, &b.Address, &b.Location.Lat, &b.Location.Lon,
		&b.AvgServiceMinutes, &b.IsOpen, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
