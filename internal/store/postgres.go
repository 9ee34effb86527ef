package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps slots in the slot table (see migrations).
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (pg *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	rows, _ := pg.db.Query(ctx, "SELECT value FROM slot WHERE key = $1", key)
	value, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[[]byte])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return value, err
}

func (pg *Postgres) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	_, err := pg.db.Exec(ctx, `
		INSERT INTO slot (key, value)
		VALUES (@key, @value)
		ON CONFLICT (key)
		DO UPDATE SET value = excluded.value, updated_at = now();`,
		pgx.NamedArgs{
			"key":   key,
			"value": value,
		},
	)
	return err
}

func (pg *Postgres) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	_, err := pg.db.Exec(ctx, "DELETE FROM slot WHERE key = $1", key)
	return err
}
