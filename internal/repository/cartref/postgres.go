package cartref

import (
	"context"
	"errors"
	"io"
	"log"

	"inkblot-storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Get(ctx context.Context, profileID string) (string, error) {
	const q = `
SELECT cart_id
FROM cart_references
WHERE profile_id = $1
`
	var cartID string
	if err := r.pool.QueryRow(ctx, q, profileID).Scan(&cartID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		r.logger.Printf("cartref repo: get profile_id=%s error=%v", profileID, err)
		return "", err
	}
	return cartID, nil
}

func (r *postgresRepo) Put(ctx context.Context, profileID, cartID string) error {
	const q = `
INSERT INTO cart_references (profile_id, cart_id)
VALUES ($1, $2)
ON CONFLICT (profile_id) DO UPDATE SET
    cart_id = EXCLUDED.cart_id,
    updated_at = now()
`
	if _, err := r.pool.Exec(ctx, q, profileID, cartID); err != nil {
		r.logger.Printf("cartref repo: put profile_id=%s error=%v", profileID, err)
		return err
	}
	r.logger.Printf("cartref repo: put profile_id=%s cart_id=%s", profileID, cartID)
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, profileID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_references WHERE profile_id = $1`, profileID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
