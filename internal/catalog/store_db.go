package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	pgUniqueCode = "23505"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens a pool through the pgx database/sql driver.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := withTimeout(ctx, pingTimeout, db.PingContext); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the products table. seq keeps insertion order, which the
// id alone does not. id is BIGINT so every Go int fits, and tables created
// with an INTEGER id are widened in place.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		if _, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS products (
				seq   BIGINT GENERATED ALWAYS AS IDENTITY,
				id    BIGINT PRIMARY KEY,
				name  TEXT NOT NULL CHECK (btrim(name) <> ''),
				price DOUBLE PRECISION NOT NULL CHECK (price >= 0)
			)
		`); err != nil {
			return err
		}
		_, err := s.db.ExecContext(ctx, `ALTER TABLE products ALTER COLUMN id TYPE BIGINT`)
		return err
	})
	if err != nil {
		return &StorageError{Op: "migrate", Err: err}
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) List(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, price
			FROM products
			ORDER BY seq ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			var p Product
			if err := rows.Scan(&p.ID, &p.Name, &p.Price); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int) (Product, bool, error) {
	var p Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT id, name, price
			FROM products
			WHERE id = $1
		`, id).Scan(&p.ID, &p.Name, &p.Price)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, &StorageError{Op: "get", Err: err}
	}
	return p, true, nil
}

func (s *PostgresStore) Add(ctx context.Context, p Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO products (id, name, price)
			VALUES ($1, $2, $3)
		`, p.ID, p.Name, p.Price)
		return err
	})

	if isUniqueViolation(err) {
		return fmt.Errorf("%w: id=%d", ErrConflict, p.ID)
	}
	if err != nil {
		return &StorageError{Op: "add", Err: err}
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, p Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	return s.execOne(ctx, "update", p.ID, `
		UPDATE products
		SET name = $2, price = $3
		WHERE id = $1
	`, p.ID, p.Name, p.Price)
}

func (s *PostgresStore) Delete(ctx context.Context, id int) error {
	return s.execOne(ctx, "delete", id, `DELETE FROM products WHERE id = $1`, id)
}

// execOne runs a statement expected to touch exactly the row with id.
func (s *PostgresStore) execOne(ctx context.Context, op string, id int, query string, args ...any) error {
	var n int64

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})

	if err != nil {
		return &StorageError{Op: op, Err: err}
	}
	if n == 0 {
		return fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	return nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueCode
}
