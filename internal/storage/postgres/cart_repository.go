package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/cart/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт PostgreSQL-реализацию CartRepository.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepository{db: store.DB()}
}

// Get возвращает корзину сессии вместе с позициями в порядке добавления.
func (r *cartRepository) Get(sessionID string) (domain.Cart, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var cart domain.Cart
	err := r.db.QueryRowContext(ctx, `
		SELECT session_id, version, created_at, updated_at
		FROM carts
		WHERE session_id = $1
	`, sessionID).Scan(&cart.SessionID, &cart.Version, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Cart{}, domain.ErrCartNotFound
		}
		return domain.Cart{}, fmt.Errorf("select cart: %w", err)
	}

	items, err := r.loadItems(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	cart.Items = items

	return cart, nil
}

// Save сохраняет корзину с optimistic locking: Version=0 создаёт запись,
// ненулевая версия обновляется по CAS, расхождение — ErrCartVersionConflict.
// Позиции перезаписываются целиком вместе с их порядком.
func (r *cartRepository) Save(cart domain.Cart) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if cart.Version == 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO carts (session_id, version, created_at, updated_at)
			VALUES ($1, 1, $2, $3)
		`, cart.SessionID, cart.CreatedAt, cart.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrCartVersionConflict
			}
			return fmt.Errorf("insert cart: %w", err)
		}
	} else {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `
			UPDATE carts
			SET version = version + 1,
			    updated_at = $1
			WHERE session_id = $2
			  AND version = $3
		`, cart.UpdatedAt, cart.SessionID, cart.Version)
		if err != nil {
			return fmt.Errorf("update cart: %w", err)
		}

		var affected int64
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			var exists bool
			exists, err = r.cartExistsTx(ctx, tx, cart.SessionID)
			if err != nil {
				return err
			}
			if !exists {
				err = domain.ErrCartNotFound
				return err
			}
			err = domain.ErrCartVersionConflict
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE session_id = $1`, cart.SessionID); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}

	for position, item := range cart.Items {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO cart_items (
				session_id, product_id, position, name, price_minor, quantity,
				category, era, year, image_ref, added_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`,
			cart.SessionID, item.ProductID, position, item.Name, item.PriceMinor,
			item.Quantity, item.Category, item.Era, item.Year, item.ImageRef, item.AddedAt,
		); err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save cart: %w", err)
	}

	return nil
}

// Clear удаляет корзину сессии; отсутствующая корзина не ошибка.
func (r *cartRepository) Clear(sessionID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

func (r *cartRepository) loadItems(ctx context.Context, sessionID string) ([]domain.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, price_minor, quantity, category, era, year, image_ref, added_at
		FROM cart_items
		WHERE session_id = $1
		ORDER BY position ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ProductID, &item.Name, &item.PriceMinor, &item.Quantity,
			&item.Category, &item.Era, &item.Year, &item.ImageRef, &item.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}

	return items, nil
}

func (r *cartRepository) cartExistsTx(ctx context.Context, tx *sql.Tx, sessionID string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT session_id FROM carts WHERE session_id = $1`, sessionID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check cart exists: %w", err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.CartRepository = (*cartRepository)(nil)
