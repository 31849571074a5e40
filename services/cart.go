package services

import (
	"context"
	"errors"
	"fmt"

	"food-chat/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Carts struct {
	pool *pgxpool.Pool
}

func NewCarts(pool *pgxpool.Pool) *Carts {
	return &Carts{pool: pool}
}

// Add puts qty of an item into the device's cart. If the line already
// exists only its quantity grows; the stored unit price stays the one
// captured on first insert (EXCLUDED.price is deliberately not applied).
// Unknown or unavailable items yield ErrItemNotFound.
func (c *Carts) Add(ctx context.Context, deviceID string, menuItemID int64, qty int) (*models.CartLine, error) {
	if qty < 1 {
		qty = 1
	}

	var price int64
	var name string
	err := c.pool.QueryRow(ctx, `
		SELECT price, name FROM menu_items WHERE id = $1 AND available = true`,
		menuItemID,
	).Scan(&price, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("look up menu item: %w", err)
	}

	var line models.CartLine
	err = c.pool.QueryRow(ctx, `
		INSERT INTO cart_items (device_id, menu_item_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (device_id, menu_item_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING device_id, menu_item_id, quantity, price`,
		deviceID, menuItemID, qty, price,
	).Scan(&line.DeviceID, &line.MenuItemID, &line.Quantity, &line.Price)
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	line.Name = name
	return &line, nil
}

// Get returns the device's cart lines joined with item details, in the
// order the items appear on the menu.
func (c *Carts) Get(ctx context.Context, deviceID string) ([]models.CartLine, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT ci.device_id, ci.menu_item_id, ci.quantity, ci.price,
		       mi.name, mi.description, mi.category
		FROM cart_items ci
		JOIN menu_items mi ON ci.menu_item_id = mi.id
		WHERE ci.device_id = $1
		ORDER BY mi.category, mi.id`,
		deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	defer rows.Close()

	var lines []models.CartLine
	for rows.Next() {
		var l models.CartLine
		if err := rows.Scan(&l.DeviceID, &l.MenuItemID, &l.Quantity, &l.Price, &l.Name, &l.Description, &l.Category); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Clear deletes every line for the device. Idempotent.
func (c *Carts) Clear(ctx context.Context, deviceID string) error {
	_, err := c.pool.Exec(ctx, `DELETE FROM cart_items WHERE device_id = $1`, deviceID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
