package services

import (
	"context"
	"errors"
	"fmt"

	"food-chat/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

// ListAvailable returns orderable items grouped by category, then id.
func (c *Catalog) ListAvailable(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, name, description, price, category, available
		FROM menu_items
		WHERE available = true
		ORDER BY category, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var it models.MenuItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.Category, &it.Available); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ByID returns an available item, or ErrItemNotFound.
func (c *Catalog) ByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	var it models.MenuItem
	err := c.pool.QueryRow(ctx, `
		SELECT id, name, description, price, category, available
		FROM menu_items
		WHERE id = $1 AND available = true`,
		id,
	).Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.Category, &it.Available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	return &it, nil
}
