package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"food-chat/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Orders struct {
	pool *pgxpool.Pool
}

func NewOrders(pool *pgxpool.Pool) *Orders {
	return &Orders{pool: pool}
}

// Place converts the device's cart into an immutable order inside one
// transaction: the cart rows are locked and re-read, the order row and its
// item snapshots are inserted, the cart is cleared and the session moves
// to payment_pending. Either all of that commits or none of it does.
//
// The row locks are what makes a double submit safe: the second caller
// blocks until the first commits, then re-reads an empty cart and gets
// (nil, nil), the "nothing to place" outcome.
func (o *Orders) Place(ctx context.Context, deviceID string, scheduledFor *time.Time) (*models.PlacedOrder, error) {
	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin placement: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT ci.menu_item_id, ci.quantity, ci.price, mi.name
		FROM cart_items ci
		JOIN menu_items mi ON ci.menu_item_id = mi.id
		WHERE ci.device_id = $1
		ORDER BY ci.menu_item_id
		FOR UPDATE OF ci`,
		deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("read cart for placement: %w", err)
	}
	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.MenuItemID, &it.Quantity, &it.Price, &it.ItemName); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cart for placement: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	var total int64
	for _, it := range items {
		total += it.Price * int64(it.Quantity)
	}

	order := models.PlacedOrder{
		DeviceID:      deviceID,
		TotalAmount:   total,
		PaymentStatus: models.PaymentPending,
		ScheduledFor:  scheduledFor,
		Status:        models.OrderStatusPlaced,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO placed_orders (device_id, total_amount, scheduled_for)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		deviceID, total, scheduledFor,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, quantity, price, item_name)
			VALUES ($1, $2, $3, $4, $5)`,
			order.ID, items[i].MenuItemID, items[i].Quantity, items[i].Price, items[i].ItemName,
		)
		if err != nil {
			return nil, fmt.Errorf("insert order item %q: %w", items[i].ItemName, err)
		}
	}
	order.Items = items

	if _, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE device_id = $1`, deviceID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	// Session state commits with the placement so a committed order can
	// never coexist with a pre-checkout session state.
	_, err = tx.Exec(ctx, `
		UPDATE sessions SET current_state = $1, last_activity = now()
		WHERE device_id = $2`,
		models.StatePaymentPending, deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("advance session: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit placement: %w", err)
	}
	return &order, nil
}

// History returns the device's placed orders newest first, items embedded.
func (o *Orders) History(ctx context.Context, deviceID string) ([]models.PlacedOrder, error) {
	rows, err := o.pool.Query(ctx, `
		SELECT id, device_id, total_amount, payment_status,
		       COALESCE(payment_reference, ''), scheduled_for, status, created_at
		FROM placed_orders
		WHERE device_id = $1
		ORDER BY created_at DESC, id DESC`,
		deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}
	defer rows.Close()

	var orders []models.PlacedOrder
	byID := make(map[int64]int)
	for rows.Next() {
		var po models.PlacedOrder
		if err := rows.Scan(&po.ID, &po.DeviceID, &po.TotalAmount, &po.PaymentStatus,
			&po.PaymentReference, &po.ScheduledFor, &po.Status, &po.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		byID[po.ID] = len(orders)
		orders = append(orders, po)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(orders))
	for _, po := range orders {
		ids = append(ids, po.ID)
	}
	itemRows, err := o.pool.Query(ctx, `
		SELECT order_id, COALESCE(menu_item_id, 0), quantity, price, item_name
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("order history items: %w", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var it models.OrderItem
		if err := itemRows.Scan(&it.OrderID, &it.MenuItemID, &it.Quantity, &it.Price, &it.ItemName); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		i := byID[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return orders, itemRows.Err()
}

// ByID returns one order with its items, or ErrOrderNotFound.
func (o *Orders) ByID(ctx context.Context, orderID int64) (*models.PlacedOrder, error) {
	var po models.PlacedOrder
	err := o.pool.QueryRow(ctx, `
		SELECT id, device_id, total_amount, payment_status,
		       COALESCE(payment_reference, ''), scheduled_for, status, created_at
		FROM placed_orders
		WHERE id = $1`,
		orderID,
	).Scan(&po.ID, &po.DeviceID, &po.TotalAmount, &po.PaymentStatus,
		&po.PaymentReference, &po.ScheduledFor, &po.Status, &po.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := o.pool.Query(ctx, `
		SELECT order_id, COALESCE(menu_item_id, 0), quantity, price, item_name
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.OrderID, &it.MenuItemID, &it.Quantity, &it.Price, &it.ItemName); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		po.Items = append(po.Items, it)
	}
	return &po, rows.Err()
}

// MarkPaid moves an order to paid with the given provider reference.
// Already-paid orders are returned as stored: repeated confirmations for
// the same payment never overwrite the recorded reference.
func (o *Orders) MarkPaid(ctx context.Context, orderID int64, reference string) (*models.PlacedOrder, error) {
	existing, err := o.ByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if existing.PaymentStatus == models.PaymentPaid {
		return existing, nil
	}

	_, err = o.pool.Exec(ctx, `
		UPDATE placed_orders
		SET payment_status = $1, payment_reference = $2
		WHERE id = $3 AND payment_status <> $1`,
		models.PaymentPaid, reference, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}
	return o.ByID(ctx, orderID)
}
