package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"voice-order-service/internal/models"

	"github.com/lib/pq"
)

type orderRow struct {
	OrderID   string    `db:"order_id"`
	Room      string    `db:"room"`
	Status    string    `db:"status"`
	Total     float64   `db:"total"`
	CreatedAt time.Time `db:"created_at"`
}

type orderItemRow struct {
	ID        int64          `db:"id"`
	OrderID   string         `db:"order_id"`
	Name      string         `db:"name"`
	Quantity  int            `db:"quantity"`
	UnitPrice float64        `db:"unit_price"`
	Size      sql.NullString `db:"size"`
	Addons    pq.StringArray `db:"addons"`
}

// InsertOrderRecord writes a confirmed order and its item snapshot.
func (s *Store) InsertOrderRecord(ctx context.Context, room string, rec *models.OrderRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (order_id, room, status, total, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.OrderID, room, rec.Status, rec.Total, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range rec.Items {
		var size sql.NullString
		if item.Size != "" {
			size = sql.NullString{String: item.Size, Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, name, quantity, unit_price, size, addons)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			rec.OrderID, item.Name, item.Quantity, item.Price, size, pq.StringArray(item.Addons))
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// UpdateOrderStatus updates the status of a stored order.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE order_id = $2",
		status, orderID)
	return err
}

// GetOrderRecord retrieves a stored order with its item snapshot.
func (s *Store) GetOrderRecord(ctx context.Context, orderID string) (*models.OrderRecord, string, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row,
		"SELECT order_id, room, status, total, created_at FROM orders WHERE order_id = $1", orderID)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("order not found: %s", orderID)
	}
	if err != nil {
		return nil, "", err
	}

	var itemRows []orderItemRow
	err = s.db.SelectContext(ctx, &itemRows,
		"SELECT id, order_id, name, quantity, unit_price, size, addons FROM order_items WHERE order_id = $1 ORDER BY id",
		orderID)
	if err != nil {
		return nil, "", err
	}

	rec := &models.OrderRecord{
		OrderID:   row.OrderID,
		Status:    row.Status,
		Total:     row.Total,
		Timestamp: row.CreatedAt,
		Items:     make([]models.LineItem, 0, len(itemRows)),
	}
	for _, ir := range itemRows {
		rec.Items = append(rec.Items, models.LineItem{
			Name:     ir.Name,
			Quantity: ir.Quantity,
			Price:    ir.UnitPrice,
			Size:     ir.Size.String,
			Addons:   []string(ir.Addons),
		})
	}
	return rec, row.Room, nil
}

// GetOrdersByRoom retrieves stored orders for a room, newest first.
func (s *Store) GetOrdersByRoom(ctx context.Context, room string) ([]models.OrderRecord, error) {
	var rows []orderRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT order_id, room, status, total, created_at FROM orders WHERE room = $1 ORDER BY created_at DESC", room)
	if err != nil {
		return nil, err
	}

	records := make([]models.OrderRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.OrderRecord{
			OrderID:   row.OrderID,
			Status:    row.Status,
			Total:     row.Total,
			Timestamp: row.CreatedAt,
		})
	}
	return records, nil
}
