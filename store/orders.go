package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

func ValidPriority(p string) bool {
	switch p {
	case PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type SalesOrder struct {
	ID           int64     `json:"id"`
	OrderUUID    string    `json:"order_uuid"`
	OrderNumber  string    `json:"order_number"`
	CustomerName string    `json:"customer_name"`
	ItemName     string    `json:"item_name"`
	Quantity     int64     `json:"quantity"`
	Priority     string    `json:"priority"`
	IsUrgent     bool      `json:"is_urgent"`
	UrgentReason string    `json:"urgent_reason,omitempty"`
	DueDate      time.Time `json:"due_date"`
	Released     bool      `json:"released"`
	CreatedAt    time.Time `json:"created_at"`
}

// OrderFilter narrows ListOrders. Zero values mean "no constraint".
type OrderFilter struct {
	DueFrom  time.Time
	DueTo    time.Time
	Priority string
	Urgent   bool
	Released bool
	Limit    int
}

// CreateOrder inserts a sales order. The id is assigned by the database
// sequence, so concurrent creators never collide. Duplicate order numbers are
// reported as ErrDuplicateOrderNumber.
func (db *DB) CreateOrder(o *SalesOrder) error {
	return db.withTx(func(tx *sql.Tx) error {
		return db.createOrderTx(tx, o)
	})
}

func (db *DB) createOrderTx(tx *sql.Tx, o *SalesOrder) error {
	if o.OrderUUID == "" {
		o.OrderUUID = uuid.New().String()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	id, err := db.txInsertID(tx,
		`INSERT INTO sales_orders (order_uuid, order_number, customer_name, item_name, quantity, priority, is_urgent, urgent_reason, due_date, released, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OrderUUID, o.OrderNumber, o.CustomerName, o.ItemName, o.Quantity,
		o.Priority, o.IsUrgent, o.UrgentReason, fmtTime(o.DueDate), o.Released, fmtTime(o.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateOrderNumber
		}
		return err
	}
	o.ID = id
	return nil
}

func (db *DB) GetOrder(id int64) (*SalesOrder, error) {
	return db.getOrderWhere(`id=?`, id)
}

func (db *DB) GetOrderByUUID(orderUUID string) (*SalesOrder, error) {
	return db.getOrderWhere(`order_uuid=?`, orderUUID)
}

func (db *DB) GetOrderByNumber(number string) (*SalesOrder, error) {
	return db.getOrderWhere(`order_number=?`, number)
}

func (db *DB) getOrderWhere(cond string, arg any) (*SalesOrder, error) {
	row := db.QueryRow(db.Q(`SELECT id, order_uuid, order_number, customer_name, item_name, quantity, priority, is_urgent, urgent_reason, due_date, released, created_at
		FROM sales_orders WHERE `+cond), arg)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

// ListOrders returns orders newest-created-first, optionally filtered.
func (db *DB) ListOrders(f OrderFilter) ([]*SalesOrder, error) {
	query := `SELECT id, order_uuid, order_number, customer_name, item_name, quantity, priority, is_urgent, urgent_reason, due_date, released, created_at FROM sales_orders`
	var conds []string
	var args []any
	if !f.DueFrom.IsZero() {
		conds = append(conds, `due_date >= ?`)
		args = append(args, fmtTime(f.DueFrom))
	}
	if !f.DueTo.IsZero() {
		conds = append(conds, `due_date < ?`)
		args = append(args, fmtTime(f.DueTo))
	}
	if f.Priority != "" {
		conds = append(conds, `priority = ?`)
		args = append(args, f.Priority)
	}
	if f.Urgent {
		conds = append(conds, `is_urgent = ?`)
		args = append(args, true)
	}
	if f.Released {
		conds = append(conds, `released = ?`)
		args = append(args, true)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := db.Query(db.Q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []*SalesOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// AmendPriority changes the priority of an existing order. URGENT implies the
// urgency flag.
func (db *DB) AmendPriority(id int64, priority, reason string) error {
	if !ValidPriority(priority) {
		return ErrBadStatus
	}
	isUrgent := priority == PriorityUrgent
	result, err := db.Exec(db.Q(`UPDATE sales_orders SET priority=?, is_urgent=?, urgent_reason=? WHERE id=?`),
		priority, isUrgent, reason, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReleaseOrders flips the gating flag making orders visible in worklists.
func (db *DB) ReleaseOrders(ids []int64) error {
	for _, id := range ids {
		result, err := db.Exec(db.Q(`UPDATE sales_orders SET released=? WHERE id=?`), true, id)
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return ErrNotFound
		}
	}
	return nil
}

func (db *DB) CountOrders() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sales_orders`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(r rowScanner) (*SalesOrder, error) {
	var o SalesOrder
	var due, created dbTime
	if err := r.Scan(&o.ID, &o.OrderUUID, &o.OrderNumber, &o.CustomerName, &o.ItemName,
		&o.Quantity, &o.Priority, &o.IsUrgent, &o.UrgentReason, &due, &o.Released, &created); err != nil {
		return nil, err
	}
	o.DueDate = due.Time()
	o.CreatedAt = created.Time()
	return &o, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value") // postgres
}

// withTx runs fn in a transaction, rolling back on error.
func (db *DB) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
