package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// Create пишет заказ и связи order_products в одной транзакции.
// Нарушения внешних ключей переводятся в доменные ошибки.
func (r *orderRepository) Create(ctx context.Context, order domain.Order) (_ domain.Order, err error) {
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, errors.Join(errs...)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	order.ID = uuid.NewString()
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, customer_id, total_amount)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, order.ID, order.Customer.ID, order.TotalAmount).Scan(&order.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Order{}, domain.ErrCustomerNotFound
		}
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	order.CreatedAt = order.CreatedAt.UTC()

	for _, p := range order.Products {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_products (order_id, product_id)
			VALUES ($1, $2)
		`, order.ID, p.ID); err != nil {
			if isForeignKeyViolation(err) || isUniqueViolation(err) {
				return domain.Order{}, domain.ErrInvalidProductIDs
			}
			return domain.Order{}, fmt.Errorf("insert order product: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit create order: %w", err)
	}

	return order, nil
}

func (r *orderRepository) List(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.total_amount, o.created_at,
		       c.id, c.name, c.email, c.phone, c.created_at
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		ORDER BY o.created_at ASC, o.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			order domain.Order
			phone sql.NullString
		)
		if err := rows.Scan(&order.ID, &order.TotalAmount, &order.CreatedAt,
			&order.Customer.ID, &order.Customer.Name, &order.Customer.Email,
			&phone, &order.Customer.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		if phone.Valid {
			order.Customer.Phone = &phone.String
		}
		order.CreatedAt = order.CreatedAt.UTC()
		order.Customer.CreatedAt = order.Customer.CreatedAt.UTC()
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	rows.Close()

	if len(orders) == 0 {
		return orders, nil
	}
	if err := r.attachProducts(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachProducts загружает товары всех заказов одним запросом.
func (r *orderRepository) attachProducts(ctx context.Context, orders []domain.Order) error {
	ids := make([]string, 0, len(orders))
	byID := make(map[string]*domain.Order, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ID)
		byID[orders[i].ID] = &orders[i]
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT op.order_id, p.id, p.name, p.price, p.stock, p.created_at
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		WHERE op.order_id = ANY($1)
		ORDER BY p.created_at ASC, p.id ASC
	`, ids)
	if err != nil {
		return fmt.Errorf("load order products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			p       domain.Product
		)
		if err := rows.Scan(&orderID, &p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt); err != nil {
			return fmt.Errorf("scan order product: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		if order, ok := byID[orderID]; ok {
			order.Products = append(order.Products, p)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order products: %w", err)
	}

	return nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
