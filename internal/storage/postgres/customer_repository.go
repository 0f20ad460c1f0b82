package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// bulkItemSavepoint — точка сохранения для одной вставки внутри пакетной транзакции.
const bulkItemSavepoint = "crm_bulk_item"

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository создаёт PostgreSQL-реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepository{db: store.DB()}
}

func (r *customerRepository) Create(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return insertCustomer(ctx, r.db, customer)
}

func (r *customerRepository) Get(ctx context.Context, id string) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("select customer: %w", err)
	}
	return customer, nil
}

func (r *customerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return customerEmailExists(ctx, r.db, email)
}

func (r *customerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, phone, created_at
		FROM customers
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)
	for rows.Next() {
		customer, err := scanCustomer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan customer row: %w", err)
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer rows: %w", err)
	}

	return customers, nil
}

// WithinTx открывает транзакцию, в которой каждая вставка выполняется под savepoint.
// Коммит происходит только если fn завершилась без ошибки.
func (r *customerRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.CustomerTx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin customers tx: %w", errors.Join(domain.ErrStoreFatal, err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &customerTx{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit customers tx: %w", errors.Join(domain.ErrStoreFatal, err))
	}
	return nil
}

type customerTx struct {
	tx *sql.Tx
}

func (t *customerTx) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	exists, err := customerEmailExists(ctx, t.tx, email)
	if err != nil {
		// Ошибка чтения внутри транзакции делает её непригодной для продолжения.
		return false, errors.Join(domain.ErrStoreFatal, err)
	}
	return exists, nil
}

// Create вставляет клиента под savepoint. При ошибке вставки транзакция откатывается
// к точке сохранения и остаётся пригодной для следующих записей.
func (t *customerTx) Create(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+bulkItemSavepoint); err != nil {
		return domain.Customer{}, fmt.Errorf("create savepoint: %w", errors.Join(domain.ErrStoreFatal, err))
	}

	created, err := insertCustomer(ctx, t.tx, customer)
	if err != nil {
		if _, rbErr := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+bulkItemSavepoint); rbErr != nil {
			return domain.Customer{}, fmt.Errorf("rollback to savepoint: %w", errors.Join(domain.ErrStoreFatal, rbErr, err))
		}
		return domain.Customer{}, err
	}

	if _, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+bulkItemSavepoint); err != nil {
		return domain.Customer{}, fmt.Errorf("release savepoint: %w", errors.Join(domain.ErrStoreFatal, err))
	}
	return created, nil
}

func insertCustomer(ctx context.Context, q querier, customer domain.Customer) (domain.Customer, error) {
	if errs := customer.ValidateInvariants(); len(errs) > 0 {
		return domain.Customer{}, errors.Join(errs...)
	}

	customer.ID = uuid.NewString()
	var phone sql.NullString
	if customer.Phone != nil {
		phone = sql.NullString{String: *customer.Phone, Valid: true}
	}

	err := q.QueryRowContext(ctx, `
		INSERT INTO customers (id, name, email, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, customer.ID, customer.Name, customer.Email, phone).Scan(&customer.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Customer{}, domain.ErrDuplicateEmail
		}
		return domain.Customer{}, fmt.Errorf("insert customer: %w", err)
	}
	customer.CreatedAt = customer.CreatedAt.UTC()

	return customer, nil
}

func customerEmailExists(ctx context.Context, q querier, email string) (bool, error) {
	var exists bool
	if err := q.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM customers WHERE email = $1)
	`, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check customer email: %w", err)
	}
	return exists, nil
}

func scanCustomer(scan func(dest ...any) error) (domain.Customer, error) {
	var (
		customer  domain.Customer
		phone     sql.NullString
		createdAt time.Time
	)
	if err := scan(&customer.ID, &customer.Name, &customer.Email, &phone, &createdAt); err != nil {
		return domain.Customer{}, err
	}
	if phone.Valid {
		customer.Phone = &phone.String
	}
	customer.CreatedAt = createdAt.UTC()
	return customer, nil
}

var (
	_ domain.CustomerRepository = (*customerRepository)(nil)
	_ domain.CustomerTx         = (*customerTx)(nil)
)
