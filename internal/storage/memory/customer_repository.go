package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// customerRepositoryInMemory — in-memory реализация CustomerRepository поверх общего Store.
type customerRepositoryInMemory struct {
	store *Store
}

// NewCustomerRepository возвращает in-memory репозиторий клиентов.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepositoryInMemory{store: store}
}

// Create сохраняет клиента; уникальность email проверяется под блокировкой.
func (r *customerRepositoryInMemory) Create(_ context.Context, customer domain.Customer) (domain.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.createLocked(customer, nil)
}

// createLocked проверяет ограничения хранилища и вставляет запись.
// staged — записи текущей транзакции, ещё не видимые снаружи.
func (r *customerRepositoryInMemory) createLocked(customer domain.Customer, staged *customerTx) (domain.Customer, error) {
	if errs := customer.ValidateInvariants(); len(errs) > 0 {
		return domain.Customer{}, errors.Join(errs...)
	}
	if _, exists := r.store.emailIndex[customer.Email]; exists {
		return domain.Customer{}, domain.ErrDuplicateEmail
	}
	if staged != nil && staged.hasEmail(customer.Email) {
		return domain.Customer{}, domain.ErrDuplicateEmail
	}

	customer.ID = r.store.newID()
	customer.CreatedAt = r.store.now()
	customer.Phone = copyPhone(customer.Phone)

	if staged != nil {
		staged.created = append(staged.created, customer)
		return customer, nil
	}
	r.store.insertCustomerLocked(customer)
	return customer, nil
}

// Get возвращает клиента или ErrCustomerNotFound.
func (r *customerRepositoryInMemory) Get(_ context.Context, id string) (domain.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	customer, ok := r.store.customerLocked(id)
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return customer, nil
}

func (r *customerRepositoryInMemory) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, exists := r.store.emailIndex[email]
	return exists, nil
}

// List возвращает клиентов в порядке вставки.
func (r *customerRepositoryInMemory) List(_ context.Context) ([]domain.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Customer, len(r.store.customers))
	copy(result, r.store.customers)
	return result, nil
}

// WithinTx держит блокировку хранилища на всё время fn и применяет
// созданные записи только при успешном завершении.
func (r *customerRepositoryInMemory) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.CustomerTx) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx := &customerTx{repo: r}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit customers tx: %w", errors.Join(domain.ErrStoreFatal, err))
	}

	for _, customer := range tx.created {
		r.store.insertCustomerLocked(customer)
	}
	return nil
}

// customerTx накапливает вставки до фиксации. Блокировка хранилища уже захвачена.
type customerTx struct {
	repo    *customerRepositoryInMemory
	created []domain.Customer
}

func (tx *customerTx) hasEmail(email string) bool {
	for _, c := range tx.created {
		if c.Email == email {
			return true
		}
	}
	return false
}

func (tx *customerTx) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("check email in tx: %w", errors.Join(domain.ErrStoreFatal, err))
	}
	if _, exists := tx.repo.store.emailIndex[email]; exists {
		return true, nil
	}
	return tx.hasEmail(email), nil
}

// Create вставляет клиента в рамках транзакции. Ошибка ограничения не затрагивает
// ранее созданные записи, что соответствует откату к точке сохранения.
func (tx *customerTx) Create(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Customer{}, fmt.Errorf("insert customer in tx: %w", errors.Join(domain.ErrStoreFatal, err))
	}
	return tx.repo.createLocked(customer, tx)
}

var (
	_ domain.CustomerRepository = (*customerRepositoryInMemory)(nil)
	_ domain.CustomerTx         = (*customerTx)(nil)
)
