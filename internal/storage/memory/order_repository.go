package memory

import (
	"context"
	"errors"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	store *Store
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepositoryInMemory{store: store}
}

// Create проверяет ссылочную целостность и сохраняет заказ вместе со связями одним шагом.
func (r *orderRepositoryInMemory) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, errors.Join(errs...)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	customer, ok := r.store.customerLocked(order.Customer.ID)
	if !ok {
		return domain.Order{}, domain.ErrCustomerNotFound
	}
	for _, p := range order.Products {
		if _, ok := r.store.productLocked(p.ID); !ok {
			return domain.Order{}, domain.ErrInvalidProductIDs
		}
	}

	rec := orderRecord{
		id:         r.store.newID(),
		customerID: customer.ID,
		productIDs: order.ProductIDs(),
		total:      order.TotalAmount,
		createdAt:  r.store.now(),
	}
	r.store.orders = append(r.store.orders, rec)

	return r.store.resolveOrderLocked(rec), nil
}

// List возвращает заказы в порядке создания.
func (r *orderRepositoryInMemory) List(_ context.Context) ([]domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.store.orders))
	for _, rec := range r.store.orders {
		result = append(result, r.store.resolveOrderLocked(rec))
	}
	return result, nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
