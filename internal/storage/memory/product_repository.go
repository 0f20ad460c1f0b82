package memory

import (
	"context"
	"errors"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// productRepositoryInMemory — in-memory реализация ProductRepository.
type productRepositoryInMemory struct {
	store *Store
}

// NewProductRepository возвращает in-memory репозиторий товаров.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepositoryInMemory{store: store}
}

// Create сохраняет товар, повторяя CHECK-ограничения PostgreSQL-схемы.
func (r *productRepositoryInMemory) Create(_ context.Context, product domain.Product) (domain.Product, error) {
	if errs := product.ValidateInvariants(); len(errs) > 0 {
		return domain.Product{}, errors.Join(errs...)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	product.ID = r.store.newID()
	product.CreatedAt = r.store.now()
	r.store.productIndex[product.ID] = len(r.store.products)
	r.store.products = append(r.store.products, product)
	return product, nil
}

// ListByIDs возвращает найденные товары в порядке хранения, каждый не более одного раза.
func (r *productRepositoryInMemory) ListByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Product, 0, len(wanted))
	for _, p := range r.store.products {
		if _, ok := wanted[p.ID]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *productRepositoryInMemory) List(_ context.Context) ([]domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Product, len(r.store.products))
	copy(result, r.store.products)
	return result, nil
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
