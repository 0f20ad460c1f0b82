package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// orderRecord хранит заказ в нормализованном виде: ссылки на клиента и товары.
type orderRecord struct {
	id         string
	customerID string
	productIDs []string
	total      decimal.Decimal
	createdAt  time.Time
}

// Store — общее in-memory хранилище для всех репозиториев CRM.
// Срезы сохраняют порядок вставки, индексы дают поиск по ID и email.
type Store struct {
	mu sync.RWMutex

	customers     []domain.Customer
	customerIndex map[string]int
	emailIndex    map[string]string

	products     []domain.Product
	productIndex map[string]int

	orders []orderRecord

	newID func() string
	now   func() time.Time
}

// NewStore создаёт пустое хранилище для локальной разработки и тестов.
func NewStore() *Store {
	return &Store{
		customerIndex: make(map[string]int),
		emailIndex:    make(map[string]string),
		productIndex:  make(map[string]int),
		newID:         uuid.NewString,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Ping всегда успешен; нужен для health check.
func (s *Store) Ping() error {
	return nil
}

// insertCustomerLocked добавляет клиента. Вызывающий держит s.mu на запись.
func (s *Store) insertCustomerLocked(customer domain.Customer) {
	s.customerIndex[customer.ID] = len(s.customers)
	s.emailIndex[customer.Email] = customer.ID
	s.customers = append(s.customers, customer)
}

func (s *Store) customerLocked(id string) (domain.Customer, bool) {
	idx, ok := s.customerIndex[id]
	if !ok {
		return domain.Customer{}, false
	}
	return s.customers[idx], true
}

func (s *Store) productLocked(id string) (domain.Product, bool) {
	idx, ok := s.productIndex[id]
	if !ok {
		return domain.Product{}, false
	}
	return s.products[idx], true
}

// resolveOrderLocked собирает заказ с актуальными клиентом и товарами.
func (s *Store) resolveOrderLocked(rec orderRecord) domain.Order {
	customer, _ := s.customerLocked(rec.customerID)
	products := make([]domain.Product, 0, len(rec.productIDs))
	for _, id := range rec.productIDs {
		if p, ok := s.productLocked(id); ok {
			products = append(products, p)
		}
	}
	return domain.Order{
		ID:          rec.id,
		Customer:    customer,
		Products:    products,
		TotalAmount: rec.total,
		CreatedAt:   rec.createdAt,
	}
}

func copyPhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	v := *phone
	return &v
}
