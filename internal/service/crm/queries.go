package crm

import (
	"context"
	"time"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// Customers возвращает всех клиентов в порядке хранилища.
func (s *Service) Customers(ctx context.Context) (customers []domain.Customer, err error) {
	started := time.Now()
	defer func() { s.observe(opListCustomers, started, err) }()

	return s.customers.List(ctx)
}

// Products возвращает все товары в порядке хранилища.
func (s *Service) Products(ctx context.Context) (products []domain.Product, err error) {
	started := time.Now()
	defer func() { s.observe(opListProducts, started, err) }()

	return s.products.List(ctx)
}

// Orders возвращает все заказы вместе с клиентом и товарами.
func (s *Service) Orders(ctx context.Context) (orders []domain.Order, err error) {
	started := time.Now()
	defer func() { s.observe(opListOrders, started, err) }()

	return s.orders.List(ctx)
}
