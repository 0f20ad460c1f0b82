package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// helper для создания заказа из двух товаров.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	products := []domain.Product{
		{ID: "product-1", Name: "Laptop", Price: decimal.RequireFromString("10.00"), CreatedAt: now},
		{ID: "product-2", Name: "Mouse", Price: decimal.RequireFromString("15.50"), CreatedAt: now},
	}
	return domain.Order{
		ID:          "order-1",
		Customer:    domain.Customer{ID: "customer-1", Name: "Alice", Email: "alice@example.com"},
		Products:    products,
		TotalAmount: decimal.RequireFromString("25.50"),
		CreatedAt:   now,
	}
}

func TestCalculateTotal(t *testing.T) {
	order := makeOrder()
	total := domain.CalculateTotal(order.Products)
	if !total.Equal(decimal.RequireFromString("25.5")) {
		t.Fatalf("expected total 25.50, got %s", total.StringFixed(2))
	}

	if !domain.CalculateTotal(nil).IsZero() {
		t.Fatal("expected zero total for empty product list")
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
		want error
	}{
		{
			name: "no customer",
			mut: func(o *domain.Order) {
				o.Customer = domain.Customer{}
			},
			want: domain.ErrCustomerNotFound,
		},
		{
			name: "no products",
			mut: func(o *domain.Order) {
				o.Products = nil
			},
			want: domain.ErrEmptyProductList,
		},
		{
			name: "total mismatch",
			mut: func(o *domain.Order) {
				o.TotalAmount = decimal.RequireFromString("1.00")
			},
			want: domain.ErrTotalMismatch,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)
			errs := order.ValidateInvariants()
			if !errors.Is(errors.Join(errs...), tc.want) {
				t.Fatalf("expected %v among %v", tc.want, errs)
			}
		})
	}
}

func TestOrderProductIDs(t *testing.T) {
	order := makeOrder()
	ids := order.ProductIDs()
	if fmt.Sprint(ids) != "[product-1 product-2]" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestProductValidateInvariants_Cases(t *testing.T) {
	cases := []struct {
		name  string
		price string
		stock int
		want  error
	}{
		{name: "zero price", price: "0", stock: 0, want: domain.ErrNonPositivePrice},
		{name: "negative price", price: "-5", stock: 0, want: domain.ErrNonPositivePrice},
		{name: "negative stock", price: "1", stock: -1, want: domain.ErrNegativeStock},
		{name: "smallest price", price: "0.01", stock: 0, want: nil},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			p := domain.Product{Name: "Item", Price: decimal.RequireFromString(tc.price), Stock: tc.stock}
			errs := p.ValidateInvariants()
			if tc.want == nil {
				if len(errs) != 0 {
					t.Fatalf("expected no errors, got %v", errs)
				}
				return
			}
			if len(errs) == 0 || errs[0] != tc.want {
				t.Fatalf("expected first error %v, got %v", tc.want, errs)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "fatal", err: domain.ErrStoreFatal, want: true},
		{name: "wrapped fatal", err: fmt.Errorf("rollback to savepoint: %w", domain.ErrStoreFatal), want: true},
		{name: "validation", err: domain.ErrDuplicateEmail, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}
