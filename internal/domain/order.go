package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order — заказ клиента. Владеет связью с товарами, но не самими товарами.
type Order struct {
	ID          string
	Customer    Customer
	Products    []Product
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
}

// CalculateTotal суммирует цены переданных товаров.
func CalculateTotal(products []Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price)
	}
	return total
}

// ProductIDs возвращает идентификаторы товаров заказа в исходном порядке.
func (o *Order) ProductIDs() []string {
	ids := make([]string, 0, len(o.Products))
	for _, p := range o.Products {
		ids = append(ids, p.ID)
	}
	return ids
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.Customer.ID == "" {
		errs = append(errs, ErrCustomerNotFound)
	}
	if len(o.Products) == 0 {
		errs = append(errs, ErrEmptyProductList)
	}
	// Сумма заказа фиксируется по ценам на момент создания.
	if !CalculateTotal(o.Products).Equal(o.TotalAmount) {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
