package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceScale совпадает с масштабом колонки NUMERIC(10,2).
const PriceScale = 2

// NormalizePrice округляет цену до масштаба хранилища, половины от нуля, как это делает PostgreSQL.
func NormalizePrice(price decimal.Decimal) decimal.Decimal {
	return price.Round(PriceScale)
}

// Product — товар каталога. Цена хранится в decimal, чтобы суммы заказов были точными.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Stock     int
	CreatedAt time.Time
}

// ValidateInvariants проверяет цену и остаток товара.
// Порядок ошибок совпадает с порядком проверок при создании товара.
func (p *Product) ValidateInvariants() []error {
	var errs []error

	if !p.Price.IsPositive() {
		errs = append(errs, ErrNonPositivePrice)
	}
	if p.Stock < 0 {
		errs = append(errs, ErrNegativeStock)
	}

	return errs
}
