package domain

import (
	"strings"
	"time"
	"unicode"
)

// Customer — клиент CRM. После создания не изменяется.
type Customer struct {
	ID    string
	Name  string
	Email string
	// Phone необязателен; nil означает, что телефон не указан.
	Phone     *string
	CreatedAt time.Time
}

// ValidateInvariants проверяет ограничения, которые хранилище накладывает на запись клиента.
func (c *Customer) ValidateInvariants() []error {
	var errs []error

	if c.Name == "" {
		errs = append(errs, ErrCustomerNameRequired)
	}
	if c.Email == "" {
		errs = append(errs, ErrCustomerEmailRequired)
	}

	return errs
}

// ValidPhone выполняет нестрогую проверку формата телефона:
// достаточно ведущего "+", хотя бы одного "-" или строки только из цифр.
func ValidPhone(phone string) bool {
	return strings.HasPrefix(phone, "+") || strings.Contains(phone, "-") || isDigits(phone)
}

// isDigits принимает только десятичные цифры (Unicode Nd).
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
