package domain

import "errors"

var (
	// ErrDuplicateEmail: клиент с таким email уже существует.
	ErrDuplicateEmail = errors.New("Email already exists")
	// ErrInvalidPhoneFormat: телефон не прошёл упрощённую проверку формата.
	ErrInvalidPhoneFormat = errors.New("Invalid phone format")
	// ErrNonPositivePrice: цена товара должна быть строго больше нуля.
	ErrNonPositivePrice = errors.New("Price must be positive")
	// ErrNegativeStock: остаток товара не может быть отрицательным.
	ErrNegativeStock = errors.New("Stock cannot be negative")
	// ErrCustomerNotFound: customer_id не найден в хранилище.
	ErrCustomerNotFound = errors.New("Invalid customer ID")
	// ErrEmptyProductList: заказ без товаров.
	ErrEmptyProductList = errors.New("At least one product must be selected")
	// ErrInvalidProductIDs: часть product_ids не удалось разрешить (включая дубликаты).
	ErrInvalidProductIDs = errors.New("One or more product IDs are invalid")

	// Ошибка отсутствующего имени клиента (NOT NULL на уровне хранилища).
	ErrCustomerNameRequired = errors.New("customer name is required")
	// Ошибка отсутствующего email клиента (NOT NULL на уровне хранилища).
	ErrCustomerEmailRequired = errors.New("customer email is required")
	// Элемент пакетной мутации оказался валидным JSON, но не объектом.
	ErrCustomerDescriptorNotObject = errors.New("customer descriptor must be a JSON object")
	// Ошибка несоответствия суммы заказа и цен товаров.
	ErrTotalMismatch = errors.New("order total does not match products sum")

	// ErrStoreFatal: ошибка, после которой транзакцию продолжать нельзя.
	ErrStoreFatal = errors.New("record store transaction aborted")
)

// IsFatal проверяет, требует ли ошибка отката всей транзакции.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStoreFatal)
}
