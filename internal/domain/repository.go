package domain

import "context"

// CustomerRepository описывает требования к хранилищу клиентов.
type CustomerRepository interface {
	// Create сохраняет клиента, назначая ID и CreatedAt. Нарушение уникальности email — ErrDuplicateEmail.
	Create(ctx context.Context, customer Customer) (Customer, error)
	// Get возвращает клиента по идентификатору или ErrCustomerNotFound.
	Get(ctx context.Context, id string) (Customer, error)
	// ExistsByEmail проверяет наличие клиента с точно таким email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// List возвращает всех клиентов в порядке хранилища.
	List(ctx context.Context) ([]Customer, error)
	// WithinTx выполняет fn в одной атомарной транзакции.
	// Если fn вернула ошибку, ни одна запись из транзакции не сохраняется.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx CustomerTx) error) error
}

// CustomerTx — представление хранилища клиентов внутри транзакции.
type CustomerTx interface {
	// ExistsByEmail видит как зафиксированные записи, так и созданные ранее в этой транзакции.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create вставляет клиента под отдельной точкой сохранения: ошибка вставки откатывает
	// только эту запись. Ошибки, после которых транзакция непригодна, оборачивают ErrStoreFatal.
	Create(ctx context.Context, customer Customer) (Customer, error)
}

// ProductRepository описывает требования к хранилищу товаров.
type ProductRepository interface {
	// Create сохраняет товар, назначая ID и CreatedAt.
	Create(ctx context.Context, product Product) (Product, error)
	// ListByIDs возвращает найденные товары; дубликаты и неизвестные ID в результат не попадают.
	ListByIDs(ctx context.Context, ids []string) ([]Product, error)
	List(ctx context.Context) ([]Product, error)
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create атомарно сохраняет заказ, его связи с товарами и итоговую сумму.
	Create(ctx context.Context, order Order) (Order, error)
	// List возвращает все заказы вместе с клиентом и товарами.
	List(ctx context.Context) ([]Order, error)
}
