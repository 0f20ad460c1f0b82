package crm

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

// CreateCustomer создаёт одного клиента. Проверки выполняются по порядку:
// уникальность email, затем формат телефона, если он передан.
func (s *Service) CreateCustomer(ctx context.Context, input CreateCustomerInput) (result CreateCustomerResult, err error) {
	started := time.Now()
	defer func() { s.observe(opCreateCustomer, started, err) }()

	exists, err := s.customers.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return CreateCustomerResult{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return CreateCustomerResult{}, domain.ErrDuplicateEmail
	}
	if input.Phone != nil && *input.Phone != "" && !domain.ValidPhone(*input.Phone) {
		return CreateCustomerResult{}, domain.ErrInvalidPhoneFormat
	}

	customer, err := s.customers.Create(ctx, domain.Customer{
		Name:  input.Name,
		Email: input.Email,
		Phone: input.Phone,
	})
	if err != nil {
		return CreateCustomerResult{}, err
	}

	s.logger.WithField("customer_id", customer.ID).Info("customer created")
	s.publish(ctx, customerCreatedEvent(customer))

	return CreateCustomerResult{Customer: customer, Message: CustomerCreatedMessage}, nil
}

// BulkCreateCustomers создаёт клиентов пакетом в одной транзакции.
// Ошибки отдельных записей попадают в Errors и не прерывают пакет.
// Фатальная ошибка хранилища откатывает весь пакет и возвращается как ошибка вызова.
func (s *Service) BulkCreateCustomers(ctx context.Context, descriptors []CustomerDescriptor) (result BulkCreateResult, err error) {
	started := time.Now()
	defer func() { s.observe(opBulkCreateCustomers, started, err) }()

	var (
		created []domain.Customer
		errs    []string
	)
	err = s.customers.WithinTx(ctx, func(ctx context.Context, tx domain.CustomerTx) error {
		created = created[:0]
		errs = errs[:0]

		for _, descriptor := range descriptors {
			if descriptor == nil {
				errs = append(errs, domain.ErrCustomerDescriptorNotObject.Error())
				continue
			}
			customer := descriptor.customer()

			exists, err := tx.ExistsByEmail(ctx, customer.Email)
			if err != nil {
				if domain.IsFatal(err) {
					return err
				}
				errs = append(errs, err.Error())
				continue
			}
			if exists {
				errs = append(errs, fmt.Sprintf("Email %s already exists", customer.Email))
				continue
			}

			saved, err := tx.Create(ctx, customer)
			if err != nil {
				if domain.IsFatal(err) {
					return err
				}
				errs = append(errs, err.Error())
				continue
			}
			created = append(created, saved)
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("batch_size", len(descriptors)).Error("bulk customer transaction rolled back")
		return BulkCreateResult{}, fmt.Errorf("bulk create customers: %w", err)
	}

	s.metrics.RecordBulkItems(len(created), len(errs))
	s.logger.WithFields(log.Fields{
		"created": len(created),
		"skipped": len(errs),
	}).Info("bulk customer batch committed")

	for _, customer := range created {
		s.publish(ctx, customerCreatedEvent(customer))
	}

	return BulkCreateResult{Customers: created, Errors: errs}, nil
}

// CreateProduct создаёт товар. Stock по умолчанию равен нулю.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (product domain.Product, err error) {
	started := time.Now()
	defer func() { s.observe(opCreateProduct, started, err) }()

	stock := 0
	if input.Stock != nil {
		stock = *input.Stock
	}
	price := domain.NormalizePrice(input.Price)
	if !price.IsPositive() {
		return domain.Product{}, domain.ErrNonPositivePrice
	}
	if stock < 0 {
		return domain.Product{}, domain.ErrNegativeStock
	}

	product, err = s.products.Create(ctx, domain.Product{
		Name:  input.Name,
		Price: price,
		Stock: stock,
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.WithField("product_id", product.ID).Info("product created")
	s.publish(ctx, domain.Event{
		Type:        domain.EventProductCreated,
		AggregateID: product.ID,
		Payload: map[string]any{
			"name":  product.Name,
			"price": product.Price.StringFixed(2),
			"stock": product.Stock,
		},
	})

	return product, nil
}

// CreateOrder создаёт заказ. Порядок проверок: клиент, непустой список товаров,
// разрешение всех ID товаров. Повтор одного ID считается недопустимым.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (order domain.Order, err error) {
	started := time.Now()
	defer func() { s.observe(opCreateOrder, started, err) }()

	customer, err := s.customers.Get(ctx, input.CustomerID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(input.ProductIDs) == 0 {
		return domain.Order{}, domain.ErrEmptyProductList
	}

	products, err := s.products.ListByIDs(ctx, input.ProductIDs)
	if err != nil {
		return domain.Order{}, fmt.Errorf("resolve products: %w", err)
	}
	if len(products) != len(input.ProductIDs) {
		return domain.Order{}, domain.ErrInvalidProductIDs
	}

	order, err = s.orders.Create(ctx, domain.Order{
		Customer:    customer,
		Products:    products,
		TotalAmount: domain.CalculateTotal(products),
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"customer_id": customer.ID,
		"total":       order.TotalAmount.StringFixed(2),
	}).Info("order created")
	s.publish(ctx, domain.Event{
		Type:        domain.EventOrderCreated,
		AggregateID: order.ID,
		Payload: map[string]any{
			"customer_id":  customer.ID,
			"product_ids":  order.ProductIDs(),
			"total_amount": order.TotalAmount.StringFixed(2),
		},
	})

	return order, nil
}

func customerCreatedEvent(customer domain.Customer) domain.Event {
	payload := map[string]any{
		"name":  customer.Name,
		"email": customer.Email,
	}
	if customer.Phone != nil {
		payload["phone"] = *customer.Phone
	}
	return domain.Event{
		Type:        domain.EventCustomerCreated,
		AggregateID: customer.ID,
		Payload:     payload,
		OccurredAt:  customer.CreatedAt,
	}
}

// customer извлекает поля клиента из дескриптора. Отсутствующие ключи дают
// пустые значения, которые затем отклоняет хранилище.
func (d CustomerDescriptor) customer() domain.Customer {
	customer := domain.Customer{
		Name:  descriptorString(d["name"]),
		Email: descriptorString(d["email"]),
	}
	if raw, ok := d["phone"]; ok && raw != nil {
		phone := descriptorString(raw)
		customer.Phone = &phone
	}
	return customer
}

func descriptorString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
