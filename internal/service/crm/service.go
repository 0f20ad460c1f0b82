package crm

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/metrics"
)

const (
	// HelloGreeting: ответ статического запроса hello.
	HelloGreeting = "Hello, GraphQL!"
	// CustomerCreatedMessage возвращается вместе с созданным клиентом.
	CustomerCreatedMessage = "Customer created successfully"
)

// Имена операций для метрик и логов.
const (
	opCreateCustomer      = "createCustomer"
	opBulkCreateCustomers = "bulkCreateCustomers"
	opCreateProduct       = "createProduct"
	opCreateOrder         = "createOrder"
	opListCustomers       = "customers"
	opListProducts        = "products"
	opListOrders          = "orders"
)

// CreateCustomerInput: аргументы мутации createCustomer.
type CreateCustomerInput struct {
	Name  string
	Email string
	Phone *string
}

// CreateCustomerResult: созданный клиент и сообщение для пользователя.
type CreateCustomerResult struct {
	Customer domain.Customer
	Message  string
}

// CustomerDescriptor: непроверенная схемой запись из пакетной мутации.
// Поля извлекаются по ключам name, email, phone. nil означает, что элемент не был JSON-объектом.
type CustomerDescriptor map[string]any

// BulkCreateResult содержит два независимых списка: созданные клиенты и ошибки.
// Позиционное соответствие входу не сохраняется.
type BulkCreateResult struct {
	Customers []domain.Customer
	Errors    []string
}

// CreateProductInput: аргументы мутации createProduct. Stock=nil означает 0.
type CreateProductInput struct {
	Name  string
	Price decimal.Decimal
	Stock *int
}

// CreateOrderInput: аргументы мутации createOrder.
type CreateOrderInput struct {
	CustomerID string
	ProductIDs []string
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithPublisher задаёт публикатор доменных событий.
func WithPublisher(publisher domain.EventPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithMetrics задаёт метрики операций.
func WithMetrics(m *metrics.CRMMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service реализует проверки и запись для мутаций и запросов CRM.
// Состояние между запросами не хранится: всё состояние находится в репозиториях.
type Service struct {
	customers domain.CustomerRepository
	products  domain.ProductRepository
	orders    domain.OrderRepository
	publisher domain.EventPublisher
	metrics   *metrics.CRMMetrics
	logger    *log.Entry
	now       func() time.Time
}

// NewService конструирует сервис с зависимостями.
func NewService(
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	orders domain.OrderRepository,
	options ...Option,
) *Service {
	s := &Service{
		customers: customers,
		products:  products,
		orders:    orders,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "crm-service")
	}
	if s.publisher == nil {
		s.publisher = domain.NoopPublisher{}
	}
	return s
}

// Hello возвращает статическое приветствие.
func (s *Service) Hello() string {
	return HelloGreeting
}

// observe фиксирует метрики и логирует неуспешный результат операции.
func (s *Service) observe(operation string, started time.Time, err error) {
	s.metrics.ObserveOperation(operation, err, time.Since(started))
	if err != nil {
		s.logger.WithError(err).WithField("operation", operation).Debug("operation rejected")
	}
}

// publish отправляет событие после фиксации записи. Ошибка не влияет на результат мутации.
func (s *Service) publish(ctx context.Context, event domain.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}
	err := s.publisher.Publish(ctx, event)
	s.metrics.RecordEventPublished(string(event.Type), err)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type":   event.Type,
			"aggregate_id": event.AggregateID,
		}).Warn("failed to publish domain event")
	}
}
