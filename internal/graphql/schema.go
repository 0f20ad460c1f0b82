package graphql

import (
	"context"
	"fmt"
	"time"

	gql "github.com/graphql-go/graphql"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/service/crm"
)

// Service — операции CRM, доступные через схему.
type Service interface {
	Hello() string
	CreateCustomer(ctx context.Context, input crm.CreateCustomerInput) (crm.CreateCustomerResult, error)
	BulkCreateCustomers(ctx context.Context, descriptors []crm.CustomerDescriptor) (crm.BulkCreateResult, error)
	CreateProduct(ctx context.Context, input crm.CreateProductInput) (domain.Product, error)
	CreateOrder(ctx context.Context, input crm.CreateOrderInput) (domain.Order, error)
	Customers(ctx context.Context) ([]domain.Customer, error)
	Products(ctx context.Context) ([]domain.Product, error)
	Orders(ctx context.Context) ([]domain.Order, error)
}

// Request — GraphQL-запрос в формате, общем для HTTP и gRPC.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	OperationName string                 `json:"operationName,omitempty"`
}

// Schema связывает операции сервиса с GraphQL-типами и выполняет запросы.
type Schema struct {
	schema gql.Schema
	logger *log.Entry
}

// NewSchema строит схему поверх сервиса.
func NewSchema(svc Service, logger *log.Entry) (*Schema, error) {
	if logger == nil {
		logger = log.WithField("component", "graphql")
	}

	r := &resolver{svc: svc}
	schema, err := gql.NewSchema(gql.SchemaConfig{
		Query:    r.queryType(),
		Mutation: r.mutationType(),
	})
	if err != nil {
		return nil, fmt.Errorf("build graphql schema: %w", err)
	}
	return &Schema{schema: schema, logger: logger}, nil
}

// Execute выполняет запрос. Ошибки разбора, валидации и резолверов возвращаются в Result.Errors.
func (s *Schema) Execute(ctx context.Context, req Request) *gql.Result {
	result := gql.Do(gql.Params{
		Schema:         s.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
	if result.HasErrors() {
		s.logger.WithFields(log.Fields{
			"operation": req.OperationName,
			"errors":    len(result.Errors),
		}).Debug("graphql request finished with errors")
	}
	return result
}

var customerType = gql.NewObject(gql.ObjectConfig{
	Name: "Customer",
	Fields: gql.Fields{
		"id":        &gql.Field{Type: gql.NewNonNull(gql.ID)},
		"name":      &gql.Field{Type: gql.NewNonNull(gql.String)},
		"email":     &gql.Field{Type: gql.NewNonNull(gql.String)},
		"phone":     &gql.Field{Type: gql.String},
		"createdAt": &gql.Field{Type: gql.NewNonNull(gql.String)},
	},
})

var productType = gql.NewObject(gql.ObjectConfig{
	Name: "Product",
	Fields: gql.Fields{
		"id":    &gql.Field{Type: gql.NewNonNull(gql.ID)},
		"name":  &gql.Field{Type: gql.NewNonNull(gql.String)},
		"price": &gql.Field{Type: gql.NewNonNull(Decimal)},
		"stock": &gql.Field{Type: gql.NewNonNull(gql.Int)},
	},
})

var orderType = gql.NewObject(gql.ObjectConfig{
	Name: "Order",
	Fields: gql.Fields{
		"id":          &gql.Field{Type: gql.NewNonNull(gql.ID)},
		"customer":    &gql.Field{Type: gql.NewNonNull(customerType)},
		"products":    &gql.Field{Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(productType)))},
		"totalAmount": &gql.Field{Type: gql.NewNonNull(Decimal)},
		"createdAt":   &gql.Field{Type: gql.NewNonNull(gql.String)},
	},
})

var createCustomerPayload = gql.NewObject(gql.ObjectConfig{
	Name: "CreateCustomer",
	Fields: gql.Fields{
		"customer": &gql.Field{Type: customerType},
		"message":  &gql.Field{Type: gql.String},
	},
})

var bulkCreateCustomersPayload = gql.NewObject(gql.ObjectConfig{
	Name: "BulkCreateCustomers",
	Fields: gql.Fields{
		"customers": &gql.Field{Type: gql.NewList(customerType)},
		"errors":    &gql.Field{Type: gql.NewList(gql.String)},
	},
})

var createProductPayload = gql.NewObject(gql.ObjectConfig{
	Name: "CreateProduct",
	Fields: gql.Fields{
		"product": &gql.Field{Type: productType},
	},
})

var createOrderPayload = gql.NewObject(gql.ObjectConfig{
	Name: "CreateOrder",
	Fields: gql.Fields{
		"order": &gql.Field{Type: orderType},
	},
})

// Проекции сущностей на поля схемы. Имена ключей совпадают с именами полей GraphQL.

func customerFields(c domain.Customer) map[string]interface{} {
	var phone interface{}
	if c.Phone != nil {
		phone = *c.Phone
	}
	return map[string]interface{}{
		"id":        c.ID,
		"name":      c.Name,
		"email":     c.Email,
		"phone":     phone,
		"createdAt": formatTime(c.CreatedAt),
	}
}

func productFields(p domain.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":    p.ID,
		"name":  p.Name,
		"price": p.Price,
		"stock": p.Stock,
	}
}

func orderFields(o domain.Order) map[string]interface{} {
	products := make([]interface{}, 0, len(o.Products))
	for _, p := range o.Products {
		products = append(products, productFields(p))
	}
	return map[string]interface{}{
		"id":          o.ID,
		"customer":    customerFields(o.Customer),
		"products":    products,
		"totalAmount": o.TotalAmount,
		"createdAt":   formatTime(o.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

type resolver struct {
	svc Service
}

func (r *resolver) queryType() *gql.Object {
	return gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"hello": &gql.Field{
				Type: gql.String,
				Resolve: func(gql.ResolveParams) (interface{}, error) {
					return r.svc.Hello(), nil
				},
			},
			"customers": &gql.Field{
				Type:    gql.NewList(customerType),
				Resolve: r.customers,
			},
			"products": &gql.Field{
				Type:    gql.NewList(productType),
				Resolve: r.products,
			},
			"orders": &gql.Field{
				Type:    gql.NewList(orderType),
				Resolve: r.orders,
			},
		},
	})
}

func (r *resolver) mutationType() *gql.Object {
	return gql.NewObject(gql.ObjectConfig{
		Name: "Mutation",
		Fields: gql.Fields{
			"createCustomer": &gql.Field{
				Type: createCustomerPayload,
				Args: gql.FieldConfigArgument{
					"name":  &gql.ArgumentConfig{Type: gql.NewNonNull(gql.String)},
					"email": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.String)},
					"phone": &gql.ArgumentConfig{Type: gql.String},
				},
				Resolve: r.createCustomer,
			},
			"bulkCreateCustomers": &gql.Field{
				Type: bulkCreateCustomersPayload,
				Args: gql.FieldConfigArgument{
					"customers": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.NewList(JSONString))},
				},
				Resolve: r.bulkCreateCustomers,
			},
			"createProduct": &gql.Field{
				Type: createProductPayload,
				Args: gql.FieldConfigArgument{
					"name":  &gql.ArgumentConfig{Type: gql.NewNonNull(gql.String)},
					"price": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.Float)},
					"stock": &gql.ArgumentConfig{Type: gql.Int, DefaultValue: 0},
				},
				Resolve: r.createProduct,
			},
			"createOrder": &gql.Field{
				Type: createOrderPayload,
				Args: gql.FieldConfigArgument{
					"customerId": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.ID)},
					"productIds": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.NewList(gql.ID))},
				},
				Resolve: r.createOrder,
			},
		},
	})
}

func (r *resolver) customers(p gql.ResolveParams) (interface{}, error) {
	customers, err := r.svc.Customers(p.Context)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(customers))
	for _, c := range customers {
		out = append(out, customerFields(c))
	}
	return out, nil
}

func (r *resolver) products(p gql.ResolveParams) (interface{}, error) {
	products, err := r.svc.Products(p.Context)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(products))
	for _, product := range products {
		out = append(out, productFields(product))
	}
	return out, nil
}

func (r *resolver) orders(p gql.ResolveParams) (interface{}, error) {
	orders, err := r.svc.Orders(p.Context)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderFields(o))
	}
	return out, nil
}

func (r *resolver) createCustomer(p gql.ResolveParams) (interface{}, error) {
	input := crm.CreateCustomerInput{
		Name:  stringArg(p.Args, "name"),
		Email: stringArg(p.Args, "email"),
	}
	if phone, ok := p.Args["phone"].(string); ok {
		input.Phone = &phone
	}

	res, err := r.svc.CreateCustomer(p.Context, input)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"customer": customerFields(res.Customer),
		"message":  res.Message,
	}, nil
}

func (r *resolver) bulkCreateCustomers(p gql.ResolveParams) (interface{}, error) {
	raw, _ := p.Args["customers"].([]interface{})
	descriptors := make([]crm.CustomerDescriptor, 0, len(raw))
	for _, item := range raw {
		// Не-объект (массив, строка, число, null) остаётся nil и станет ошибкой элемента.
		obj, _ := item.(map[string]interface{})
		descriptors = append(descriptors, crm.CustomerDescriptor(obj))
	}

	res, err := r.svc.BulkCreateCustomers(p.Context, descriptors)
	if err != nil {
		return nil, err
	}

	customers := make([]interface{}, 0, len(res.Customers))
	for _, c := range res.Customers {
		customers = append(customers, customerFields(c))
	}
	errs := make([]interface{}, 0, len(res.Errors))
	for _, e := range res.Errors {
		errs = append(errs, e)
	}
	return map[string]interface{}{
		"customers": customers,
		"errors":    errs,
	}, nil
}

func (r *resolver) createProduct(p gql.ResolveParams) (interface{}, error) {
	price, _ := p.Args["price"].(float64)
	input := crm.CreateProductInput{
		Name:  stringArg(p.Args, "name"),
		Price: decimal.NewFromFloat(price),
	}
	if stock, ok := p.Args["stock"].(int); ok {
		input.Stock = &stock
	}

	product, err := r.svc.CreateProduct(p.Context, input)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"product": productFields(product)}, nil
}

func (r *resolver) createOrder(p gql.ResolveParams) (interface{}, error) {
	raw, _ := p.Args["productIds"].([]interface{})
	ids := make([]string, 0, len(raw))
	for _, item := range raw {
		id, _ := item.(string)
		ids = append(ids, id)
	}

	order, err := r.svc.CreateOrder(p.Context, crm.CreateOrderInput{
		CustomerID: stringArg(p.Args, "customerId"),
		ProductIDs: ids,
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"order": orderFields(order)}, nil
}

func stringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return s
}
