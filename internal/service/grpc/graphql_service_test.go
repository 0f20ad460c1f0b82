package grpcsvc_test

import (
	"context"
	"net"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vladislavdragonenkov/crm/internal/graphql"
	"github.com/vladislavdragonenkov/crm/internal/service/crm"
	grpcsvc "github.com/vladislavdragonenkov/crm/internal/service/grpc"
	"github.com/vladislavdragonenkov/crm/internal/storage/memory"
)

const bufSize = 1024 * 1024

func newTestServer(t *testing.T) *grpcsvc.GraphQLClient {
	t.Helper()

	listener := bufconn.Listen(bufSize)
	logger := loggerForTests()

	store := memory.NewStore()
	svc := crm.NewService(
		memory.NewCustomerRepository(store),
		memory.NewProductRepository(store),
		memory.NewOrderRepository(store),
		crm.WithLogger(logger.WithField("layer", "crm")),
	)
	schema, err := graphql.NewSchema(svc, logger)
	require.NoError(t, err)

	server := grpc.NewServer()
	grpcsvc.RegisterGraphQLServer(server, grpcsvc.NewGraphQLService(schema, logger))

	go func() {
		if err := server.Serve(listener); err != nil {
			logger.WithError(err).Error("grpc serve failed")
		}
	}()

	dialer := func(context.Context, string) (net.Conn, error) {
		return listener.Dial()
	}

	//nolint:staticcheck // grpc.Dial is required for bufconn testing
	conn, err := grpc.Dial("bufnet", grpc.WithContextDialer(dialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		server.Stop()
	})

	return grpcsvc.NewGraphQLClient(conn)
}

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: false, DisableTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)
	return logger.WithField("component", "test")
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestGraphQLService_Hello(t *testing.T) {
	client := newTestServer(t)

	resp, err := client.Execute(context.Background(), mustStruct(t, map[string]interface{}{"query": "{ hello }"}))
	require.NoError(t, err)

	data := resp.GetFields()["data"].GetStructValue()
	require.NotNil(t, data)
	require.Equal(t, "Hello, GraphQL!", data.GetFields()["hello"].GetStringValue())
	_, hasErrors := resp.GetFields()["errors"]
	require.False(t, hasErrors)
}

func TestGraphQLService_MutationWithVariables(t *testing.T) {
	client := newTestServer(t)
	ctx := context.Background()

	resp, err := client.Execute(ctx, mustStruct(t, map[string]interface{}{
		"query": `mutation C($name: String!, $email: String!) {
			createCustomer(name: $name, email: $email) { customer { id email } message }
		}`,
		"operationName": "C",
		"variables": map[string]interface{}{
			"name":  "Alice",
			"email": "alice@example.com",
		},
	}))
	require.NoError(t, err)

	payload := resp.GetFields()["data"].GetStructValue().GetFields()["createCustomer"].GetStructValue()
	require.Equal(t, "Customer created successfully", payload.GetFields()["message"].GetStringValue())
	customer := payload.GetFields()["customer"].GetStructValue()
	require.Equal(t, "alice@example.com", customer.GetFields()["email"].GetStringValue())
	require.NotEmpty(t, customer.GetFields()["id"].GetStringValue())

	// Ошибка мутации приходит в поле errors, а не статусом gRPC.
	resp, err = client.Execute(ctx, mustStruct(t, map[string]interface{}{
		"query": `mutation { createCustomer(name: "Bob", email: "alice@example.com") { message } }`,
	}))
	require.NoError(t, err)
	errs := resp.GetFields()["errors"].GetListValue().GetValues()
	require.Len(t, errs, 1)
	require.Equal(t, "Email already exists", errs[0].GetStructValue().GetFields()["message"].GetStringValue())
}

func TestGraphQLService_EmptyQuery(t *testing.T) {
	client := newTestServer(t)

	_, err := client.Execute(context.Background(), mustStruct(t, map[string]interface{}{"query": ""}))
	require.Error(t, err)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Execute(context.Background(), &structpb.Struct{})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestNewGraphQLService_NilLogger(t *testing.T) {
	svc := grpcsvc.NewGraphQLService(nil, nil)
	require.NotNil(t, svc)

	_, err := svc.Execute(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}
