package grpcsvc

import (
	"context"
	"encoding/json"
	"fmt"

	gql "github.com/graphql-go/graphql"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vladislavdragonenkov/crm/internal/graphql"
)

const (
	serviceName = "crm.v1.GraphQLService"
	// ExecuteFullMethod: полное имя unary-метода Execute.
	ExecuteFullMethod = "/" + serviceName + "/Execute"
)

// Поля сообщений запроса и ответа.
const (
	fieldQuery         = "query"
	fieldVariables     = "variables"
	fieldOperationName = "operationName"
)

// Executor выполняет GraphQL-запрос.
type Executor interface {
	Execute(ctx context.Context, req graphql.Request) *gql.Result
}

// GraphQLServer: серверная часть crm.v1.GraphQLService.
type GraphQLServer interface {
	Execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// GraphQLServiceDesc описывает сервис для grpc.Server.RegisterService.
// Сообщения — google.protobuf.Struct, поэтому сгенерированный код не нужен.
var GraphQLServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*GraphQLServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Execute",
			Handler:    executeHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "crm/v1/graphql.proto",
}

func executeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GraphQLServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ExecuteFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GraphQLServer).Execute(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterGraphQLServer регистрирует реализацию на gRPC-сервере.
func RegisterGraphQLServer(s grpc.ServiceRegistrar, srv GraphQLServer) {
	s.RegisterService(&GraphQLServiceDesc, srv)
}

// GraphQLClient: клиент crm.v1.GraphQLService.
type GraphQLClient struct {
	cc grpc.ClientConnInterface
}

func NewGraphQLClient(cc grpc.ClientConnInterface) *GraphQLClient {
	return &GraphQLClient{cc: cc}
}

// Execute отправляет запрос серверу.
func (c *GraphQLClient) Execute(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ExecuteFullMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GraphQLService передаёт GraphQL-запросы, пришедшие по gRPC, в общую схему.
type GraphQLService struct {
	executor Executor
	logger   *log.Entry
}

// NewGraphQLService конструирует сервис с зависимостями.
func NewGraphQLService(executor Executor, logger *log.Entry) *GraphQLService {
	if logger == nil {
		logger = log.New().WithField("component", "graphql-grpc")
	}
	return &GraphQLService{executor: executor, logger: logger}
}

// Execute выполняет запрос. Ошибки GraphQL возвращаются в поле errors ответа
// со статусом OK; InvalidArgument только для запроса без query.
func (s *GraphQLService) Execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	fields := req.GetFields()
	gqlReq := graphql.Request{
		Query:         fields[fieldQuery].GetStringValue(),
		OperationName: fields[fieldOperationName].GetStringValue(),
	}
	if gqlReq.Query == "" {
		return nil, status.Error(codes.InvalidArgument, "query is required")
	}
	if vars := fields[fieldVariables].GetStructValue(); vars != nil {
		gqlReq.Variables = vars.AsMap()
	}

	result := s.executor.Execute(ctx, gqlReq)

	resp, err := toStruct(result)
	if err != nil {
		s.logger.WithError(err).Error("failed to encode graphql result")
		return nil, status.Error(codes.Internal, "failed to encode result")
	}
	return resp, nil
}

// toStruct переводит результат в Struct через JSON, сохраняя форму ответа HTTP.
func toStruct(result *gql.Result) (*structpb.Struct, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("decode result struct: %w", err)
	}
	return out, nil
}

var _ GraphQLServer = (*GraphQLService)(nil)
